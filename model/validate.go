package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxFieldLength bounds every text field, counted in characters.
const MaxFieldLength = 250

// FieldError describes one field that failed validation.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError collects every failing field of a Command.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Reason
	}
	return "invalid command: " + strings.Join(parts, "; ")
}

// Validate checks that the text fields are present and within bounds. It
// returns nil or a *ValidationError.
func Validate(c Command) error {
	var fields []FieldError
	check := func(name, value string) {
		switch n := utf8.RuneCountInString(value); {
		case strings.TrimSpace(value) == "":
			fields = append(fields, FieldError{Field: name, Reason: "is required"})
		case n > MaxFieldLength:
			fields = append(fields, FieldError{
				Field:  name,
				Reason: fmt.Sprintf("must be at most %d characters, got %d", MaxFieldLength, n),
			})
		}
	}

	check("howTo", c.HowTo)
	check("platform", c.Platform)
	check("commandLine", c.CommandLine)

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
