// Package runner fills in {{param}} placeholders in a command line and runs
// it through the shell.
package runner

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"sync"
)

var paramRegex = regexp.MustCompile(`\{\{(\w+)\}\}`)

// ExtractParams returns the distinct {{param}} names in commandLine, in order
// of first appearance.
func ExtractParams(commandLine string) []string {
	seen := make(map[string]bool)
	var params []string
	for _, m := range paramRegex.FindAllStringSubmatch(commandLine, -1) {
		if name := m[1]; !seen[name] {
			seen[name] = true
			params = append(params, name)
		}
	}
	return params
}

// SubstituteParams replaces each {{name}} that has a value. Unknown
// placeholders are left as they are.
func SubstituteParams(commandLine string, values map[string]string) string {
	return paramRegex.ReplaceAllStringFunc(commandLine, func(m string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(m, "{{"), "}}")
		if v, ok := values[name]; ok {
			return v
		}
		return m
	})
}

// Line is one unit of streamed output. The final Line has Done set, and Err
// set when the command failed to start or exited non-zero.
type Line struct {
	Text   string
	Stderr bool
	Done   bool
	Err    string
}

// Run executes commandLine with sh -c and streams its output to out, which
// is closed on return. Cancelling ctx kills the process.
func Run(ctx context.Context, commandLine string, out chan<- Line) {
	defer close(out)

	c := exec.CommandContext(ctx, "sh", "-c", commandLine)

	stdout, err := c.StdoutPipe()
	if err != nil {
		out <- Line{Done: true, Err: err.Error()}
		return
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		out <- Line{Done: true, Err: err.Error()}
		return
	}
	if err := c.Start(); err != nil {
		out <- Line{Done: true, Err: err.Error()}
		return
	}

	var wg sync.WaitGroup
	stream := func(r io.Reader, isErr bool) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			out <- Line{Text: scanner.Text(), Stderr: isErr}
		}
	}
	wg.Add(2)
	go stream(stdout, false)
	go stream(stderr, true)
	// pipes must be drained before Wait closes them
	wg.Wait()

	if err := c.Wait(); err != nil {
		out <- Line{Done: true, Err: err.Error()}
		return
	}
	out <- Line{Done: true}
}
