package model

// Command is a how-to record: what it does, where it applies and the literal
// command line to run.
type Command struct {
	ID          int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	HowTo       string `json:"howTo" gorm:"size:250;not null;check:chk_commands_how_to,length(how_to) BETWEEN 1 AND 250"`
	Platform    string `json:"platform" gorm:"size:250;not null;check:chk_commands_platform,length(platform) BETWEEN 1 AND 250"`
	CommandLine string `json:"commandLine" gorm:"size:250;not null;check:chk_commands_command_line,length(command_line) BETWEEN 1 AND 250"`
}

// TableName pins the table name regardless of gorm's naming strategy.
func (Command) TableName() string {
	return "commands"
}
