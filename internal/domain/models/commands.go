package models

import "strings"

// CommandType enumerates the chat queries the bot answers.
type CommandType string

const (
	CommandBatches CommandType = "batches"
	CommandStock   CommandType = "stock"
	CommandReport  CommandType = "report"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

// Command represents a parsed instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// Target joins the arguments back into a batch reference, e.g. "November order".
func (c Command) Target() string {
	return strings.Join(c.Args, " ")
}

// ParseCommand derives a Command from free-form text. Arguments keep their case.
func ParseCommand(message string) Command {
	tokens := strings.Fields(strings.TrimSpace(message))
	cmd := Command{Raw: message, Type: CommandUnknown}
	if len(tokens) == 0 {
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	switch CommandType(head) {
	case CommandBatches, CommandStock, CommandReport, CommandHelp:
		cmd.Type = CommandType(head)
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
