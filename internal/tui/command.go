package tui

import "strings"

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	name, args, _ := strings.Cut(input, " ")
	return Command{Name: strings.ToLower(name), Args: strings.TrimSpace(args)}
}

// canonical maps aliases to command names.
var canonical = map[string]string{
	"q":      "quit",
	"quit":   "quit",
	"h":      "help",
	"help":   "help",
	"o":      "open",
	"open":   "open",
	"f":      "filter",
	"filter": "filter",
	"b":      "back",
	"back":   "back",
	"retry":  "retry",
	"resend": "retry",
}

// Canonical returns the command's full name, or "" if it is unknown.
func (c Command) Canonical() string {
	return canonical[c.Name]
}
