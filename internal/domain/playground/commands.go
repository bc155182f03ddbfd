package playground

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Command is a keyboard-level action a host can forward
type Command string

const (
	CommandRun           Command = "run"
	CommandSave          Command = "save"
	CommandToggleLayout  Command = "toggle-layout"
	CommandToggleTheme   Command = "toggle-theme"
	CommandToggleConsole Command = "toggle-console"
	CommandReset         Command = "reset"
	CommandClearConsole  Command = "clear-console"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrUnknownShortcut = errors.New("unknown shortcut")
)

var commands = map[Command]bool{
	CommandRun:           true,
	CommandSave:          true,
	CommandToggleLayout:  true,
	CommandToggleTheme:   true,
	CommandToggleConsole: true,
	CommandReset:         true,
	CommandClearConsole:  true,
}

// shortcuts maps a normalized chord without the primary modifier to a
// command. Every chord requires Ctrl or Cmd.
var shortcuts = map[string]Command{
	"enter":   CommandRun,
	"s":       CommandSave,
	"shift+l": CommandToggleLayout,
	"shift+t": CommandToggleTheme,
	"`":       CommandToggleConsole,
}

var keyAliases = map[string]string{
	"return":    "enter",
	"backquote": "`",
	"backtick":  "`",
}

// ParseCommand validates a command name
func ParseCommand(s string) (Command, error) {
	c := Command(strings.ToLower(strings.TrimSpace(s)))
	if !commands[c] {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}
	return c, nil
}

// ParseShortcut maps a chord such as "Ctrl+Shift+L" or "cmd+enter" to its
// command.
func ParseShortcut(chord string) (Command, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(chord)), "+")
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %q", ErrUnknownShortcut, chord)
	}

	key := strings.TrimSpace(parts[len(parts)-1])
	if alias, ok := keyAliases[key]; ok {
		key = alias
	}

	primary := false
	var mods []string
	for _, p := range parts[:len(parts)-1] {
		switch strings.TrimSpace(p) {
		case "ctrl", "control", "cmd", "meta", "command":
			primary = true
		case "shift":
			mods = append(mods, "shift")
		default:
			return "", fmt.Errorf("%w: %q", ErrUnknownShortcut, chord)
		}
	}
	if !primary || key == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownShortcut, chord)
	}

	sort.Strings(mods)
	normalized := strings.Join(append(mods, key), "+")
	cmd, ok := shortcuts[normalized]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownShortcut, chord)
	}
	return cmd, nil
}
