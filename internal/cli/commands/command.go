package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"NoteKeeper/internal/config"
)

// ErrUsage is returned by a command when arguments are invalid and usage should be shown.
var ErrUsage = errors.New("usage")

// Command represents a CLI subcommand.
type Command interface {
	// Name returns the command name as typed by the user, e.g. "login".
	Name() string
	// Description is a short human-readable description shown in help.
	Description() string
	// Usage returns the exact usage string, e.g. "login <email> <password>".
	Usage() string
	// Run executes the command with provided args (without the command name).
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

// Group: раздел справки, в котором показывается команда.
type Group string

const (
	GroupAccount Group = "Account"
	GroupItems   Group = "Items"
	GroupOther   Group = "Other"
)

// порядок разделов в справке
var groupOrder = []Group{GroupAccount, GroupItems, GroupOther}

type entry struct {
	cmd   Command
	group Group
}

var registry = map[string]entry{}

// Out: общий writer для вывода CLI, в тестах подменяется.
var Out io.Writer = os.Stdout

// Register добавляет команды в раздел справки group. Вызывается из init() файлов команд.
func Register(group Group, cmds ...Command) {
	for _, c := range cmds {
		registry[c.Name()] = entry{cmd: c, group: group}
	}
}

// RegisterCmd добавляет команду без раздела.
func RegisterCmd(cmd Command) { Register(GroupOther, cmd) }

// Get returns a command by name.
func Get(name string) (Command, bool) {
	e, ok := registry[name]
	return e.cmd, ok
}

// List returns commands of the group sorted by name.
func List(group Group) []Command {
	var list []Command
	for _, e := range registry {
		if e.group == group {
			list = append(list, e.cmd)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// FormatGlobalUsage builds the help text, one section per group.
func FormatGlobalUsage() string {
	var b strings.Builder
	b.WriteString("NoteKeeper CLI: folders, notes, images and PDFs on a NoteKeeper server\n\n")
	b.WriteString("Usage:\n  nkcli [--base-url host:port] [--https] [--token-file path] <command> [args]\n")
	for _, g := range groupOrder {
		cmds := List(g)
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s commands:\n", g)
		for _, c := range cmds {
			fmt.Fprintf(&b, "  %-36s %s\n", c.Usage(), c.Description())
		}
	}
	b.WriteString("\nIds come from `items`; parentId puts an item into a folder.\n")
	return b.String()
}
