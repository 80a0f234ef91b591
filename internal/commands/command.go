// internal/commands/command.go

// Package commands accepts operator directives for the running agent. Lines
// arrive over TCP or from a followed directives file and are parsed into
// Commands that the tick thread applies.
package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xkilldash9x/freddy/internal/goals"
)

var (
	ErrEmptyCommand   = errors.New("empty command")
	ErrUnknownCommand = errors.New("unknown command")
)

// Kind identifies a command.
type Kind int

const (
	KindGoal Kind = iota
	KindStatus
	KindCancel
	KindClear
	KindChat
)

func (k Kind) String() string {
	switch k {
	case KindGoal:
		return "GOAL"
	case KindStatus:
		return "STATUS"
	case KindCancel:
		return "CANCEL"
	case KindClear:
		return "CLEAR"
	case KindChat:
		return "CHAT"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Command is one parsed directive. Name and Goal are only set for KindGoal,
// Player and Text only for KindChat.
type Command struct {
	Kind   Kind
	Name   string
	Goal   goals.Type
	Player string
	Text   string
}

// Description is the goal description used when the command creates a goal.
func (c Command) Description() string {
	return "Goal: " + c.Name
}

func (c Command) String() string {
	switch c.Kind {
	case KindGoal:
		return fmt.Sprintf("GOAL:%s (%s)", c.Name, c.Goal)
	case KindChat:
		return fmt.Sprintf("CHAT:%s:%s", c.Player, c.Text)
	default:
		return c.Kind.String()
	}
}

// Parse reads one line. The keyword is case-insensitive. Goal names that
// match no goal type resolve to ExploreArea. Chat lines read
// CHAT:<player>:<message>.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, ErrEmptyCommand
	}

	keyword, rest, hasArg := strings.Cut(line, ":")
	keyword = strings.ToUpper(strings.TrimSpace(keyword))
	rest = strings.TrimSpace(rest)

	switch keyword {
	case "GOAL":
		if !hasArg || rest == "" {
			return Command{}, fmt.Errorf("%w: GOAL requires a name", ErrUnknownCommand)
		}
		return Command{Kind: KindGoal, Name: rest, Goal: goals.ResolveType(rest)}, nil
	case "STATUS":
		return Command{Kind: KindStatus}, nil
	case "CANCEL":
		return Command{Kind: KindCancel}, nil
	case "CLEAR":
		return Command{Kind: KindClear}, nil
	case "CHAT":
		player, text, ok := strings.Cut(rest, ":")
		player, text = strings.TrimSpace(player), strings.TrimSpace(text)
		if !ok || player == "" || text == "" {
			return Command{}, fmt.Errorf("%w: CHAT requires a player and a message", ErrUnknownCommand)
		}
		return Command{Kind: KindChat, Player: player, Text: text}, nil
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
	}
}

// Dispatcher receives parsed commands. Dispatch must not block; it reports
// whether the command was accepted. Status must be safe to call from any
// goroutine.
type Dispatcher interface {
	Dispatch(cmd Command) bool
	Status() string
}
