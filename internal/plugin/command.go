package plugin

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sender receives command output.
type Sender interface {
	// Name is the player name, or "" for the console.
	Name() string
	SendMessage(msg string)
	SendError(msg string)
}

// Command usages.
const (
	UsageParse = "/papi parse <player|me|--null> <text>"
	UsageList  = "/papi list"
)

// Command runs /papi with args. It reports false when args do not match a
// usage, after telling the sender.
func (p *Plugin) Command(ctx context.Context, sender Sender, args []string) bool {
	if len(args) == 0 {
		sender.SendError("Usage: " + UsageParse + " | " + UsageList)
		return false
	}

	switch args[0] {
	case "parse":
		if len(args) != 3 {
			sender.SendError(fmt.Sprintf("Invalid number of arguments! Expected 3, got %d.", len(args)))
			return false
		}
		target := args[1]
		if target == "me" {
			if sender.Name() == "" {
				sender.SendError("You must be a player to use 'me' as a target!")
				return true
			}
			target = sender.Name()
		}
		out, err := p.Parse(ctx, target, args[2])
		if errors.Is(err, ErrUnknownPlayer) {
			sender.SendError(fmt.Sprintf("Could not find player %s!", target))
			return true
		}
		sender.SendMessage(out)
		return true

	case "list":
		sender.SendMessage("Available placeholders:")
		for _, id := range p.List() {
			sender.SendMessage("- " + id)
		}
		return true

	default:
		sender.SendError(fmt.Sprintf("Unknown subcommand %q. Usage: %s | %s", args[0], UsageParse, UsageList))
		return false
	}
}

// BufferSender collects command output in memory.
type BufferSender struct {
	Player   string
	Messages []string
	Errors   []string
}

func (b *BufferSender) Name() string           { return strings.TrimSpace(b.Player) }
func (b *BufferSender) SendMessage(msg string) { b.Messages = append(b.Messages, msg) }
func (b *BufferSender) SendError(msg string)   { b.Errors = append(b.Errors, msg) }
