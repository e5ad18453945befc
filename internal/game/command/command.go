// Package command parses player input lines into game commands.
package command

import "strings"

// Kind identifies which game command a line of input maps to.
type Kind int

const (
	// KindUnknown is any line that matches no recognized command.
	KindUnknown Kind = iota
	// KindHelp prints the command summary.
	KindHelp
	// KindSay speaks to the room.
	KindSay
	// KindLook describes the current room.
	KindLook
	// KindGo moves through an exit.
	KindGo
	// KindAttack targets another player.
	KindAttack
)

// Command is a parsed input line.
type Command struct {
	// Kind is the recognized command, or KindUnknown.
	Kind Kind
	// Arg is the text after the verb and separating space. Interior spacing
	// is preserved so say keeps the message exactly as typed.
	Arg string
	// Raw is the full input line, kept for unknown-command echoes.
	Raw string
}

// Parse maps a line of input to a Command. Verbs are case-sensitive: help
// and look match the whole line exactly, say/go/attack match a verb, a
// single space, and an argument. A bare "say" with no argument is unknown.
//
// Precondition: line should already be trimmed of surrounding whitespace.
func Parse(line string) Command {
	switch line {
	case "help":
		return Command{Kind: KindHelp, Raw: line}
	case "look":
		return Command{Kind: KindLook, Raw: line}
	}

	verb, rest, found := strings.Cut(line, " ")
	if found {
		switch verb {
		case "say":
			return Command{Kind: KindSay, Arg: rest, Raw: line}
		case "go":
			return Command{Kind: KindGo, Arg: rest, Raw: line}
		case "attack":
			return Command{Kind: KindAttack, Arg: rest, Raw: line}
		}
	}

	return Command{Kind: KindUnknown, Raw: line}
}
