package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind is the type of entity a Discord mention refers to.
type Kind int

const (
	KindAny Kind = iota
	KindUser
	KindChannel
	KindRole
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "User"
	case KindChannel:
		return "Channel"
	case KindRole:
		return "Role"
	default:
		return "Any"
	}
}

var ErrNotMention = errors.New("did not match a discord id")

var mentionPattern = regexp.MustCompile(`<(@!?|#|@&)([0-9]{17,24})>`)

// DiscordID extracts the snowflake from a user (<@id>, <@!id>), channel (<#id>)
// or role (<@&id>) mention. When expected is not KindAny the mention must be
// of that kind.
func DiscordID(s string, expected Kind) (string, Kind, error) {
	m := mentionPattern.FindStringSubmatch(s)
	if m == nil {
		return "", KindAny, ErrNotMention
	}

	var kind Kind
	switch m[1] {
	case "@", "@!":
		kind = KindUser
	case "#":
		kind = KindChannel
	case "@&":
		kind = KindRole
	}

	if expected != KindAny && expected != kind {
		return "", kind, fmt.Errorf("mismatched type, expected: %s, got: %s", expected, kind)
	}
	return m[2], kind, nil
}

var customEmojiPattern = regexp.MustCompile(`<(a)?:([^:>]+):([0-9]{17,24})>`)

// Emoji is a guild custom emoji reference, e.g. <:pepe:887736509292228668>.
type Emoji struct {
	Animated bool
	Name     string
	ID       string
}

// CustomEmoji parses a custom emoji reference. ok is false for unicode emoji
// and plain text.
func CustomEmoji(s string) (Emoji, bool) {
	m := customEmojiPattern.FindStringSubmatch(s)
	if m == nil {
		return Emoji{}, false
	}
	return Emoji{Animated: m[1] != "", Name: m[2], ID: m[3]}, true
}

// APIName is the name:id form the gateway uses for custom emoji reactions.
func (e Emoji) APIName() string {
	return e.Name + ":" + e.ID
}

// ReactionName turns a configured glyph into the form reactions carry:
// name:id for a custom emoji reference, the trimmed input otherwise.
func ReactionName(s string) string {
	s = strings.TrimSpace(s)
	if e, ok := CustomEmoji(s); ok {
		return e.APIName()
	}
	return s
}
