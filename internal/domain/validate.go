package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxNameLength bounds room names and nicknames, in runes
	MaxNameLength = 20

	// MaxAnswerLength bounds submitted clues, in runes
	MaxAnswerLength = 100
)

// nameAlphabet is the allow-list for room names and nicknames: ASCII
// alphanumerics, underscore and hyphen, plus the Japanese scripts the
// game's audience uses (hiragana, katakana with the prolonged sound mark,
// CJK ideographs and full-width alphanumerics).
var nameAlphabet = regexp.MustCompile(`^[0-9A-Za-z_\-` +
	`\x{3041}-\x{3096}` + // hiragana
	`\x{30A0}-\x{30FF}` + // katakana, ー
	`\x{4E00}-\x{9FFF}` + // CJK unified ideographs
	`\x{FF10}-\x{FF19}\x{FF21}-\x{FF3A}\x{FF41}-\x{FF5A}` + // full-width 0-9 A-Z a-z
	`]+$`)

// ValidateRoomName checks a raw room name against the allow-list
func ValidateRoomName(name string) error {
	if !validName(name) {
		return ErrInvalidRoomName
	}
	return nil
}

// ValidateNickname checks a raw nickname against the allow-list
func ValidateNickname(nickname string) error {
	if !validName(nickname) {
		return ErrInvalidNickname
	}
	return nil
}

func validName(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= 1 && n <= MaxNameLength && nameAlphabet.MatchString(s)
}

// ValidateAnswer checks raw clue text before sanitization
func ValidateAnswer(answer string) error {
	n := utf8.RuneCountInString(answer)
	if n < 1 || n > MaxAnswerLength {
		return ErrInvalidAnswer
	}
	return nil
}

// Sanitize strips markup-capable and control characters from free text
// before it is stored or echoed to other clients
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '<' || r == '>' || r < 0x20 || r == 0x7F {
			return -1
		}
		return r
	}, s)
}
