package domain

import (
	"strings"
	"unicode"
)

const (
	TokenRepeat  = "repeat"
	TokenUnclear = "unclear"
)

var (
	yesCues    = []string{"yes", "yeah", "yep"}
	noCues     = []string{"no", "nope"}
	repeatCues = []string{"repeat", "again"}
)

// IsRepeat reports whether a token asks for the question to be spoken again.
func IsRepeat(token string) bool {
	token = NormalizeToken(token)
	for _, cue := range repeatCues {
		if strings.Contains(token, cue) {
			return true
		}
	}
	return false
}

// Classify maps an interpreted token onto one of the question's answers.
// The second return value is false when the token is not recognized.
func Classify(q Question, token string) (string, bool) {
	token = NormalizeToken(token)
	if token == "" || token == TokenUnclear {
		return "", false
	}
	switch q.Kind {
	case KindBinary:
		if containsAny(token, yesCues) {
			return AnswerYes, true
		}
		if containsAny(token, noCues) {
			return AnswerNo, true
		}
	case KindChoice:
		options := q.NormalizedOptions()
		for _, opt := range options {
			if strings.Contains(token, opt) {
				return opt, true
			}
		}
		for _, word := range words(token) {
			for i, letter := range Letters {
				if word == letter && i < len(options) {
					return options[i], true
				}
			}
		}
	}
	return "", false
}

// IsCorrect reports whether a classified answer equals the canonical answer.
func IsCorrect(q Question, answer string) bool {
	return NormalizeToken(answer) == NormalizeToken(q.Correct)
}

func containsAny(token string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(token, cue) {
			return true
		}
	}
	return false
}

func words(token string) []string {
	return strings.FieldsFunc(token, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
