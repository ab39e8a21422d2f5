package ui

import "voice-quiz/internal/domain"

// Action is what a key press asks the quiz to do.
type Action int

const (
	ActionNone Action = iota
	ActionStart
	ActionRepeat
	ActionListen
	ActionStop
	ActionAnswer
	ActionReset
	ActionQuit
)

// actionForKey maps a key to an action given the current snapshot. Answer
// keys only apply while the quiz is listening and must match the question
// kind; the returned token is what gets submitted.
func actionForKey(key string, snap domain.Snapshot) (Action, string) {
	switch key {
	case "q", "ctrl+c":
		return ActionQuit, ""
	case "s":
		return ActionStart, ""
	case "r":
		return ActionRepeat, ""
	case "l":
		return ActionListen, ""
	case " ":
		return ActionStop, ""
	case "x":
		return ActionReset, ""
	}

	if snap.Phase != domain.PhaseListening {
		return ActionNone, ""
	}

	switch snap.Kind {
	case domain.KindBinary:
		switch key {
		case "y":
			return ActionAnswer, domain.AnswerYes
		case "n":
			return ActionAnswer, domain.AnswerNo
		}
	case domain.KindChoice:
		idx := -1
		switch key {
		case "1", "a":
			idx = 0
		case "2", "b":
			idx = 1
		case "3", "c":
			idx = 2
		}
		if idx >= 0 && idx < len(snap.Options) {
			return ActionAnswer, domain.NormalizeToken(snap.Options[idx])
		}
	}
	return ActionNone, ""
}
