package domain

type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseAwaitingStart  Phase = "awaiting_start"
	PhaseSpeakingPrompt Phase = "speaking_prompt"
	PhaseListening      Phase = "listening"
	PhaseInterpreting   Phase = "interpreting"
	PhaseFeedback       Phase = "feedback"
	PhaseComplete       Phase = "complete"
)

// Verdict is the tri-state correctness of the most recent answer.
type Verdict string

const (
	VerdictUnknown   Verdict = "unknown"
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
)

// Snapshot is the passive state handed to presentation layers.
type Snapshot struct {
	Phase            Phase    `json:"phase"`
	SessionID        string   `json:"session_id,omitempty"`
	Index            int      `json:"index"`
	Total            int      `json:"total"`
	Prompt           string   `json:"prompt,omitempty"`
	Kind             Kind     `json:"kind,omitempty"`
	Options          []string `json:"options,omitempty"`
	Explanation      string   `json:"explanation,omitempty"`
	Score            int      `json:"score"`
	Amplitude        float64  `json:"amplitude"`
	RemainingSeconds int      `json:"remaining_seconds"`
	Recording        bool     `json:"recording"`
	LastHeard        string   `json:"last_heard,omitempty"`
	Verdict          Verdict  `json:"verdict"`
	Attempts         int      `json:"attempts"`
	Message          string   `json:"message,omitempty"`
}
