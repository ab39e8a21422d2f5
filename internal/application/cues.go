package application

type Cue string

const (
	CueListenStart Cue = "listen_start"
	CueListenStop  Cue = "listen_stop"
	CueCorrect     Cue = "correct"
	CueIncorrect   Cue = "incorrect"
)

// CuePlayer renders short sound effects for phase transitions. Play must return
// immediately.
type CuePlayer interface {
	Play(cue Cue)
}

type NoopCues struct{}

func (NoopCues) Play(Cue) {}
