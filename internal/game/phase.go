package game

// Phase is the lifecycle stage of a room. Transitions only ever run
// forward through drawing/guessing/results cycles until finished.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseDrawing  Phase = "drawing"
	PhaseGuessing Phase = "guessing"
	PhaseResults  Phase = "results"
	PhaseFinished Phase = "finished"
)
