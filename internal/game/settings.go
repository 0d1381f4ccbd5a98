package game

import "github.com/sketchswap/server/pkg/config"

// Settings are the per-room knobs a host can pick at creation time.
// Seconds fields ride the wire under the names the client already uses.
type Settings struct {
	MaxRounds       int `json:"maxRounds"`
	DrawingSeconds  int `json:"drawingTime"`
	GuessingSeconds int `json:"guessingTime"`
}

// SanitizeSettings clamps requested settings into the configured bounds.
// Missing or nonsensical values fall back to defaults instead of failing
// the create request.
func SanitizeSettings(s Settings, g config.GameConfig) Settings {
	return Settings{
		MaxRounds:       clamp(s.MaxRounds, g.DefaultRounds, g.MinRounds, g.MaxRounds),
		DrawingSeconds:  clamp(s.DrawingSeconds, g.DefaultDrawingSeconds, g.MinDrawingSeconds, g.MaxDrawingSeconds),
		GuessingSeconds: clamp(s.GuessingSeconds, g.DefaultGuessingSeconds, g.MinGuessingSeconds, g.MaxGuessingSeconds),
	}
}

func clamp(v, def, min, max int) int {
	if v <= 0 {
		v = def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
