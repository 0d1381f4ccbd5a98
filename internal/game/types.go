package game

import "encoding/json"

// WSMessage is the envelope for every websocket frame in both directions.
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbound message types.
const (
	TypeToggleReady     = "toggle_ready"
	TypeStartGame       = "start_game"
	TypeSubmitDrawing   = "submit_drawing"
	TypeSubmitGuess     = "submit_guess"
	TypeContinueDrawing = "continue_drawing"
	TypeChat            = "chat"
	TypeLeaveGame       = "leave_game"
)

// Outbound message types.
const (
	TypeGameState    = "game_state"
	TypeTimerUpdate  = "timer_update"
	TypePlayerJoined = "player_joined"
	TypePlayerLeft   = "player_left"
	TypeCorrectGuess = "correct_guess"
	TypeCloseGuess   = "close_guess"
	TypeChatMsg      = "chat_msg"
	TypeError        = "error"
)

// Drawing is one player's picture for the active round. The player
// assigned to guess it is derived from rotation, not stored here.
type Drawing struct {
	PlayerID     string `json:"playerId"`
	OriginalWord string `json:"originalWord"`
	ImageData    string `json:"imageData"`
	CurrentGuess string `json:"currentGuess,omitempty"`
	GuessedBy    string `json:"guessedBy,omitempty"`
	Completed    bool   `json:"completed"`
}

type PlayerSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Ready bool   `json:"isReady"`
}

// StateSnapshot is the authoritative room state broadcast after every
// state-changing operation.
type StateSnapshot struct {
	RoomID        string              `json:"roomId"`
	HostID        string              `json:"hostId"`
	Phase         Phase               `json:"phase"`
	CurrentRound  int                 `json:"currentRound"`
	TotalRounds   int                 `json:"totalRounds"`
	TimeRemaining int                 `json:"timeRemaining"`
	Players       []PlayerSummary     `json:"players"`
	Drawings      []*Drawing          `json:"drawings"`
	CurrentWords  map[string]string   `json:"currentWords"`
	Assignments   map[string]*Drawing `json:"currentDrawingAssignments"`
	Settings      Settings            `json:"settings"`
}

type TimerUpdatePayload struct {
	TimeRemaining int `json:"timeRemaining"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PlayerEventPayload struct {
	PlayerID string          `json:"playerId"`
	Players  []PlayerSummary `json:"players"`
}

type CorrectGuessPayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Word       string `json:"word"`
}

type CloseGuessPayload struct {
	PlayerID     string `json:"playerId"`
	EditDistance int    `json:"editDistance"`
	Guess        string `json:"guess"`
}

type ChatPayload struct {
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
}

type submitDrawingPayload struct {
	ImageData string `json:"imageData"`
}

type submitGuessPayload struct {
	DrawingID string `json:"drawingId"`
	Guess     string `json:"guess"`
}

type continueDrawingPayload struct {
	DrawingID string `json:"drawingId"`
}

type chatInPayload struct {
	Message string `json:"message"`
}
