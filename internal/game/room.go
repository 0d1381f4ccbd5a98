package game

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/gofiber/contrib/websocket"

	"github.com/sketchswap/server/logger"
	"github.com/sketchswap/server/pkg/utils"
)

// guessEndGrace absorbs near-simultaneous guess submissions before an
// early phase end actually executes. The callback re-checks the phase,
// so a timer that won the race makes the delayed end a no-op.
const guessEndGrace = 100 * time.Millisecond

// closeGuessDistance is the edit distance at or below which an incorrect
// guess earns the guesser a private "so close" hint.
const closeGuessDistance = 2

// Room owns one game session: the roster, the phase machine, the active
// round's words and drawings, and the countdown timer. Every mutation
// happens under Mu; phase-ending paths all go through completePhase so
// a racing timer and player action can never double-advance.
type Room struct {
	ID       string
	HostID   string
	Phase    Phase
	Round    int
	Settings Settings

	Players map[string]*Player
	order   []string // join order; defines rotation and is stable within a round

	Remaining   int
	Drawings    map[string]*Drawing // drawer id -> drawing
	Words       map[string]string   // drawer id -> secret word
	Assignments map[string]*Drawing // guesser id -> drawing to guess

	usedWords        map[string]map[string]bool
	guessSubmissions map[string]bool

	supply         *Supply
	resultsSeconds int

	Mu        sync.RWMutex
	timerStop chan struct{} // non-nil while a countdown is outstanding
}

func NewRoom(id string, host *Player, settings Settings, supply *Supply, resultsSeconds int) *Room {
	r := &Room{
		ID:               id,
		HostID:           host.ID,
		Phase:            PhaseLobby,
		Settings:         settings,
		Players:          map[string]*Player{host.ID: host},
		order:            []string{host.ID},
		Drawings:         make(map[string]*Drawing),
		Words:            make(map[string]string),
		Assignments:      make(map[string]*Drawing),
		usedWords:        make(map[string]map[string]bool),
		guessSubmissions: make(map[string]bool),
		supply:           supply,
		resultsSeconds:   resultsSeconds,
	}
	return r
}

// ---- membership ----

// AddPlayer appends a player to the roster. Capacity is checked by the
// registry, which knows the configured limit.
func (r *Room) AddPlayer(p *Player) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Phase != PhaseLobby {
		return ErrGameStarted
	}
	r.Players[p.ID] = p
	r.order = append(r.order, p.ID)

	r.broadcastLocked(TypePlayerJoined, PlayerEventPayload{PlayerID: p.ID, Players: r.summariesLocked()})
	r.broadcastStateLocked()
	return nil
}

// RemovePlayer drops a player from the roster, reassigns the host if
// needed and re-evaluates whether the departure completes the current
// phase. Returns true once the room is empty and should be torn down.
func (r *Room) RemovePlayer(playerID string) (empty bool) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if _, ok := r.Players[playerID]; !ok {
		return len(r.Players) == 0
	}
	delete(r.Players, playerID)
	for i, id := range r.order {
		if id == playerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if len(r.Players) == 0 {
		r.stopTimerLocked()
		return true
	}

	if r.HostID == playerID {
		r.HostID = r.order[0]
		logger.Info("room %s: host left, reassigned to %s", r.ID, r.HostID)
	}

	r.broadcastLocked(TypePlayerLeft, PlayerEventPayload{PlayerID: playerID, Players: r.summariesLocked()})

	// The departed player may have been the last thing holding the
	// phase open.
	switch r.Phase {
	case PhaseDrawing:
		if r.allDrawingsSubmittedLocked() {
			r.completePhaseLocked(PhaseDrawing)
			return false
		}
	case PhaseGuessing:
		if r.guessingShouldEndLocked() {
			r.completePhaseLocked(PhaseGuessing)
			return false
		}
	}

	r.broadcastStateLocked()
	return false
}

func (r *Room) PlayerCount() int {
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	return len(r.Players)
}

func (r *Room) GetPlayer(id string) (*Player, bool) {
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	p, ok := r.Players[id]
	return p, ok
}

// AttachPlayer binds a websocket to a member. Binding happens under the
// room lock so a concurrent broadcast never observes a half-initialized
// session.
func (r *Room) AttachPlayer(p *Player, c *websocket.Conn) {
	r.Mu.Lock()
	p.attach(c)
	r.Mu.Unlock()
}

// IsAttached reports whether the member has a live session.
func (r *Room) IsAttached(playerID string) bool {
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	p := r.Players[playerID]
	return p != nil && p.send != nil
}

// OnConnect pushes the authoritative state to a freshly attached socket.
func (r *Room) OnConnect(p *Player) {
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	r.sendTo(p, TypeGameState, r.snapshotLocked())
}

// ---- inbound actions ----

// Dispatch routes one decoded frame to its handler. A panic in a handler
// is converted into a surfaced error for the sender; the room survives.
func (r *Room) Dispatch(p *Player, msg WSMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("room %s: %s handler panic: %v", r.ID, msg.Type, rec)
			r.sendError(p, "something went wrong handling that action")
		}
	}()

	switch msg.Type {
	case TypeToggleReady:
		r.ToggleReady(p)

	case TypeStartGame:
		r.StartGame(p)

	case TypeSubmitDrawing:
		var payload submitDrawingPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			r.sendError(p, "invalid drawing payload")
			return
		}
		r.SubmitDrawing(p, payload.ImageData)

	case TypeSubmitGuess:
		var payload submitGuessPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			r.sendError(p, "invalid guess payload")
			return
		}
		r.SubmitGuess(p, payload.DrawingID, payload.Guess)

	case TypeContinueDrawing:
		var payload continueDrawingPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			r.sendError(p, "invalid payload")
			return
		}
		r.ContinueDrawing(p, payload.DrawingID)

	case TypeChat:
		var payload chatInPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			return
		}
		r.Chat(p, payload.Message)

	default:
		logger.Debug("room %s: unknown message type %q from %s", r.ID, msg.Type, p.ID)
	}
}

// ToggleReady flips the caller's lobby ready flag. Outside the lobby the
// flag has no meaning and the message is ignored.
func (r *Room) ToggleReady(p *Player) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Phase != PhaseLobby {
		return
	}
	p.Ready = !p.Ready
	r.broadcastLocked(TypePlayerJoined, PlayerEventPayload{PlayerID: p.ID, Players: r.summariesLocked()})
	r.broadcastStateLocked()
}

// StartGame begins round 1. Host-only, lobby-only, two players minimum.
func (r *Room) StartGame(p *Player) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Phase != PhaseLobby {
		return
	}
	if p.ID != r.HostID {
		r.sendError(p, "only the host can start the game")
		return
	}
	if len(r.Players) < 2 {
		r.sendError(p, "need at least 2 players to start")
		return
	}
	r.startDrawingRoundLocked()
}

// SubmitDrawing stores the caller's picture. Once every drawing has an
// image the phase advances without waiting for the timer.
func (r *Room) SubmitDrawing(p *Player, imageData string) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Phase != PhaseDrawing {
		return
	}
	d := r.Drawings[p.ID]
	if d == nil {
		return
	}
	d.ImageData = imageData
	r.broadcastStateLocked()

	if r.allDrawingsSubmittedLocked() {
		r.completePhaseLocked(PhaseDrawing)
	}
}

// SubmitGuess arbitrates one guess against the drawing owned by
// drawingID. A player gets exactly one scored attempt per guessing
// phase; anything after the drawing completes is a no-op.
func (r *Room) SubmitGuess(p *Player, drawingID, guess string) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Phase != PhaseGuessing {
		return
	}
	d := r.Drawings[drawingID]
	if d == nil || d.Completed {
		return
	}
	if r.guessSubmissions[p.ID] {
		return
	}
	r.guessSubmissions[p.ID] = true
	d.CurrentGuess = guess

	dist := levenshtein.ComputeDistance(
		utils.NormalizeGuess(guess),
		utils.NormalizeGuess(d.OriginalWord),
	)

	if dist == 0 {
		d.Completed = true
		d.GuessedBy = p.ID
		p.Score++
		logger.Info("room %s: %s correctly guessed %q", r.ID, p.Name, d.OriginalWord)
		r.broadcastLocked(TypeCorrectGuess, CorrectGuessPayload{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Word:       d.OriginalWord,
		})
	} else if dist <= closeGuessDistance {
		r.sendTo(p, TypeCloseGuess, CloseGuessPayload{
			PlayerID:     p.ID,
			EditDistance: dist,
			Guess:        guess,
		})
	}

	r.broadcastStateLocked()

	if r.guessingShouldEndLocked() {
		r.scheduleGuessingEndLocked()
	}
}

// ContinueDrawing is the guesser's opt-out: the drawing is marked
// completed without anyone scoring, which still counts toward the
// all-completed early end.
func (r *Room) ContinueDrawing(p *Player, drawingID string) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Phase != PhaseGuessing {
		return
	}
	d := r.Drawings[drawingID]
	if d == nil || d.Completed {
		return
	}
	d.Completed = true
	r.broadcastStateLocked()

	if r.guessingShouldEndLocked() {
		r.scheduleGuessingEndLocked()
	}
}

// Chat relays a plain chat line to the whole room.
func (r *Room) Chat(p *Player, message string) {
	if message == "" {
		return
	}
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	r.broadcastLocked(TypeChatMsg, ChatPayload{SenderID: p.ID, SenderName: p.Name, Message: message})
}

// ---- phase machine ----

// completePhase is the single guarded entry point for ending a phase.
// Timer expiry, all-submitted, guess-driven early ends and the results
// countdown all land here; whichever caller finds the room already past
// expected is a no-op. A panic while advancing fails the room safe into
// finished instead of leaving it hanging with no timer.
func (r *Room) completePhase(expected Phase) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("room %s: phase advance panic: %v", r.ID, rec)
			r.finishLocked()
		}
	}()
	r.completePhaseLocked(expected)
}

func (r *Room) completePhaseLocked(expected Phase) {
	if r.Phase != expected {
		logger.Debug("room %s: stale phase completion for %s (now %s)", r.ID, expected, r.Phase)
		return
	}

	switch expected {
	case PhaseDrawing:
		r.endDrawingLocked()
	case PhaseGuessing:
		r.endGuessingLocked()
	case PhaseResults:
		r.startDrawingRoundLocked()
	}
}

func (r *Room) startDrawingRoundLocked() {
	r.Phase = PhaseDrawing
	r.Round++
	r.Drawings = make(map[string]*Drawing, len(r.order))
	r.Words = make(map[string]string, len(r.order))
	r.assignWordsLocked()

	r.broadcastStateLocked()
	r.startTimerLocked(r.Settings.DrawingSeconds, PhaseDrawing)
}

func (r *Room) endDrawingLocked() {
	r.Phase = PhaseGuessing
	r.guessSubmissions = make(map[string]bool)
	r.rotateDrawingsLocked()

	r.broadcastStateLocked()
	r.startTimerLocked(r.Settings.GuessingSeconds, PhaseGuessing)
}

func (r *Room) endGuessingLocked() {
	r.Assignments = make(map[string]*Drawing)

	if r.Round < r.Settings.MaxRounds && len(r.order) >= 2 {
		r.Phase = PhaseResults
		r.broadcastStateLocked()
		r.startTimerLocked(r.resultsSeconds, PhaseResults)
		return
	}
	r.finishLocked()
}

func (r *Room) finishLocked() {
	r.Phase = PhaseFinished
	r.Remaining = 0
	r.stopTimerLocked()
	r.broadcastStateLocked()
	logger.Info("room %s: finished after round %d", r.ID, r.Round)
}

func (r *Room) allDrawingsSubmittedLocked() bool {
	for _, d := range r.Drawings {
		if d.ImageData == "" {
			return false
		}
	}
	return len(r.Drawings) > 0
}

func (r *Room) guessingShouldEndLocked() bool {
	if len(r.guessSubmissions) >= len(r.Players) {
		return true
	}
	for _, d := range r.Drawings {
		if !d.Completed {
			return false
		}
	}
	return len(r.Drawings) > 0
}

func (r *Room) scheduleGuessingEndLocked() {
	time.AfterFunc(guessEndGrace, func() {
		r.completePhase(PhaseGuessing)
	})
}

// ---- words and rotation ----

// assignWordsLocked gives every player a word for the new round, in
// stable join order: no two players share a word within a round (while
// the corpus allows it) and no player repeats a word across the room's
// lifetime until their share of the corpus is exhausted.
func (r *Room) assignWordsLocked() {
	taken := make(map[string]bool, len(r.order))

	for _, playerID := range r.order {
		used := r.usedWords[playerID]
		if used == nil {
			used = make(map[string]bool)
			r.usedWords[playerID] = used
		}

		word := r.supply.Pick(used, taken)
		taken[word] = true
		used[word] = true

		r.Words[playerID] = word
		r.Drawings[playerID] = &Drawing{
			PlayerID:     playerID,
			OriginalWord: word,
		}
	}
}

// rotateDrawingsLocked assigns player i the drawing of player (i+1) mod n
// for guessing and resets the guess-specific fields for the new phase.
// With two players this is a full reciprocal swap. Rotation needs at
// least two players; below that the assignment map stays empty and the
// guessing phase runs out on its timer.
func (r *Room) rotateDrawingsLocked() {
	r.Assignments = make(map[string]*Drawing, len(r.order))

	n := len(r.order)
	if n < 2 {
		logger.Warn("room %s: cannot rotate drawings with %d player(s)", r.ID, n)
		return
	}

	for i, guesserID := range r.order {
		ownerID := r.order[(i+1)%n]
		d := r.Drawings[ownerID]
		if d == nil {
			continue
		}
		d.CurrentGuess = ""
		d.GuessedBy = ""
		d.Completed = false
		r.Assignments[guesserID] = d
	}
}

// ---- timer ----

// startTimerLocked replaces any outstanding countdown with a fresh one.
// At most one timer is ever live per room; the stop channel identity
// doubles as the staleness check inside the tick loop.
func (r *Room) startTimerLocked(seconds int, expected Phase) {
	r.stopTimerLocked()
	r.Remaining = seconds
	stop := make(chan struct{})
	r.timerStop = stop
	go r.runTimer(stop, expected)
}

func (r *Room) stopTimerLocked() {
	if r.timerStop != nil {
		close(r.timerStop)
		r.timerStop = nil
	}
}

func (r *Room) runTimer(stop chan struct{}, expected Phase) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.Mu.Lock()
			if r.timerStop != stop || r.Phase != expected {
				r.Mu.Unlock()
				return
			}
			r.Remaining--
			remaining := r.Remaining
			if remaining > 0 {
				r.broadcastLocked(TypeTimerUpdate, TimerUpdatePayload{TimeRemaining: remaining})
				r.Mu.Unlock()
				continue
			}
			r.Mu.Unlock()

			r.completePhase(expected)
			return
		}
	}
}

// ---- broadcast ----

func (r *Room) summariesLocked() []PlayerSummary {
	out := make([]PlayerSummary, 0, len(r.order))
	for _, id := range r.order {
		if p, ok := r.Players[id]; ok {
			out = append(out, p.summary())
		}
	}
	return out
}

func (r *Room) snapshotLocked() StateSnapshot {
	drawings := make([]*Drawing, 0, len(r.Drawings))
	for _, id := range r.order {
		if d, ok := r.Drawings[id]; ok {
			drawings = append(drawings, d)
		}
	}

	words := make(map[string]string, len(r.Words))
	for k, v := range r.Words {
		words[k] = v
	}
	assignments := make(map[string]*Drawing, len(r.Assignments))
	for k, v := range r.Assignments {
		assignments[k] = v
	}

	return StateSnapshot{
		RoomID:        r.ID,
		HostID:        r.HostID,
		Phase:         r.Phase,
		CurrentRound:  r.Round,
		TotalRounds:   r.Settings.MaxRounds,
		TimeRemaining: r.Remaining,
		Players:       r.summariesLocked(),
		Drawings:      drawings,
		CurrentWords:  words,
		Assignments:   assignments,
		Settings:      r.Settings,
	}
}

func (r *Room) broadcastStateLocked() {
	r.broadcastLocked(TypeGameState, r.snapshotLocked())
}

// broadcastLocked fans a frame out to every member, best effort per
// recipient: a dead or unattached member never blocks the others.
func (r *Room) broadcastLocked(msgType string, data any) {
	msg, ok := encodeMessage(msgType, data)
	if !ok {
		return
	}
	for _, p := range r.Players {
		p.queue(msg)
	}
}

func (r *Room) sendTo(p *Player, msgType string, data any) {
	msg, ok := encodeMessage(msgType, data)
	if !ok {
		return
	}
	p.queue(msg)
}

func (r *Room) sendError(p *Player, reason string) {
	r.sendTo(p, TypeError, ErrorPayload{Message: reason})
}

func encodeMessage(msgType string, data any) ([]byte, bool) {
	payload, err := json.Marshal(data)
	if err != nil {
		logger.Error("encode %s payload: %v", msgType, err)
		return nil, false
	}
	msg, err := json.Marshal(WSMessage{Type: msgType, Data: payload})
	if err != nil {
		logger.Error("encode %s envelope: %v", msgType, err)
		return nil, false
	}
	return msg, true
}
