package game

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roomPhase(r *Room) Phase {
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	return r.Phase
}

func roomRound(r *Room) int {
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	return r.Round
}

func playerScore(r *Room, p *Player) int {
	r.Mu.RLock()
	defer r.Mu.RUnlock()
	return p.Score
}

func waitForPhase(t *testing.T, r *Room, want Phase) {
	t.Helper()
	require.Eventually(t, func() bool { return roomPhase(r) == want },
		2*time.Second, 10*time.Millisecond, "room never reached phase %s", want)
}

// setupTwoPlayerGame builds a started 2-round game with Alice (host) and
// Bob, sitting in the drawing phase of round 1.
func setupTwoPlayerGame(t *testing.T) (*Registry, *Room, *Player, *Player) {
	t.Helper()
	reg := newTestRegistry()

	room, alice, err := reg.CreateRoom("Alice", Settings{MaxRounds: 2})
	require.NoError(t, err)
	_, bob, err := reg.JoinRoom(room.ID, "Bob")
	require.NoError(t, err)

	room.ToggleReady(alice)
	room.ToggleReady(bob)
	room.StartGame(alice)
	return reg, room, alice, bob
}

func submitAllDrawings(r *Room) {
	r.Mu.RLock()
	players := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, p)
	}
	r.Mu.RUnlock()

	for _, p := range players {
		r.SubmitDrawing(p, "data:image/png;base64,stub")
	}
}

func TestStartGame_AssignsDistinctWords(t *testing.T) {
	_, room, alice, bob := setupTwoPlayerGame(t)

	room.Mu.RLock()
	defer room.Mu.RUnlock()

	assert.Equal(t, PhaseDrawing, room.Phase)
	assert.Equal(t, 1, room.Round)
	assert.Equal(t, 2, room.Settings.MaxRounds)

	aliceWord := room.Words[alice.ID]
	bobWord := room.Words[bob.ID]
	require.NotEmpty(t, aliceWord)
	require.NotEmpty(t, bobWord)
	assert.NotEqual(t, aliceWord, bobWord, "no two players share a word within a round")

	require.NotNil(t, room.Drawings[alice.ID])
	assert.Equal(t, aliceWord, room.Drawings[alice.ID].OriginalWord)
}

func TestStartGame_Guards(t *testing.T) {
	reg := newTestRegistry()
	room, alice, err := reg.CreateRoom("Alice", Settings{})
	require.NoError(t, err)

	// Alone in the lobby: cannot start.
	room.StartGame(alice)
	assert.Equal(t, PhaseLobby, roomPhase(room))

	_, bob, err := reg.JoinRoom(room.ID, "Bob")
	require.NoError(t, err)

	// Non-host cannot start.
	room.StartGame(bob)
	assert.Equal(t, PhaseLobby, roomPhase(room))

	room.StartGame(alice)
	assert.Equal(t, PhaseDrawing, roomPhase(room))
}

func TestAllDrawingsSubmitted_RotatesReciprocally(t *testing.T) {
	_, room, alice, bob := setupTwoPlayerGame(t)

	submitAllDrawings(room)

	room.Mu.RLock()
	defer room.Mu.RUnlock()

	assert.Equal(t, PhaseGuessing, room.Phase, "drawing phase ends early once everyone submitted")

	// Two players swap drawings outright.
	require.NotNil(t, room.Assignments[alice.ID])
	require.NotNil(t, room.Assignments[bob.ID])
	assert.Same(t, room.Drawings[bob.ID], room.Assignments[alice.ID])
	assert.Same(t, room.Drawings[alice.ID], room.Assignments[bob.ID])

	// Rotation resets the guess-specific fields.
	assert.False(t, room.Assignments[alice.ID].Completed)
	assert.Empty(t, room.Assignments[alice.ID].GuessedBy)
	assert.Empty(t, room.Assignments[alice.ID].CurrentGuess)
}

func TestRotation_FixedPointFreeBijection(t *testing.T) {
	for n := 2; n <= 5; n++ {
		reg := newTestRegistry()
		room, host, err := reg.CreateRoom("p0", Settings{})
		require.NoError(t, err)
		for i := 1; i < n; i++ {
			_, _, err := reg.JoinRoom(room.ID, "p")
			require.NoError(t, err)
		}
		room.StartGame(host)
		submitAllDrawings(room)

		room.Mu.RLock()
		assert.Len(t, room.Assignments, n)
		ownersSeen := map[string]bool{}
		for guesserID, d := range room.Assignments {
			assert.NotEqual(t, guesserID, d.PlayerID, "n=%d: player assigned their own drawing", n)
			assert.False(t, ownersSeen[d.PlayerID], "n=%d: drawing %s assigned twice", n, d.PlayerID)
			ownersSeen[d.PlayerID] = true
		}
		room.Mu.RUnlock()
	}
}

func TestCorrectGuess_ScoresOnceAndCompletes(t *testing.T) {
	_, room, alice, bob := setupTwoPlayerGame(t)
	submitAllDrawings(room)

	room.Mu.RLock()
	aliceWord := room.Words[alice.ID]
	room.Mu.RUnlock()

	// Casing and surrounding whitespace do not matter.
	room.SubmitGuess(bob, alice.ID, "  "+strings.ToUpper(aliceWord)+"  ")

	room.Mu.RLock()
	d := room.Drawings[alice.ID]
	assert.True(t, d.Completed)
	assert.Equal(t, bob.ID, d.GuessedBy)
	assert.Equal(t, 1, bob.Score)
	room.Mu.RUnlock()

	// Repeat submissions by the same player never re-trigger scoring.
	room.SubmitGuess(bob, alice.ID, aliceWord)
	room.SubmitGuess(bob, alice.ID, aliceWord)
	assert.Equal(t, 1, playerScore(room, bob))
}

func TestWrongGuess_NoScore(t *testing.T) {
	_, room, alice, bob := setupTwoPlayerGame(t)
	submitAllDrawings(room)

	room.SubmitGuess(bob, alice.ID, "definitely not the word")

	room.Mu.RLock()
	defer room.Mu.RUnlock()
	assert.Equal(t, 0, bob.Score)
	assert.False(t, room.Drawings[alice.ID].Completed)
	assert.True(t, room.guessSubmissions[bob.ID], "a wrong guess still spends the attempt")
}

func TestGuessing_EndsEarlyWhenAllSubmitted(t *testing.T) {
	_, room, alice, bob := setupTwoPlayerGame(t)
	submitAllDrawings(room)

	room.Mu.RLock()
	aliceWord := room.Words[alice.ID]
	room.Mu.RUnlock()

	room.SubmitGuess(bob, alice.ID, aliceWord)
	room.SubmitGuess(alice, bob.ID, "wrong")

	// Round 1 of 2: early end lands in results after the grace delay.
	waitForPhase(t, room, PhaseResults)
	assert.Equal(t, 1, roomRound(room))
}

func TestContinueDrawing_OptOutEndsPhase(t *testing.T) {
	_, room, alice, bob := setupTwoPlayerGame(t)
	submitAllDrawings(room)

	room.ContinueDrawing(bob, alice.ID)
	room.ContinueDrawing(alice, bob.ID)

	waitForPhase(t, room, PhaseResults)

	assert.Equal(t, 0, playerScore(room, alice))
	assert.Equal(t, 0, playerScore(room, bob))
}

func TestFullGame_TwoRoundsToFinished(t *testing.T) {
	_, room, alice, bob := setupTwoPlayerGame(t)

	guessRound := func() {
		submitAllDrawings(room)
		room.Mu.RLock()
		aliceWord := room.Words[alice.ID]
		bobWord := room.Words[bob.ID]
		room.Mu.RUnlock()
		room.SubmitGuess(bob, alice.ID, aliceWord)
		room.SubmitGuess(alice, bob.ID, bobWord)
	}

	room.Mu.RLock()
	round1Words := map[string]string{alice.ID: room.Words[alice.ID], bob.ID: room.Words[bob.ID]}
	room.Mu.RUnlock()

	guessRound()
	waitForPhase(t, room, PhaseResults)

	// Skip the results countdown; the guarded transition is the same one
	// the timer fires.
	room.completePhase(PhaseResults)

	room.Mu.RLock()
	assert.Equal(t, PhaseDrawing, room.Phase)
	assert.Equal(t, 2, room.Round)
	assert.NotEqual(t, round1Words[alice.ID], room.Words[alice.ID], "no word repeats for a player across rounds")
	assert.NotEqual(t, round1Words[bob.ID], room.Words[bob.ID])
	room.Mu.RUnlock()

	guessRound()
	waitForPhase(t, room, PhaseFinished)

	room.Mu.RLock()
	assert.Equal(t, room.Settings.MaxRounds, room.Round)
	assert.Equal(t, 2, alice.Score)
	assert.Equal(t, 2, bob.Score)
	assert.Empty(t, room.Assignments)
	room.Mu.RUnlock()

	// Scores are frozen: nothing mutates a finished room.
	room.SubmitGuess(bob, alice.ID, "anything")
	room.SubmitDrawing(alice, "late")
	assert.Equal(t, 2, playerScore(room, bob))
	assert.Equal(t, PhaseFinished, roomPhase(room))
}

func TestCompletePhase_IdempotentUnderRacingTriggers(t *testing.T) {
	_, room, _, _ := setupTwoPlayerGame(t)
	submitAllDrawings(room)
	require.Equal(t, PhaseGuessing, roomPhase(room))

	// Timer expiry and an event-driven early end converging on the same
	// transition: the second caller must lose and no-op.
	room.completePhase(PhaseGuessing)
	require.Equal(t, PhaseResults, roomPhase(room))
	round := roomRound(room)

	room.completePhase(PhaseGuessing)
	assert.Equal(t, PhaseResults, roomPhase(room))
	assert.Equal(t, round, roomRound(room), "double-firing must not advance the round counter")

	// A stale completion for a phase the room is no longer in is ignored.
	room.completePhase(PhaseDrawing)
	assert.Equal(t, PhaseResults, roomPhase(room))
}

func TestPhaseMismatch_ActionsSilentlyIgnored(t *testing.T) {
	_, room, alice, bob := setupTwoPlayerGame(t)

	// Guess during drawing phase: expected race, silent no-op.
	room.SubmitGuess(bob, alice.ID, "cat")
	assert.Equal(t, PhaseDrawing, roomPhase(room))
	assert.Equal(t, 0, playerScore(room, bob))

	submitAllDrawings(room)

	// Drawing submission during guessing phase: same.
	room.SubmitDrawing(alice, "late image")
	assert.Equal(t, PhaseGuessing, roomPhase(room))
}

func TestToggleReady_LobbyOnly(t *testing.T) {
	_, room, alice, _ := setupTwoPlayerGame(t)

	// Game already started; ready flags are lobby-only.
	before := func() bool {
		room.Mu.RLock()
		defer room.Mu.RUnlock()
		return alice.Ready
	}()
	room.ToggleReady(alice)
	room.Mu.RLock()
	assert.Equal(t, before, alice.Ready)
	room.Mu.RUnlock()
}

func TestRemovePlayer_MidGuessingReevaluatesEnd(t *testing.T) {
	reg := newTestRegistry()
	room, alice, err := reg.CreateRoom("Alice", Settings{MaxRounds: 2})
	require.NoError(t, err)
	_, bob, err := reg.JoinRoom(room.ID, "Bob")
	require.NoError(t, err)
	_, carol, err := reg.JoinRoom(room.ID, "Carol")
	require.NoError(t, err)

	room.StartGame(alice)
	submitAllDrawings(room)
	require.Equal(t, PhaseGuessing, roomPhase(room))

	// Two of three have guessed; the third leaving is what completes
	// the phase.
	room.Mu.RLock()
	aliceTarget := room.Assignments[alice.ID].PlayerID
	bobTarget := room.Assignments[bob.ID].PlayerID
	room.Mu.RUnlock()
	room.SubmitGuess(alice, aliceTarget, "wrong")
	room.SubmitGuess(bob, bobTarget, "wrong")
	require.Equal(t, PhaseGuessing, roomPhase(room))

	reg.Leave(carol.ID)
	waitForPhase(t, room, PhaseResults)
}

func TestBroadcastAfterSessionTeardown_NoPanic(t *testing.T) {
	reg := newTestRegistry()
	room, alice, err := reg.CreateRoom("Alice", Settings{})
	require.NoError(t, err)
	_, bob, err := reg.JoinRoom(room.ID, "Bob")
	require.NoError(t, err)

	room.AttachPlayer(bob, nil)
	bob.cleanup()

	// The registry has not removed Bob yet, so the start broadcast still
	// fans out to his torn-down session. It must be dropped, not crash
	// the room.
	require.NotPanics(t, func() { room.StartGame(alice) })
	assert.Equal(t, PhaseDrawing, roomPhase(room))
}

func TestTimerExpiry_AdvancesPhase(t *testing.T) {
	host := NewPlayer("Alice")
	room := NewRoom("TIMER1", host, Settings{MaxRounds: 2, DrawingSeconds: 1, GuessingSeconds: 60}, NewSupply(DefaultCorpus), 1)
	require.NoError(t, room.AddPlayer(NewPlayer("Bob")))

	room.StartGame(host)
	require.Equal(t, PhaseDrawing, roomPhase(room))

	// Nobody submits anything; the countdown alone moves the room on.
	waitForPhase(t, room, PhaseGuessing)

	// A completion racing in for the already-ended drawing phase loses.
	room.completePhase(PhaseDrawing)
	assert.Equal(t, PhaseGuessing, roomPhase(room))
}
