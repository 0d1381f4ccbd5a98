package game

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sketchswap/server/logger"
	"github.com/sketchswap/server/pkg/config"
	"github.com/sketchswap/server/pkg/utils"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full")
	ErrGameStarted  = errors.New("game already started")
	ErrNameRequired = errors.New("player name required")
)

// Registry maps room codes to rooms and player ids to their room. All
// cross-references are by identifier; rooms never reach back into the
// registry except through Leave's teardown.
type Registry struct {
	rooms     map[string]*Room
	players   map[string]string // player id -> room code
	supply    *Supply
	cfg       *config.Config
	attachTTL time.Duration
	mu        sync.RWMutex
}

func NewRegistry(cfg *config.Config, supply *Supply) *Registry {
	return &Registry{
		rooms:     make(map[string]*Room),
		players:   make(map[string]string),
		supply:    supply,
		cfg:       cfg,
		attachTTL: 30 * time.Second,
	}
}

// scheduleAttachReap evicts a member who joined over REST but never
// opened a websocket. Without it an abandoned join holds a seat against
// the room cap and counts toward every all-players-acted check.
func (reg *Registry) scheduleAttachReap(room *Room, playerID string) {
	time.AfterFunc(reg.attachTTL, func() {
		if room.IsAttached(playerID) {
			return
		}
		logger.Info("player %s never attached to room %s, evicting", playerID, room.ID)
		reg.Leave(playerID)
	})
}

// CreateRoom makes a new room with the initiator as sole member and
// host. Settings are clamped, never rejected.
func (reg *Registry) CreateRoom(hostName string, s Settings) (*Room, *Player, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return nil, nil, ErrNameRequired
	}

	settings := SanitizeSettings(s, reg.cfg.Game)
	host := NewPlayer(hostName)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	code := utils.GenRoomCode()
	for reg.rooms[code] != nil {
		code = utils.GenRoomCode()
	}

	room := NewRoom(code, host, settings, reg.supply, reg.cfg.Game.ResultsSeconds)
	reg.rooms[code] = room
	reg.players[host.ID] = code

	reg.scheduleAttachReap(room, host.ID)
	logger.Info("room %s created by %s (rounds=%d)", code, hostName, settings.MaxRounds)
	return room, host, nil
}

// JoinRoom adds a named player to the room behind code. Fails when the
// room is absent, full, or no longer in the lobby.
func (reg *Registry) JoinRoom(code, name string) (*Room, *Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, ErrNameRequired
	}
	code = strings.ToUpper(strings.TrimSpace(code))

	reg.mu.Lock()
	defer reg.mu.Unlock()

	room := reg.rooms[code]
	if room == nil {
		return nil, nil, ErrRoomNotFound
	}
	if room.PlayerCount() >= reg.cfg.Game.MaxPlayers {
		return nil, nil, ErrRoomFull
	}

	p := NewPlayer(name)
	if err := room.AddPlayer(p); err != nil {
		return nil, nil, err
	}
	reg.players[p.ID] = code

	reg.scheduleAttachReap(room, p.ID)
	logger.Info("player %s (%s) joined room %s", name, p.ID, code)
	return room, p, nil
}

// Leave removes the player from their room, reassigning the host and
// tearing the room down when it empties. Safe to call twice; the second
// call finds nothing.
func (reg *Registry) Leave(playerID string) {
	reg.mu.Lock()
	code, ok := reg.players[playerID]
	if !ok {
		reg.mu.Unlock()
		return
	}
	delete(reg.players, playerID)
	room := reg.rooms[code]
	reg.mu.Unlock()

	if room == nil {
		return
	}
	if room.RemovePlayer(playerID) {
		reg.mu.Lock()
		delete(reg.rooms, code)
		reg.mu.Unlock()
		logger.Info("room %s empty, destroyed", code)
	}
}

// Resolve authenticates an actor: the ephemeral player id is the only
// identity there is.
func (reg *Registry) Resolve(playerID string) (*Room, *Player, bool) {
	reg.mu.RLock()
	code, ok := reg.players[playerID]
	if !ok {
		reg.mu.RUnlock()
		return nil, nil, false
	}
	room := reg.rooms[code]
	reg.mu.RUnlock()

	if room == nil {
		return nil, nil, false
	}
	p, ok := room.GetPlayer(playerID)
	if !ok {
		return nil, nil, false
	}
	return room, p, true
}

func (reg *Registry) GetRoom(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[code]
	return r, ok
}

// ---- HTTP handlers ----

func (reg *Registry) CreateRoomHandler(c *fiber.Ctx) error {
	var body struct {
		PlayerName string   `json:"playerName"`
		Settings   Settings `json:"settings"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	room, host, err := reg.CreateRoom(body.PlayerName, body.Settings)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"roomId":   room.ID,
		"playerId": host.ID,
		"hostId":   host.ID,
		"settings": room.Settings,
	})
}

func (reg *Registry) JoinRoomHandler(c *fiber.Ctx) error {
	var body struct {
		PlayerName string `json:"playerName"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	room, p, err := reg.JoinRoom(c.Params("id"), body.PlayerName)
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrRoomFull), errors.Is(err, ErrGameStarted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"roomId":   room.ID,
		"playerId": p.ID,
	})
}

func (reg *Registry) ListRoomsHandler(c *fiber.Ctx) error {
	reg.mu.RLock()
	out := make([]fiber.Map, 0, len(reg.rooms))
	for code, room := range reg.rooms {
		room.Mu.RLock()
		out = append(out, fiber.Map{
			"roomId":  code,
			"phase":   room.Phase,
			"players": len(room.Players),
		})
		room.Mu.RUnlock()
	}
	reg.mu.RUnlock()
	return c.JSON(out)
}

func (reg *Registry) RoomHandler(c *fiber.Ctx) error {
	room, ok := reg.GetRoom(strings.ToUpper(c.Params("id")))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "room not found"})
	}

	room.Mu.RLock()
	defer room.Mu.RUnlock()
	return c.JSON(fiber.Map{
		"roomId":  room.ID,
		"hostId":  room.HostID,
		"phase":   room.Phase,
		"round":   room.Round,
		"players": room.summariesLocked(),
	})
}
