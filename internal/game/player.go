package game

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/sketchswap/server/logger"
	"github.com/sketchswap/server/pkg/utils"
)

// Player is a room member. Score and Ready are only ever mutated under
// the owning room's lock; the connection fields belong to the pumps.
type Player struct {
	ID    string
	Name  string
	Score int
	Ready bool

	conn   *websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func NewPlayer(name string) *Player {
	return &Player{
		ID:   utils.NewPlayerID(),
		Name: name,
	}
}

// attach binds a websocket to the player. Members join over REST first,
// so a player can exist for a short while with no connection; queue
// skips them until this runs. Callers go through Room.AttachPlayer so
// the session fields are never written concurrently with a broadcast.
func (p *Player) attach(c *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	p.conn = c
	p.send = make(chan []byte, 256)
	p.ctx = ctx
	p.cancel = cancel
}

func (p *Player) summary() PlayerSummary {
	return PlayerSummary{ID: p.ID, Name: p.Name, Score: p.Score, Ready: p.Ready}
}

// queue hands a frame to the write pump without blocking. Delivery is
// best effort: an unattached player or a full buffer drops the frame.
func (p *Player) queue(msg []byte) bool {
	if p.send == nil {
		return false
	}
	select {
	case p.send <- msg:
		return true
	default:
		return false
	}
}

// cleanup tears the session down. send is deliberately left open: room
// broadcasts may still queue frames until the registry removes the
// player, and a send on a closed channel would take the process down.
// The write pump exits through ctx and the channel is garbage collected
// with the player.
func (p *Player) cleanup() {
	p.once.Do(func() {
		p.cancel()
		if p.conn != nil {
			p.conn.Close()
		}
	})
}

// ReadPump consumes inbound frames until the connection drops. The
// transport closing is treated exactly like an explicit leave.
func (p *Player) ReadPump(r *Room, reg *Registry) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("player %s readPump panic: %v", p.ID, rec)
		}
		p.cleanup()
		reg.Leave(p.ID)
	}()

	for {
		select {
		case <-p.ctx.Done():
			return
		default:
			_, msg, err := p.conn.ReadMessage()
			if err != nil {
				logger.Debug("player %s read error: %v", p.ID, err)
				return
			}

			var wsMsg WSMessage
			if err := json.Unmarshal(msg, &wsMsg); err != nil {
				logger.Debug("player %s sent invalid frame: %v", p.ID, err)
				continue
			}

			if wsMsg.Type == TypeLeaveGame {
				return
			}
			r.Dispatch(p, wsMsg)
		}
	}
}

func (p *Player) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		p.cleanup()
	}()

	for {
		select {
		case <-p.ctx.Done():
			return

		case msg := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("player %s write error: %v", p.ID, err)
				return
			}

		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
