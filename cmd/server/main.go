package main

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"github.com/sketchswap/server/internal/game"
	"github.com/sketchswap/server/logger"
	"github.com/sketchswap/server/pkg/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config: %v", err)
		return
	}
	logger.Setup(cfg.Log.Level)

	registry := game.NewRegistry(cfg, game.NewSupply(game.DefaultCorpus))

	app := fiber.New()
	app.Use(cors.New())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/:roomId/:playerId", websocket.New(func(c *websocket.Conn) {
		playerID := c.Params("playerId")

		room, p, ok := registry.Resolve(playerID)
		if !ok || room.ID != c.Params("roomId") {
			c.Close()
			return
		}

		room.AttachPlayer(p, c)
		room.OnConnect(p)
		go p.ReadPump(room, registry)
		p.WritePump()
	}))

	app.Post("/api/rooms", registry.CreateRoomHandler)
	app.Post("/api/rooms/:id/join", registry.JoinRoomHandler)
	app.Get("/api/rooms", registry.ListRoomsHandler)
	app.Get("/api/rooms/:id", registry.RoomHandler)

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	logger.Info("server listening on %s", cfg.Server.Address)
	if err := app.Listen(cfg.Server.Address); err != nil {
		logger.Error("server exited: %v", err)
	}
}
