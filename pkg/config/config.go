package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Game   GameConfig
	Log    LogConfig
}

type ServerConfig struct {
	Address string
}

type LogConfig struct {
	Level string
}

// GameConfig carries the tunable bounds for room settings. Requests with
// values outside these bounds are clamped, never rejected.
type GameConfig struct {
	MaxPlayers int

	MinRounds     int
	MaxRounds     int
	DefaultRounds int

	MinDrawingSeconds     int
	MaxDrawingSeconds     int
	DefaultDrawingSeconds int

	MinGuessingSeconds     int
	MaxGuessingSeconds     int
	DefaultGuessingSeconds int

	ResultsSeconds int
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":3000")
	v.SetDefault("log.level", "info")

	v.SetDefault("game.maxplayers", 8)
	v.SetDefault("game.minrounds", 2)
	v.SetDefault("game.maxrounds", 5)
	v.SetDefault("game.defaultrounds", 3)
	v.SetDefault("game.mindrawingseconds", 15)
	v.SetDefault("game.maxdrawingseconds", 120)
	v.SetDefault("game.defaultdrawingseconds", 30)
	v.SetDefault("game.minguessingseconds", 15)
	v.SetDefault("game.maxguessingseconds", 90)
	v.SetDefault("game.defaultguessingseconds", 30)
	v.SetDefault("game.resultsseconds", 3)

	v.SetEnvPrefix("sketchswap")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// config file is optional, defaults + env are enough
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without touching the
// filesystem or environment. Used by tests.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Address: ":3000"},
		Log:    LogConfig{Level: "info"},
		Game: GameConfig{
			MaxPlayers:             8,
			MinRounds:              2,
			MaxRounds:              5,
			DefaultRounds:          3,
			MinDrawingSeconds:      15,
			MaxDrawingSeconds:      120,
			DefaultDrawingSeconds:  30,
			MinGuessingSeconds:     15,
			MaxGuessingSeconds:     90,
			DefaultGuessingSeconds: 30,
			ResultsSeconds:         3,
		},
	}
}
