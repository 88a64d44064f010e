package configs

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/lienzo-games/lienzo/internal/infrastructure/env"
)

type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	RateLimiter RateLimiterConfig `koanf:"rateLimiter"`
	Game        GameConfig        `koanf:"game"`
	Judge       JudgeConfig       `koanf:"judge"`
}

type HTTPConfig struct {
	Host         string        `koanf:"host"`
	Port         uint16        `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int           `koanf:"requestsPerTimeFrame"`
	TimeFrame            time.Duration `koanf:"timeFrame"`
}

type GameConfig struct {
	DrawingSeconds    int           `koanf:"drawing_seconds"`
	GuessingSeconds   int           `koanf:"guessing_seconds"`
	RevealSeconds     int           `koanf:"reveal_seconds"`
	ScoreboardSeconds int           `koanf:"scoreboard_seconds"`
	DefaultMaxRounds  int           `koanf:"default_max_rounds"`
	RoomTTL           time.Duration `koanf:"room_ttl"`
	AbandonedRoomTTL  time.Duration `koanf:"abandoned_room_ttl"`
	EmptyRoomTTL      time.Duration `koanf:"empty_room_ttl"`
	SweepInterval     time.Duration `koanf:"sweep_interval"`
}

type JudgeConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Load from YAML file if it exists
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	// HTTP defaults
	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 8080)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)

	// Rate limiter defaults
	setDefault(k, "rateLimiter.requestsPerTimeFrame", 300)
	setDefault(k, "rateLimiter.timeFrame", time.Minute)

	// Game defaults
	setDefault(k, "game.drawing_seconds", 120)
	setDefault(k, "game.guessing_seconds", 60)
	setDefault(k, "game.reveal_seconds", 5)
	setDefault(k, "game.scoreboard_seconds", 10)
	setDefault(k, "game.default_max_rounds", 5)
	setDefault(k, "game.room_ttl", 30*time.Minute)
	setDefault(k, "game.abandoned_room_ttl", 5*time.Minute)
	setDefault(k, "game.empty_room_ttl", time.Minute)
	setDefault(k, "game.sweep_interval", time.Minute)

	// Judge defaults
	setDefault(k, "judge.base_url", "http://localhost:9090")
	setDefault(k, "judge.timeout", 15*time.Second)
}

func applyEnvOverrides(k *koanf.Koanf) {
	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("HTTP_PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if readTimeout := env.GetInt("HTTP_READ_TIMEOUT_SECONDS", 0); readTimeout > 0 {
		k.Set("http.read_timeout", time.Duration(readTimeout)*time.Second)
	}
	if writeTimeout := env.GetInt("HTTP_WRITE_TIMEOUT_SECONDS", 0); writeTimeout > 0 {
		k.Set("http.write_timeout", time.Duration(writeTimeout)*time.Second)
	}

	if requests := env.GetInt("RATE_LIMIT_REQUESTS_PER_TIMEFRAME", 0); requests > 0 {
		k.Set("rateLimiter.requestsPerTimeFrame", requests)
	}
	if frame := env.GetInt("RATE_LIMIT_TIMEFRAME_SECONDS", 0); frame > 0 {
		k.Set("rateLimiter.timeFrame", time.Duration(frame)*time.Second)
	}

	if drawing := env.GetInt("GAME_DRAWING_SECONDS", 0); drawing > 0 {
		k.Set("game.drawing_seconds", drawing)
	}
	if guessing := env.GetInt("GAME_GUESSING_SECONDS", 0); guessing > 0 {
		k.Set("game.guessing_seconds", guessing)
	}
	if maxRounds := env.GetInt("GAME_DEFAULT_MAX_ROUNDS", 0); maxRounds > 0 {
		k.Set("game.default_max_rounds", maxRounds)
	}

	if baseURL := env.GetString("JUDGE_BASE_URL", ""); baseURL != "" {
		k.Set("judge.base_url", baseURL)
	}
	if apiKey := env.GetString("JUDGE_API_KEY", ""); apiKey != "" {
		k.Set("judge.api_key", apiKey)
	}
	if timeout := env.GetInt("JUDGE_TIMEOUT_SECONDS", 0); timeout > 0 {
		k.Set("judge.timeout", time.Duration(timeout)*time.Second)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
