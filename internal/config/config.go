package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Game     GameConfig
	Match    MatchConfig
	Stamp    StampConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
	Host string
	Env  string // "development" or "production"
}

// GameConfig holds the per-room timing and scoring parameters
type GameConfig struct {
	RoundMax          int
	QuestionTime      time.Duration // answer window per question unless overridden
	PrestartSeconds   int           // countdown ticks broadcast before the first question
	PrestartTick      time.Duration // spacing between countdown ticks
	AnswerOpenDelay   time.Duration // submissions earlier than this after open are ignored
	RevealPause       time.Duration // pause between reveal and the next question
	FirstCorrectPts   int
	CorrectPts        int
	AutoStartPlayers  int // random rooms begin the countdown at this many humans
	BotFillTarget     int // random rooms are topped up with bots to this size
	BotCorrectPercent int
	BotMinDelay       time.Duration
	BotMaxDelay       time.Duration
	RoomCodeLength    int
}

// MatchConfig holds matchmaking queue parameters
type MatchConfig struct {
	GroupSize   int
	GracePeriod time.Duration // take whoever is waiting after this long
}

// StampConfig holds the stamp relay policy
type StampConfig struct {
	Cooldown    time.Duration
	MaxPerRound int
}

// DatabaseConfig holds sqlite settings
type DatabaseConfig struct {
	Path string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Game: GameConfig{
			RoundMax:          getEnvInt("ROUND_MAX", 5),
			QuestionTime:      getEnvSeconds("QUESTION_TIME_SECONDS", 12*time.Second),
			PrestartSeconds:   getEnvInt("PRESTART_SECONDS", 5),
			PrestartTick:      time.Second,
			AnswerOpenDelay:   getEnvMillis("ANSWER_OPEN_DELAY_MS", 800*time.Millisecond),
			RevealPause:       getEnvMillis("REVEAL_PAUSE_MS", 2000*time.Millisecond),
			FirstCorrectPts:   getEnvInt("FIRST_CORRECT_POINTS", 2),
			CorrectPts:        getEnvInt("CORRECT_POINTS", 1),
			AutoStartPlayers:  getEnvInt("AUTO_START_PLAYERS", 2),
			BotFillTarget:     getEnvInt("BOT_FILL_TARGET", 4),
			BotCorrectPercent: getEnvInt("BOT_CORRECT_PERCENT", 40),
			BotMinDelay:       getEnvSeconds("BOT_MIN_DELAY_SECONDS", 4*time.Second),
			BotMaxDelay:       getEnvSeconds("BOT_MAX_DELAY_SECONDS", 8*time.Second),
			RoomCodeLength:    getEnvInt("ROOM_CODE_LENGTH", 6),
		},
		Match: MatchConfig{
			GroupSize:   getEnvInt("MATCH_GROUP_SIZE", 4),
			GracePeriod: getEnvSeconds("MATCH_GRACE_SECONDS", 10*time.Second),
		},
		Stamp: StampConfig{
			Cooldown:    getEnvSeconds("STAMP_COOLDOWN_SECONDS", 4*time.Second),
			MaxPerRound: getEnvInt("STAMP_MAX_PER_ROUND", 10),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./quizrally.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// getEnv returns an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as an integer or a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvSeconds reads a whole-second environment variable as a duration
func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return time.Duration(intValue) * time.Second
		}
	}
	return defaultValue
}

// getEnvMillis reads a millisecond environment variable as a duration
func getEnvMillis(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return time.Duration(intValue) * time.Millisecond
		}
	}
	return defaultValue
}
