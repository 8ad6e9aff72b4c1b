package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLevel   = "PBXEDIT_LOG_LEVEL"
	EnvNoColor = "PBXEDIT_LOG_NOCOLOR"
)

// New builds a console logger writing to out and makes it the global one.
// PBXEDIT_LOG_LEVEL overrides level when it names a valid level.
func New(app string, out io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    noColor(),
	}
	logger := zerolog.New(output).Level(levelFromEnv(level)).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

func levelFromEnv(fallback zerolog.Level) zerolog.Level {
	raw := strings.TrimSpace(os.Getenv(EnvLevel))
	if raw == "" {
		return fallback
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil || level == zerolog.NoLevel {
		return fallback
	}
	return level
}

func noColor() bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(EnvNoColor)))
	return err == nil && v
}
