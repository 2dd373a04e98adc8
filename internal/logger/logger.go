package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

func Init() {
	InitWithWriter(os.Stdout)
	Info("logger initialized", nil)
}

// InitWithWriter configures the package logger from LOG_LEVEL and
// LOG_FORMAT ("json" or "console").
func InitWithWriter(w io.Writer) {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if os.Getenv("LOG_FORMAT") == "console" {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger().Level(level)
	} else {
		Logger = zerolog.New(w).With().Timestamp().Logger().Level(level)
	}

	zlog.Logger = Logger
}

func Debug(msg string, fields map[string]any) {
	Logger.Debug().Fields(fields).Msg(msg)
}

func Info(msg string, fields map[string]any) {
	Logger.Info().Fields(fields).Msg(msg)
}

func Warn(msg string, fields map[string]any) {
	Logger.Warn().Fields(fields).Msg(msg)
}

func Error(msg string, fields map[string]any) {
	Logger.Error().Fields(fields).Msg(msg)
}

func Fatal(msg string, fields map[string]any) {
	Logger.Fatal().Fields(fields).Msg(msg)
}
