package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/signalmesh/trafficctl/internal/logging"
)

// InitLogger configures the process-wide zerolog logger for one
// binary and returns it. Level and formatting honor the
// TRAFFICCTL_LOG_* environment overrides.
func InitLogger(app string) zerolog.Logger {
	cfg := logging.ConfigureRuntime()
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.NoColor,
	}
	ctx := zerolog.New(output).With().Str("app", app)
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	logger := ctx.Logger()
	log.Logger = logger
	return logger
}
