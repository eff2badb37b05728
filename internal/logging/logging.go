// Package logging configura o zerolog dos serviços e leva no contexto da
// requisição um logger marcado com o trace id.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/twopc-order-coordinator/internal/config"
)

// Setup troca o logger global por um marcado com o nome do serviço.
// LOG_FORMAT=console usa a saída legível, LOG_LEVEL define o nível mínimo
// (info por padrão).
func Setup(service string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if config.GetEnv("LOG_FORMAT", "json") == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(config.GetEnv("LOG_LEVEL", "info"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger := zerolog.New(out).Level(level).With().Timestamp().Str("service", service).Logger()
	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger

	return logger
}

// Ctx retorna o logger guardado em ctx ou o global
func Ctx(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// Middleware deve rodar depois do otelgin: o span do servidor precisa estar
// no contexto quando o trace id é lido.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()

		logger := log.Logger
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			logger = logger.With().Str("trace_id", sc.TraceID().String()).Logger()
		}
		c.Request = c.Request.WithContext(logger.WithContext(ctx))

		c.Next()

		event := logger.Info()
		if c.Writer.Status() >= 500 {
			event = logger.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request handled")
	}
}
