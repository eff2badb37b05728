// Package httpserver monta o engine gin comum a todos os serviços e o executa
// com graceful shutdown.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/matheusmosca/twopc-order-coordinator/internal/logging"
)

const shutdownGrace = 10 * time.Second

// NewRouter retorna um engine com recovery, tracing, log de requisições e
// métricas Prometheus, além das rotas /health e /metrics.
func NewRouter(serviceName string) *gin.Engine {
	registry := prometheus.NewRegistry()
	metrics := NewServerMetrics(registry, serviceName)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(logging.Middleware())
	r.Use(metrics.Middleware())

	r.GET("/health", HandleHealth(serviceName))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	return r
}

// HandleHealth handler para health check
func HandleHealth(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	}
}

// Run serve handler na porta até ctx ser cancelado e então espera as
// requisições em andamento por até shutdownGrace.
func Run(ctx context.Context, handler http.Handler, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", port).Msg("🚀 listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return errors.Wrap(err, "http server")
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http server shutdown")
	}
	return nil
}
