package devserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/flowtask/flowtask/internal/devserver/backend"
	"github.com/flowtask/flowtask/internal/infrastructure/config"
)

const shutdownTimeout = 10 * time.Second

// Run serves the development backend until ctx is cancelled.
func Run(ctx context.Context, cfg *config.DevServer, log zerolog.Logger) error {
	b := backend.New(cfg.JWTSecret, cfg.TokenTTL)
	e, err := NewRouter(b, log, Options{})
	if err != nil {
		return err
	}

	addr := net.JoinHostPort("", cfg.Port)
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("devserver listening")
		errc <- e.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
