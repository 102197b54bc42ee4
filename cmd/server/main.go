// Command server hosts live simulation sessions over HTTP. Each session
// ticks in the background at TICK_RATE ticks per second.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/cxd309/minimetro/internal/api"
	"github.com/cxd309/minimetro/internal/config"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "server")

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.0000",
	})
	logrus.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := api.NewSessions(api.Options{
		Params:        cfg.Params(),
		StartStations: cfg.StartStations,
		TickInterval:  time.Duration(float64(time.Second) / cfg.TickRate),
	})

	// Sessions created without a seed get consecutive seeds from SEED.
	var seed atomic.Uint64
	seed.Store(cfg.Seed)
	nextSeed := func() uint64 { return seed.Add(1) - 1 }

	handler := api.NewHandler(ctx, sessions, nextSeed)
	s := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(handler, cfg.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go reap(ctx, sessions, cfg.SessionTTL)

	go func() {
		<-ctx.Done()
		log.Info("stopping...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.Infof("server listening at %v", s.Addr)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("failed to serve: %v", err)
		sessions.Close()
		os.Exit(1)
	}
	sessions.Close()
	log.Info("server closed")
}

// reap drops idle sessions once a minute.
func reap(ctx context.Context, sessions *api.Sessions, ttl time.Duration) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Reap(ttl); n > 0 {
				log.Infof("reaped %d idle sessions", n)
			}
		}
	}
}
