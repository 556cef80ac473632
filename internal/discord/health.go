package discord

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type healthResponse struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	DiscordConnected bool   `json:"discord_connected"`
	Timestamp        string `json:"timestamp"`
}

func (b *Bot) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", b.handleHealth)
	return r
}

func (b *Bot) handleHealth(w http.ResponseWriter, r *http.Request) {
	connected := b.session != nil && b.session.State != nil && b.session.DataReady
	resp := healthResponse{
		Status:           "healthy",
		Uptime:           time.Since(b.startTime).Round(time.Second).String(),
		DiscordConnected: connected,
		Timestamp:        b.now().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if !connected {
		resp.Status = "unhealthy"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		b.log.Warn().Err(err).Msg("failed to write health response")
	}
}

func (b *Bot) startHealthServer() {
	b.health = &http.Server{
		Addr:              b.healthAddr,
		Handler:           b.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := b.health.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.log.Error().Err(err).Str("addr", b.healthAddr).Msg("health server stopped")
		}
	}()
}

func (b *Bot) stopHealthServer(ctx context.Context) {
	if b.health == nil {
		return
	}
	if err := b.health.Shutdown(ctx); err != nil {
		b.log.Warn().Err(err).Msg("failed to shut down health server")
	}
}
