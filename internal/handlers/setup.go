package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"chatapp-client/internal/config"
	"chatapp-client/internal/dispatch"
	"chatapp-client/internal/hub"
	"chatapp-client/internal/state"
)

var sugar *zap.SugaredLogger
var st *state.State
var eventHub *hub.Hub
var dispatcher *dispatch.Dispatcher

func Setup(_sugar *zap.SugaredLogger, _state *state.State, _hub *hub.Hub, _dispatcher *dispatch.Dispatcher) {
	sugar = _sugar
	st = _state
	eventHub = _hub
	dispatcher = _dispatcher
}

func Router(cfg config.Http) http.Handler {
	r := chi.NewRouter()
	if cfg.PrintHttpRequests {
		r.Use(middleware.Logger)
	}

	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(api chi.Router) {
		api.Get("/test", Test)

		api.Get("/cache/{kind}/{id}", GetCached)

		api.Route("/message/{channelID}/{messageID}", func(r chi.Router) {
			r.Post("/edit", EditMessage)
			r.Delete("/", DeleteMessage)

			r.Put("/reactions/{emoji}", AddReaction)
			r.Delete("/reactions/{emoji}", RemoveReaction)
			r.Delete("/reactions", RemoveAllReactions)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Serve runs the control API until ctx is done.
func Serve(ctx context.Context, cfg config.Http) error {
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Address, cfg.Port),
		Handler: Router(cfg),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			sugar.Error(err)
		}
	}()

	sugar.Infof("Control API is running on http://%s", server.Addr)
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
