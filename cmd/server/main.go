// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/shiveeshfotedar/dungeon-dashers/internal/handlers"
	"github.com/shiveeshfotedar/dungeon-dashers/internal/middleware"
	"github.com/shiveeshfotedar/dungeon-dashers/internal/room"
)

func main() {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	reg := room.NewRegistry(logger)

	r := chi.NewRouter()

	// The websocket route skips the request logger so the upgrade path stays
	// untouched; connection lifecycle is logged inside the handler.
	r.Get("/ws", handlers.WSHandler(logger, reg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestLogger(logger))
		r.Get("/healthz", handlers.HealthzHandler)
		r.Get("/rooms", handlers.RoomsHandler(reg))
	})

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
