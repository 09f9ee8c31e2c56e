package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"chessroom/internal/bootstrap"
	engineDelivery "chessroom/internal/delivery/engine"
	sessionDelivery "chessroom/internal/delivery/session"
	searchengine "chessroom/internal/engine"
	ownMiddleware "chessroom/internal/middleware"
	"chessroom/internal/relay"
	roomRepo "chessroom/internal/repository/room"
	engineuc "chessroom/internal/usecase/engine"
	sessionuc "chessroom/internal/usecase/session"
)

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Error("Failed to setup configuration", zap.Error(err))
		return
	}

	r := chi.NewRouter()
	handlers := initializeDeliveryHandlers(*cfg, logger)
	handlers.Router(r, cfg.IsLocalCors)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go handleShutdown(srv, logger)

	logger.Infof("Server is running on port %s", cfg.ServerPort)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

type mainDeliveryHandler struct {
	session *sessionDelivery.Handler
	engine  *engineDelivery.Handler
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)

	r.Get("/ws", h.session.HandleWS)
	r.Get("/rooms", h.session.HandleRooms)
	r.Post("/suggestMove", h.engine.HandleSuggestMove)
}

func initializeDeliveryHandlers(cfg bootstrap.Config, log *zap.SugaredLogger) *mainDeliveryHandler {
	seed := cfg.EngineSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	eng := searchengine.New(rand.New(rand.NewSource(seed)))
	worker := engineuc.NewWorker(eng, cfg.EngineWorkers, cfg.EngineMaxDepth, log)

	registry := roomRepo.NewRegistry(log)
	rel := relay.New(log)
	controller := sessionuc.NewController(registry, rel, worker, eng, log)

	return &mainDeliveryHandler{
		session: sessionDelivery.NewHandler(log, rel, controller),
		engine:  engineDelivery.NewHandler(log, worker),
	}
}

func handleShutdown(srv *http.Server, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down server", zap.Error(err))
	}
}
