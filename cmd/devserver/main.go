package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"optiondash-desktop/internal/config"
	"optiondash-desktop/internal/devserver"
	"optiondash-desktop/internal/models"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	store := devserver.NewJobStore(nil, devserver.DefaultTimeline, models.UserProfile{
		Username:     "dev",
		Plan:         "pro",
		ReportsQuota: 100,
	})
	router := devserver.SetupRoutes(devserver.NewHandlers(store), cfg.API.Token)

	server := &http.Server{
		Addr:    cfg.DevServer.Addr,
		Handler: router,
	}

	go func() {
		log.Printf("[devserver] Listening on %s", cfg.DevServer.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("[devserver] Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[devserver] Shutdown error: %v", err)
	}
}
