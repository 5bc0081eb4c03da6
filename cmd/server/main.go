// Package main is the process entrypoint: build the container, start the
// HTTP server and the background job server/scheduler, and shut all three
// down gracefully on SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/kbvault/kbvault/internal/config"
	"github.com/kbvault/kbvault/internal/container"
	"github.com/kbvault/kbvault/internal/jobs"
	"github.com/kbvault/kbvault/internal/runtime"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	c := container.Build(runtime.GetContainer())

	err := c.Invoke(func(
		cfg *config.Config,
		engine *gin.Engine,
		jobsCfg jobs.Config,
		mux *asynq.ServeMux,
		jobServer *asynq.Server,
		scheduler *asynq.Scheduler,
	) error {
		if err := jobServer.Start(mux); err != nil {
			return fmt.Errorf("start job server: %w", err)
		}
		defer jobServer.Shutdown()

		recoveryCron := "@every 5m"
		if cfg.Jobs != nil && cfg.Jobs.RecoveryCron != "" {
			recoveryCron = cfg.Jobs.RecoveryCron
		}
		if _, err := jobs.RegisterRecoveryScan(scheduler, recoveryCron); err != nil {
			return fmt.Errorf("register recovery scan: %w", err)
		}
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer scheduler.Shutdown()

		shutdownTimeout := 30 * time.Second
		if cfg.Server != nil && cfg.Server.ShutdownTimeout > 0 {
			shutdownTimeout = cfg.Server.ShutdownTimeout
		}

		server := &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: engine,
		}

		ctx, done := context.WithCancel(context.Background())
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-signals
			log.Printf("received signal %v, shutting down", sig)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("server forced to shutdown: %v", err)
			}
			done()
		}()

		log.Printf("server listening at %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("listen: %w", err)
		}

		<-ctx.Done()
		return nil
	})
	if err != nil {
		log.Fatalf("failed to run application: %v", err)
	}
}
