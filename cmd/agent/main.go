package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipx/clipx-agent/internal/api"
	"github.com/clipx/clipx-agent/internal/config"
	"github.com/clipx/clipx-agent/internal/db"
	"github.com/clipx/clipx-agent/internal/exporter"
	"github.com/clipx/clipx-agent/internal/ffmpeg"
	"github.com/clipx/clipx-agent/internal/logging"
	"github.com/clipx/clipx-agent/internal/media"
	"github.com/clipx/clipx-agent/internal/probe"
	"github.com/clipx/clipx-agent/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ScratchDir(), 0755); err != nil {
		return fmt.Errorf("failed to create scratch dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting clipx agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := media.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                    CLIPX AGENT v%-7s                    ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	prober := func(ctx context.Context, path string) (*probe.MediaInfo, error) {
		return probe.Probe(ctx, cfg.FFprobePath(), path)
	}
	probes := media.NewProbeCoordinator(repo, prober, cfg.ProbeTimeout(), logger)
	mediaSvc := media.NewService(repo, probes, logger)

	supervisor := ffmpeg.NewSupervisor(logger)
	exportSvc := exporter.NewService(repo, exporter.New(supervisor, cfg.ScratchDir(), logger), cfg.FFmpegPath(), logger)

	apiServer := api.NewServer(api.ServerConfig{
		Port:          cfg.Port(),
		MediaService:  mediaSvc,
		ExportService: exportSvc,
		Repository:    repo,
		Logger:        logger,
		StartTime:     startTime,
		Version:       config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Logger: logger,
			OnCancelExport: func() error {
				jobID := exportSvc.Active()
				if jobID == "" {
					return nil
				}
				return exportSvc.Cancel(jobID)
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()

		// Keep the menu in step with the agent: the cancel item is live
		// only while an export runs.
		go func() {
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					status := "Idle"
					exporting := exportSvc.Active() != ""
					if exporting {
						status = "Exporting"
					}
					tray.UpdateStatus(status, exporting)
					if count, err := mediaSvc.CountFiles(context.Background()); err == nil {
						tray.UpdateFilesCount(count)
					}
				case <-quitCh:
					return
				}
			}
		}()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	if jobID := exportSvc.Active(); jobID != "" {
		logger.Info("cancelling running export", "job_id", jobID)
		exportSvc.Cancel(jobID)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	probes.Wait()

	logger.Info("shutdown complete")
	return nil
}

func ensureAuthToken(repo media.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
