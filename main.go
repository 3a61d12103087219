package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/vwapchart/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Error().Msgf("loading config: %v", err)
		os.Exit(1)
	}

	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	zerolog.SetGlobalLevel(level)
	log.Debug().Msgf("loaded config: %s", spew.Sdump(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chartCfg := service.ChartConfig{
		Addr:          cfg.Addr,
		MaxUploadSize: int64(cfg.MaxUploadMB) << 20,
		TickSpacing:   time.Duration(cfg.TickSpacing) * time.Minute,
		ShowVolume:    cfg.ShowVolume,
		AssetsHost:    cfg.AssetsHost,
		StatsInterval: time.Duration(cfg.StatsInterval) * time.Minute,
	}
	chart, err := service.NewChart(&chartCfg)
	if err != nil {
		log.Error().Msgf("creating chart service: %v", err)
		os.Exit(1)
	}

	go handleTermination(ctx, cancel)

	err = chart.Run(ctx)
	if err != nil {
		log.Error().Msgf("running chart service: %v", err)
		os.Exit(1)
	}
}
