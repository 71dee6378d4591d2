package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/glimpse/internal/config"
	"github.com/zsiec/glimpse/internal/logger"
	"github.com/zsiec/glimpse/internal/preview"
	"github.com/zsiec/glimpse/internal/preview/source"
	"github.com/zsiec/glimpse/internal/preview/types"
	"github.com/zsiec/glimpse/pkg/version"
)

func main() {
	var (
		configPath  string
		showVersion bool
		rawPath     string
		width       int
		height      int
		fps         float64
		frames      int64
	)

	flag.StringVar(&configPath, "config", "configs/default.yaml", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.StringVar(&rawPath, "raw", "", "Path to a packed BGR24 raw frame file (synthetic source if empty)")
	flag.IntVar(&width, "width", 640, "Frame width")
	flag.IntVar(&height, "height", 360, "Frame height")
	flag.Float64Var(&fps, "fps", 30, "Source frame rate")
	flag.Int64Var(&frames, "frames", 900, "Synthetic source frame count")
	flag.Parse()

	if showVersion {
		fmt.Println(version.GetInfo().String())
		os.Exit(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithField("version", version.GetInfo().Short()).Info("Starting Glimpse preview engine")
	log.WithField("config_path", configPath).Debug("Configuration loaded")

	engine, err := preview.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create preview engine")
	}

	src, err := openSource(rawPath, width, height, fps, frames)
	if err != nil {
		log.WithError(err).Fatal("Failed to open frame source")
	}
	if err := engine.Load(src); err != nil {
		log.WithError(err).Fatal("Failed to load frame source")
	}

	var latest atomic.Value
	engine.OnStats(func(snap preview.StatsSnapshot) {
		latest.Store(snap)
	})
	engine.OnError(func(kind, message string) {
		log.WithFields(logrus.Fields{"kind": kind, "message": message}).Warn("Playback error")
	})
	engine.OnStateChange(func(state types.PlaybackState) {
		log.WithField("state", state.String()).Info("Playback state changed")
	})
	engine.OnFrame(func(*types.Frame) {})

	if cfg.Metrics.Enabled {
		go startMetricsServer(cfg.Metrics, &latest, log)
	}

	if err := engine.Play(); err != nil {
		log.WithError(err).Fatal("Failed to start playback")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.WithField("signal", sig).Info("Received shutdown signal")

	if err := engine.Close(); err != nil {
		log.WithError(err).Error("Failed to close preview engine")
	}
	if closer, ok := src.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.WithError(err).Error("Failed to close frame source")
		}
	}
	log.Info("Shutdown complete")
}

func openSource(rawPath string, width, height int, fps float64, frames int64) (types.FrameSource, error) {
	if rawPath != "" {
		return source.OpenRaw(rawPath, width, height, fps)
	}
	return source.NewSynthetic(width, height, fps, frames)
}

// startMetricsServer serves prometheus metrics plus the latest stats
// snapshot as JSON.
func startMetricsServer(cfg config.MetricsConfig, latest *atomic.Value, log *logrus.Logger) {
	router := mux.NewRouter()
	router.Handle(cfg.Path, promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := latest.Load().(preview.StatsSnapshot)
		if !ok {
			http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			log.WithError(err).Error("Failed to encode stats snapshot")
		}
	}).Methods(http.MethodGet)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.WithField("addr", addr).Info("Starting metrics server")

	if err := http.ListenAndServe(addr, router); err != nil {
		log.WithError(err).Error("Metrics server error")
	}
}
