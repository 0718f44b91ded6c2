package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"cabwatch/config"
	"cabwatch/internal/distress"
	"cabwatch/internal/geo"
	"cabwatch/internal/history"
	inputredis "cabwatch/internal/input/redis"
	"cabwatch/internal/ledger"
	"cabwatch/internal/logger"
	"cabwatch/internal/output/alertjson"
	"cabwatch/internal/output/redisps"
	"cabwatch/internal/pipeline"
	"cabwatch/internal/predict"
	"cabwatch/internal/risk"
	"cabwatch/internal/server"
	"cabwatch/internal/tracker"
)

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat("cabwatch.yml"); err == nil {
		return "cabwatch.yml"
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, "cabwatch.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "cabwatch.yml"
}

func applyDefaults(cfg *config.Config) {
	if cfg.Cabwatch.Input.Redis.Addr == "" {
		cfg.Cabwatch.Input.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.Cabwatch.Input.Redis.Queue == "" {
		cfg.Cabwatch.Input.Redis.Queue = inputredis.DefaultQueue
	}
	if cfg.Cabwatch.Input.Redis.BlockTimeout == 0 {
		cfg.Cabwatch.Input.Redis.BlockTimeout = inputredis.DefaultBlockTimeout
	}

	if cfg.Cabwatch.Publish.Redis.Addr == "" {
		cfg.Cabwatch.Publish.Redis.Addr = cfg.Cabwatch.Input.Redis.Addr
	}
	if cfg.Cabwatch.Publish.Redis.ChannelPrefix == "" {
		cfg.Cabwatch.Publish.Redis.ChannelPrefix = "cabwatch"
	}

	if cfg.Cabwatch.Pipeline.Workers <= 0 {
		cfg.Cabwatch.Pipeline.Workers = 8
	}
	if cfg.Cabwatch.Pipeline.BatchSize <= 0 {
		cfg.Cabwatch.Pipeline.BatchSize = 1000
	}
	if cfg.Cabwatch.Pipeline.FlushInterval <= 0 {
		cfg.Cabwatch.Pipeline.FlushInterval = 2 * time.Second
	}

	if cfg.Cabwatch.Predictor.HorizonSeconds <= 0 {
		cfg.Cabwatch.Predictor.HorizonSeconds = predict.DefaultHorizonSeconds
	}
	if cfg.Cabwatch.History.Capacity <= 0 {
		cfg.Cabwatch.History.Capacity = history.DefaultCapacity
	}

	if cfg.Cabwatch.AlertArchive.Mode == "" {
		cfg.Cabwatch.AlertArchive.Mode = "file"
	}
	if cfg.Cabwatch.AlertArchive.File.Path == "" {
		cfg.Cabwatch.AlertArchive.File.Path = "output/alerts.jsonl"
	}

	if cfg.Cabwatch.Server.Addr == "" {
		cfg.Cabwatch.Server.Addr = ":8080"
	}
	if cfg.Cabwatch.Logging.Level == "" {
		cfg.Cabwatch.Logging.Level = "info"
	}
}

func main() {
	configArg := ""
	if len(os.Args) > 1 {
		configArg = os.Args[1]
	}
	configPath := findConfigFile(configArg)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyDefaults(cfg)

	if err := logger.Init(cfg.Cabwatch.Logging.Enabled, cfg.Cabwatch.Logging.Level, cfg.Cabwatch.Logging.File, cfg.Cabwatch.Logging.Console); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Infof("Cabwatch starting")
	logger.Infof("Config loaded from: %s", configPath)

	index, err := geo.NewIndex(cfg.Cabwatch.Zones)
	if err != nil {
		logger.Errorf("Failed to build zone index: %v", err)
		log.Fatalf("Failed to build zone index: %v", err)
	}
	logger.Infof("Zone index built: %d zones", len(index.Zones()))

	consumer, err := inputredis.NewConsumer(inputredis.Config{
		Addr:         cfg.Cabwatch.Input.Redis.Addr,
		Password:     cfg.Cabwatch.Input.Redis.Password,
		DB:           cfg.Cabwatch.Input.Redis.DB,
		Queue:        cfg.Cabwatch.Input.Redis.Queue,
		BlockTimeout: cfg.Cabwatch.Input.Redis.BlockTimeout,
	})
	if err != nil {
		logger.Errorf("Failed to create Redis consumer: %v", err)
		log.Fatalf("Failed to create Redis consumer: %v", err)
	}

	publisher, err := redisps.NewPublisher(redisps.Config{
		Addr:          cfg.Cabwatch.Publish.Redis.Addr,
		Password:      cfg.Cabwatch.Publish.Redis.Password,
		DB:            cfg.Cabwatch.Publish.Redis.DB,
		ChannelPrefix: cfg.Cabwatch.Publish.Redis.ChannelPrefix,
	})
	if err != nil {
		logger.Errorf("Failed to create Redis publisher: %v", err)
		log.Fatalf("Failed to create Redis publisher: %v", err)
	}

	traces := ledger.NewTraceLedger()
	alerts, err := ledger.NewAlertLedger()
	if err != nil {
		logger.Errorf("Failed to create alert ledger: %v", err)
		log.Fatalf("Failed to create alert ledger: %v", err)
	}
	logger.Infof("Alert ledger key: %s", alerts.PublicKeyHex())

	scorer := risk.NewScorer(risk.Config{
		RoadPoints:    cfg.Cabwatch.Scoring.RoadPoints,
		IsolatedAreas: cfg.Cabwatch.Scoring.IsolatedAreas,
	})
	detector := distress.NewDetector(scorer, traces)
	predictor := predict.NewPredictor(index, cfg.Cabwatch.Predictor.HorizonSeconds)
	hist := history.NewStore(cfg.Cabwatch.History.Capacity)

	trk := tracker.New(index, hist, scorer, predictor, detector, traces, alerts, publisher)

	var archive pipeline.AlertWriter
	switch cfg.Cabwatch.AlertArchive.Mode {
	case "file":
		w, err := alertjson.NewWriter(cfg.Cabwatch.AlertArchive.File.Path)
		if err != nil {
			logger.Errorf("Failed to create alert archive writer: %v", err)
			log.Fatalf("Failed to create alert archive writer: %v", err)
		}
		archive = w
		logger.Infof("Alert archive mode: file (%s)", cfg.Cabwatch.AlertArchive.File.Path)
	case "none":
		logger.Infof("Alert archive disabled")
	default:
		log.Fatalf("Unknown alert archive mode: %s", cfg.Cabwatch.AlertArchive.Mode)
	}

	pipe := pipeline.NewPositionPipeline(
		consumer,
		trk,
		alerts,
		archive,
		cfg.Cabwatch.Pipeline.Workers,
		cfg.Cabwatch.Pipeline.BatchSize,
		cfg.Cabwatch.Pipeline.FlushInterval,
	)

	srv := server.New(cfg.Cabwatch.Server.Addr, index, trk, traces, alerts, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := pipe.Run(ctx); err != nil && err != context.Canceled {
			logger.Errorf("Pipeline error: %v", err)
		}
	}()
	go func() {
		if err := srv.Run(ctx); err != nil {
			logger.Errorf("HTTP server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Infof("Shutting down")
	cancel()
	time.Sleep(1 * time.Second)

	if err := pipe.Close(); err != nil {
		logger.Errorf("Error closing pipeline: %v", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Errorf("Error closing publisher: %v", err)
	}

	logger.Infof("Cabwatch stopped")
}
