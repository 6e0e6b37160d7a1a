package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cfg "github.com/feichai0017/dedup-scanner/config"
	"github.com/feichai0017/dedup-scanner/internal/service/scan"
	"github.com/feichai0017/dedup-scanner/pkg/logger"
	"github.com/feichai0017/dedup-scanner/pkg/worker"
)

func main() {
	// init logger
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// init scan service
	scanService, err := scan.GetService(log)
	if err != nil {
		log.Error("Failed to create scan service", logger.Error(err))
		os.Exit(1)
	}

	redisCfg := cfg.GetRedisConfig()
	workerCfg := &worker.Config{
		RedisAddr:     redisCfg.Addr,
		RedisPassword: redisCfg.Password,
		RedisDB:       redisCfg.DB,
		Concurrency:   10,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
	}

	scanWorker, err := worker.NewScanWorker(workerCfg, scanService, log)
	if err != nil {
		log.Error("Failed to create scan worker", logger.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scanWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	// wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	scanWorker.Stop()
	log.Info("Worker stopped")
}
