package main

import (
	"context"
	"errors"
	"os"
	"time"

	"kaslot/internal/amqp"
	"kaslot/internal/cli"
	applog "kaslot/internal/log"
	"kaslot/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	logger.Info("Starting kaslot-worker", applog.FieldOperation, applog.OpStartup)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the activity worker")
		os.Exit(1)
	}

	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	activity := worker.NewActivityWorker(sqliteRepo)
	logger.Info("Consuming change messages",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"db_path", cfg.SQLiteDBPath)

	if err := amqpClient.Consume(ctx, activity.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
