package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sakashimaa/flash-sale/internal/notification/service"
	notificationKafka "github.com/sakashimaa/flash-sale/internal/notification/transport/kafka"
	"github.com/sakashimaa/flash-sale/pkg/config"
	kafka2 "github.com/sakashimaa/flash-sale/pkg/kafka"
	"github.com/sakashimaa/flash-sale/pkg/mylogger"
	"github.com/sakashimaa/flash-sale/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	tp, err := utils.InitTracer(ctx, "notification-service")
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	kafkaProducer, err := kafka2.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		log.Fatalf("error creating kafka producer: %v", err)
	}

	translator := service.NewTranslator()
	consumer := notificationKafka.NewConsumer(translator, kafkaProducer, logger)

	log.Println("Notification service consuming 🔥")
	if err := consumer.Start(ctx, cfg.Kafka.Brokers); err != nil {
		mylogger.Error(ctx, logger, "Consumer stopped", zap.Error(err))
	}

	<-ctx.Done()

	shutdownCtx, exit := context.WithTimeout(context.Background(), time.Second*5)
	defer exit()

	mylogger.Info(shutdownCtx, logger, "Shutting down notification service")

	if err := kafkaProducer.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close producer", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}
}
