package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sakashimaa/flash-sale/internal/gateway/client"
	gatewayHttp "github.com/sakashimaa/flash-sale/internal/gateway/transport/http"
	"github.com/sakashimaa/flash-sale/internal/gateway/transport/http/handler"
	gatewayKafka "github.com/sakashimaa/flash-sale/internal/gateway/transport/kafka"
	"github.com/sakashimaa/flash-sale/internal/gateway/ws"
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

	tp, err := utils.InitTracer(ctx, "api-gateway")
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

	orderClient := client.NewOrderClient(cfg.Services.OrderURL, cfg.HTTP.Timeout)
	inventoryClient := client.NewInventoryClient(cfg.Services.InventoryURL, cfg.HTTP.Timeout)

	hub := ws.NewHub(logger)

	handlers := &gatewayHttp.Handlers{
		Order:   handler.NewOrderHandler(kafkaProducer, orderClient, logger),
		Product: handler.NewProductHandler(orderClient, inventoryClient, logger),
	}

	app := gatewayHttp.NewApp(handlers, hub)

	go func() {
		log.Printf("API gateway listening on %s 🔥", cfg.HTTP.GatewayPort)
		if err := app.Listen(cfg.HTTP.GatewayPort); err != nil {
			log.Fatalf("error serving http: %v", err)
		}
	}()

	consumer := gatewayKafka.NewConsumer(hub, logger)
	go func() {
		if err := consumer.Start(ctx, cfg.Kafka.Brokers); err != nil {
			mylogger.Error(ctx, logger, "Consumer stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, exit := context.WithTimeout(context.Background(), time.Second*5)
	defer exit()

	mylogger.Info(shutdownCtx, logger, "Shutting down api gateway")

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down http server", zap.Error(err))
	}

	if err := kafkaProducer.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close producer", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}
}
