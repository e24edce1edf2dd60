package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/sakashimaa/flash-sale/internal/order/client"
	"github.com/sakashimaa/flash-sale/internal/order/repository"
	"github.com/sakashimaa/flash-sale/internal/order/service"
	orderHttp "github.com/sakashimaa/flash-sale/internal/order/transport/http"
	orderKafka "github.com/sakashimaa/flash-sale/internal/order/transport/kafka"
	"github.com/sakashimaa/flash-sale/pkg/config"
	"github.com/sakashimaa/flash-sale/pkg/db"
	kafka2 "github.com/sakashimaa/flash-sale/pkg/kafka"
	"github.com/sakashimaa/flash-sale/pkg/mylogger"
	outbox "github.com/sakashimaa/flash-sale/pkg/outbox/repository"
	"github.com/sakashimaa/flash-sale/pkg/outbox/worker"
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

	tp, err := utils.InitTracer(ctx, "order-service")
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}

	pool, err := db.NewPostgresDB(ctx, cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("failed to create pool: %v", err)
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	orderRepo := repository.NewOrderRepository(pool, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	outboxRepo := outbox.NewOutboxRepository(pool, logger)
	orderService := service.NewOrderService(pool, logger, orderRepo, productRepo, outboxRepo)

	kafkaProducer, err := kafka2.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		log.Fatalf("error creating kafka producer: %v", err)
	}

	outboxProcessor := worker.NewOutboxProcessor(pool, outboxRepo, kafkaProducer, logger)
	go outboxProcessor.Start(ctx)

	stockClient := client.NewStockClient(cfg.Services.InventoryURL)
	handler := orderHttp.NewHandler(orderService, stockClient, logger)

	app := fiber.New()
	app.Use(otelfiber.Middleware())
	orderHttp.RegisterRoutes(app, handler)

	go func() {
		log.Printf("Order service listening on %s 🔥", cfg.HTTP.OrderPort)
		if err := app.Listen(cfg.HTTP.OrderPort); err != nil {
			log.Fatalf("error serving http: %v", err)
		}
	}()

	consumer := orderKafka.NewConsumer(orderService, logger)
	go func() {
		if err := consumer.Start(ctx, cfg.Kafka.Brokers); err != nil {
			mylogger.Error(ctx, logger, "Consumer stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, exit := context.WithTimeout(context.Background(), time.Second*5)
	defer exit()

	mylogger.Info(shutdownCtx, logger, "Shutting down order service")

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down http server", zap.Error(err))
	}

	if err := kafkaProducer.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close producer", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}

	pool.Close()
}
