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
	"github.com/sakashimaa/flash-sale/internal/inventory/engine"
	"github.com/sakashimaa/flash-sale/internal/inventory/repository"
	"github.com/sakashimaa/flash-sale/internal/inventory/service"
	inventoryHttp "github.com/sakashimaa/flash-sale/internal/inventory/transport/http"
	inventoryKafka "github.com/sakashimaa/flash-sale/internal/inventory/transport/kafka"
	"github.com/sakashimaa/flash-sale/pkg/config"
	"github.com/sakashimaa/flash-sale/pkg/db"
	kafka2 "github.com/sakashimaa/flash-sale/pkg/kafka"
	"github.com/sakashimaa/flash-sale/pkg/mylogger"
	"github.com/sakashimaa/flash-sale/pkg/redisdb"
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

	tp, err := utils.InitTracer(ctx, "inventory-service")
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}

	pool, err := db.NewPostgresDB(ctx, cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("failed to create pool: %v", err)
	}

	rdb, err := redisdb.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
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

	eng := engine.NewEngine(rdb, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	inventoryService := service.NewInventoryService(eng, productRepo, kafkaProducer, logger)

	if err := inventoryService.SeedStockCounters(ctx); err != nil {
		log.Fatalf("failed to seed stock counters: %v", err)
	}

	handler := inventoryHttp.NewHandler(inventoryService, logger)

	app := fiber.New()
	app.Use(otelfiber.Middleware())
	inventoryHttp.RegisterRoutes(app, handler)

	go func() {
		log.Printf("Inventory service listening on %s 🔥", cfg.HTTP.InventoryPort)
		if err := app.Listen(cfg.HTTP.InventoryPort); err != nil {
			log.Fatalf("error serving http: %v", err)
		}
	}()

	consumer := inventoryKafka.NewConsumer(inventoryService, logger)
	go func() {
		if err := consumer.Start(ctx, cfg.Kafka.Brokers); err != nil {
			mylogger.Error(ctx, logger, "Consumer stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, exit := context.WithTimeout(context.Background(), time.Second*5)
	defer exit()

	mylogger.Info(shutdownCtx, logger, "Shutting down inventory service")

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down http server", zap.Error(err))
	}

	if err := kafkaProducer.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close producer", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}

	if err := rdb.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close redis client", zap.Error(err))
	}

	pool.Close()
}
