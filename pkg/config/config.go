package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/sakashimaa/flash-sale/pkg/utils"
)

type Config struct {
	Env      string   `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTP     `yaml:"http"`
	Kafka    Kafka    `yaml:"kafka"`
	Postgres PG       `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Services Services `yaml:"services"`
	Logger   Logger   `yaml:"logger"`
}

type HTTP struct {
	GatewayPort   string        `yaml:"gateway_port" env:"GATEWAY_PORT" env-default:":3001"`
	OrderPort     string        `yaml:"order_port" env:"ORDER_PORT" env-default:":3002"`
	InventoryPort string        `yaml:"inventory_port" env:"INVENTORY_PORT" env-default:":3004"`
	Timeout       time.Duration `yaml:"timeout" env-default:"5s"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
}

type PG struct {
	URL string `yaml:"url" env:"DB_URL"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
}

// Services holds the base URLs the gateway uses for synchronous status reads.
type Services struct {
	OrderURL     string `yaml:"order_url" env:"ORDER_SERVICE_URL" env-default:"http://localhost:3002"`
	InventoryURL string `yaml:"inventory_url" env:"INVENTORY_SERVICE_URL" env-default:"http://localhost:3004"`
}

type Logger struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Env   string `yaml:"env" env:"LOG_ENV" env-default:"dev"`
}

func MustLoad() *Config {
	configPath := utils.ParseWithFallback("CONFIG_PATH", "./config/local.yaml")

	var cfg Config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// No config file is fine, env defaults carry a local run.
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("error reading config from env: %v", err)
		}
		return &cfg
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("error reading config: %v", err)
	}

	return &cfg
}
