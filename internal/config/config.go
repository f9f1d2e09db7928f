package config

import (
	"log"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// AppConfig is everything the pipeline reads from the environment.
// Database credentials are not here; they come from Secrets Manager.
type AppConfig struct {
	Addr   string `env:"ADDR" env-default:":8082"`
	Region string `env:"AWS_REGION" env-default:"eu-west-2"`

	SourceSecretID    string `env:"DB_SECRET_NAME" env-default:"nc-totesys-db-credentials"`
	WarehouseSecretID string `env:"WAREHOUSE_SECRET_NAME" env-default:"nc-totesys-warehouse-credentials"`

	IngestionBucket string `env:"S3_INGESTION_BUCKET" env-required:"true"`
	ProcessedBucket string `env:"S3_PROCESSED_BUCKET" env-required:"true"`

	MQ MQConfig
}

type MQConfig struct {
	Host     string `env:"MQ_HOST" env-default:"localhost"`
	Port     int    `env:"MQ_PORT" env-default:"5671"`
	User     string `env:"MQ_USER" env-default:"guest"`
	Password string `env:"MQ_PASSWORD" env-default:"guest"`
	VHost    string `env:"MQ_VHOST" env-default:"/"`
}

func Load() (AppConfig, error) {
	var cfg AppConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}
