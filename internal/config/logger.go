package config

import (
	"os"

	"go.uber.org/zap"
)

// NewLogger builds the process-wide structured logger. Development output
// when ETL_ENV=dev, production JSON otherwise.
func NewLogger() (*zap.Logger, error) {
	if os.Getenv("ETL_ENV") == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
