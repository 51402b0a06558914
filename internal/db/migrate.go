package db

import (
	"github.com/ikkim/cart-service/internal/app/model"
	"github.com/ikkim/cart-service/pkg/logger"
)

// Migrate keeps the product table schema current. In shared environments
// the catalog platform owns this table; AutoMigrate is a no-op there and
// only matters for standalone development databases.
func Migrate() error {
	logger.Info("Running database migrations", nil)

	if err := DB.AutoMigrate(&model.Product{}); err != nil {
		logger.Error("Failed to run migrations", err, nil)
		return err
	}

	logger.Info("Database migrations completed", nil)
	return nil
}
