package di

import (
	"fmt"

	"github.com/crudeops/wtidesk/internal/config"
	"github.com/crudeops/wtidesk/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the price store and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	pricesDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "prices",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prices database: %w", err)
	}

	if err := pricesDB.Migrate(); err != nil {
		pricesDB.Close()
		return nil, fmt.Errorf("failed to migrate prices database: %w", err)
	}
	container.PricesDB = pricesDB

	log.Info().Str("path", pricesDB.Path()).Msg("Prices database ready")
	return container, nil
}
