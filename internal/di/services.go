package di

import (
	"context"
	"fmt"

	"github.com/crudeops/wtidesk/internal/clients/eia"
	"github.com/crudeops/wtidesk/internal/clients/fred"
	"github.com/crudeops/wtidesk/internal/clients/yahoo"
	"github.com/crudeops/wtidesk/internal/config"
	"github.com/crudeops/wtidesk/internal/events"
	"github.com/crudeops/wtidesk/internal/modules/contract_calendar"
	"github.com/crudeops/wtidesk/internal/modules/prices"
	"github.com/crudeops/wtidesk/internal/reliability"
	"github.com/rs/zerolog"
)

// LoadHolidays returns the built-in holiday table, extended by the configured file
func LoadHolidays(cfg *config.Config, log zerolog.Logger) (*contract_calendar.HolidayTable, error) {
	table := contract_calendar.DefaultHolidayTable()
	if cfg.HolidaysFile == "" {
		return table, nil
	}

	extra, err := contract_calendar.LoadHolidayFile(cfg.HolidaysFile)
	if err != nil {
		return nil, err
	}

	merged := table.Merge(extra)
	log.Info().
		Str("file", cfg.HolidaysFile).
		Ints("years", merged.Years()).
		Msg("Loaded holiday extension file")
	return merged, nil
}

// InitializeServices creates clients, repositories and services
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	holidays, err := LoadHolidays(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to load holidays: %w", err)
	}
	container.EventBus = events.NewBus()
	container.EventManager = events.NewManager(container.EventBus, log)

	container.Holidays = holidays
	container.CalendarService = contract_calendar.NewService(holidays, log)

	container.EIAClient = eia.NewClient(cfg.EIAAPIKey, cfg.HTTPTimeout, log)
	container.FREDClient = fred.NewClient(cfg.FREDAPIKey, cfg.HTTPTimeout, log)
	container.YahooFuturesClient = yahoo.NewFuturesClient(cfg.HTTPTimeout, log)
	container.YahooMidlandClient = yahoo.NewMidlandClient(cfg.HTTPTimeout, log)

	if cfg.EIAAPIKey == "" {
		log.Warn().Msg("EIA_API_KEY not set, EIA feed will report errors")
	}
	if cfg.FREDAPIKey == "" {
		log.Warn().Msg("FRED_API_KEY not set, FRED feed will report errors")
	}

	container.PriceRepo = prices.NewRepository(container.PricesDB.Conn(), log)
	container.PriceService = prices.NewService(container.PriceRepo, container.CalendarService.Calendar(), log)
	container.PriceSyncService = prices.NewSyncService(container.PriceRepo, []prices.Fetcher{
		container.EIAClient,
		container.FREDClient,
		container.YahooFuturesClient,
		container.YahooMidlandClient,
	}, log)
	container.PriceSyncService.SetEventEmitter(container.EventManager)

	if cfg.BackupEnabled() {
		store, err := reliability.NewS3Store(context.Background(), reliability.S3Config{
			Endpoint:  cfg.BackupEndpoint,
			Region:    cfg.BackupRegion,
			Bucket:    cfg.BackupBucket,
			AccessKey: cfg.BackupAccessKey,
			SecretKey: cfg.BackupSecretKey,
			PathStyle: cfg.BackupPathStyle,
		})
		if err != nil {
			return fmt.Errorf("failed to create backup store: %w", err)
		}
		container.BackupService = reliability.NewBackupService(store, container.PricesDB, cfg.DataDir, log)
		container.BackupService.SetEventEmitter(container.EventManager)
	}

	return nil
}
