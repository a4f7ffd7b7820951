// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/crudeops/wtidesk/internal/clients/eia"
	"github.com/crudeops/wtidesk/internal/clients/fred"
	"github.com/crudeops/wtidesk/internal/clients/yahoo"
	"github.com/crudeops/wtidesk/internal/database"
	"github.com/crudeops/wtidesk/internal/events"
	"github.com/crudeops/wtidesk/internal/modules/contract_calendar"
	"github.com/crudeops/wtidesk/internal/modules/prices"
	"github.com/crudeops/wtidesk/internal/reliability"
	"github.com/crudeops/wtidesk/internal/scheduler"
)

// Container holds all application dependencies.
// It is created by Wire and handed to the server and entry points.
type Container struct {
	// Databases
	PricesDB *database.DB

	// Events
	EventBus     *events.Bus
	EventManager *events.Manager

	// Holiday data
	Holidays *contract_calendar.HolidayTable

	// Clients
	EIAClient          *eia.Client
	FREDClient         *fred.Client
	YahooFuturesClient *yahoo.Client
	YahooMidlandClient *yahoo.Client

	// Repositories
	PriceRepo *prices.Repository

	// Services
	CalendarService  *contract_calendar.Service
	PriceService     *prices.Service
	PriceSyncService *prices.SyncService
	BackupService    *reliability.BackupService // nil when backups are not configured

	// Background jobs
	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered scheduler jobs for manual triggering
type JobInstances struct {
	PriceSync     *scheduler.PriceSyncJob
	WALCheckpoint *scheduler.WALCheckpointJob
	Backup        *scheduler.BackupJob // nil when backups are not configured
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c.PricesDB != nil {
		return c.PricesDB.Close()
	}
	return nil
}
