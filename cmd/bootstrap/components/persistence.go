package components

import (
	"context"
	"log/slog"

	"studio-booking/internal/infra/db"
	"studio-booking/internal/infra/memstore"
	"studio-booking/internal/infra/repository"
	"studio-booking/internal/infra/seed"
	"studio-booking/internal/infra/uow"
	"studio-booking/internal/pkg/clock"
	"studio-booking/internal/pkg/config"
	"studio-booking/internal/usecase/commands"
	"studio-booking/internal/usecase/queries"
	"studio-booking/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

type CatalogStore interface {
	commands.CatalogRepository
	shared.CatalogReader
}

type DirectoryStore interface {
	shared.StudioDirectory
	seed.Writer
}

type BookingStore interface {
	commands.BookingRepository
	commands.Outbox
	queries.BookingReader
}

// Stores is the storage backend selected by STORAGE_DRIVER.
type Stores struct {
	Catalog   CatalogStore
	Directory DirectoryStore
	Ledger    commands.SlotLedger
	Bookings  BookingStore
}

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewStores,
		func(s *Stores) CatalogStore { return s.Catalog },
		func(s *Stores) commands.CatalogRepository { return s.Catalog },
		func(s *Stores) shared.CatalogReader { return s.Catalog },
		func(s *Stores) shared.StudioDirectory { return s.Directory },
		func(s *Stores) commands.SlotLedger { return s.Ledger },
		func(s *Stores) queries.AvailabilityReader { return s.Ledger },
		func(s *Stores) commands.BookingRepository { return s.Bookings },
		func(s *Stores) commands.Outbox { return s.Bookings },
		func(s *Stores) queries.BookingReader { return s.Bookings },
	),
	fx.Invoke(SeedDirectory),
)

func NewStores(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, logger *slog.Logger) (*Stores, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		logger.Info("using in-memory storage")
		return &Stores{
			Catalog:   memstore.NewCatalog(),
			Directory: memstore.NewDirectory(),
			Ledger:    memstore.NewLedger(clk),
			Bookings:  memstore.NewBookings(),
		}, nil
	}

	pool, err := NewDB(lc, cfg)
	if err != nil {
		return nil, err
	}
	u := uow.NewPostgresUoW(pool)
	return &Stores{
		Catalog:   repository.NewCatalogRepository(u, logger),
		Directory: repository.NewStudioRepository(u, logger),
		Ledger:    repository.NewLedgerRepository(u, logger),
		Bookings:  repository.NewBookingRepository(u, logger),
	}, nil
}

func NewDB(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	pool, cleanup, err := db.Connect(context.Background(), cfg.DB)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})

	return pool, nil
}

// SeedDirectory loads STORAGE_SEED_FILE into the studio directory on start.
func SeedDirectory(lc fx.Lifecycle, cfg config.Config, stores *Stores, logger *slog.Logger) {
	if cfg.Storage.SeedFile == "" {
		if cfg.Storage.Driver == config.StorageMemory {
			logger.Warn("memory storage without STORAGE_SEED_FILE has no studios to book")
		}
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			data, err := seed.Load(cfg.Storage.SeedFile)
			if err != nil {
				return err
			}
			return seed.Apply(ctx, stores.Directory, data, logger)
		},
	})
}
