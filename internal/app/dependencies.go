package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Kirk-kud/swe-cafe-sub000/internal/domain"
	"github.com/Kirk-kud/swe-cafe-sub000/internal/storage/memory"
	"github.com/Kirk-kud/swe-cafe-sub000/internal/storage/postgres"
)

// Dependencies содержит инфраструктурные зависимости приложения.
type Dependencies struct {
	Orders      domain.OrderRepository
	Assignments domain.AssignmentRepository
	Outbox      domain.OutboxRepository
	Store       *postgres.Store
	Logger      *log.Entry
}

// NewDependencies выбирает хранилище: PostgreSQL при заданном DSN,
// иначе in-memory для локальной разработки.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	if cfg.PostgresDSN == "" {
		logger.Info("postgres DSN is not set, using in-memory storage")
		return &Dependencies{
			Orders:      memory.NewOrderRepository(),
			Assignments: memory.NewAssignmentRepository(),
			Outbox:      memory.NewOutboxRepository(),
			Logger:      logger,
		}, nil
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("postgres storage initialized")

	return &Dependencies{
		Orders:      postgres.NewOrderRepository(store),
		Assignments: postgres.NewAssignmentRepository(store),
		Outbox:      postgres.NewOutboxRepository(store),
		Store:       store,
		Logger:      logger,
	}, nil
}

// Close освобождает ресурсы хранилища.
func (d *Dependencies) Close() {
	if d == nil || d.Store == nil {
		return
	}
	if err := d.Store.Close(); err != nil {
		d.Logger.WithError(err).Warn("failed to close postgres store")
	}
}
