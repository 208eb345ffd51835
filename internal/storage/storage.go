package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/bashkirian/repair-order-pipeline/internal/config"
	"github.com/bashkirian/repair-order-pipeline/pkg/models"
)

// Sink persists the records of a run. Save is called once per run with
// every record, in order; errors it returns wrap models.ErrDatabase.
type Sink interface {
	Save(ctx context.Context, records []models.Record) error
	Close() error
}

// New opens the sink selected by cfg.Driver.
func New(cfg config.StorageConfig) (Sink, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewInMemoryStorage(), nil
	case config.DriverSQLite:
		return NewSQLiteStorage(cfg.SQLite.Path)
	case config.DriverRedis:
		return NewRedisStorage(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Key), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Row is a record as the sinks store it: six flat columns.
type Row struct {
	OrderID    string  `json:"order_id"`
	DateTime   string  `json:"date_time"`
	Status     string  `json:"status"`
	Cost       float64 `json:"cost"`
	Technician string  `json:"technician"`
	Parts      string  `json:"parts"`
}

// NewRow flattens r into its stored columns.
func NewRow(r models.Record) Row {
	return Row{
		OrderID:    r.OrderID,
		DateTime:   r.DateTime,
		Status:     r.Status,
		Cost:       r.Cost,
		Technician: r.Technician,
		Parts:      r.PartsText(),
	}
}

// InMemoryStorage keeps records in memory. Used for dry runs and tests.
type InMemoryStorage struct {
	mu      sync.RWMutex
	records []models.Record
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		records: make([]models.Record, 0),
	}
}

func (s *InMemoryStorage) Save(ctx context.Context, records []models.Record) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save records: %v: %w", err, models.ErrDatabase)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

// Records returns a copy of everything saved so far.
func (s *InMemoryStorage) Records() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *InMemoryStorage) Close() error {
	return nil
}
