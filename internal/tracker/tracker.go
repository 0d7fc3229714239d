package tracker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"github.com/dshills/questlog/internal/storage"
	"github.com/dshills/questlog/pkg/types"
)

// ErrNotFound is returned when a task record does not exist
var ErrNotFound = errors.New("record not found")

// ConnProvider lends a connection for the duration of fn.
// *storage.Handle satisfies it.
type ConnProvider interface {
	WithConn(ctx context.Context, fn func(*storage.Conn) error) error
}

// Tracker reads and writes task records of one game store.
type Tracker struct {
	store  ConnProvider
	logger *zap.Logger
}

// New creates a Tracker over a ready store.
func New(store ConnProvider, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: store, logger: logger.Named("tracker")}
}

var recordColumns = []string{"date", "region", "name", "value", "currencies", "notes", "updated_at"}

// ListOption narrows a record query.
type ListOption func(sq.SelectBuilder) sq.SelectBuilder

// ByNames keeps only the named tasks.
func ByNames(names ...string) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(names) == 0 {
			return b
		}
		return b.Where(sq.Eq{"name": names})
	}
}

// WithLimit caps the number of records returned.
func WithLimit(limit uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Limit(limit)
	}
}

// RecordsForDay returns all records of kind on date in region.
func (t *Tracker) RecordsForDay(ctx context.Context, kind types.TaskKind, date types.Date, region string, opts ...ListOption) ([]types.TaskRecord, error) {
	if err := date.Validate(); err != nil {
		return nil, err
	}
	return t.list(ctx, kind, sq.Eq{"date": int(date), "region": region}, opts)
}

// RecordsForRange returns records of kind with start <= date < end in region,
// ordered by date then name.
func (t *Tracker) RecordsForRange(ctx context.Context, kind types.TaskKind, start, end types.Date, region string, opts ...ListOption) ([]types.TaskRecord, error) {
	if err := start.Validate(); err != nil {
		return nil, err
	}
	if err := end.Validate(); err != nil {
		return nil, err
	}
	if end < start {
		return nil, fmt.Errorf("range end %s is before start %s", end, start)
	}
	return t.list(ctx, kind, sq.And{
		sq.GtOrEq{"date": int(start)},
		sq.Lt{"date": int(end)},
		sq.Eq{"region": region},
	}, opts)
}

func (t *Tracker) list(ctx context.Context, kind types.TaskKind, where sq.Sqlizer, opts []ListOption) ([]types.TaskRecord, error) {
	if !kind.Valid() {
		return nil, types.ErrInvalidTaskKind
	}

	builder := sq.Select(recordColumns...).
		From(string(kind)).
		Where(where).
		OrderBy("date", "name")
	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var records []types.TaskRecord
	err = t.store.WithConn(ctx, func(c *storage.Conn) error {
		rows, err := c.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to query %s records: %w", kind, err)
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanRecord(rows)
			if err != nil {
				return err
			}
			r.Kind = kind
			records = append(records, *r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Record returns one task record, or ErrNotFound.
func (t *Tracker) Record(ctx context.Context, kind types.TaskKind, date types.Date, region, name string) (*types.TaskRecord, error) {
	records, err := t.RecordsForDay(ctx, kind, date, region, ByNames(name), WithLimit(1))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return &records[0], nil
}

// Upsert inserts the record or replaces value, currencies and notes of the
// existing record with the same date, region and name.
func (t *Tracker) Upsert(ctx context.Context, r *types.TaskRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}

	currencies, err := encodeCurrencies(r.Currencies)
	if err != nil {
		return err
	}

	query, args, err := sq.Insert(string(r.Kind)).
		Columns(recordColumns...).
		Values(int(r.Date), r.Region, r.Name, r.Value, currencies, r.Notes, sq.Expr("CURRENT_TIMESTAMP")).
		Suffix(`ON CONFLICT(date, region, name) DO UPDATE SET
			value = excluded.value,
			currencies = excluded.currencies,
			notes = excluded.notes,
			updated_at = excluded.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert: %w", err)
	}

	err = t.store.WithConn(ctx, func(c *storage.Conn) error {
		_, err := c.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %s record %q: %w", r.Kind, r.Name, err)
	}

	t.logger.Debug("record saved",
		zap.String("kind", string(r.Kind)),
		zap.Int("date", int(r.Date)),
		zap.String("region", r.Region),
		zap.String("name", r.Name))
	return nil
}

// AddCurrencyHistory appends a currency snapshot and returns its id.
func (t *Tracker) AddCurrencyHistory(ctx context.Context, s *types.CurrencySnapshot) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}

	currencies, err := encodeCurrencies(s.Currencies)
	if err != nil {
		return 0, err
	}

	query, args, err := sq.Insert("currency_history").
		Columns("date", "region", "currencies", "notes").
		Values(int(s.Date), s.Region, currencies, s.Notes).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert: %w", err)
	}

	var id int64
	err = t.store.WithConn(ctx, func(c *storage.Conn) error {
		res, err := c.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add currency history: %w", err)
	}
	return id, nil
}

// CurrencyHistory returns the snapshots of region with start <= date < end,
// oldest first.
func (t *Tracker) CurrencyHistory(ctx context.Context, region string, start, end types.Date) ([]types.CurrencySnapshot, error) {
	query, args, err := sq.Select("id", "date", "region", "currencies", "notes", "created_at").
		From("currency_history").
		Where(sq.And{
			sq.Eq{"region": region},
			sq.GtOrEq{"date": int(start)},
			sq.Lt{"date": int(end)},
		}).
		OrderBy("date", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var history []types.CurrencySnapshot
	err = t.store.WithConn(ctx, func(c *storage.Conn) error {
		rows, err := c.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to query currency history: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				s          types.CurrencySnapshot
				date       int
				currencies string
				createdAt  sql.NullTime
			)
			if err := rows.Scan(&s.ID, &date, &s.Region, &currencies, &s.Notes, &createdAt); err != nil {
				return fmt.Errorf("failed to scan currency history: %w", err)
			}
			s.Date = types.Date(date)
			s.CreatedAt = createdAt.Time
			if s.Currencies, err = decodeCurrencies(currencies); err != nil {
				return err
			}
			history = append(history, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

func scanRecord(rows *sql.Rows) (*types.TaskRecord, error) {
	var (
		r          types.TaskRecord
		date       int
		currencies string
		updatedAt  sql.NullTime
	)
	if err := rows.Scan(&date, &r.Region, &r.Name, &r.Value, &currencies, &r.Notes, &updatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}
	r.Date = types.Date(date)
	r.UpdatedAt = updatedAt.Time

	var err error
	if r.Currencies, err = decodeCurrencies(currencies); err != nil {
		return nil, err
	}
	return &r, nil
}

func encodeCurrencies(values []types.CurrencyValue) (string, error) {
	if values == nil {
		values = []types.CurrencyValue{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode currencies: %w", err)
	}
	return string(data), nil
}

func decodeCurrencies(raw string) ([]types.CurrencyValue, error) {
	if raw == "" {
		return nil, nil
	}
	var values []types.CurrencyValue
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to decode currencies: %w", err)
	}
	return values, nil
}

// WeekOf returns the half-open range of the week containing date that
// starts on resetDay.
func WeekOf(date types.Date, resetDay time.Weekday) (start, end types.Date) {
	back := (int(date.Time().Weekday()) - int(resetDay) + 7) % 7
	start = date.AddDays(-back)
	return start, start.AddDays(7)
}
