package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"ms-events/internal/events"
	"ms-events/internal/models"
)

// DB is the bun-backed event store. Now is the clock used for create_at;
// it defaults to time.Now and is converted to UTC at the microsecond
// precision Postgres stores.
type DB struct {
	Bun *bun.DB
	Now func() time.Time
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB, Now: time.Now}
}

func (d *DB) now() time.Time {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	return now().UTC().Truncate(time.Microsecond)
}

// EnsureSchema creates the events table when it does not exist yet.
func (d *DB) EnsureSchema(ctx context.Context) error {
	_, err := d.Bun.NewCreateTable().
		Model((*models.Event)(nil)).
		IfNotExists().
		Exec(ctx)
	return wrap("create table", err)
}

func (d *DB) Ping(ctx context.Context) error {
	return wrap("ping", d.Bun.PingContext(ctx))
}

func (d *DB) Insert(ctx context.Context, description string) (*models.Event, error) {
	event := &models.Event{
		Description: description,
		CreatedAt:   d.now(),
	}
	if _, err := d.Bun.NewInsert().Model(event).Exec(ctx); err != nil {
		return nil, wrap("insert", err)
	}
	event.CreatedAt = event.CreatedAt.UTC()
	return event, nil
}

// ListAll returns every event, oldest create_at first. Equal timestamps
// fall back to id order, which is insertion order.
func (d *DB) ListAll(ctx context.Context) ([]models.Event, error) {
	list := make([]models.Event, 0)
	err := d.Bun.NewSelect().
		Model(&list).
		OrderExpr("create_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, wrap("select", err)
	}
	for i := range list {
		list[i].CreatedAt = list[i].CreatedAt.UTC()
	}
	return list, nil
}

func (d *DB) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return getByID(ctx, d.Bun, id)
}

// UpdateByID overwrites the description and moves create_at to now. The
// statement runs in a transaction that is rolled back unless exactly one
// row changed.
func (d *DB) UpdateByID(ctx context.Context, id int64, description string) (*models.Event, error) {
	var updated *models.Event
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		event := &models.Event{
			ID:          id,
			Description: description,
			CreatedAt:   d.now(),
		}
		res, err := tx.NewUpdate().
			Model(event).
			Column("description", "create_at").
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return wrap("update", err)
		}
		if err := exactlyOne(res, id); err != nil {
			return err
		}

		updated, err = getByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteByID removes the event. Like UpdateByID, nothing is removed unless
// exactly one row matched.
func (d *DB) DeleteByID(ctx context.Context, id int64) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.Event)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return wrap("delete", err)
		}
		return exactlyOne(res, id)
	})
}

// getByID selects up to two rows so a duplicate id is reported instead of
// one of the rows being picked silently.
func getByID(ctx context.Context, idb bun.IDB, id int64) (*models.Event, error) {
	var matches []models.Event
	err := idb.NewSelect().
		Model(&matches).
		Where("id = ?", id).
		Limit(2).
		Scan(ctx)
	if err != nil {
		return nil, wrap("select", err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("event %d: %w", id, events.ErrNotFound)
	case 1:
		event := matches[0]
		event.CreatedAt = event.CreatedAt.UTC()
		return &event, nil
	default:
		return nil, fmt.Errorf("event %d: %w", id, events.ErrAmbiguousResult)
	}
}

func exactlyOne(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("rows affected", err)
	}
	switch {
	case n == 0:
		return fmt.Errorf("event %d: %w", id, events.ErrNotFound)
	case n > 1:
		return fmt.Errorf("event %d matched %d rows: %w", id, n, events.ErrAmbiguousResult)
	}
	return nil
}

// wrap turns a driver error into a *events.PersistenceError, keeping the
// Postgres condition when lib/pq or pgdriver reported one.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	perr := &events.PersistenceError{Op: op, Err: err}

	var pqErr *pq.Error
	var pgErr pgdriver.Error
	switch {
	case errors.As(err, &pqErr):
		perr.Code = pqErr.Code.Name()
	case errors.As(err, &pgErr):
		perr.Code = pgErr.Field('C')
	}
	return perr
}
