package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// ErrNotFound is returned by lookups of a single event.
var ErrNotFound = errors.New("event not found")

var sqlite = entsql.Dialect(dialect.SQLite)

type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

// insert stamps the row with the next global sequence and writes it.
func (r *eventRepo) insert(ctx context.Context, table string, ts time.Time, cols []string, vals []any) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	q, args := sqlite.Insert(table).
		Columns(append([]string{colSequence, colTimestamp}, cols...)...).
		Values(append([]any{seq, ts.UnixMilli()}, vals...)...).
		Query()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// filter applies the sequence window and session/purpose filters.
func filter(sel *entsql.Selector, opts QueryOpts) *entsql.Selector {
	if opts.After > 0 {
		sel.Where(entsql.GT(colSequence, opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT(colSequence, opts.Before))
	}
	if opts.SessionID != "" {
		sel.Where(entsql.EQ(colSessionID, opts.SessionID))
	}
	if opts.Purpose != "" {
		sel.Where(entsql.EQ("purpose", opts.Purpose))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	return sel
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
