package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"
)

// fakeRow satisfies Row with an injected scan.
type fakeRow struct {
	scanFunc func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error {
	return r.scanFunc(dest...)
}

// rowFromValues builds a Row that assigns the given values into the scan
// destinations in order.
func rowFromValues(values ...any) fakeRow {
	return fakeRow{scanFunc: func(dest ...any) error {
		return assignValues(dest, values)
	}}
}

func assignValues(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan destination count %d does not match value count %d", len(dest), len(values))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i])
		if target.Kind() != reflect.Pointer || target.IsNil() {
			return fmt.Errorf("scan destination %d is not a pointer", i)
		}
		elem := target.Elem()
		if v == nil {
			elem.Set(reflect.Zero(elem.Type()))
			continue
		}
		value := reflect.ValueOf(v)
		if !value.Type().AssignableTo(elem.Type()) {
			if value.Type().ConvertibleTo(elem.Type()) {
				value = value.Convert(elem.Type())
			} else {
				return fmt.Errorf("cannot assign %T into scan destination %d (%s)", v, i, elem.Type())
			}
		}
		elem.Set(value)
	}
	return nil
}

// fakeRows plays back a fixed set of rows.
type fakeRows struct {
	rows [][]any
	idx  int
	err  error
}

func rowsFromValues(rows ...[]any) *fakeRows {
	return &fakeRows{rows: rows}
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.rows) {
		return errors.New("scan called without next")
	}
	return assignValues(dest, r.rows[r.idx-1])
}

func (r *fakeRows) Close() {}

func (r *fakeRows) Err() error { return r.err }

type fakeCommandTag struct {
	rows int64
}

func (t fakeCommandTag) RowsAffected() int64 { return t.rows }

// fakeDB satisfies DB through function fields. Unset fields return empty
// results so tests only stub what they exercise.
type fakeDB struct {
	QueryRowFunc func(ctx context.Context, sql string, args ...any) Row
	QueryFunc    func(ctx context.Context, sql string, args ...any) (Rows, error)
	ExecFunc     func(ctx context.Context, sql string, args ...any) (CommandTag, error)
	BeginFunc    func(ctx context.Context) (Tx, error)
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	if db.QueryRowFunc != nil {
		return db.QueryRowFunc(ctx, sql, args...)
	}
	return fakeRow{scanFunc: func(dest ...any) error {
		return errors.New("unexpected QueryRow")
	}}
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if db.QueryFunc != nil {
		return db.QueryFunc(ctx, sql, args...)
	}
	return rowsFromValues(), nil
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	if db.ExecFunc != nil {
		return db.ExecFunc(ctx, sql, args...)
	}
	return fakeCommandTag{rows: 1}, nil
}

func (db *fakeDB) Begin(ctx context.Context) (Tx, error) {
	if db.BeginFunc != nil {
		return db.BeginFunc(ctx)
	}
	return &fakeTx{}, nil
}

// fakeTx satisfies Tx through function fields and records the outcome.
type fakeTx struct {
	QueryRowFunc func(ctx context.Context, sql string, args ...any) Row
	QueryFunc    func(ctx context.Context, sql string, args ...any) (Rows, error)
	ExecFunc     func(ctx context.Context, sql string, args ...any) (CommandTag, error)
	CommitFunc   func(ctx context.Context) error

	committed  bool
	rolledBack bool
}

func (tx *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) Row {
	if tx.QueryRowFunc != nil {
		return tx.QueryRowFunc(ctx, sql, args...)
	}
	return fakeRow{scanFunc: func(dest ...any) error {
		return errors.New("unexpected tx QueryRow")
	}}
}

func (tx *fakeTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if tx.QueryFunc != nil {
		return tx.QueryFunc(ctx, sql, args...)
	}
	return rowsFromValues(), nil
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	if tx.ExecFunc != nil {
		return tx.ExecFunc(ctx, sql, args...)
	}
	return fakeCommandTag{rows: 1}, nil
}

func (tx *fakeTx) Commit(ctx context.Context) error {
	tx.committed = true
	if tx.CommitFunc != nil {
		return tx.CommitFunc(ctx)
	}
	return nil
}

func (tx *fakeTx) Rollback(ctx context.Context) error {
	tx.rolledBack = true
	return nil
}

// fakeRedis is an in-memory RedisClient for session tests. TTLs are
// recorded but not enforced.
type fakeRedis struct {
	values  map[string]string
	ttls    map[string]time.Duration
	setErr  error
	getErr  error
	downErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		values: make(map[string]string),
		ttls:   make(map[string]time.Duration),
	}
}

func (r *fakeRedis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if r.downErr != nil {
		return r.downErr
	}
	if r.setErr != nil {
		return r.setErr
	}
	r.values[key] = value
	r.ttls[key] = ttl
	return nil
}

func (r *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	if r.downErr != nil {
		return "", r.downErr
	}
	if r.getErr != nil {
		return "", r.getErr
	}
	v, ok := r.values[key]
	if !ok {
		return "", errors.New("redis: nil")
	}
	return v, nil
}

func (r *fakeRedis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if r.downErr != nil {
		return r.downErr
	}
	r.ttls[key] = ttl
	return nil
}

func (r *fakeRedis) Del(ctx context.Context, keys ...string) error {
	if r.downErr != nil {
		return r.downErr
	}
	for _, k := range keys {
		delete(r.values, k)
		delete(r.ttls, k)
	}
	return nil
}
