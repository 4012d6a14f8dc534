package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQLStore keeps each document as a JSON value in a `body` column of its
// collection table. Unique fields are enforced by STORED generated columns
// with UNIQUE keys declared in the migrations, so the database, not the
// application, is the final arbiter of uniqueness.
type MySQLStore[T any] struct {
	DB    *sql.DB
	table string
}

// NewMySQLStore binds a store to table. It panics on an invalid table name.
func NewMySQLStore[T any](db *sql.DB, table string) *MySQLStore[T] {
	if err := checkField(table); err != nil {
		panic(err)
	}
	return &MySQLStore[T]{DB: db, table: table}
}

func (s *MySQLStore[T]) List(ctx context.Context, f Filter) ([]T, error) {
	q := "SELECT body FROM " + s.table
	var args []any
	if !f.IsZero() {
		where, wargs, err := whereAny([]Filter{f})
		if err != nil {
			return nil, err
		}
		q += " WHERE " + where
		args = wargs
	}
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, fmt.Errorf("repository: decode %s document: %w", s.table, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *MySQLStore[T]) FindOne(ctx context.Context, filters ...Filter) (T, error) {
	var zero T
	if len(filters) == 0 {
		return zero, ErrNotFound
	}
	where, args, err := whereAny(filters)
	if err != nil {
		return zero, err
	}
	row := s.DB.QueryRowContext(ctx, "SELECT body FROM "+s.table+" WHERE "+where+" LIMIT 1", args...)
	return s.scanOne(row)
}

func (s *MySQLStore[T]) Get(ctx context.Context, id string) (T, error) {
	row := s.DB.QueryRowContext(ctx, "SELECT body FROM "+s.table+" WHERE id = ? LIMIT 1", id)
	return s.scanOne(row)
}

func (s *MySQLStore[T]) Insert(ctx context.Context, id string, doc T) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("repository: encode %s document: %w", s.table, err)
	}
	_, err = s.DB.ExecContext(ctx, "INSERT INTO "+s.table+" (id, body) VALUES (?, ?)", id, string(body))
	return translate(err)
}

// Update rewrites only the changed paths of the stored JSON in one UPDATE
// statement. The connection must use clientFoundRows so an update that
// leaves the row byte-identical still counts as matched.
func (s *MySQLStore[T]) Update(ctx context.Context, id string, ch Changes) (T, error) {
	var zero T
	if ch.Empty() {
		return s.Get(ctx, id)
	}

	expr := "body"
	var args []any
	if len(ch.Set) > 0 {
		keys := make([]string, 0, len(ch.Set))
		for k := range ch.Set {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if err := checkField(k); err != nil {
				return zero, err
			}
			val, err := json.Marshal(ch.Set[k])
			if err != nil {
				return zero, fmt.Errorf("repository: encode field %s: %w", k, err)
			}
			parts = append(parts, "?, CAST(? AS JSON)")
			args = append(args, "$."+k, string(val))
		}
		expr = "JSON_SET(" + expr + ", " + strings.Join(parts, ", ") + ")"
	}
	if len(ch.Unset) > 0 {
		parts := make([]string, 0, len(ch.Unset))
		for _, k := range ch.Unset {
			if err := checkField(k); err != nil {
				return zero, err
			}
			parts = append(parts, "?")
			args = append(args, "$."+k)
		}
		expr = "JSON_REMOVE(" + expr + ", " + strings.Join(parts, ", ") + ")"
	}
	args = append(args, id)

	res, err := s.DB.ExecContext(ctx, "UPDATE "+s.table+" SET body = "+expr+" WHERE id = ?", args...)
	if err != nil {
		return zero, translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return zero, err
	}
	if n == 0 {
		return zero, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *MySQLStore[T]) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM "+s.table+" WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MySQLStore[T]) scanOne(row *sql.Row) (T, error) {
	var v T
	var body []byte
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return v, ErrNotFound
		}
		return v, err
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("repository: decode %s document: %w", s.table, err)
	}
	return v, nil
}

// whereAny builds an OR of JSON equality predicates.
func whereAny(filters []Filter) (string, []any, error) {
	preds := make([]string, 0, len(filters))
	args := make([]any, 0, 2*len(filters))
	for _, f := range filters {
		if err := checkField(f.Field); err != nil {
			return "", nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return "", nil, fmt.Errorf("repository: encode filter %s: %w", f.Field, err)
		}
		preds = append(preds, "JSON_EXTRACT(body, ?) = CAST(? AS JSON)")
		args = append(args, "$."+f.Field, string(val))
	}
	return strings.Join(preds, " OR "), args, nil
}

// MySQL server error numbers translated into store sentinels.
const (
	errDupEntry     = 1062
	errDataTooLong  = 1406
	errTruncatedVal = 1292
)

// translate maps MySQL duplicate-key errors to ErrDuplicate and rejected
// column values to ErrInvalidValue.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case errDupEntry:
		return ErrDuplicate
	case errDataTooLong, errTruncatedVal:
		return fmt.Errorf("%w: %s", ErrInvalidValue, me.Message)
	}
	return err
}
