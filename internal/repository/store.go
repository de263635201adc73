package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jackc/pgx/v5/pgconn"
)

// scanner is the subset of *sql.Row and *sql.Rows a row scanner needs.
type scanner interface {
	Scan(dest ...any) error
}

// store carries the shared CRUD plumbing for simple catalog entities.
// Entity-specific repositories embed it and supply the table descriptor:
// table name, select list, scan function and not-found sentinel.
type store[T any] struct {
	db       DBTX
	table    string
	columns  string
	orderBy  string
	scan     func(s scanner) (*T, error)
	notFound error
}

func (s *store[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", s.columns, s.table)

	entity, err := s.scan(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.notFound
		}
		return nil, fmt.Errorf("failed to find %s by id: %w", s.table, err)
	}
	return entity, nil
}

func (s *store[T]) List(ctx context.Context) ([]*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", s.columns, s.table, s.orderBy)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.table, err)
	}
	defer rows.Close()

	entities := []*T{}
	for rows.Next() {
		entity, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", s.table, err)
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", s.table, err)
	}
	return entities, nil
}

func (s *store[T]) DeleteByID(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.table)

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", s.table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.notFound
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
