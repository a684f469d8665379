// Package pgstore implements the entity repository on Postgres, the engine
// behind hosted backends exposing "materiais" and "bebidas" tables.
package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vbonduro/restock/internal/domain"
	"github.com/vbonduro/restock/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS materiais (
    id              TEXT PRIMARY KEY,
    nome            TEXT NOT NULL,
    quantidade      INTEGER NOT NULL DEFAULT 0 CHECK (quantidade >= 0),
    ponto_reposicao INTEGER NOT NULL DEFAULT 0 CHECK (ponto_reposicao >= 0),
    imagem_url      TEXT,
    categoria       TEXT,
    setor           TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS bebidas (
    id              TEXT PRIMARY KEY,
    nome            TEXT NOT NULL,
    quantidade      INTEGER NOT NULL DEFAULT 0 CHECK (quantidade >= 0),
    ponto_reposicao INTEGER NOT NULL DEFAULT 0 CHECK (ponto_reposicao >= 0),
    imagem_url      TEXT,
    categoria       TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ repository.Repository = (*Store)(nil)

// EnsureSchema creates both tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, c domain.Collection) ([]repository.Record, error) {
	table := repository.Table(c)
	if table == "" {
		return nil, fmt.Errorf("unknown collection %q", c)
	}
	cols := append([]string{repository.ColumnID}, repository.Columns(c)...)

	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM %s ORDER BY created_at ASC, id ASC`,
		strings.Join(cols, ", "), table,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c, err)
	}
	defer rows.Close()

	var recs []repository.Record
	for rows.Next() {
		var (
			id, name                string
			quantity, reorder       int
			image, category, sector *string
		)
		dest := []any{&id, &name, &quantity, &reorder, &image, &category}
		if c.HasSector() {
			dest = append(dest, &sector)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", c, err)
		}

		rec := repository.Record{
			repository.ColumnID:           id,
			repository.ColumnName:         name,
			repository.ColumnQuantity:     quantity,
			repository.ColumnReorderPoint: reorder,
		}
		setNullable(rec, repository.ColumnImage, image)
		setNullable(rec, repository.ColumnCategory, category)
		if c.HasSector() {
			setNullable(rec, repository.ColumnSector, sector)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", c, err)
	}

	return recs, nil
}

func (s *Store) Insert(ctx context.Context, c domain.Collection, fields repository.Record) error {
	names, err := repository.CheckFields(c, fields)
	if err != nil {
		return err
	}

	cols := append([]string{repository.ColumnID}, names...)
	args := []any{uuid.NewString()}
	for _, name := range names {
		args = append(args, fields[name])
	}

	_, err = s.pool.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s)`,
		repository.Table(c), strings.Join(cols, ", "), placeholders(1, len(cols)),
	), args...)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", c, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, c domain.Collection, id string, fields repository.Record) error {
	names, err := repository.CheckFields(c, fields)
	if err != nil {
		return err
	}

	sets := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		sets = append(sets, fmt.Sprintf("%s = $%d", name, i+1))
		args = append(args, fields[name])
	}
	args = append(args, id)

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET %s WHERE id = $%d`,
		repository.Table(c), strings.Join(sets, ", "), len(args),
	), args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", c, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, c domain.Collection, id string) error {
	table := repository.Table(c)
	if table == "" {
		return fmt.Errorf("unknown collection %q", c)
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", c, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// placeholders returns "$from, ..., $(from+n-1)".
func placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(parts, ", ")
}

func setNullable(rec repository.Record, col string, v *string) {
	if v != nil {
		rec[col] = *v
	}
}
