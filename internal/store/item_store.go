package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/vbonduro/restock/internal/domain"
	"github.com/vbonduro/restock/internal/repository"
)

// ItemStore is the SQLite entity repository. Both collections share the same
// row shape except for the materials-only sector column.
type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

var _ repository.Repository = (*ItemStore)(nil)

func (s *ItemStore) List(ctx context.Context, c domain.Collection) ([]repository.Record, error) {
	table := repository.Table(c)
	if table == "" {
		return nil, fmt.Errorf("unknown collection %q", c)
	}
	cols := append([]string{repository.ColumnID}, repository.Columns(c)...)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM %s ORDER BY created_at ASC, rowid ASC`,
		strings.Join(cols, ", "), table,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var recs []repository.Record
	for rows.Next() {
		var (
			id, name                string
			quantity, reorder       int
			image, category, sector sql.NullString
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

func (s *ItemStore) Insert(ctx context.Context, c domain.Collection, fields repository.Record) error {
	names, err := repository.CheckFields(c, fields)
	if err != nil {
		return err
	}

	cols := append([]string{repository.ColumnID}, names...)
	args := make([]any, 0, len(cols))
	args = append(args, uuid.NewString())
	for _, name := range names {
		args = append(args, fields[name])
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s)`,
		repository.Table(c), strings.Join(cols, ", "), placeholders,
	), args...)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", c, err)
	}

	return nil
}

func (s *ItemStore) Update(ctx context.Context, c domain.Collection, id string, fields repository.Record) error {
	names, err := repository.CheckFields(c, fields)
	if err != nil {
		return err
	}

	sets := make([]string, 0, len(names))
	args := make([]any, 0, len(names)+1)
	for _, name := range names {
		sets = append(sets, name+" = ?")
		args = append(args, fields[name])
	}
	args = append(args, id)

	result, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET %s WHERE id = ?`,
		repository.Table(c), strings.Join(sets, ", "),
	), args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", c, err)
	}

	return checkAffected(result)
}

func (s *ItemStore) Delete(ctx context.Context, c domain.Collection, id string) error {
	table := repository.Table(c)
	if table == "" {
		return fmt.Errorf("unknown collection %q", c)
	}

	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, table), id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", c, err)
	}

	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func setNullable(rec repository.Record, col string, v sql.NullString) {
	if v.Valid {
		rec[col] = v.String
	}
}
