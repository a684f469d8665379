package repository

import (
	"context"
	"fmt"
	"slices"

	"github.com/vbonduro/restock/internal/domain"
)

// Stored column names. These differ from the in-memory field names and are
// the only names the store adapters accept.
const (
	ColumnID           = "id"
	ColumnName         = "nome"
	ColumnQuantity     = "quantidade"
	ColumnReorderPoint = "ponto_reposicao"
	ColumnImage        = "imagem_url"
	ColumnCategory     = "categoria"
	ColumnSector       = "setor"
)

// Record is one row as exchanged with the datastore, keyed by stored column name.
type Record map[string]any

// Repository is the entity datastore. Insert assigns the id; callers never
// supply one.
type Repository interface {
	List(ctx context.Context, c domain.Collection) ([]Record, error)
	Insert(ctx context.Context, c domain.Collection, fields Record) error
	Update(ctx context.Context, c domain.Collection, id string, fields Record) error
	Delete(ctx context.Context, c domain.Collection, id string) error
}

// Table returns the stored table name for a collection.
func Table(c domain.Collection) string {
	switch c {
	case domain.Materials:
		return "materiais"
	case domain.Beverages:
		return "bebidas"
	default:
		return ""
	}
}

// Columns returns the mutable columns of a collection's table, in select order.
func Columns(c domain.Collection) []string {
	cols := []string{ColumnName, ColumnQuantity, ColumnReorderPoint, ColumnImage, ColumnCategory}
	if c.HasSector() {
		cols = append(cols, ColumnSector)
	}
	return cols
}

// CheckFields rejects unknown collections, empty field sets, and columns the
// collection does not store. It returns the field names sorted so adapters
// build statements deterministically.
func CheckFields(c domain.Collection, fields Record) ([]string, error) {
	if Table(c) == "" {
		return nil, fmt.Errorf("unknown collection %q", c)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to write")
	}
	allowed := Columns(c)
	names := make([]string, 0, len(fields))
	for name := range fields {
		if !slices.Contains(allowed, name) {
			return nil, fmt.Errorf("unknown column %q for %s", name, c)
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
