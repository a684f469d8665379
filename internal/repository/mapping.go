package repository

import (
	"fmt"
	"strconv"

	"github.com/vbonduro/restock/internal/domain"
)

// ToItem maps a stored record to an item. Missing or null fields fall back to
// "" or 0 so partially populated rows still load.
func ToItem(c domain.Collection, rec Record) domain.Item {
	item := domain.Item{
		ID:              asString(rec[ColumnID]),
		Name:            asString(rec[ColumnName]),
		CurrentQuantity: asInt(rec[ColumnQuantity]),
		ReorderPoint:    asInt(rec[ColumnReorderPoint]),
		Image:           asString(rec[ColumnImage]),
		Category:        asString(rec[ColumnCategory]),
	}
	if c.HasSector() {
		item.Sector = asString(rec[ColumnSector])
	}
	return item
}

// ToItems maps every record of a list call.
func ToItems(c domain.Collection, recs []Record) []domain.Item {
	items := make([]domain.Item, 0, len(recs))
	for _, rec := range recs {
		items = append(items, ToItem(c, rec))
	}
	return items
}

// FromItem maps the mutable fields of an item to a record. The id is never
// included: it is assigned by the repository on insert and passed separately
// on update.
func FromItem(c domain.Collection, item domain.Item) Record {
	rec := Record{
		ColumnName:         item.Name,
		ColumnQuantity:     item.CurrentQuantity,
		ColumnReorderPoint: item.ReorderPoint,
		ColumnImage:        item.Image,
		ColumnCategory:     item.Category,
	}
	if c.HasSector() {
		rec[ColumnSector] = item.Sector
	}
	return rec
}

// QuantityPatch is the single-field update written by a quantity adjustment.
func QuantityPatch(quantity int) Record {
	return Record{ColumnQuantity: quantity}
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case *string:
		if s == nil {
			return ""
		}
		return *s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	case *int:
		if n == nil {
			return 0
		}
		return *n
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}
