package domain

import "math"

// MaxQuantity bounds currentQuantity and reorderPoint. It matches the
// INTEGER columns of the hosted backend.
const MaxQuantity = math.MaxInt32

// Collection names one of the inventory tables an item belongs to.
type Collection string

const (
	Materials Collection = "materials"
	Beverages Collection = "beverages"
)

// Collections lists every collection in display order.
var Collections = []Collection{Materials, Beverages}

// ParseCollection returns the collection named s.
func ParseCollection(s string) (Collection, bool) {
	for _, c := range Collections {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// HasSector reports whether items of this collection carry a sector.
func (c Collection) HasSector() bool {
	return c == Materials
}

func (c Collection) Title() string {
	switch c {
	case Materials:
		return "Materials"
	case Beverages:
		return "Beverages"
	default:
		return string(c)
	}
}

type Item struct {
	ID              string
	Name            string
	CurrentQuantity int
	ReorderPoint    int
	Image           string
	Category        string
	Sector          string
}

// StockStatus flags whether an item needs restocking.
type StockStatus string

const (
	StockLow StockStatus = "LOW"
	StockOK  StockStatus = "OK"
)

// Status reports LOW when the current quantity is at or below the reorder point.
func Status(currentQuantity, reorderPoint int) StockStatus {
	if currentQuantity <= reorderPoint {
		return StockLow
	}
	return StockOK
}

func (i Item) Status() StockStatus {
	return Status(i.CurrentQuantity, i.ReorderPoint)
}

func (i Item) IsLow() bool {
	return i.Status() == StockLow
}
