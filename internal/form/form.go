// Package form holds the draft of the item being created or edited and turns
// it into a create or update request.
package form

import (
	"errors"

	"github.com/vbonduro/restock/internal/domain"
)

var ErrNotOpen = errors.New("form is not open")

// Draft is the editable field set of an item.
type Draft struct {
	Name            string
	CurrentQuantity int
	ReorderPoint    int
	Image           string
	Category        string
	Sector          string
}

// DraftOf copies the mutable fields of item.
func DraftOf(item domain.Item) Draft {
	return Draft{
		Name:            item.Name,
		CurrentQuantity: item.CurrentQuantity,
		ReorderPoint:    item.ReorderPoint,
		Image:           item.Image,
		Category:        item.Category,
		Sector:          item.Sector,
	}
}

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
)

// Request is what a submit asks the repository to do. Item.ID is empty for
// OpCreate.
type Request struct {
	Op   Op
	Item domain.Item
}

// Controller tracks one form for one collection.
type Controller struct {
	collection domain.Collection
	original   *domain.Item
	draft      Draft
	open       bool
}

func NewController(c domain.Collection) *Controller {
	return &Controller{collection: c}
}

// Seed opens the form. A nil item starts a blank create form; otherwise the
// draft is copied from item and submit produces an update.
func (c *Controller) Seed(item *domain.Item) {
	c.open = true
	if item == nil {
		c.original = nil
		c.draft = Draft{}
		return
	}
	orig := *item
	c.original = &orig
	c.draft = DraftOf(orig)
	if !c.collection.HasSector() {
		c.draft.Sector = ""
	}
}

func (c *Controller) SetDraft(d Draft) {
	c.draft = d
}

func (c *Controller) Draft() Draft {
	return c.draft
}

func (c *Controller) IsOpen() bool {
	return c.open
}

// Editing returns the item the form was seeded from, if any.
func (c *Controller) Editing() (domain.Item, bool) {
	if c.original == nil {
		return domain.Item{}, false
	}
	return *c.original, true
}

// Close discards the draft.
func (c *Controller) Close() {
	c.open = false
	c.original = nil
	c.draft = Draft{}
}

// Submit builds the request for the current draft and closes the form.
func (c *Controller) Submit() (Request, error) {
	if !c.open {
		return Request{}, ErrNotOpen
	}

	item := domain.Item{}
	op := OpCreate
	if c.original != nil {
		item = *c.original
		op = OpUpdate
	}
	item.Name = c.draft.Name
	item.CurrentQuantity = c.draft.CurrentQuantity
	item.ReorderPoint = c.draft.ReorderPoint
	item.Image = c.draft.Image
	item.Category = c.draft.Category
	item.Sector = ""
	if c.collection.HasSector() {
		item.Sector = c.draft.Sector
	}

	c.Close()
	return Request{Op: op, Item: item}, nil
}
