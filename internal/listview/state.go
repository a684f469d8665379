package listview

import (
	"errors"
	"slices"

	"github.com/vbonduro/restock/internal/domain"
)

// ErrBusy is returned when opening a form or adjustment while another one is
// already open in the same view.
var ErrBusy = errors.New("another item is already open")

type ModeKind int

const (
	Idle ModeKind = iota
	Creating
	Editing
	Adjusting
)

func (k ModeKind) String() string {
	switch k {
	case Creating:
		return "creating"
	case Editing:
		return "editing"
	case Adjusting:
		return "adjusting"
	default:
		return "idle"
	}
}

// Mode is the form/adjust state of a view. ItemID is set for Editing and
// Adjusting.
type Mode struct {
	Kind   ModeKind
	ItemID string
}

// State is an immutable snapshot of one collection view. Every transition
// returns a new State; the receiver is never modified.
type State struct {
	collection domain.Collection
	items      []domain.Item
	filter     Filter
	sort       Sort
	view       []domain.Item
	window     Window
	mode       Mode
}

// New builds the initial state over a full fetch of c.
func New(c domain.Collection, items []domain.Item) State {
	s := State{
		collection: c,
		items:      slices.Clone(items),
		sort:       Sort{Direction: Asc},
	}
	return s.recompute()
}

// recompute derives the view and resets the window. Called after any change
// to the items, filter, or sort.
func (s State) recompute() State {
	s.view = Apply(s.items, s.filter, s.sort)
	s.window = Reset(len(s.view))
	return s
}

// WithItems replaces the cached items after a refetch. An open form or
// adjustment whose item no longer exists is closed.
func (s State) WithItems(items []domain.Item) State {
	s.items = slices.Clone(items)
	if s.mode.ItemID != "" && !s.has(s.mode.ItemID) {
		s.mode = Mode{}
	}
	return s.recompute()
}

func (s State) WithFilter(f Filter) State {
	s.filter = f
	return s.recompute()
}

func (s State) WithQuery(q string) State {
	s.filter.Query = q
	return s.recompute()
}

func (s State) WithCategory(category string) State {
	s.filter.Category = category
	return s.recompute()
}

func (s State) WithSector(sector string) State {
	if !s.collection.HasSector() {
		sector = ""
	}
	s.filter.Sector = sector
	return s.recompute()
}

func (s State) WithSort(sort Sort) State {
	s.sort = sort
	return s.recompute()
}

func (s State) LoadMore() State {
	s.window = s.window.LoadMore()
	return s
}

func (s State) Collection() domain.Collection { return s.collection }
func (s State) Filter() Filter                { return s.filter }
func (s State) Sort() Sort                    { return s.sort }
func (s State) Window() Window                { return s.window }
func (s State) Mode() Mode                    { return s.mode }
func (s State) HasMore() bool                 { return s.window.HasMore() }

// View is the full filtered and sorted sequence.
func (s State) View() []domain.Item {
	return slices.Clone(s.view)
}

// Displayed is the loaded prefix of the view.
func (s State) Displayed() []domain.Item {
	return slices.Clone(s.view[:s.window.Displayed()])
}

func (s State) Categories() []string { return Categories(s.items) }
func (s State) Sectors() []string    { return Sectors(s.items) }

// Item looks up id among all cached items, ignoring the filter.
func (s State) Item(id string) (domain.Item, bool) {
	i := slices.IndexFunc(s.items, func(it domain.Item) bool { return it.ID == id })
	if i < 0 {
		return domain.Item{}, false
	}
	return s.items[i], true
}

func (s State) has(id string) bool {
	_, ok := s.Item(id)
	return ok
}

func (s State) open(m Mode) (State, error) {
	if s.mode.Kind != Idle {
		return s, ErrBusy
	}
	if m.Kind != Creating && !s.has(m.ItemID) {
		return s, domain.ErrNotFound
	}
	s.mode = m
	return s, nil
}

func (s State) OpenCreate() (State, error) {
	return s.open(Mode{Kind: Creating})
}

func (s State) OpenEdit(id string) (State, error) {
	return s.open(Mode{Kind: Editing, ItemID: id})
}

func (s State) StartAdjust(id string) (State, error) {
	return s.open(Mode{Kind: Adjusting, ItemID: id})
}

// Close returns to Idle from any mode.
func (s State) Close() State {
	s.mode = Mode{}
	return s
}
