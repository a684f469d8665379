package listview

// PageSize is the number of items each "load more" step reveals.
const PageSize = 30

// Window is the displayed prefix of a view.
type Window struct {
	total     int
	displayed int
}

// Reset starts a window over a view of total items.
func Reset(total int) Window {
	return Window{total: total, displayed: min(PageSize, total)}
}

// LoadMore extends the prefix by one page. It is a no-op once exhausted.
func (w Window) LoadMore() Window {
	w.displayed = min(w.displayed+PageSize, w.total)
	return w
}

func (w Window) Displayed() int { return w.displayed }
func (w Window) Len() int       { return w.total }
func (w Window) HasMore() bool  { return w.displayed < w.total }
