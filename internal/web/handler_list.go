package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vbonduro/restock/internal/domain"
	"github.com/vbonduro/restock/internal/listview"
)

// maxPages bounds the pages parameter so a crafted URL cannot ask for an
// unbounded prefix.
const maxPages = 1000

type listParams struct {
	Filter listview.Filter
	Sort   listview.Sort
	Pages  int
}

func parseListParams(r *http.Request, c domain.Collection) listParams {
	q := r.URL.Query()
	p := listParams{
		Filter: listview.Filter{
			Query:    strings.TrimSpace(q.Get("q")),
			Category: q.Get("category"),
		},
		Sort:  listview.ParseSort(q.Get("sort"), q.Get("dir")),
		Pages: 1,
	}
	if c.HasSector() {
		p.Filter.Sector = q.Get("sector")
	}
	if n, err := strconv.Atoi(q.Get("pages")); err == nil && n > 1 {
		p.Pages = min(n, maxPages)
	}
	return p
}

// url encodes p as a list URL, leaving out defaults.
func (p listParams) url(c domain.Collection) string {
	v := url.Values{}
	if p.Filter.Query != "" {
		v.Set("q", p.Filter.Query)
	}
	if p.Filter.Category != "" {
		v.Set("category", p.Filter.Category)
	}
	if p.Filter.Sector != "" {
		v.Set("sector", p.Filter.Sector)
	}
	if p.Sort.Key != listview.SortNone {
		v.Set("sort", string(p.Sort.Key))
	}
	if p.Sort.Direction == listview.Desc {
		v.Set("dir", string(listview.Desc))
	}
	if p.Pages > 1 {
		v.Set("pages", strconv.Itoa(p.Pages))
	}
	u := "/" + string(c)
	if len(v) > 0 {
		u += "?" + v.Encode()
	}
	return u
}

// sortURL is the URL of the first page sorted by key. Selecting the current
// key again flips the direction.
func (p listParams) sortURL(c domain.Collection, key listview.SortKey) string {
	next := p
	next.Pages = 1
	if p.Sort.Key == key && p.Sort.Direction == listview.Asc {
		next.Sort = listview.Sort{Key: key, Direction: listview.Desc}
	} else {
		next.Sort = listview.Sort{Key: key, Direction: listview.Asc}
	}
	return next.url(c)
}

type sortLink struct {
	Label  string
	URL    string
	Active bool
	Desc   bool
}

type listPage struct {
	Collection    domain.Collection
	Collections   []domain.Collection
	HasSector     bool
	VisionEnabled bool
	Items         []domain.Item
	Shown         int
	Total         int
	LowCount      int
	HasMore       bool
	NextURL       string
	ReloadURL     string
	Params        listParams
	Categories    []string
	Sectors       []string
	SortLinks     map[string]sortLink
	CanonicalURL  string
	ActiveNav     string
}

func (s *Server) buildListPage(st listview.State, p listParams) listPage {
	c := st.Collection()
	displayed := st.Displayed()
	view := st.View()

	low := 0
	for _, item := range view {
		if item.IsLow() {
			low++
		}
	}

	first := p
	first.Pages = 1
	next := p
	next.Pages = p.Pages + 1

	links := make(map[string]sortLink)
	for _, key := range []listview.SortKey{listview.SortName, listview.SortQuantity, listview.SortCategory, listview.SortSector} {
		if key == listview.SortSector && !c.HasSector() {
			continue
		}
		links[string(key)] = sortLink{
			Label:  strings.ToUpper(string(key[:1])) + string(key[1:]),
			URL:    p.sortURL(c, key),
			Active: p.Sort.Key == key,
			Desc:   p.Sort.Key == key && p.Sort.Direction == listview.Desc,
		}
	}

	return listPage{
		Collection:    c,
		Collections:   domain.Collections,
		HasSector:     c.HasSector(),
		VisionEnabled: s.service.CanSuggest(),
		Items:         displayed,
		Shown:         len(displayed),
		Total:         len(view),
		LowCount:      low,
		HasMore:       st.HasMore(),
		NextURL:       next.url(c),
		ReloadURL:     first.url(c),
		Params:        p,
		Categories:    st.Categories(),
		Sectors:       st.Sectors(),
		SortLinks:     links,
		CanonicalURL:  p.sortURL(c, listview.SortCanonical),
		ActiveNav:     string(c),
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, c domain.Collection) {
	p := parseListParams(r, c)

	// A full page load always starts from a fresh fetch; HTMX row updates
	// reuse the cache that load filled.
	if !isHTMX(r) {
		if _, err := s.service.Refresh(r.Context(), c); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	st, err := s.service.View(r.Context(), c, p.Filter, p.Sort, p.Pages)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page := s.buildListPage(st, p)

	// HTMX partial update: return only the rows fragment.
	if isHTMX(r) {
		if err := s.renderPartial(w, "partials/rows.html", page); err != nil {
			s.logger.Error("render partial failed", "error", err)
		}
		return
	}

	if err := s.renderPage(w, page, "base.html", "pages/inventory.html", "partials/rows.html"); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}
