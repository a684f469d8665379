package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vbonduro/restock/internal/domain"
	"github.com/vbonduro/restock/internal/form"
	"github.com/vbonduro/restock/internal/listview"
	"github.com/vbonduro/restock/internal/service"
)

const maxNameLen = 200

type itemForm struct {
	Collection domain.Collection
	HasSector  bool
	Editing    bool
	ItemID     string
	Action     string
	Draft      form.Draft
	Categories []string
	Sectors    []string
	Error      string
}

func (s *Server) newItemForm(st listview.State, ctrl *form.Controller) itemForm {
	c := st.Collection()
	f := itemForm{
		Collection: c,
		HasSector:  c.HasSector(),
		Action:     "/" + string(c),
		Draft:      ctrl.Draft(),
		Categories: st.Categories(),
		Sectors:    st.Sectors(),
	}
	if item, ok := ctrl.Editing(); ok {
		f.Editing = true
		f.ItemID = item.ID
		f.Action = "/" + string(c) + "/" + url.PathEscape(item.ID)
	}
	return f
}

func (s *Server) handleNewForm(w http.ResponseWriter, r *http.Request, c domain.Collection) {
	st, err := s.service.View(r.Context(), c, listview.Filter{}, listview.Sort{}, 1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if st, err = st.OpenCreate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	ctrl := form.NewController(c)
	ctrl.Seed(nil)
	if err := s.renderPartial(w, "partials/item_form.html", s.newItemForm(st, ctrl)); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request, c domain.Collection) {
	id := r.PathValue("id")
	st, err := s.service.View(r.Context(), c, listview.Filter{}, listview.Sort{}, 1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if st, err = st.OpenEdit(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, _ := st.Item(id)

	ctrl := form.NewController(c)
	ctrl.Seed(&item)
	if err := s.renderPartial(w, "partials/item_form.html", s.newItemForm(st, ctrl)); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, c domain.Collection) {
	ctrl := form.NewController(c)
	ctrl.Seed(nil)
	s.submitItem(w, r, c, ctrl, "Item added")
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, c domain.Collection) {
	item, err := s.service.Get(r.Context(), c, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctrl := form.NewController(c)
	ctrl.Seed(&item)
	s.submitItem(w, r, c, ctrl, "Item updated")
}

// submitItem parses the posted draft into ctrl and persists it. Validation
// and repository failures re-render the form with the draft kept.
func (s *Server) submitItem(w http.ResponseWriter, r *http.Request, c domain.Collection, ctrl *form.Controller, success string) {
	if err := parseForm(r); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	draft, err := parseDraft(r, c)
	if err == nil {
		ctrl.SetDraft(draft)
	}
	var upload *service.Upload
	if err == nil {
		upload, err = readUpload(r, "image")
	}
	if err != nil {
		s.rerenderForm(w, r, c, ctrl, draft, err)
		return
	}

	req, err := ctrl.Submit()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.service.Submit(r.Context(), c, req, upload); err != nil {
		s.logger.Warn("submit item failed", "collection", c, "op", req.Op, "error", err)
		// Submit closed the controller; reopen it on the same item for retry.
		if req.Op == form.OpUpdate {
			orig := req.Item
			ctrl.Seed(&orig)
		} else {
			ctrl.Seed(nil)
		}
		s.rerenderForm(w, r, c, ctrl, draft, err)
		return
	}

	s.mutationDone(w, r, c, success)
}

func (s *Server) rerenderForm(w http.ResponseWriter, r *http.Request, c domain.Collection, ctrl *form.Controller, draft form.Draft, cause error) {
	if !isHTMX(r) {
		s.writeError(w, r, cause)
		return
	}
	ctrl.SetDraft(draft)
	items, err := s.service.Items(r.Context(), c)
	if err != nil {
		s.logger.Warn("form choices unavailable", "collection", c, "error", err)
	}
	f := s.newItemForm(listview.New(c, items), ctrl)
	f.Error = userMessage(cause)

	trigger(w, &notice{Message: f.Error, Level: "error"}, false)
	if err := s.renderPartialStatus(w, errorStatus(cause), "partials/item_form.html", f); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, c domain.Collection) {
	if err := s.service.Delete(r.Context(), c, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutationDone(w, r, c, "Item removed")
}

// parseForm reads a multipart or urlencoded body.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxUploadSize)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

// parseDraft reads and validates the posted item fields. Whatever was read is
// returned with the error so the form can be shown again.
func parseDraft(r *http.Request, c domain.Collection) (form.Draft, error) {
	d := form.Draft{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Image:    strings.TrimSpace(r.FormValue("image_url")),
		Category: strings.TrimSpace(r.FormValue("category")),
	}
	if c.HasSector() {
		d.Sector = strings.TrimSpace(r.FormValue("sector"))
	}

	var err error
	d.CurrentQuantity, err = parseCount(r.FormValue("current_quantity"), "current_quantity")
	if err != nil {
		return d, err
	}
	d.ReorderPoint, err = parseCount(r.FormValue("reorder_point"), "reorder_point")
	if err != nil {
		return d, err
	}

	switch {
	case d.Name == "":
		return d, domain.NewValidationError("name", "is required")
	case len(d.Name) > maxNameLen:
		return d, domain.NewValidationError("name", "is too long")
	case d.Category == "":
		return d, domain.NewValidationError("category", "is required")
	}
	if d.Image != "" && !validImageURL(d.Image) {
		return d, domain.NewValidationError("image_url", "must be an http(s) URL")
	}
	return d, nil
}

func parseCount(raw, field string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, domain.NewValidationError(field, "is required")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(field, "must be a whole number")
	}
	if n < 0 {
		return 0, domain.NewValidationError(field, "must not be negative")
	}
	if n > domain.MaxQuantity {
		return 0, domain.NewValidationError(field, "must be at most "+strconv.Itoa(domain.MaxQuantity))
	}
	return n, nil
}

func validImageURL(s string) bool {
	if strings.HasPrefix(s, service.ImageURLPrefix) {
		return true
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
