package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/vbonduro/restock/internal/adjust"
	"github.com/vbonduro/restock/internal/domain"
	"github.com/vbonduro/restock/internal/listview"
)

type adjustForm struct {
	Collection domain.Collection
	Item       domain.Item
	State      adjust.State
	Action     string
}

func (s *Server) handleAdjustForm(w http.ResponseWriter, r *http.Request, c domain.Collection) {
	id := r.PathValue("id")
	st, err := s.service.View(r.Context(), c, listview.Filter{}, listview.Sort{}, 1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if st, err = st.StartAdjust(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, _ := st.Item(id)

	data := adjustForm{Collection: c, Item: item, State: adjust.Open(id), Action: adjustAction(c, id)}
	if err := s.renderPartial(w, "partials/adjust_form.html", data); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleAdjust(w http.ResponseWriter, r *http.Request, c domain.Collection) {
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	item, err := s.service.Get(r.Context(), c, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	panel := adjust.Open(id)
	panel.Delta = r.FormValue("delta")
	if dir, err := adjust.ParseDirection(r.FormValue("direction")); err == nil {
		panel.Direction = dir
	}

	req, err := adjust.NewRequest(id, panel.Delta, r.FormValue("direction"))
	if err == nil {
		var quantity int
		quantity, err = s.service.AdjustQuantity(r.Context(), c, req)
		if err == nil {
			s.mutationDone(w, r, c, "Quantity updated: new value "+strconv.Itoa(quantity))
			return
		}
	}

	// The panel stays open with the typed values for a retry.
	var rerr *domain.RepositoryError
	if errors.As(err, &rerr) {
		s.logger.Warn("adjust quantity failed", "collection", c, "id", id, "error", err)
	}
	if !isHTMX(r) || errors.Is(err, domain.ErrNotFound) {
		s.writeError(w, r, err)
		return
	}
	panel = panel.Failed(errors.New(userMessage(err)))
	trigger(w, &notice{Message: panel.Err, Level: "error"}, false)
	data := adjustForm{Collection: c, Item: item, State: panel, Action: adjustAction(c, id)}
	if err := s.renderPartialStatus(w, errorStatus(err), "partials/adjust_form.html", data); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func adjustAction(c domain.Collection, id string) string {
	return "/" + string(c) + "/" + id + "/adjust"
}
