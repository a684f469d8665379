package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vbonduro/restock/internal/domain"
)

// rowsChanged is the client event that makes the rows container reload with
// its current filters and the first page.
const rowsChanged = "rows-changed"

type notice struct {
	Message string `json:"message"`
	Level   string `json:"level"`
}

// trigger sets the HX-Trigger header. The "notify" event carries a notice
// the page shows as a toast.
func trigger(w http.ResponseWriter, n *notice, refresh bool) {
	events := map[string]any{}
	if n != nil {
		events["notify"] = n
	}
	if refresh {
		events[rowsChanged] = true
	}
	if len(events) == 0 {
		return
	}
	b, err := json.Marshal(events)
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(b))
}

// mutationDone answers a successful mutation. HTMX callers get an empty body
// (closing the open panel) and the notify/refresh events; plain form posts
// are redirected back to the list.
func (s *Server) mutationDone(w http.ResponseWriter, r *http.Request, c domain.Collection, message string) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/"+string(c), http.StatusSeeOther)
		return
	}
	trigger(w, &notice{Message: message, Level: "success"}, true)
	w.WriteHeader(http.StatusOK)
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	var verr *domain.ValidationError
	var rerr *domain.RepositoryError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &rerr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the text shown for err. Repository details stay in the log.
func userMessage(err error) string {
	var verr *domain.ValidationError
	var rerr *domain.RepositoryError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "Item not found"
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &rerr):
		return "Could not " + rerr.Op + " " + string(rerr.Collection) + ", please try again"
	default:
		return "Something went wrong"
	}
}

// writeError reports err as a plain response plus an error toast. Every
// failed repository call goes through here or through a re-rendered panel
// that carries the same notice.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	msg := userMessage(err)
	trigger(w, &notice{Message: msg, Level: "error"}, false)
	// The notice carries the message; the plain body must not replace the
	// element that made the request.
	w.Header().Set("HX-Reswap", "none")
	http.Error(w, msg, status)
}
