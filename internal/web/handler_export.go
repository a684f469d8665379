package web

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/vbonduro/restock/internal/domain"
	"github.com/vbonduro/restock/internal/export"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, c domain.Collection) {
	items, err := s.service.Export(r.Context(), c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	now := s.now()
	var buf bytes.Buffer
	if err := export.WritePDF(&buf, c, items, now); err != nil {
		s.logger.Error("export failed", "collection", c, "error", err)
		http.Error(w, "failed to export", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, export.Filename(c, now)))
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("write export failed", "collection", c, "error", err)
	}
}
