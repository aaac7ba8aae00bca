package handlers

import (
	"net/http"

	"github.com/JetJadeja/celebxplain/internal/domain"
)

// Personas lists the selectable personas with public fields only.
func (a *App) Personas(w http.ResponseWriter, r *http.Request) {
	all := a.Catalog.List()
	out := make([]domain.Persona, 0, len(all))
	for _, p := range all {
		out = append(out, p.PublicView())
	}
	a.json(w, http.StatusOK, out)
}
