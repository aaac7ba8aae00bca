package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/JetJadeja/celebxplain/internal/domain"
	"github.com/JetJadeja/celebxplain/internal/infra"
	"github.com/JetJadeja/celebxplain/internal/queue"
	"github.com/JetJadeja/celebxplain/internal/storage"
)

// App is the handler container holding every dependency the HTTP surface needs.
type App struct {
	Jobs    domain.JobRepository
	Catalog domain.PersonaCatalog
	Queue   queue.Enqueuer
	Store   storage.Store
	Logger  infra.Logger
}

func NewApp(jobs domain.JobRepository, cat domain.PersonaCatalog, q queue.Enqueuer, store storage.Store, logger infra.Logger) *App {
	return &App{Jobs: jobs, Catalog: cat, Queue: q, Store: store, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error writes the {"error": ...} body the web client expects.
func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}
