package api

import (
	"net/http"

	"errand-route-service/internal/api/handlers"
	"errand-route-service/internal/ports"
	"errand-route-service/internal/services"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Settings ports.SettingsRepository
	Tasks    ports.TaskRepository
	Blocks   ports.FixedBlockRepository
	Plans    ports.PlanRepository
	Resolver *services.Resolver
	Planner  *services.DayPlanner
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	settingsHandler := &handlers.SettingsHandler{Repo: deps.Settings}
	taskHandler := &handlers.TaskHandler{Repo: deps.Tasks}
	blockHandler := &handlers.BlockHandler{Repo: deps.Blocks}
	resolveHandler := &handlers.ResolveHandler{Resolver: deps.Resolver, Settings: deps.Settings}
	planHandler := &handlers.PlanHandler{
		Settings: deps.Settings,
		Tasks:    deps.Tasks,
		Blocks:   deps.Blocks,
		Plans:    deps.Plans,
		Planner:  deps.Planner,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/settings", settingsHandler.Profile)
	mux.HandleFunc("/tasks", taskHandler.Collection)
	mux.HandleFunc("/blocks", blockHandler.Collection)
	mux.HandleFunc("/resolve", resolveHandler.Resolve)
	mux.HandleFunc("/resolve/select", resolveHandler.Select)
	mux.HandleFunc("/plans", planHandler.Collection)

	return loggingMiddleware(mux)
}
