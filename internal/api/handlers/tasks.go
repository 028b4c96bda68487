package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"errand-route-service/internal/api/dto"
	"errand-route-service/internal/ports"
)

// TaskHandler exposes task CRUD. Task ids are client-visible strings;
// omitted ids are generated server-side.
type TaskHandler struct {
	Repo ports.TaskRepository
}

func (h *TaskHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost, http.MethodPut:
		h.put(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, PUT, DELETE")
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *TaskHandler) list(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Repo.ListTasks(r.Context())
	if err != nil {
		log.Printf("list tasks failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListTasksResponse{Tasks: make([]dto.TaskResponse, 0, len(tasks))}
	for _, t := range tasks {
		res.Tasks = append(res.Tasks, taskToResponse(t))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *TaskHandler) put(w http.ResponseWriter, r *http.Request) {
	var req dto.TaskRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		writeError(w, r, http.StatusBadRequest, "title is required")
		return
	}
	if req.DurationMin <= 0 {
		writeError(w, r, http.StatusBadRequest, "duration_min must be positive")
		return
	}
	if req.Priority < 1 || req.Priority > 4 {
		writeError(w, r, http.StatusBadRequest, "priority must be between 1 and 4")
		return
	}

	task := taskFromRequest(req)
	if strings.TrimSpace(task.ID) == "" {
		task.ID = uuid.NewString()
	}

	if err := h.Repo.PutTask(r.Context(), task); err != nil {
		log.Printf("put task failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, taskToResponse(task))
}

func (h *TaskHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.Repo.DeleteTask(r.Context(), id); err != nil {
		log.Printf("delete task failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"deleted": id})
}
