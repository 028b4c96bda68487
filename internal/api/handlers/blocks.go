package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"errand-route-service/internal/api/dto"
	"errand-route-service/internal/domain"
	"errand-route-service/internal/ports"
)

const dateLayout = "2006-01-02"

// BlockHandler exposes fixed-block CRUD for a single date.
type BlockHandler struct {
	Repo ports.FixedBlockRepository
}

func (h *BlockHandler) Collection(w http.ResponseWriter, r *http.Request) {
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

func (h *BlockHandler) list(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	blocks, err := h.Repo.ListBlocksByDate(r.Context(), date)
	if err != nil {
		log.Printf("list fixed blocks failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListBlocksResponse{Blocks: make([]dto.FixedBlockResponse, 0, len(blocks))}
	for _, b := range blocks {
		res.Blocks = append(res.Blocks, dto.FixedBlockResponse{
			ID:    b.ID,
			Date:  b.Date.Format(dateLayout),
			Start: b.Start,
			End:   b.End,
			Title: b.Title,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *BlockHandler) put(w http.ResponseWriter, r *http.Request) {
	var req dto.FixedBlockRequest

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

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, r, http.StatusBadRequest, "title is required")
		return
	}
	if !req.End.After(req.Start) {
		writeError(w, r, http.StatusBadRequest, "end must be after start")
		return
	}

	block := domain.FixedBlock{
		ID:    strings.TrimSpace(req.ID),
		Date:  date,
		Start: req.Start,
		End:   req.End,
		Title: req.Title,
	}
	if block.ID == "" {
		block.ID = uuid.NewString()
	}

	if err := h.Repo.PutBlock(r.Context(), block); err != nil {
		log.Printf("put fixed block failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.FixedBlockResponse{
		ID:    block.ID,
		Date:  block.Date.Format(dateLayout),
		Start: block.Start,
		End:   block.End,
		Title: block.Title,
	})
}

func (h *BlockHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.Repo.DeleteBlock(r.Context(), id); err != nil {
		log.Printf("delete fixed block failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"deleted": id})
}
