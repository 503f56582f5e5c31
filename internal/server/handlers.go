package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jpalmerr/healthboard/internal/snapshot"
	"github.com/jpalmerr/healthboard/internal/store"
	"github.com/jpalmerr/healthboard/internal/vocabulary"
)

type createCategoryRequest struct {
	CategoryName *string `json:"category_name"`
}

type createItemRequest struct {
	ItemName *string `json:"item_name"`
}

type updateItemRequest struct {
	Status  *string `json:"status"`
	Message *string `json:"message"`
	URL     *string `json:"url"`
}

// existingItemResponse is the body returned when an item already exists:
// the note followed by the record's own fields.
type existingItemResponse struct {
	Note string `json:"note"`
	store.ItemRecord
}

type messageResponse struct {
	Message string `json:"message"`
}

// handleHealth returns the whole board.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.store.GetAll())
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if req.CategoryName == nil {
		s.jsonError(w, http.StatusBadRequest, "Missing category_name")
		return
	}

	res, err := s.store.CreateCategory(*req.CategoryName)
	if err != nil {
		s.storeError(w, err, "category_name")
		return
	}

	if res.Existed {
		s.jsonResponse(w, http.StatusOK, map[string]any{
			"note":   fmt.Sprintf("Category '%s' already exists", res.Name),
			res.Name: res.Category,
		})
		return
	}
	s.jsonResponse(w, http.StatusCreated, map[string]any{res.Name: res.Category})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	if err := s.store.DeleteCategory(category); err != nil {
		s.storeError(w, err, "category_name")
		return
	}
	s.jsonResponse(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Category '%s' deleted", category),
	})
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if req.ItemName == nil {
		s.jsonError(w, http.StatusBadRequest, "Missing item_name")
		return
	}

	res, err := s.store.CreateItem(r.PathValue("category"), *req.ItemName)
	if err != nil {
		s.storeError(w, err, "item_name")
		return
	}

	if res.Existed {
		s.jsonResponse(w, http.StatusOK, existingItemResponse{
			Note:       "Item already existed.",
			ItemRecord: res.Record,
		})
		return
	}
	s.jsonResponse(w, http.StatusCreated, map[string]store.ItemRecord{res.Name: res.Record})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	category, item := r.PathValue("category"), r.PathValue("item")
	if err := s.store.DeleteItem(category, item); err != nil {
		s.storeError(w, err, "item_name")
		return
	}
	s.jsonResponse(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Item '%s' deleted from category '%s'", item, category),
	})
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	// {} and null decode cleanly but carry nothing to change
	if req.Status == nil && req.Message == nil && req.URL == nil {
		s.jsonError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	item := r.PathValue("item")
	rec, err := s.store.UpdateItem(r.PathValue("category"), item, store.ItemUpdate{
		Status:  req.Status,
		Message: req.Message,
		URL:     req.URL,
	})
	if err != nil {
		s.storeError(w, err, "")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]store.ItemRecord{item: rec})
}

func (s *Server) handleCheckpoint(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		s.jsonError(w, http.StatusInternalServerError, "Persistence is not configured")
		return
	}
	if err := s.snapshots.Checkpoint(r.Context()); err != nil {
		s.logger.Error("checkpoint failed", "error", err)
		s.jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, messageResponse{Message: "Health data checkpointed successfully"})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		s.jsonError(w, http.StatusInternalServerError, "Persistence is not configured")
		return
	}
	if err := s.snapshots.Restore(r.Context()); err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			s.jsonError(w, http.StatusNotFound, "No checkpoint found")
			return
		}
		s.logger.Error("restore failed", "error", err)
		s.jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, messageResponse{Message: "Health data restored successfully"})
}

func (s *Server) handleStatusConfig(w http.ResponseWriter, _ *http.Request) {
	if s.vocab == nil {
		s.jsonError(w, http.StatusInternalServerError, "Status configuration is not available")
		return
	}
	set, err := s.vocab.Current()
	if err != nil {
		s.vocabularyError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, set.Document())
}

func (s *Server) handleReloadStatusConfig(w http.ResponseWriter, r *http.Request) {
	if s.vocab == nil {
		s.jsonError(w, http.StatusInternalServerError, "Status configuration is not available")
		return
	}
	if err := s.vocab.Reload(); err != nil {
		s.logger.Warn("status vocabulary reload failed", "error", err)
		s.vocabularyError(w, err)
		return
	}
	s.handleStatusConfig(w, r)
}

// storeError maps a board store error to a response. field names the
// request field a name error refers to; empty for path-only operations.
func (s *Server) storeError(w http.ResponseWriter, err error, field string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.jsonError(w, http.StatusNotFound, detail(err, store.ErrNotFound))
	case errors.Is(err, store.ErrInvalidName):
		msg := detail(err, store.ErrInvalidName)
		if field != "" {
			msg = fmt.Sprintf("Invalid %s: %s", field, msg)
		}
		s.jsonError(w, http.StatusBadRequest, msg)
	case errors.Is(err, store.ErrInvalidStatus):
		s.jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrServerConfig):
		s.logger.Error("status vocabulary unavailable", "error", err)
		s.jsonError(w, http.StatusInternalServerError, err.Error())
	default:
		s.logger.Error("unexpected store error", "error", err)
		s.jsonError(w, http.StatusInternalServerError, err.Error())
	}
}

// vocabularyError maps a vocabulary load failure to a response.
func (s *Server) vocabularyError(w http.ResponseWriter, err error) {
	if errors.Is(err, vocabulary.ErrNotFound) {
		s.jsonError(w, http.StatusNotFound, "Status configuration file not found")
		return
	}
	s.jsonError(w, http.StatusInternalServerError, err.Error())
}
