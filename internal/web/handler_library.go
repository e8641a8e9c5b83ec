package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vbonduro/mcprogress/internal/service"
	"github.com/vbonduro/mcprogress/internal/store"
)

type categoryIn struct {
	Name string `json:"name"`
}

func (s *Server) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.library.SearchItems(r.Context(), q.Get("q"), q.Get("category"))
	if err != nil {
		s.writeServiceError(w, "search items", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var in service.ItemInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid item")
		return
	}

	item, err := s.library.CreateItem(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, "create item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var patch service.ItemPatch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid item")
		return
	}

	item, err := s.library.UpdateItem(r.Context(), itemID, patch)
	if err != nil {
		s.writeServiceError(w, "update item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := s.library.DeleteItem(r.Context(), itemID); err != nil {
		s.writeServiceError(w, "delete item", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	names, err := s.library.ListCategories(r.Context())
	if err != nil {
		s.writeServiceError(w, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in categoryIn
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}

	if err := s.library.CreateCategory(r.Context(), in.Name); err != nil {
		if errors.Is(err, store.ErrCategoryExists) {
			writeError(w, http.StatusConflict, "category already exists")
			return
		}
		s.writeServiceError(w, "create category", err)
		return
	}
	writeJSON(w, http.StatusOK, in.Name)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.library.DeleteCategory(r.Context(), r.PathValue("name")); err != nil {
		s.writeServiceError(w, "delete category", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type edgeStyle struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var edgeStyles = []edgeStyle{
	{ID: "default", Label: "Straight"},
	{ID: "step", Label: "Orthogonal (Step)"},
	{ID: "smoothstep", Label: "Smooth Step"},
	{ID: "bezier", Label: "Bezier"},
}

func (s *Server) handleEdgeStyles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, edgeStyles)
}
