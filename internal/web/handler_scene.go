package web

import (
	"encoding/json"
	"net/http"

	"github.com/vbonduro/mcprogress/internal/domain"
)

const maxGraphSize = 10 * 1024 * 1024 // 10 MB

type sceneIn struct {
	Name string `json:"name"`
}

type graphOut struct {
	SceneID int64 `json:"scene_id"`
	domain.Diagram
}

func (s *Server) handleListScenes(w http.ResponseWriter, r *http.Request) {
	scenes, err := s.library.ListScenes(r.Context())
	if err != nil {
		s.writeServiceError(w, "list scenes", err)
		return
	}
	writeJSON(w, http.StatusOK, scenes)
}

func (s *Server) handleCreateScene(w http.ResponseWriter, r *http.Request) {
	var in sceneIn
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid scene")
		return
	}

	scene, err := s.library.CreateScene(r.Context(), in.Name)
	if err != nil {
		s.writeServiceError(w, "create scene", err)
		return
	}
	writeJSON(w, http.StatusOK, scene)
}

func (s *Server) handleRenameScene(w http.ResponseWriter, r *http.Request) {
	sceneID, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scene id")
		return
	}

	var in sceneIn
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid scene")
		return
	}

	scene, err := s.library.RenameScene(r.Context(), sceneID, in.Name)
	if err != nil {
		s.writeServiceError(w, "rename scene", err)
		return
	}
	writeJSON(w, http.StatusOK, scene)
}

func (s *Server) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	sceneID, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scene id")
		return
	}

	if err := s.library.DeleteScene(r.Context(), sceneID); err != nil {
		s.writeServiceError(w, "delete scene", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	sceneID, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scene id")
		return
	}

	d, err := s.library.GetGraph(r.Context(), sceneID)
	if err != nil {
		s.writeServiceError(w, "get graph", err)
		return
	}
	writeJSON(w, http.StatusOK, graphOut{SceneID: sceneID, Diagram: *d})
}

func (s *Server) handlePutGraph(w http.ResponseWriter, r *http.Request) {
	sceneID, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scene id")
		return
	}

	var d domain.Diagram
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGraphSize)).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid graph")
		return
	}
	d = d.Normalized()

	if err := s.library.PutGraph(r.Context(), sceneID, d); err != nil {
		s.writeServiceError(w, "put graph", err)
		return
	}
	writeJSON(w, http.StatusOK, graphOut{SceneID: sceneID, Diagram: d})
}
