package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/vbonduro/mcprogress/internal/scenepack"
	"github.com/vbonduro/mcprogress/internal/service"
)

const maxPackageSize = 100 * 1024 * 1024 // 100 MB

// handleExportScene serves /api/export/scene/{id}.zip as a scene package and
// /api/export/scene/{id}.json as the bare diagram.
func (s *Server) handleExportScene(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	base, ext, _ := strings.Cut(file, ".")
	sceneID, err := strconv.ParseInt(base, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid scene id")
		return
	}

	switch ext {
	case "zip":
		data, err := s.packages.ExportScene(r.Context(), sceneID)
		if err != nil {
			s.writeServiceError(w, "export scene", err)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="scene_%d.zip"`, sceneID))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		if _, err := w.Write(data); err != nil {
			s.logger.Error("write export failed", "scene_id", sceneID, "error", err)
		}
	case "json":
		d, err := s.library.GetGraph(r.Context(), sceneID)
		if err != nil {
			s.writeServiceError(w, "export scene", err)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="scene_%d.json"`, sceneID))
		writeJSON(w, http.StatusOK, d)
	default:
		http.NotFound(w, r)
	}
}

type importResponse struct {
	OK bool `json:"ok"`
	*service.ImportResult
}

func (s *Server) handleImportScene(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPackageSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "package too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer closeWithLog(file, "package upload", s.logger)

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("read package failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	res, err := s.packages.ImportScene(r.Context(), data)
	if err != nil {
		if scenepack.IsPackageError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeServiceError(w, "import scene", err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{OK: true, ImportResult: res})
}
