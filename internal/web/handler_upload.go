package web

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/vbonduro/mcprogress/internal/domain"
	"github.com/vbonduro/mcprogress/internal/iconstore"
	"github.com/vbonduro/mcprogress/internal/service"
)

const maxIconSize = 10 * 1024 * 1024 // 10 MB

// allowedImageTypes is the set of sniffed MIME types accepted for icons.
// net/http.DetectContentType handles JPEG, PNG and GIF. WebP and SVG are
// checked separately since the stdlib sniffer does not report them.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

func isSVG(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	if isSVG(data) {
		return "image/svg+xml", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

func (s *Server) handleUploadIcon(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxIconSize+1024*1024)
	if err := r.ParseMultipartForm(maxIconSize); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer closeWithLog(file, "icon upload", s.logger)

	ext := strings.ToLower(path.Ext(header.Filename))
	if !iconstore.IsAllowedExt(ext) {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported file type")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("read upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}
	mimeType, ok := allowedImageMIME(data)
	if !ok {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported image format")
		return
	}
	if mimeType != iconstore.MimeType(ext) {
		writeError(w, http.StatusUnsupportedMediaType, "file content does not match its extension")
		return
	}

	iconPath, err := s.icons.Save(r.Context(), ext, bytes.NewReader(data))
	if err != nil {
		s.logger.Error("save icon failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save icon")
		return
	}

	out := uploadOut{IconURL: iconPath}
	if name := r.FormValue("name"); name != "" {
		out.Item, err = s.library.CreateItem(r.Context(), service.ItemInput{
			Name:        name,
			Category:    r.FormValue("category"),
			Description: r.FormValue("description"),
			IconPath:    iconPath,
		})
		if err != nil {
			if derr := s.icons.Delete(r.Context(), iconPath); derr != nil {
				s.logger.Error("remove icon after failed item create", "icon_path", iconPath, "error", derr)
			}
			s.writeServiceError(w, "create item", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// uploadOut answers an icon upload; Item is set when the upload also named a
// new item.
type uploadOut struct {
	IconURL string       `json:"icon_url"`
	Item    *domain.Item `json:"item,omitempty"`
}

func (s *Server) handleGetIcon(w http.ResponseWriter, r *http.Request) {
	reader, mimeType, err := s.icons.Get(r.Context(), iconstore.PathFor(r.PathValue("name")))
	if err != nil {
		if !errors.Is(err, iconstore.ErrNotFound) {
			s.logger.Error("get icon failed", "name", r.PathValue("name"), "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "icon reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write icon failed", "error", err)
	}
}
