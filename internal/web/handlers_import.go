package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/storemigrate/internal/core"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is how much of a multipart form is held in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// handleImport accepts a multipart upload (field "file", optional field
// "platform") and imports it into the tenant's catalog.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuidParam(r, "tenantID")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	kind, err := core.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	maxSize := s.cfg.Upload.MaxFileSize
	// Room for the multipart envelope around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxSize))
			return
		}
		s.badRequest(w, r, fmt.Errorf("invalid form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.badRequest(w, r, errors.New("no file provided"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		s.badRequest(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.ImportFile(ctx, core.ImportRequest{
		TenantID: tenantID,
		FileName: header.Filename,
		Data:     data,
		Kind:     kind,
		Platform: core.ParsePlatform(r.FormValue("platform")),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, result)
}
