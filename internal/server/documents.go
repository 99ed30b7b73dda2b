package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/docqa/internal/extract"
	"github.com/ziadkadry99/docqa/internal/ingest"
	"github.com/ziadkadry99/docqa/internal/library"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ingest.Result{
				Status:  ingest.StatusFailed,
				Message: "File exceeds the upload limit.",
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, ingest.Result{
			Status:  ingest.StatusFailed,
			Message: "Invalid upload: " + err.Error(),
		})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ingest.Result{
			Status:  ingest.StatusFailed,
			Message: "No file provided.",
		})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ingest.Result{
			Status:   ingest.StatusFailed,
			Message:  "Reading upload: " + err.Error(),
			Filename: header.Filename,
		})
		return
	}

	res, err := s.ingestor.Ingest(r.Context(), ingest.Upload{
		Filename:    header.Filename,
		Content:     content,
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
	})
	writeJSON(w, uploadStatus(res, err), res)
}

func uploadStatus(res ingest.Result, err error) int {
	switch res.Status {
	case ingest.StatusProcessed, ingest.StatusDuplicate:
		return http.StatusOK
	case ingest.StatusEmpty:
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, extract.ErrUnsupportedFormat) || errors.Is(err, library.ErrInvalidKey) || res.Key == "" {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.lib.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	meta, err := s.lib.Meta(chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, libraryStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := s.ingestor.Remove(key); err != nil {
		writeError(w, libraryStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func libraryStatus(err error) int {
	switch {
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, library.ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
