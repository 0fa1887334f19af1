package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/hyperifyio/headliner/internal/extract"
	"github.com/hyperifyio/headliner/internal/titles"
)

type urlRequest struct {
	URL string `json:"url"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type contentResponse struct {
	Content string `json:"content"`
}

type titleResponse struct {
	Title string `json:"title"`
}

type titlesResponse struct {
	Titles []titles.Record `json:"titles"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleExtractContent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("file exceeds the %dMB limit", s.cfg.MaxUploadBytes>>20))
			return
		}
		writeJSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()
	if header.Size > s.cfg.MaxUploadBytes {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("file exceeds the %dMB limit", s.cfg.MaxUploadBytes>>20))
		return
	}
	if !extract.Supported(header.Filename) {
		writeJSONError(w, http.StatusBadRequest, "unsupported file format, use pdf, doc, docx, txt or md")
		return
	}

	data, err := s.stageUpload(file, filepath.Ext(header.Filename))
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("stage", "upload").Msg("staging upload failed")
		writeJSONError(w, http.StatusInternalServerError, "file processing failed")
		return
	}

	content, err := extract.File(header.Filename, data)
	if err != nil {
		var xe *extract.Error
		if errors.As(err, &xe) {
			hlog.FromRequest(r).Info().Err(err).Str("stage", "extract").Str("file", header.Filename).Msg("extraction rejected")
			writeJSONError(w, http.StatusBadRequest, xe.Reason)
			return
		}
		hlog.FromRequest(r).Error().Err(err).Str("stage", "extract").Msg("extraction failed")
		writeJSONError(w, http.StatusInternalServerError, "file processing failed")
		return
	}
	hlog.FromRequest(r).Debug().Str("stage", "extract").Str("file", header.Filename).Int("chars", utf8.RuneCountInString(content)).Msg("file extracted")
	writeJSON(w, http.StatusOK, contentResponse{Content: content})
}

// stageUpload copies the upload to a uniquely named file under UploadDir and
// reads it back. The file is removed before returning on every path.
func (s *Server) stageUpload(src io.Reader, ext string) ([]byte, error) {
	path := filepath.Join(s.cfg.UploadDir, "upload-"+uuid.NewString()+strings.ToLower(ext))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	defer os.Remove(path)
	if _, err := io.Copy(f, io.LimitReader(src, s.cfg.MaxUploadBytes+1)); err != nil {
		f.Close()
		return nil, fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close upload file: %w", err)
	}
	return os.ReadFile(path)
}

func (s *Server) handleFetchURL(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeJSONError(w, http.StatusBadRequest, "url is required")
		return
	}
	content, err := s.pages.FetchContent(r.Context(), req.URL)
	if err != nil {
		writeExtractError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contentResponse{Content: content})
}

func (s *Server) handlePageTitle(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeJSONError(w, http.StatusBadRequest, "url is required")
		return
	}
	title, err := s.pages.FetchTitle(r.Context(), req.URL)
	if err != nil {
		writeExtractError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, titleResponse{Title: title})
}

func (s *Server) handleGenerateTitles(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeJSONError(w, http.StatusBadRequest, "content is required")
		return
	}
	if utf8.RuneCountInString(req.Content) < MinContentChars {
		writeJSONError(w, http.StatusBadRequest, "content is too short, provide more text to generate useful titles")
		return
	}
	recs, err := s.gen.Generate(r.Context(), req.Content)
	if err != nil {
		writeGenerateError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, titlesResponse{Titles: recs})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Timestamp: s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00")})
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
