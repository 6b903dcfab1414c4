package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/companies/internal/core"
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and part headers.
const multipartOverhead = 1 << 20

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 8 << 20

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", errStoreOffline, err), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":         "ok",
		"active_uploads": s.service.UploadLimiterStatus().Active,
	})
}

// handleCreateCompany stores one record from a JSON body.
func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req core.NewCompany
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(&req); err != nil {
		err = fmt.Errorf("%w: %v", errInvalidJSON, err)
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	company, err := s.service.CreateCompany(r.Context(), req)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, company)
}

// handleListCompanies returns a page of records in insertion order.
func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	limit, err := queryInt(r, "limit", core.MaxPageSize)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	companies, err := s.service.ListCompanies(r.Context(), offset, limit)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, companies)
}

// handleUpload imports a CSV sent as the multipart field "file".
//
// The response is the list of projected rows, which includes rows skipped
// because their registry code was already stored. With ?detail=true the full
// core.ImportReport is returned instead.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	if maxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			err = fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)
		} else {
			err = fmt.Errorf("%w: %v", errNoFile, err)
		}
		respondError(w, r, err, statusFor(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	detail, _ := strconv.ParseBool(r.URL.Query().Get("detail"))

	ctx := WithRequestMetadata(r.Context(), r)
	report, err := s.service.ImportCSV(ctx, header.Filename, file)
	if err != nil {
		respondError(w, r, err, uploadStatus(err))
		return
	}

	if detail {
		writeJSON(w, r, http.StatusOK, report)
		return
	}
	writeJSON(w, r, http.StatusOK, report.Rows)
}

// uploadStatus maps import failures. Anything that is not the client's
// fault, including a key collision with a concurrent import, is a 500.
func uploadStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case core.IsImportError(err):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// queryInt parses an integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", core.ErrInvalidPage, name)
	}
	return n, nil
}
