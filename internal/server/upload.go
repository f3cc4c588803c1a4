package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"ragqa/internal/domain"
	"ragqa/internal/usecase"
)

const uploadField = "files"

type uploadResponse struct {
	Message        string              `json:"message"`
	FilesProcessed int                 `json:"files_processed"`
	SegmentsAdded  int                 `json:"segments_added"`
	Errors         []usecase.FileError `json:"errors,omitempty"`
}

func (s *Server) registerUploadRoute() {
	s.router.Post("/upload_documents", s.handleUpload)

	// Multipart bodies are read straight from the request, so the route is
	// served by chi and only described in the OpenAPI document.
	s.api.OpenAPI().AddOperation(&huma.Operation{
		OperationID: "upload-documents",
		Method:      http.MethodPost,
		Path:        "/upload_documents",
		Summary:     "Upload files for ingestion",
		Description: "Accepts one or more files in the multipart field \"files\". Files that cannot be read are reported per file.",
		Tags:        []string{"documents"},
		RequestBody: &huma.RequestBody{
			Required: true,
			Content: map[string]*huma.MediaType{
				"multipart/form-data": {
					Schema: &huma.Schema{
						Type:     "object",
						Required: []string{uploadField},
						Properties: map[string]*huma.Schema{
							uploadField: {
								Type:  "array",
								Items: &huma.Schema{Type: "string", Format: "binary"},
							},
						},
					},
				},
			},
		},
		Responses: map[string]*huma.Response{
			"200": {Description: "Ingestion summary"},
		},
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeProblem(w, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
			return
		}
		writeProblem(w, http.StatusUnprocessableEntity, "expected a multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		writeProblem(w, http.StatusUnprocessableEntity, fmt.Sprintf("no files in field %q", uploadField))
		return
	}

	files := make([]domain.File, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			writeProblem(w, http.StatusUnprocessableEntity, fmt.Sprintf("reading %s: %v", fh.Filename, err))
			return
		}
		files = append(files, domain.File{Name: fh.Filename, Data: data})
	}

	result, err := s.services.Ingest.Ingest(r.Context(), files)
	if err != nil {
		writeProblem(w, s.logFailure("ingesting upload", err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:        fmt.Sprintf("%d of %d files processed", result.FilesProcessed, len(files)),
		FilesProcessed: result.FilesProcessed,
		SegmentsAdded:  result.SegmentsAdded,
		Errors:         result.Errors,
	})
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&huma.ErrorModel{
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
