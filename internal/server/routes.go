package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"ragqa/internal/domain"
	"ragqa/internal/errs"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*healthOutput, error) {
		out := &healthOutput{}
		out.Body.Status = "ok"
		return out, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "Index status",
		Tags:        []string{"system"},
	}, s.handleStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "process-document",
		Method:      http.MethodPost,
		Path:        "/process_document",
		Summary:     "Segment and index raw text",
		Tags:        []string{"documents"},
	}, s.handleProcessDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "query",
		Method:      http.MethodPost,
		Path:        "/query",
		Summary:     "Answer a question from the indexed documents",
		Tags:        []string{"query"},
	}, s.handleQuery)
}

type healthOutput struct {
	Body struct {
		Status string `json:"status" example:"ok" doc:"Health status"`
	}
}

type statusOutput struct {
	Body domain.Stats
}

type processDocumentInput struct {
	Body struct {
		Content string `json:"content" minLength:"1" doc:"Raw document text"`
		Source  string `json:"source,omitempty" doc:"Origin tag stored as metadata.source"`
	}
}

type processDocumentOutput struct {
	Body struct {
		Message       string `json:"message"`
		SegmentsAdded int    `json:"segments_added"`
	}
}

type queryInput struct {
	Body struct {
		Question string `json:"question" minLength:"1" doc:"Natural-language question"`
	}
}

type queryOutput struct {
	Body *domain.Answer
}

func (s *Server) handleStatus(_ context.Context, _ *struct{}) (*statusOutput, error) {
	return &statusOutput{Body: s.services.Index.Stats()}, nil
}

func (s *Server) handleProcessDocument(ctx context.Context, input *processDocumentInput) (*processDocumentOutput, error) {
	added, err := s.services.Ingest.IngestText(ctx, input.Body.Content, input.Body.Source)
	if err != nil {
		return nil, s.toHumaError("processing document", err)
	}

	out := &processDocumentOutput{}
	out.Body.Message = "document processed and stored"
	out.Body.SegmentsAdded = added
	return out, nil
}

func (s *Server) handleQuery(ctx context.Context, input *queryInput) (*queryOutput, error) {
	s.logger.Info("query received", "question", input.Body.Question)

	answer, err := s.services.Answer.Answer(ctx, input.Body.Question)
	if err != nil {
		return nil, s.toHumaError("answering question", err)
	}
	return &queryOutput{Body: answer}, nil
}

// toHumaError maps coded errors onto problem responses.
func (s *Server) toHumaError(op string, err error) error {
	return huma.NewError(s.logFailure(op, err), err.Error())
}

// logFailure logs err and returns the status it maps to.
func (s *Server) logFailure(op string, err error) int {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "error", err, "code", errs.CodeOf(err), "fields", errs.FieldsOf(err))
	} else {
		s.logger.Warn(op+" rejected", "error", err, "code", errs.CodeOf(err), "fields", errs.FieldsOf(err))
	}
	return status
}
