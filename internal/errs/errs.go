// Package errs provides the coded error taxonomy shared by the index, the
// answer pipeline and the HTTP surface.
package errs

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeValidationInvalid Code = "validation.input.invalid"

	CodeIndexDimensionMismatch  Code = "index.dimension.mismatch"
	CodeIndexEmbeddingUpstream  Code = "index.embedding.upstream.failure"
	CodeIndexEmbeddingMalformed Code = "index.embedding.upstream.malformed"

	CodePersistenceSave Code = "persistence.save.failure"
	CodePersistenceLoad Code = "persistence.load.failure"

	CodeRetrievalFailure            Code = "retrieval.search.failure"
	CodeRetrievalEmbeddingUpstream  Code = "retrieval.embedding.upstream.failure"
	CodeRetrievalEmbeddingMalformed Code = "retrieval.embedding.upstream.malformed"

	CodeGenerationUpstream Code = "generation.llm.upstream.failure"
	CodeGenerationEmpty    Code = "generation.llm.response.empty"

	CodeDocumentUnsupported Code = "document.format.unsupported"
	CodeDocumentProcessing  Code = "document.processing.failure"

	CodeConfigInvalid Code = "config.validate.invalid_value"
	CodeInternal      Code = "server.internal.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}
	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

// CodeOf returns the innermost code in the chain, or "" for uncoded errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}
	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}
	if oopsErr.Code() == nil {
		return ""
	}
	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

// FieldsOf returns the structured context attached to err.
func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}
	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsValidation reports malformed caller input.
func IsValidation(err error) bool {
	return domain(CodeOf(err)) == "validation"
}

// IsDimensionMismatch reports an embedding whose length disagrees with the index.
func IsDimensionMismatch(err error) bool {
	return HasCode(err, CodeIndexDimensionMismatch)
}

// IsProvider reports a failure of an external embedding or language-model capability.
func IsProvider(err error) bool {
	return strings.Contains(string(CodeOf(err)), ".upstream.")
}

// IsPersistence reports a failure reading or writing the persisted index.
func IsPersistence(err error) bool {
	return domain(CodeOf(err)) == "persistence"
}

// IsRetrieval reports a failure while fetching passages for a question.
func IsRetrieval(err error) bool {
	return domain(CodeOf(err)) == "retrieval"
}

// IsGeneration reports a failure while producing the answer text.
func IsGeneration(err error) bool {
	return domain(CodeOf(err)) == "generation"
}

// IsDocument reports an unsupported or unparseable file.
func IsDocument(err error) bool {
	return domain(CodeOf(err)) == "document"
}

// HTTPStatus maps an error to the status code the HTTP surface replies with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusUnprocessableEntity
	case HasCode(err, CodeDocumentUnsupported):
		return http.StatusUnsupportedMediaType
	case IsDocument(err):
		return http.StatusUnprocessableEntity
	case IsDimensionMismatch(err):
		return http.StatusConflict
	case IsProvider(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func domain(code Code) string {
	raw := string(code)
	if idx := strings.Index(raw, "."); idx > 0 {
		return raw[:idx]
	}
	return raw
}
