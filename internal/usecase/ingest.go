package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"ragqa/internal/adapter/fs"
	"ragqa/internal/domain"
	"ragqa/internal/errs"
	"ragqa/internal/port"
)

// Indexer is the write side of the vector index.
type Indexer interface {
	Add(ctx context.Context, texts []string, metadatas []map[string]string) error
}

// IngestUseCase turns files into segments and adds them to the index.
type IngestUseCase struct {
	extractor port.Extractor
	segmenter port.Segmenter
	index     Indexer
	logger    *slog.Logger
}

// NewIngestUseCase creates a new ingest use case.
func NewIngestUseCase(extractor port.Extractor, segmenter port.Segmenter, index Indexer, logger *slog.Logger) *IngestUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestUseCase{
		extractor: extractor,
		segmenter: segmenter,
		index:     index,
		logger:    logger.With("component", "ingest"),
	}
}

// FileError records a file that could not be read or extracted.
type FileError struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// IngestResult contains the results of an ingestion.
type IngestResult struct {
	FilesProcessed int         `json:"files_processed"`
	SegmentsAdded  int         `json:"segments_added"`
	Errors         []FileError `json:"errors,omitempty"`
}

// ProgressFunc is called after each file is segmented.
type ProgressFunc func(processed, total int, currentFile string)

// Ingest extracts and segments every file, then adds all segments to the
// index as one batch. A file that cannot be extracted is reported in the
// result and does not stop the others; a failing Add fails the whole call.
func (u *IngestUseCase) Ingest(ctx context.Context, files []domain.File) (*IngestResult, error) {
	return u.ingest(ctx, files, nil)
}

func (u *IngestUseCase) ingest(ctx context.Context, files []domain.File, progress ProgressFunc) (*IngestResult, error) {
	result := &IngestResult{}
	var texts []string
	var metadatas []map[string]string

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		segments, err := u.segmentFile(file)
		if err != nil {
			u.logger.Warn("skipping file", "file", file.Name, "error", err)
			result.Errors = append(result.Errors, FileError{File: file.Name, Error: err.Error()})
		} else {
			for _, seg := range segments {
				texts = append(texts, seg)
				metadatas = append(metadatas, map[string]string{domain.MetadataSource: file.Name})
			}
			result.FilesProcessed++
		}

		if progress != nil {
			progress(i+1, len(files), file.Name)
		}
	}

	if len(texts) > 0 {
		if err := u.index.Add(ctx, texts, metadatas); err != nil {
			return nil, err
		}
	}
	result.SegmentsAdded = len(texts)

	u.logger.Info("ingested files",
		"files", result.FilesProcessed, "segments", result.SegmentsAdded, "failed", len(result.Errors))
	return result, nil
}

func (u *IngestUseCase) segmentFile(file domain.File) ([]string, error) {
	text, err := u.extractor.Extract(file.Data, file.Name)
	if err != nil {
		return nil, err
	}
	segments := u.segmenter.Split(text)
	if len(segments) == 0 {
		return nil, errs.New(errs.CodeDocumentProcessing, "no text extracted", errs.Field("file", file.Name))
	}
	return segments, nil
}

// IngestText segments raw text and adds it under the given source.
func (u *IngestUseCase) IngestText(ctx context.Context, content, source string) (int, error) {
	if strings.TrimSpace(content) == "" {
		return 0, errs.New(errs.CodeValidationInvalid, "content is empty")
	}
	if source == "" {
		source = UnknownSource
	}

	segments := u.segmenter.Split(content)
	metadatas := make([]map[string]string, len(segments))
	for i := range segments {
		metadatas[i] = map[string]string{domain.MetadataSource: source}
	}

	if err := u.index.Add(ctx, segments, metadatas); err != nil {
		return 0, err
	}
	u.logger.Info("ingested text", "source", source, "segments", len(segments))
	return len(segments), nil
}

// IngestDir walks root and ingests every matching file. Sources are paths
// relative to root.
func (u *IngestUseCase) IngestDir(ctx context.Context, root string, walker *fs.Walker, progress ProgressFunc) (*IngestResult, error) {
	infos, err := walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	files := make([]domain.File, 0, len(infos))
	var readErrors []FileError
	for _, info := range infos {
		data, err := os.ReadFile(info.Path)
		if err != nil {
			readErrors = append(readErrors, FileError{File: info.RelPath, Error: err.Error()})
			continue
		}
		files = append(files, domain.File{Name: info.RelPath, Data: data, ModTime: info.ModTime})
	}

	result, err := u.ingest(ctx, files, progress)
	if err != nil {
		return nil, err
	}
	result.Errors = append(readErrors, result.Errors...)
	return result, nil
}
