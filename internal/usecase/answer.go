package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"log/slog"
	"maps"
	"strings"
	"text/template"

	"ragqa/internal/domain"
	"ragqa/internal/errs"
	"ragqa/internal/port"
)

const (
	sentinelPortuguese = "Desculpe, não há documentos para responder à sua pergunta."
	sentinelEnglish    = "Sorry, there are no documents to answer your question."

	// UnknownSource is the title of passages without a source in their metadata.
	UnknownSource = "unknown"

	systemPrompt = "You answer questions using only the context passages you are given."
)

//go:embed prompts/answer.tmpl
var answerTemplate string

var answerPrompt = template.Must(template.New("answer").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(answerTemplate))

type promptPassage struct {
	Source string
	Text   string
}

type promptData struct {
	Language string
	Question string
	Passages []promptPassage
}

// AnswerUseCase answers questions by stuffing retrieved passages into a
// single language-model call. It holds the live retriever, so it becomes
// ready as soon as the first batch is indexed.
type AnswerUseCase struct {
	retriever port.Retriever
	llm       port.LLM
	topK      int
	language  string
	logger    *slog.Logger
}

// NewAnswerUseCase creates a new answer use case. language selects the
// sentinel text and the answer language hint.
func NewAnswerUseCase(retriever port.Retriever, llm port.LLM, topK int, language string, logger *slog.Logger) *AnswerUseCase {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerUseCase{
		retriever: retriever,
		llm:       llm,
		topK:      topK,
		language:  strings.ToLower(language),
		logger:    logger.With("component", "answer"),
	}
}

// NoDocumentsAnswer is returned while nothing has been indexed.
func (u *AnswerUseCase) NoDocumentsAnswer() string {
	if u.language == "portuguese" {
		return sentinelPortuguese
	}
	return sentinelEnglish
}

// Answer retrieves passages for question and asks the model to answer
// from them. An empty index yields the no-documents answer, not an error.
func (u *AnswerUseCase) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errs.New(errs.CodeValidationInvalid, "question is empty")
	}

	if u.retriever.IsEmpty() {
		u.logger.Info("no documents indexed, returning sentinel answer")
		return &domain.Answer{
			Question: question,
			Answer:   u.NoDocumentsAnswer(),
			Sources:  []domain.Source{},
		}, nil
	}

	results, err := u.retriever.Retrieve(ctx, question, u.topK)
	if err != nil {
		if errs.IsRetrieval(err) {
			return nil, err
		}
		return nil, errs.Wrap(err, errs.CodeRetrievalFailure, "retrieving passages")
	}

	prompt, err := u.buildPrompt(question, results)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeInternal, "rendering answer prompt")
	}

	completion, err := u.llm.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeGenerationUpstream, "generating answer",
			errs.Field("model", u.llm.ModelName()))
	}
	text := strings.TrimSpace(completion.Text)
	if text == "" {
		return nil, errs.New(errs.CodeGenerationEmpty, "language model returned an empty answer",
			errs.Field("model", u.llm.ModelName()))
	}

	u.logger.Debug("answered question", "passages", len(results), "model", u.llm.ModelName())

	return &domain.Answer{
		Question: question,
		Answer:   text,
		Sources:  sourcesOf(results),
		Usage:    completion.Usage,
	}, nil
}

func (u *AnswerUseCase) buildPrompt(question string, results []domain.RetrievalResult) (string, error) {
	data := promptData{Question: question}
	if u.language != "" && u.language != "english" && u.language != "none" {
		data.Language = u.language
	}
	for _, r := range results {
		data.Passages = append(data.Passages, promptPassage{
			Source: r.Segment.Source(),
			Text:   r.Segment.RawContent,
		})
	}

	var buf bytes.Buffer
	if err := answerPrompt.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sourcesOf mirrors retrieval order, best match first.
func sourcesOf(results []domain.RetrievalResult) []domain.Source {
	sources := make([]domain.Source, len(results))
	for i, r := range results {
		title := r.Segment.Source()
		if title == "" {
			title = UnknownSource
		}
		metadata := maps.Clone(r.Segment.Metadata)
		if metadata == nil {
			metadata = map[string]string{}
		}
		sources[i] = domain.Source{
			Title:    title,
			Content:  r.Segment.RawContent,
			Metadata: metadata,
		}
	}
	return sources
}
