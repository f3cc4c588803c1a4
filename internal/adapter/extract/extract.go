// Package extract turns uploaded file bytes into plain text keyed by
// file extension.
package extract

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"ragqa/internal/errs"
)

// Extractor dispatches on the lowercased file extension.
type Extractor struct {
	handlers map[string]func([]byte) (string, error)
}

func New() *Extractor {
	e := &Extractor{handlers: make(map[string]func([]byte) (string, error))}
	for _, ext := range []string{".txt", ".md", ".markdown"} {
		e.handlers[ext] = extractPlain
	}
	e.handlers[".csv"] = extractCSV
	e.handlers[".json"] = extractJSON
	e.handlers[".html"] = extractHTML
	e.handlers[".htm"] = extractHTML
	return e
}

// Extensions returns the supported extensions, sorted.
func (e *Extractor) Extensions() []string {
	exts := make([]string, 0, len(e.handlers))
	for ext := range e.handlers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func (e *Extractor) Extract(data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	handler, ok := e.handlers[ext]
	if !ok {
		return "", errs.New(errs.CodeDocumentUnsupported,
			fmt.Sprintf("unsupported file type %q, supported: %s", ext, strings.Join(e.Extensions(), ", ")),
			errs.Field("file", filename), errs.Field("extension", ext))
	}

	text, err := handler(data)
	if err != nil {
		return "", errs.Wrap(err, errs.CodeDocumentProcessing, "extracting text", errs.Field("file", filename))
	}
	return text, nil
}

func extractPlain(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return strings.ToValidUTF8(string(data), "�"), nil
	}
	return string(data), nil
}

// extractCSV renders each record as "header: value" lines, records
// separated by a blank line.
func extractCSV(data []byte) (string, error) {
	text, _ := extractPlain(data)
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading csv header: %w", err)
	}

	var records []string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading csv: %w", err)
		}

		var sb strings.Builder
		for i, value := range row {
			name := fmt.Sprintf("column_%d", i+1)
			if i < len(header) && strings.TrimSpace(header[i]) != "" {
				name = strings.TrimSpace(header[i])
			}
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(name)
			sb.WriteString(": ")
			sb.WriteString(strings.TrimSpace(value))
		}
		records = append(records, sb.String())
	}

	return strings.Join(records, "\n\n"), nil
}

// extractJSON flattens a document into "path: value" lines in key order.
func extractJSON(data []byte) (string, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parsing json: %w", err)
	}

	var lines []string
	flattenJSON("", doc, &lines)
	return strings.Join(lines, "\n"), nil
}

func flattenJSON(prefix string, v any, lines *[]string) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenJSON(joinPath(prefix, k), val[k], lines)
		}
	case []any:
		for i, item := range val {
			flattenJSON(joinPath(prefix, fmt.Sprint(i)), item, lines)
		}
	case nil:
	default:
		if prefix == "" {
			*lines = append(*lines, fmt.Sprint(val))
			return
		}
		*lines = append(*lines, prefix+": "+fmt.Sprint(val))
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "pre": true, "blockquote": true,
	"title": true, "table": true, "ul": true, "ol": true,
}

// extractHTML keeps visible text, putting block elements on their own lines.
func extractHTML(data []byte) (string, error) {
	z := html.NewTokenizer(bytes.NewReader(data))

	var sb strings.Builder
	skip := 0
	newline := func() {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("parsing html: %w", err)
			}
			return collapseBlankLines(sb.String()), nil

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" || tag == "noscript" {
				skip++
			}
			if blockElements[tag] {
				newline()
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style" || tag == "noscript") && skip > 0 {
				skip--
			}
			if blockElements[tag] {
				newline()
			}

		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := strings.Join(strings.Fields(string(z.Text())), " ")
			if text == "" {
				continue
			}
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteByte(' ')
			}
			sb.WriteString(text)
		}
	}
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
