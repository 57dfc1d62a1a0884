package parsers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/hoofbeat/hoofbeat-go/internal/errors"
	"github.com/hoofbeat/hoofbeat-go/internal/logging"
)

// Extractor turns a source URL into freeform model output that is
// expected to contain a JSON array of extraction records.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// LLMParser wraps a language-model extraction collaborator. Model output
// is unreliable: it may be wrapped in prose or a markdown fence, and long
// listings get truncated mid-array. The parser salvages every complete
// record instead of rejecting the batch.
type LLMParser struct {
	extractor Extractor
	logger    *slog.Logger
}

// NewLLMParser builds a parser over an extraction collaborator.
func NewLLMParser(extractor Extractor) *LLMParser {
	return &LLMParser{
		extractor: extractor,
		logger:    logging.ForService("parsers"),
	}
}

// Fetch runs the extractor and decodes its output.
func (p *LLMParser) Fetch(ctx context.Context, url string) ([]ExtractedCompetition, error) {
	output, err := p.extractor.Extract(ctx, url)
	if err != nil {
		return nil, errors.New(err).
			Component("parsers").
			Category(errors.CategoryNetwork).
			Context("url", url).
			Build()
	}

	records, dropped, err := decodeModelOutput(output)
	if err != nil {
		return nil, errors.New(err).
			Component("parsers").
			Category(errors.CategoryParsing).
			Context("url", url).
			Build()
	}
	if dropped > 0 {
		p.logger.Warn("dropped malformed extraction records",
			"url", url, "dropped", dropped, "kept", len(records))
	}
	return records, nil
}

// decodeModelOutput locates the JSON array inside freeform text, repairs
// truncation, and decodes each element independently so one bad object
// does not discard the batch. Returns the records kept and the number of
// elements dropped.
func decodeModelOutput(output string) ([]ExtractedCompetition, int, error) {
	repaired, err := repairJSONArray(output)
	if err != nil {
		return nil, 0, err
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(repaired), &elements); err != nil {
		return nil, 0, err
	}

	records := make([]ExtractedCompetition, 0, len(elements))
	dropped := 0
	for _, element := range elements {
		var record ExtractedCompetition
		if err := json.Unmarshal(element, &record); err != nil || !record.Valid() {
			dropped++
			continue
		}
		records = append(records, record)
	}
	return records, dropped, nil
}

// repairJSONArray extracts a well-formed JSON array from freeform model
// output. The array starts at the first '['; if the text after it is not
// valid JSON the array was truncated, so it is cut back to the last
// complete object and closed early.
func repairJSONArray(output string) (string, error) {
	start := strings.Index(output, "[")
	if start < 0 {
		return "", errors.Newf("no JSON array found in model output").
			Component("parsers").
			Category(errors.CategoryParsing).
			Build()
	}
	candidate := output[start:]

	// Whole array parses: trim anything trailing the closing bracket.
	var probe []json.RawMessage
	decoder := json.NewDecoder(strings.NewReader(candidate))
	if err := decoder.Decode(&probe); err == nil {
		return candidate[:decoder.InputOffset()], nil
	}

	// Truncated: close the array after the last complete object, cutting
	// back further while the result still fails to parse.
	end := strings.LastIndex(candidate, "}")
	for end >= 0 {
		repaired := candidate[:end+1] + "]"
		if json.Valid([]byte(repaired)) {
			return repaired, nil
		}
		end = strings.LastIndex(candidate[:end], "}")
	}
	return "[]", nil
}
