package parsers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	output string
	err    error
}

func (s *stubExtractor) Extract(_ context.Context, _ string) (string, error) {
	return s.output, s.err
}

func TestLLMParserCleanArray(t *testing.T) {
	parser := NewLLMParser(&stubExtractor{output: `[
		{"name": "Summer Show", "start_date": "2026-06-14", "venue_name": "Onley Grounds"},
		{"name": "Autumn Hunter Trial", "start_date": "2026-10-03", "venue_name": "Somerford Park"}
	]`})

	records, err := parser.Fetch(context.Background(), "https://listings.test")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Summer Show", records[0].Name)
}

func TestLLMParserArrayWrappedInProse(t *testing.T) {
	parser := NewLLMParser(&stubExtractor{output: "Here are the events I found:\n```json\n" +
		`[{"name": "Summer Show", "start_date": "2026-06-14", "venue_name": "Onley Grounds"}]` +
		"\n```\nLet me know if you need more."})

	records, err := parser.Fetch(context.Background(), "https://listings.test")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Summer Show", records[0].Name)
}

func TestLLMParserTruncatedArray(t *testing.T) {
	// Output cut off mid-object: the complete objects survive
	parser := NewLLMParser(&stubExtractor{output: `[
		{"name": "Summer Show", "start_date": "2026-06-14", "venue_name": "Onley Grounds"},
		{"name": "Autumn Hunter Trial", "start_date": "2026-10-03", "venue_name": "Somerford Park"},
		{"name": "Winter League", "start_da`})

	records, err := parser.Fetch(context.Background(), "https://listings.test")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Autumn Hunter Trial", records[1].Name)
}

func TestLLMParserDropsInvalidObjects(t *testing.T) {
	parser := NewLLMParser(&stubExtractor{output: `[
		{"name": "Summer Show", "start_date": "2026-06-14", "venue_name": "Onley Grounds"},
		{"name": "No Venue Event", "start_date": "2026-06-15"},
		{"start_date": "2026-06-16", "venue_name": "Somerford Park"}
	]`})

	records, err := parser.Fetch(context.Background(), "https://listings.test")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Summer Show", records[0].Name)
}

func TestLLMParserNoArrayInOutput(t *testing.T) {
	parser := NewLLMParser(&stubExtractor{output: "I could not find any events on that page."})

	_, err := parser.Fetch(context.Background(), "https://listings.test")
	require.Error(t, err)
}

func TestRepairJSONArrayTrimsTrailingText(t *testing.T) {
	repaired, err := repairJSONArray(`prefix [{"a": 1}] suffix`)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"a": 1}]`, repaired)
}

func TestRepairJSONArrayTruncatedWithoutAnyObject(t *testing.T) {
	repaired, err := repairJSONArray(`[{"a": `)
	require.NoError(t, err)
	assert.Equal(t, "[]", repaired)
}
