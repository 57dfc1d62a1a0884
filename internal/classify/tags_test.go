package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoofbeat/hoofbeat-go/internal/datastore"
)

func TestExtractTagsCompoundTrainingEvent(t *testing.T) {
	c := newTestClassifier()
	discipline, eventType := c.Classify("Dressage Training", "", "")

	tags := ExtractTags("Dressage Training", "", discipline, eventType, "")
	assert.Contains(t, tags, "discipline:dressage")
	assert.Contains(t, tags, "type:training")
}

func TestExtractTagsFullDisciplineScan(t *testing.T) {
	tags := ExtractTags("Dressage and Showjumping Weekend", "", nil, datastore.EventTypeCompetition, "")
	assert.Contains(t, tags, "discipline:dressage")
	assert.Contains(t, tags, "discipline:show_jumping")
}

func TestExtractTagsFallsBackToClassifierDiscipline(t *testing.T) {
	// No discipline keyword in the text, but the classifier resolved one
	// via an alias hint
	discipline := DisciplineEventing
	tags := ExtractTags("Spring Event", "", &discipline, datastore.EventTypeCompetition, "")
	assert.Contains(t, tags, "discipline:eventing")
}

func TestExtractTagsExactlyOneTypeTag(t *testing.T) {
	tags := ExtractTags("Arena Hire", "", nil, datastore.EventTypeVenueHire, "")

	var typeTags []string
	for _, tag := range tags {
		if len(tag) > 5 && tag[:5] == "type:" {
			typeTags = append(typeTags, tag)
		}
	}
	require.Len(t, typeTags, 1)
	assert.Equal(t, "type:venue_hire", typeTags[0])
}

func TestExtractTagsLevelFirstMatchWins(t *testing.T) {
	tags := ExtractTags("Intro and Novice Dressage", "", nil, datastore.EventTypeCompetition, "")
	assert.Contains(t, tags, "level:intro")
	assert.NotContains(t, tags, "level:novice")
}

func TestExtractTagsSourceAffiliationFallback(t *testing.T) {
	tags := ExtractTags("Summer Show", "", nil, datastore.EventTypeCompetition, "pony_club")
	assert.Contains(t, tags, "affiliation:pony_club")
}

func TestExtractTagsKeywordAffiliationBeatsSource(t *testing.T) {
	tags := ExtractTags("Unaffiliated Dressage", "", nil, datastore.EventTypeCompetition, "pony_club")
	assert.Contains(t, tags, "affiliation:unaffiliated")
	assert.NotContains(t, tags, "affiliation:pony_club")
}

func TestExtractTagsUnknownSourceAffiliationDropped(t *testing.T) {
	tags := ExtractTags("Summer Show", "", nil, datastore.EventTypeCompetition, "riding_federation_of_mars")
	for _, tag := range tags {
		assert.NotContains(t, tag, "riding_federation_of_mars")
	}
}

func TestExtractTagsMultiCategory(t *testing.T) {
	tags := ExtractTags(
		"Junior Evening Showjumping League Qualifier",
		"Indoor arena, charity event",
		nil, datastore.EventTypeCompetition, "",
	)
	assert.Contains(t, tags, "discipline:show_jumping")
	assert.Contains(t, tags, "age:junior")
	assert.Contains(t, tags, "special:evening")
	assert.Contains(t, tags, "special:indoor")
	assert.Contains(t, tags, "special:charity")
	assert.Contains(t, tags, "format:league")
	assert.Contains(t, tags, "format:qualifier")
}

func TestValidateTag(t *testing.T) {
	assert.NoError(t, ValidateTag("discipline:dressage"))
	assert.NoError(t, ValidateTag("type:competition"))
	assert.Error(t, ValidateTag("discipline:underwater_polo"))
	assert.Error(t, ValidateTag("colour:blue"))
	assert.Error(t, ValidateTag("malformed"))
	assert.Error(t, ValidateTag(":dressage"))
	assert.Error(t, ValidateTag("discipline:"))
}

func TestEncodeTagsRejectsInvalidTag(t *testing.T) {
	_, err := EncodeTags([]string{"discipline:dressage", "level:cosmic"})
	require.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	encoded, err := EncodeTags([]string{"discipline:dressage", "type:competition"})
	require.NoError(t, err)

	decoded, err := DecodeTags(encoded)
	require.NoError(t, err)
	assert.Equal(t, []string{"discipline:dressage", "type:competition"}, decoded)
}

func TestEncodeTagsNilBecomesEmptyList(t *testing.T) {
	encoded, err := EncodeTags(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", encoded)
}

func TestDecodeTagsEmptyString(t *testing.T) {
	decoded, err := DecodeTags("")
	require.NoError(t, err)
	assert.Nil(t, decoded)
}
