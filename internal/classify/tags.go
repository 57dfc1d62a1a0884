package classify

import (
	"encoding/json"
	"strings"

	"github.com/hoofbeat/hoofbeat-go/internal/errors"
)

// ExtractTags derives the category:value tag set for an event. Discipline
// tags are collected with a full keyword scan and may be empty or
// multiple, so compound events ("Dressage Training") carry both their
// discipline and their type. Level and scope are at most one each; the
// remaining categories collect every keyword hit. The source-level
// affiliation is added only when keyword matching contributed none.
func ExtractTags(name, description string, discipline *string, eventType, sourceAffiliation string) []string {
	text := strings.ToLower(name)
	if description != "" {
		text += " " + strings.ToLower(description)
	}

	var tags []string

	// Discipline: full scan, no early exit
	seen := make(map[string]bool)
	for i := range disciplinePatterns {
		if containsAny(text, disciplinePatterns[i].Keywords) && !seen[disciplinePatterns[i].TagValue] {
			seen[disciplinePatterns[i].TagValue] = true
			tags = append(tags, "discipline:"+disciplinePatterns[i].TagValue)
		}
	}
	// Fall back to the classifier's single canonical discipline
	if len(seen) == 0 && discipline != nil {
		if value, ok := disciplineTagValues[strings.ToLower(*discipline)]; ok {
			tags = append(tags, "discipline:"+value)
		}
	}

	// Type: exactly one, from the classifier's event type
	tags = append(tags, "type:"+eventType)

	// Level and scope: first keyword match wins
	if value, ok := firstKeywordMatch(text, levelKeywords); ok {
		tags = append(tags, "level:"+value)
	}

	// Affiliation: zero or more
	affiliationTagged := false
	for _, kt := range affiliationKeywords {
		if containsAny(text, kt.Keywords) {
			tags = append(tags, "affiliation:"+kt.Value)
			affiliationTagged = true
		}
	}

	// Format: zero or more
	for _, kt := range formatKeywords {
		if containsAny(text, kt.Keywords) {
			tags = append(tags, "format:"+kt.Value)
		}
	}

	if value, ok := firstKeywordMatch(text, scopeKeywords); ok {
		tags = append(tags, "scope:"+value)
	}

	// Age and special: zero or more
	for _, kt := range ageKeywords {
		if containsAny(text, kt.Keywords) {
			tags = append(tags, "age:"+kt.Value)
		}
	}
	for _, kt := range specialKeywords {
		if containsAny(text, kt.Keywords) {
			tags = append(tags, "special:"+kt.Value)
		}
	}

	// Source affiliation wins only if keyword matching found none
	if sourceAffiliation != "" && !affiliationTagged {
		if vocabulary["affiliation"][sourceAffiliation] {
			tags = append(tags, "affiliation:"+sourceAffiliation)
		}
	}

	return tags
}

func firstKeywordMatch(text string, table []keywordTag) (string, bool) {
	for _, kt := range table {
		if containsAny(text, kt.Keywords) {
			return kt.Value, true
		}
	}
	return "", false
}

// ValidateTag checks a single category:value tag against the vocabulary.
func ValidateTag(tag string) error {
	category, value, found := strings.Cut(tag, ":")
	if !found || category == "" || value == "" {
		return errors.Newf("malformed tag %q", tag).
			Component("classify").
			Category(errors.CategoryValidation).
			Build()
	}
	values, ok := vocabulary[category]
	if !ok {
		return errors.Newf("unknown tag category %q", category).
			Component("classify").
			Category(errors.CategoryValidation).
			Context("tag", tag).
			Build()
	}
	if !values[value] {
		return errors.Newf("tag value %q not in vocabulary for category %q", value, category).
			Component("classify").
			Category(errors.CategoryValidation).
			Context("tag", tag).
			Build()
	}
	return nil
}

// EncodeTags validates every tag against the vocabulary and serializes
// the list to JSON. An invalid tag is an error: bad data is never
// silently persisted.
func EncodeTags(tags []string) (string, error) {
	for _, tag := range tags {
		if err := ValidateTag(tag); err != nil {
			return "", err
		}
	}
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return "", errors.New(err).
			Component("classify").
			Category(errors.CategoryValidation).
			Build()
	}
	return string(encoded), nil
}

// DecodeTags parses a stored tag list.
func DecodeTags(encoded string) ([]string, error) {
	if encoded == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(encoded), &tags); err != nil {
		return nil, errors.New(err).
			Component("classify").
			Category(errors.CategoryValidation).
			Build()
	}
	return tags, nil
}
