// Package classify maps raw event names and descriptions to canonical
// disciplines, event types and a validated multi-category tag set.
package classify

import "strings"

// Canonical discipline names.
const (
	DisciplineShowJumping      = "Show Jumping"
	DisciplineDressage         = "Dressage"
	DisciplineEventing         = "Eventing"
	DisciplineArenaEventing    = "Arena Eventing"
	DisciplineCrossCountry     = "Cross Country"
	DisciplineCombinedTraining = "Combined Training"
	DisciplineShowing          = "Showing"
	DisciplineHunterTrial      = "Hunter Trial"
	DisciplineTetrathlon       = "Tetrathlon"
	DisciplineMountedGames     = "Mounted Games"
	DisciplinePolocrosse       = "Polocrosse"
	DisciplineEndurance        = "Endurance"
	DisciplineDriving          = "Carriage Driving"
	DisciplineVaulting         = "Vaulting"
	DisciplinePonyRacing       = "Pony Racing"
)

// Tag categories, in the fixed order tags are emitted.
var tagCategories = []string{
	"discipline", "type", "level", "affiliation", "format", "scope", "age", "special",
}

// vocabulary is the controlled tag vocabulary. A tag outside it is never
// persisted. Membership is a product decision; extend the tables, not the
// algorithm.
var vocabulary = map[string]map[string]bool{
	"discipline": {
		"show_jumping":      true,
		"dressage":          true,
		"eventing":          true,
		"arena_eventing":    true,
		"cross_country":     true,
		"combined_training": true,
		"showing":           true,
		"hunter_trial":      true,
		"tetrathlon":        true,
		"mounted_games":     true,
		"polocrosse":        true,
		"endurance":         true,
		"carriage_driving":  true,
		"vaulting":          true,
		"pony_racing":       true,
	},
	"type": {
		"competition": true,
		"training":    true,
		"venue_hire":  true,
	},
	"level": {
		"intro":        true,
		"prelim":       true,
		"novice":       true,
		"elementary":   true,
		"intermediate": true,
		"advanced":     true,
		"open":         true,
		"grassroots":   true,
	},
	"affiliation": {
		"pony_club":            true,
		"british_showjumping":  true,
		"british_dressage":     true,
		"british_eventing":     true,
		"british_riding_clubs": true,
		"unaffiliated":         true,
	},
	"format": {
		"team":         true,
		"individual":   true,
		"pairs":        true,
		"league":       true,
		"championship": true,
		"qualifier":    true,
	},
	"scope": {
		"club":          true,
		"area":          true,
		"regional":      true,
		"national":      true,
		"international": true,
	},
	"age": {
		"mini":    true,
		"junior":  true,
		"senior":  true,
		"veteran": true,
	},
	"special": {
		"pony_classes": true,
		"evening":      true,
		"indoor":       true,
		"camp":         true,
		"fun":          true,
		"charity":      true,
	},
}

// disciplinePattern binds a canonical discipline to the keyword phrases
// that identify it. Order matters: more specific phrases come before the
// general ones they contain ("arena eventing" before "eventing").
type disciplinePattern struct {
	Canonical string
	TagValue  string
	Keywords  []string
}

var disciplinePatterns = []disciplinePattern{
	{DisciplineArenaEventing, "arena_eventing", []string{"arena eventing"}},
	{DisciplineHunterTrial, "hunter_trial", []string{"hunter trial"}},
	{DisciplineCombinedTraining, "combined_training", []string{"combined training"}},
	{DisciplineShowJumping, "show_jumping", []string{"show jumping", "showjumping", "show-jumping"}},
	{DisciplineDressage, "dressage", []string{"dressage"}},
	{DisciplineEventing, "eventing", []string{"eventing", "horse trials", "one day event"}},
	{DisciplineCrossCountry, "cross_country", []string{"cross country", "cross-country", "xc schooling"}},
	{DisciplineTetrathlon, "tetrathlon", []string{"tetrathlon", "triathlon"}},
	{DisciplineMountedGames, "mounted_games", []string{"mounted games", "gymkhana"}},
	{DisciplinePolocrosse, "polocrosse", []string{"polocrosse"}},
	{DisciplineEndurance, "endurance", []string{"endurance", "pleasure ride", "fun ride"}},
	{DisciplineShowing, "showing", []string{"showing", "show class", "in hand show"}},
	{DisciplineDriving, "carriage_driving", []string{"carriage driving", "driving trial"}},
	{DisciplineVaulting, "vaulting", []string{"vaulting"}},
	{DisciplinePonyRacing, "pony_racing", []string{"pony racing", "pony race"}},
}

// disciplineTagValues maps canonical discipline names to their tag value.
var disciplineTagValues = func() map[string]string {
	m := make(map[string]string, len(disciplinePatterns))
	for _, p := range disciplinePatterns {
		m[strings.ToLower(p.Canonical)] = p.TagValue
	}
	return m
}()

// Non-competition markers checked against the event name. A hit decides
// the event type before any discipline hint is considered.
var trainingKeywords = []string{
	"training", "clinic", "camp", "lesson", "lecture", "demo", "schooling session",
	"flatwork session", "polework",
}

var venueHireKeywords = []string{
	"venue hire", "arena hire", "course hire", "facility hire", "facilities hire",
	"hire of arena", "xc hire",
}

// Keyword tables for the remaining tag categories. Level and scope are
// at-most-one with first match winning; the rest collect every match.
var levelKeywords = []keywordTag{
	{"intro", []string{"intro"}},
	{"prelim", []string{"prelim", "preliminary"}},
	{"novice", []string{"novice"}},
	{"elementary", []string{"elementary"}},
	{"intermediate", []string{"intermediate"}},
	{"advanced", []string{"advanced"}},
	{"open", []string{"open "}},
	{"grassroots", []string{"grassroots", "grass roots"}},
}

var scopeKeywords = []keywordTag{
	{"international", []string{"international"}},
	{"national", []string{"national", "championships of great britain"}},
	{"regional", []string{"regional"}},
	{"area", []string{"area "}},
	{"club", []string{"club "}},
}

var affiliationKeywords = []keywordTag{
	{"pony_club", []string{"pony club", "pc "}},
	{"british_showjumping", []string{"british showjumping", "bs "}},
	{"british_dressage", []string{"british dressage", "bd "}},
	{"british_eventing", []string{"british eventing", "be "}},
	{"british_riding_clubs", []string{"british riding clubs", "brc "}},
	{"unaffiliated", []string{"unaffiliated", "unaff "}},
}

var formatKeywords = []keywordTag{
	{"team", []string{"team "}},
	{"individual", []string{"individual"}},
	{"pairs", []string{"pairs"}},
	{"league", []string{"league"}},
	{"championship", []string{"championship"}},
	{"qualifier", []string{"qualifier"}},
}

var ageKeywords = []keywordTag{
	{"mini", []string{"mini "}},
	{"junior", []string{"junior"}},
	{"senior", []string{"senior"}},
	{"veteran", []string{"veteran"}},
}

var specialKeywords = []keywordTag{
	{"evening", []string{"evening"}},
	{"indoor", []string{"indoor"}},
	{"camp", []string{"camp"}},
	{"fun", []string{"fun "}},
	{"charity", []string{"charity"}},
}

type keywordTag struct {
	Value    string
	Keywords []string
}

// containsAny reports whether text contains any of the keywords. Matching
// is over lower-cased text with a trailing space appended so patterns
// ending in a space can anchor at the end of the text.
func containsAny(text string, keywords []string) bool {
	padded := text + " "
	for _, keyword := range keywords {
		if strings.Contains(padded, keyword) {
			return true
		}
	}
	return false
}
