package classify

import (
	"strings"

	"github.com/hoofbeat/hoofbeat-go/internal/datastore"
)

// Classifier resolves raw event names, discipline hints and descriptions
// to a canonical discipline and event type.
type Classifier struct {
	aliases map[string]datastore.DisciplineAlias // lower(alias) -> mapping
}

// NewClassifier builds a classifier over the discipline alias registry.
func NewClassifier(aliases []datastore.DisciplineAlias) *Classifier {
	byAlias := make(map[string]datastore.DisciplineAlias, len(aliases))
	for i := range aliases {
		byAlias[strings.ToLower(strings.TrimSpace(aliases[i].Alias))] = aliases[i]
	}
	return &Classifier{aliases: byAlias}
}

// Classify returns the canonical discipline (nil when undetermined) and
// the event type. Priority order:
//
//  1. a non-competition keyword in the name decides the event type,
//     overriding any hint
//  2. a supplied discipline hint normalized through the alias registry
//  3. ordered keyword patterns over name plus description
//  4. default: no discipline, competition — absence of evidence defaults
//     to "is a competition"
func (c *Classifier) Classify(name, disciplineHint, description string) (discipline *string, eventType string) {
	lowerName := strings.ToLower(name)
	searchText := lowerName
	if description != "" {
		searchText += " " + strings.ToLower(description)
	}

	eventType = datastore.EventTypeCompetition
	eventTypeLocked := false
	switch {
	case containsAny(lowerName, venueHireKeywords):
		eventType = datastore.EventTypeVenueHire
		eventTypeLocked = true
	case containsAny(lowerName, trainingKeywords):
		eventType = datastore.EventTypeTraining
		eventTypeLocked = true
	}

	// Hint normalization through the discipline alias registry
	if hint := strings.ToLower(strings.TrimSpace(disciplineHint)); hint != "" {
		if alias, ok := c.aliases[hint]; ok {
			canonical := alias.Canonical
			if !eventTypeLocked && alias.EventType != "" {
				eventType = alias.EventType
			}
			return &canonical, eventType
		}
	}

	// Ordered keyword patterns, first match wins
	for i := range disciplinePatterns {
		if containsAny(searchText, disciplinePatterns[i].Keywords) {
			canonical := disciplinePatterns[i].Canonical
			return &canonical, eventType
		}
	}

	return nil, eventType
}
