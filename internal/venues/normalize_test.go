package venues

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPlaceholder(t *testing.T) {
	for _, name := range []string{"TBC", "tbc", " tba ", "TBD", "Various", "unknown"} {
		assert.True(t, IsPlaceholder(name), "%q should be a placeholder", name)
	}
	for _, name := range []string{"Hickstead", "TBC Arena", ""} {
		assert.False(t, IsPlaceholder(name), "%q should not be a placeholder", name)
	}
}

func TestCleanName(t *testing.T) {
	cases := map[string]string{
		"  Rectory   Farm  ":    "Rectory Farm",
		`"Hickstead"`:           "Hickstead",
		"Somerford Park, ":      "Somerford Park",
		"Aston-le-Walls":        "Aston-le-Walls",
		"Onley Grounds EC -":    "Onley Grounds EC",
	}
	for input, want := range cases {
		assert.Equal(t, want, CleanName(input), "input %q", input)
	}
}

func TestDisambiguateGenericName(t *testing.T) {
	name, disambiguated := Disambiguate("Rectory Farm", "GL7 7JW")
	assert.True(t, disambiguated)
	assert.Equal(t, "Rectory Farm (GL7)", name)
}

func TestDisambiguateLeavesSpecificNamesAlone(t *testing.T) {
	name, disambiguated := Disambiguate("Hickstead", "RH17 5NU")
	assert.False(t, disambiguated)
	assert.Equal(t, "Hickstead", name)
}

func TestDisambiguateRequiresPostcode(t *testing.T) {
	name, disambiguated := Disambiguate("Rectory Farm", "")
	assert.False(t, disambiguated)
	assert.Equal(t, "Rectory Farm", name)
}

func TestIsVirtual(t *testing.T) {
	assert.True(t, IsVirtual("Zoom"))
	assert.True(t, IsVirtual("Microsoft Teams"))
	assert.False(t, IsVirtual("Zoom Arena Cirencester"))
}
