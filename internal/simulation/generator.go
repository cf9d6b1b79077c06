package simulation

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// Title pattern selection. Roughly a third of seeded items land in a
// similarity group so the diversity penalty has something to bite on.
const (
	patternKinds      = 9 // cases 6-8 produce ungrouped titles
	ordinalUpperBound = 50
)

var (
	placeNames = []string{
		"Ashford", "Birkdale", "Clifton", "Dunmore", "Eastleigh",
		"Farnworth", "Granton", "Hartfield", "Ilkley", "Kelso",
		"Lydney", "Morpeth", "Norbury", "Oakham", "Penrith",
	}
	unitNames = []string{
		"Lancashire", "Yorkshire", "Highland", "Border", "Midland",
	}
	cityNames = []string{
		"london", "paris", "tokyo", "berlin", "chicago",
	}
)

// generator produces item titles with occasional similarity-group
// patterns. Not safe for concurrent use; each seeder owns one.
type generator struct {
	rng *rand.Rand
}

func newGenerator(seed int64) *generator {
	return &generator{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // simulation variety, not cryptography
	}
}

// title returns the next item title. Plain titles carry a uuid fragment
// so reruns against a seeded instance do not collide on unique titles.
func (g *generator) title() string {
	suffix := uuid.NewString()[:8]

	switch g.rng.Intn(patternKinds) {
	case 0:
		n := g.rng.Intn(ordinalUpperBound) + 1
		return fmt.Sprintf("%d%s Battalion, %s Regiment", n, ordinalSuffix(n), g.pick(unitNames))
	case 1:
		return fmt.Sprintf("%s Railway Station (%s)", g.pick(placeNames), suffix)
	case 2:
		return fmt.Sprintf("%s Tower (%s)", g.pick(placeNames), suffix)
	case 3:
		return fmt.Sprintf("%s Hall (%s)", g.pick(placeNames), suffix)
	case 4:
		city := g.pick(cityNames)
		return fmt.Sprintf("%s Market, %s", g.pick(placeNames), strings.ToUpper(city[:1])+city[1:])
	case 5:
		return fmt.Sprintf("%s Airport (%s)", g.pick(placeNames), suffix)
	default:
		return fmt.Sprintf("%s %s", g.pick(placeNames), suffix)
	}
}

// imageURL returns a deterministic placeholder image reference.
func (g *generator) imageURL(title string) string {
	slug := strings.ReplaceAll(strings.ToLower(title), " ", "-")
	return "https://images.example.com/" + slug + ".jpg"
}

func (g *generator) pick(list []string) string {
	return list[g.rng.Intn(len(list))]
}

func ordinalSuffix(n int) string {
	switch {
	case n%100 >= 11 && n%100 <= 13:
		return "th"
	case n%10 == 1:
		return "st"
	case n%10 == 2:
		return "nd"
	case n%10 == 3:
		return "rd"
	default:
		return "th"
	}
}
