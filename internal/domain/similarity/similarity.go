// Package similarity detects likely near-duplicate items from their titles.
//
// Classification is rule based and conservative: two items that share a
// group label (say, both "N-th Battalion" military units, or both train
// stations) are probably interchangeable in a viewer's eyes, so the
// selection engine dampens their weights when the group was shown to the
// same session recently. Missing a group is harmless; a wrong group would
// starve unrelated items, which is why every rule keys on a specific
// trailing keyword.
package similarity

import (
	"regexp"
	"strings"
)

// Group label prefixes per rule family.
const (
	militaryPrefix       = "military_"
	transportationPrefix = "transportation_"
	buildingPrefix       = "building_"
	geographicPrefix     = "geo_"
)

// ordinalUnit matches titles like "5th Battalion" or "101st Airborne Division".
var ordinalUnit = regexp.MustCompile(`(?i)\b\d+(?:st|nd|rd|th)\b.*\b(battalion|division|regiment|brigade|squadron|corps|battery)\b`)

// militaryUnits, transportationKinds and buildingKinds map a trailing
// keyword to the subtype used in the group label.
var (
	militaryUnits = []string{"battalion", "division", "regiment", "brigade", "squadron", "corps", "battery"}

	transportationKinds = []string{"station", "airport", "terminal", "junction", "depot", "railway"}

	buildingKinds = []string{"tower", "building", "plaza", "centre", "center", "hall", "stadium", "bridge"}

	// frequentCities is a small list of city names that show up as trailing
	// qualifiers often enough to form crowded groups.
	frequentCities = []string{
		"london", "paris", "tokyo", "new york", "berlin", "moscow",
		"beijing", "chicago", "sydney", "toronto",
	}
)

// Classify maps a title to a similarity-group label. The second return is
// false when no rule matches. Deterministic, no I/O.
func Classify(title string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return "", false
	}

	if group, ok := classifyMilitary(t); ok {
		return group, true
	}
	if group, ok := classifyTrailing(t, transportationKinds, transportationPrefix); ok {
		return group, true
	}
	if group, ok := classifyTrailing(t, buildingKinds, buildingPrefix); ok {
		return group, true
	}
	return classifyGeographic(t)
}

// classifyMilitary matches numbered military units. The unit keyword may be
// followed by a qualifier ("5th Battalion, Royal Anglian") so it is looked
// up anywhere after the ordinal rather than only at the end.
func classifyMilitary(title string) (string, bool) {
	m := ordinalUnit.FindStringSubmatch(title)
	if m == nil {
		return "", false
	}
	return militaryPrefix + m[1], true
}

// classifyTrailing matches titles ending in one of the given keywords,
// optionally followed by a parenthesized qualifier.
func classifyTrailing(title string, kinds []string, prefix string) (string, bool) {
	base := title
	if i := strings.LastIndex(base, "("); i > 0 {
		base = strings.TrimSpace(base[:i])
	}
	for _, kind := range kinds {
		if strings.HasSuffix(base, kind) && base != kind {
			return prefix + kind, true
		}
	}
	return "", false
}

// classifyGeographic matches a trailing ", City" or "(City)" qualifier for
// a small list of high-frequency city names.
func classifyGeographic(title string) (string, bool) {
	for _, city := range frequentCities {
		if strings.HasSuffix(title, ", "+city) || strings.HasSuffix(title, "("+city+")") {
			return geographicPrefix + strings.ReplaceAll(city, " ", "_"), true
		}
	}
	return "", false
}
