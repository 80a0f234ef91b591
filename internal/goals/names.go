// File: internal/goals/names.go
package goals

import (
	"strings"
	"unicode"
)

// aliases maps normalized dashboard labels that differ from the type name.
var aliases = map[string]Type{
	"HUNT_MOBS": HuntAnimals,
}

// normalizeName drops decorations such as leading emoji, upper-cases the
// rest and joins words with underscores: "🌳 gather wood" -> "GATHER_WOOD".
func normalizeName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	return strings.ToUpper(strings.Join(words, "_"))
}

// ParseType resolves a goal name from a command or dashboard label.
func ParseType(name string) (Type, bool) {
	key := normalizeName(name)
	if key == "" {
		return "", false
	}
	for _, t := range AllTypes {
		if string(t) == key {
			return t, true
		}
	}
	t, ok := aliases[key]
	return t, ok
}

// ResolveType is ParseType with unknown names falling back to ExploreArea.
func ResolveType(name string) Type {
	if t, ok := ParseType(name); ok {
		return t
	}
	return ExploreArea
}
