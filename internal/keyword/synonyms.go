package keyword

// defaultSynonyms maps a query token to related terms that also count as
// (discounted) hits. Static read-only configuration data.
var defaultSynonyms = map[string][]string{
	"japan":     {"japanese", "tokyo", "kyoto", "osaka"},
	"trip":      {"tour", "travel", "journey", "visit", "vacation"},
	"tour":      {"trip", "travel", "journey", "visit"},
	"travel":    {"trip", "tour", "journey", "visit"},
	"birthday":  {"celebration", "party", "anniversary"},
	"friend":    {"friendship", "buddy", "pal"},
	"habit":     {"habits", "routine", "practice"},
	"routine":   {"habit", "schedule", "daily"},
	"morning":   {"early", "dawn", "sunrise"},
	"ai":        {"artificial intelligence", "machine learning", "neural"},
	"learning":  {"education", "study", "knowledge"},
	"uber":      {"driver", "ride", "transportation", "car"},
	"driver":    {"uber", "lyft", "transportation", "car"},
	"insights":  {"learnings", "observations", "findings", "discoveries"},
	"learnings": {"insights", "observations", "findings", "discoveries"},
}
