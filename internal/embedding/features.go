package embedding

// semanticFeatures maps specific words to fixed vector buckets so that
// related words reinforce the same indices. Static read-only data; the
// embedder copies a reference at construction and never mutates it.
var semanticFeatures = map[string][]int{
	"japan":        {100, 200, 300},
	"japanese":     {100, 200, 300},
	"tokyo":        {100, 200, 300, 150},
	"trip":         {400, 500},
	"tour":         {400, 500},
	"travel":       {400, 500},
	"journey":      {400, 500},
	"visit":        {400, 500},
	"dream":        {600, 700},
	"plan":         {600, 700},
	"birthday":     {800, 900},
	"friend":       {1000, 1100},
	"friendship":   {1000, 1100},
	"habit":        {1200, 1300},
	"habits":       {1200, 1300},
	"routine":      {1200, 1300},
	"morning":      {1400, 1500},
	"productivity": {1200, 1600},
	"learning":     {1700, 1800},
	"education":    {1700, 1800},
	"ai":           {1900, 2000},
	"artificial":   {1900, 2000},
	"intelligence": {1900, 2000},
}
