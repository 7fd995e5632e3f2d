package csv

// intern deduplicates categorical field values. Species, population,
// reagent, donor and condition repeat on nearly every row of a large
// input, and encoding/csv allocates a fresh string per field; interning
// keeps one copy per distinct value for the lifetime of the load.
type intern map[string]string

func (in intern) get(s string) string {
	if v, ok := in[s]; ok {
		return v
	}
	in[s] = s
	return s
}
