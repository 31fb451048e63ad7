package pipeline

import (
	"sort"
	"strconv"
	"strings"
)

// Breeds lists the details of every breed catalog entry carrying a
// breed_id, ordered by breed_id.
func (a *Analyzer) Breeds() []map[string]interface{} {
	type keyed struct {
		id     string
		fields map[string]interface{}
	}

	var rows []keyed
	for _, e := range a.catalogs.Breed.Entries() {
		v, ok := e.Value(breedIDField)
		if !ok || v == nil {
			continue
		}
		rows = append(rows, keyed{id: e.String(breedIDField), fields: e.Fields()})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return breedIDLess(rows[i].id, rows[j].id)
	})

	breeds := make([]map[string]interface{}, 0, len(rows))
	for _, r := range rows {
		breeds = append(breeds, r.fields)
	}
	return breeds
}

// Breed returns the details of the breed with the given breed_id. Numeric
// ids match regardless of leading zeros.
func (a *Analyzer) Breed(id string) (map[string]interface{}, bool) {
	id = strings.TrimSpace(id)
	if n, err := strconv.Atoi(id); err == nil {
		id = strconv.Itoa(n)
	}

	e, ok := a.catalogs.Breed.Lookup(breedIDField, id)
	if !ok {
		return nil, false
	}
	return e.Fields(), true
}

func breedIDLess(a, b string) bool {
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		return x < y
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}
