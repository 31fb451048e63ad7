// Package catalog normalizes class-label metadata into one index-addressable
// table. The metadata may be an object keyed by class index, an array of
// records or an array of bare names; all three produce the same Catalog.
package catalog

const (
	fieldClassIndex  = "class_index"
	fieldClassName   = "class_name"
	fieldDisplayName = "display_name"
)

// Entry is one normalized class label.
type Entry struct {
	ClassIndex  int
	ClassName   string
	DisplayName string
	Extra       map[string]interface{} // Every other field of the source record

	indexValid bool // false when the stored class_index could not be parsed
	promoted   bool // built from a bare scalar, matched by position
}

// String returns an extra field rendered as text, or "" when absent.
func (e Entry) String(key string) string {
	v, ok := e.Extra[key]
	if !ok {
		return ""
	}
	return stringify(v)
}

// Value returns a raw extra field.
func (e Entry) Value(key string) (interface{}, bool) {
	v, ok := e.Extra[key]
	return v, ok
}

// Catalog is read-only after Build and safe for concurrent use.
type Catalog struct {
	entries []Entry
}

// Build resolves the shape of raw once and normalizes it. On malformed input
// the returned catalog is empty (never nil) and the error wraps
// model.ErrMalformedLabelData.
func Build(raw []byte, nameKey string) (*Catalog, error) {
	src, err := resolve(raw)
	if err != nil {
		return &Catalog{}, err
	}
	return &Catalog{entries: src.normalize(nameKey)}, nil
}

// EntryAt returns the first entry whose class_index equals idx. Entries with
// an unparsable class_index are skipped; entries promoted from bare names
// match by position. The bool is false when no entry matches.
func (c *Catalog) EntryAt(idx int) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	for i, e := range c.entries {
		if e.promoted {
			if i == idx {
				return e, true
			}
			continue
		}
		if !e.indexValid {
			continue
		}
		if e.ClassIndex == idx {
			return e, true
		}
	}
	return Entry{}, false
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

func (c *Catalog) Entries() []Entry {
	if c == nil {
		return []Entry{}
	}
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Catalog) Names() []string {
	if c == nil {
		return []string{}
	}
	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.DisplayName)
	}
	return names
}

// Fields returns every field of the entry as one flat record, the
// normalized class fields included.
func (e Entry) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(e.Extra)+3)
	for k, v := range e.Extra {
		out[k] = v
	}
	out[fieldClassIndex] = e.ClassIndex
	out[fieldClassName] = e.ClassName
	out[fieldDisplayName] = e.DisplayName
	return out
}

// Lookup returns the first entry whose extra field key renders as value.
func (c *Catalog) Lookup(key, value string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	for _, e := range c.entries {
		if v, ok := e.Extra[key]; ok && stringify(v) == value {
			return e, true
		}
	}
	return Entry{}, false
}
