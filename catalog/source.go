package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/dogscan-go/model"
)

// source is the label metadata after its shape has been resolved. Exactly one
// of the three variants is produced per document.
type source interface {
	normalize(nameKey string) []Entry
}

// mappingSource is an object keyed by class index. Keys keep the order of
// their first appearance; a repeated key replaces the earlier value.
type mappingSource struct {
	keys   []string
	values []interface{}
	seen   map[string]int
}

func (s *mappingSource) set(key string, v interface{}) {
	if i, ok := s.seen[key]; ok {
		s.values[i] = v
		return
	}
	s.seen[key] = len(s.keys)
	s.keys = append(s.keys, key)
	s.values = append(s.values, v)
}

// recordSource is an array holding at least one object.
type recordSource []interface{}

// scalarSource is an array of bare names.
type scalarSource []interface{}

func resolve(raw []byte) (source, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, xerrors.Errorf("read label document: %v: %w", err, model.ErrMalformedLabelData)
	}

	switch tok {
	case json.Delim('{'):
		src := &mappingSource{seen: map[string]int{}}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, xerrors.Errorf("read label key: %v: %w", err, model.ErrMalformedLabelData)
			}
			var v interface{}
			if err := dec.Decode(&v); err != nil {
				return nil, xerrors.Errorf("read label %v: %v: %w", keyTok, err, model.ErrMalformedLabelData)
			}
			src.set(fmt.Sprint(keyTok), v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, xerrors.Errorf("close label object: %v: %w", err, model.ErrMalformedLabelData)
		}
		if err := expectEOF(dec); err != nil {
			return nil, err
		}
		return src, nil

	case json.Delim('['):
		var items []interface{}
		records := false
		for dec.More() {
			var v interface{}
			if err := dec.Decode(&v); err != nil {
				return nil, xerrors.Errorf("read label item %d: %v: %w", len(items), err, model.ErrMalformedLabelData)
			}
			if _, ok := v.(map[string]interface{}); ok {
				records = true
			}
			items = append(items, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, xerrors.Errorf("close label array: %v: %w", err, model.ErrMalformedLabelData)
		}
		if err := expectEOF(dec); err != nil {
			return nil, err
		}
		if records {
			return recordSource(items), nil
		}
		return scalarSource(items), nil
	}

	return nil, xerrors.Errorf("label root is %T, want object or array: %w", tok, model.ErrMalformedLabelData)
}

// expectEOF rejects anything after the root value.
func expectEOF(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return xerrors.Errorf("trailing label data: %v: %w", err, model.ErrMalformedLabelData)
	}
	return xerrors.Errorf("trailing label data %v: %w", tok, model.ErrMalformedLabelData)
}

func (s *mappingSource) normalize(nameKey string) []Entry {
	order := make([]int, len(s.keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return keyOrder(s.keys[order[a]]) < keyOrder(s.keys[order[b]])
	})

	out := make([]Entry, 0, len(order))
	for pos, i := range order {
		key, value := s.keys[i], s.values[i]

		rec, ok := value.(map[string]interface{})
		if !ok {
			out = append(out, promote(pos, value))
			continue
		}

		e := Entry{
			ClassIndex: pos,
			ClassName:  key,
			Extra:      extraFields(rec),
			indexValid: true,
		}
		if v, has := rec[fieldClassIndex]; has {
			e.ClassIndex, e.indexValid = parseIndex(v)
		}
		if v, has := rec[fieldClassName]; has {
			e.ClassName = stringify(v)
		}
		e.DisplayName = firstString(rec, e.ClassName, fieldDisplayName, nameKey)
		out = append(out, e)
	}
	return out
}

func (s recordSource) normalize(nameKey string) []Entry {
	out := make([]Entry, 0, len(s))
	for i, item := range s {
		rec, ok := item.(map[string]interface{})
		if !ok {
			out = append(out, promote(i, item))
			continue
		}

		e := Entry{
			ClassIndex: i,
			Extra:      extraFields(rec),
			indexValid: true,
		}
		if v, has := rec[fieldClassIndex]; has {
			e.ClassIndex, e.indexValid = parseIndex(v)
		}
		e.ClassName = firstString(rec, fmt.Sprintf("class_%d", i), fieldClassName, nameKey, fieldDisplayName)
		e.DisplayName = firstString(rec, e.ClassName, fieldDisplayName, nameKey)
		out = append(out, e)
	}
	return out
}

func (s scalarSource) normalize(_ string) []Entry {
	out := make([]Entry, 0, len(s))
	for i, item := range s {
		out = append(out, promote(i, item))
	}
	return out
}

func promote(pos int, value interface{}) Entry {
	text := stringify(value)
	return Entry{
		ClassIndex:  pos,
		ClassName:   text,
		DisplayName: text,
		indexValid:  true,
		promoted:    true,
	}
}

// keyOrder sorts digit-only keys numerically; anything else sorts as 0.
func keyOrder(key string) int {
	if key == "" {
		return 0
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0
	}
	return n
}

func parseIndex(v interface{}) (int, bool) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return int(f), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// firstString returns the first present field among keys, else def.
func firstString(rec map[string]interface{}, def string, keys ...string) string {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if v, has := rec[k]; has {
			return stringify(v)
		}
	}
	return def
}

func extraFields(rec map[string]interface{}) map[string]interface{} {
	extra := make(map[string]interface{}, len(rec))
	for k, v := range rec {
		switch k {
		case fieldClassIndex, fieldClassName, fieldDisplayName:
			continue
		}
		extra[k] = v
	}
	return extra
}
