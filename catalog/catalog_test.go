package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/dogscan-go/model"
)

func TestBuild_ThreeShapesAreEquivalent(t *testing.T) {
	docs := map[string]string{
		"mapping": `{"0": "pug", "1": "boxer"}`,
		"records": `[{"class_name":"pug"},{"class_name":"boxer"}]`,
		"scalars": `["pug","boxer"]`,
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			cat, err := Build([]byte(doc), "name")
			require.NoError(t, err)
			require.Equal(t, 2, cat.Len())

			pug, ok := cat.EntryAt(0)
			require.True(t, ok)
			assert.Equal(t, 0, pug.ClassIndex)
			assert.Equal(t, "pug", pug.ClassName)
			assert.Equal(t, "pug", pug.DisplayName)

			boxer, ok := cat.EntryAt(1)
			require.True(t, ok)
			assert.Equal(t, 1, boxer.ClassIndex)
			assert.Equal(t, "boxer", boxer.ClassName)
			assert.Equal(t, "boxer", boxer.DisplayName)

			_, ok = cat.EntryAt(2)
			assert.False(t, ok)
		})
	}
}

func TestEntryAt_RoundTrip(t *testing.T) {
	docs := []string{
		`{"2": "beagle", "0": "pug", "1": "boxer", "10": "akita"}`,
		`[{"class_index": 4, "class_name": "pug"}, {"class_index": 7, "class_name": "boxer"}, {"class_name": "husky"}]`,
		`["pug", "boxer", "husky", "akita"]`,
	}

	for _, doc := range docs {
		cat, err := Build([]byte(doc), "name")
		require.NoError(t, err)
		for _, e := range cat.Entries() {
			got, ok := cat.EntryAt(e.ClassIndex)
			require.True(t, ok, doc)
			assert.Equal(t, e.ClassIndex, got.ClassIndex, doc)
		}
	}
}

func TestBuild_MappingSortsByNumericKey(t *testing.T) {
	cat, err := Build([]byte(`{"10": "akita", "2": "beagle", "0": "pug", "1": "boxer"}`), "name")
	require.NoError(t, err)

	assert.Equal(t, []string{"pug", "boxer", "beagle", "akita"}, cat.Names())

	// Position, not key, becomes the index for bare values.
	akita, ok := cat.EntryAt(3)
	require.True(t, ok)
	assert.Equal(t, "akita", akita.ClassName)
	_, ok = cat.EntryAt(10)
	assert.False(t, ok)
}

func TestBuild_MappingNonNumericKeysSortAsZero(t *testing.T) {
	cat, err := Build([]byte(`{"1": "boxer", "x": "pug", "y": "husky"}`), "name")
	require.NoError(t, err)

	// Stable: "x" and "y" keep document order ahead of "1".
	assert.Equal(t, []string{"pug", "husky", "boxer"}, cat.Names())
}

func TestBuild_MappingRecords(t *testing.T) {
	doc := `{
		"1": {"name": "Boxer", "breed_id": 12, "size": "large"},
		"0": {"class_name": "pug", "display_name": "Pug", "class_index": 0}
	}`
	cat, err := Build([]byte(doc), "name")
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())

	pug, ok := cat.EntryAt(0)
	require.True(t, ok)
	assert.Equal(t, "pug", pug.ClassName)
	assert.Equal(t, "Pug", pug.DisplayName)
	assert.Empty(t, pug.Extra)

	boxer, ok := cat.EntryAt(1)
	require.True(t, ok)
	assert.Equal(t, "1", boxer.ClassName, "class_name defaults to the key")
	assert.Equal(t, "Boxer", boxer.DisplayName, "display_name falls back to the name key")
	assert.Equal(t, "large", boxer.String("size"))
	assert.Equal(t, "12", boxer.String("breed_id"))
	assert.Equal(t, "Boxer", boxer.String("name"))
}

func TestBuild_MappingRecordDisplayDefaultsToClassName(t *testing.T) {
	cat, err := Build([]byte(`{"0": {"class_name": "pug"}}`), "name")
	require.NoError(t, err)

	pug, ok := cat.EntryAt(0)
	require.True(t, ok)
	assert.Equal(t, "pug", pug.DisplayName)
}

func TestBuild_RecordFallbacks(t *testing.T) {
	doc := `[
		{"display_name": "Golden Retriever"},
		{"name": "Ringworm", "description": "fungal", "severity": "moderate"},
		{"severity": "low"},
		{"class_name": "pug", "name": "Pug (named)"}
	]`
	cat, err := Build([]byte(doc), "name")
	require.NoError(t, err)
	require.Equal(t, 4, cat.Len())

	e0, _ := cat.EntryAt(0)
	assert.Equal(t, "Golden Retriever", e0.ClassName)
	assert.Equal(t, "Golden Retriever", e0.DisplayName)

	e1, _ := cat.EntryAt(1)
	assert.Equal(t, "Ringworm", e1.ClassName)
	assert.Equal(t, "Ringworm", e1.DisplayName)
	assert.Equal(t, "fungal", e1.String("description"))
	assert.Equal(t, "moderate", e1.String("severity"))

	e2, _ := cat.EntryAt(2)
	assert.Equal(t, "class_2", e2.ClassName)
	assert.Equal(t, "class_2", e2.DisplayName)

	e3, _ := cat.EntryAt(3)
	assert.Equal(t, "pug", e3.ClassName)
	assert.Equal(t, "Pug (named)", e3.DisplayName)
}

func TestBuild_RecordNameKeyPrecedesDisplayName(t *testing.T) {
	cat, err := Build([]byte(`[{"display_name": "Shown", "label": "Labelled"}]`), "label")
	require.NoError(t, err)

	e, ok := cat.EntryAt(0)
	require.True(t, ok)
	assert.Equal(t, "Labelled", e.ClassName)
	assert.Equal(t, "Shown", e.DisplayName)
}

func TestBuild_StoredClassIndex(t *testing.T) {
	doc := `[
		{"class_index": "5", "class_name": "pug"},
		{"class_index": 2.0, "class_name": "boxer"},
		{"class_index": "abc", "class_name": "ghost"},
		{"class_name": "husky"}
	]`
	cat, err := Build([]byte(doc), "name")
	require.NoError(t, err)
	require.Equal(t, 4, cat.Len())

	pug, ok := cat.EntryAt(5)
	require.True(t, ok)
	assert.Equal(t, "pug", pug.ClassName)

	boxer, ok := cat.EntryAt(2)
	require.True(t, ok)
	assert.Equal(t, "boxer", boxer.ClassName)

	husky, ok := cat.EntryAt(3)
	require.True(t, ok)
	assert.Equal(t, "husky", husky.ClassName)

	// The unparsable entry is skipped, never matched by its position.
	for idx := 0; idx < 10; idx++ {
		if e, ok := cat.EntryAt(idx); ok {
			assert.NotEqual(t, "ghost", e.ClassName)
		}
	}
}

func TestEntryAt_FirstMatchWins(t *testing.T) {
	cat, err := Build([]byte(`[{"class_index": 1, "class_name": "a"}, {"class_index": 1, "class_name": "b"}]`), "name")
	require.NoError(t, err)

	e, ok := cat.EntryAt(1)
	require.True(t, ok)
	assert.Equal(t, "a", e.ClassName)

	_, ok = cat.EntryAt(0)
	assert.False(t, ok)
}

func TestBuild_MixedArrayPromotesScalars(t *testing.T) {
	cat, err := Build([]byte(`["pug", {"class_name": "boxer"}, 7]`), "name")
	require.NoError(t, err)

	e, ok := cat.EntryAt(2)
	require.True(t, ok)
	assert.Equal(t, "7", e.ClassName)
	assert.Equal(t, "7", e.DisplayName)
}

func TestBuild_Malformed(t *testing.T) {
	for _, doc := range []string{`42`, `"pug"`, `null`, `true`, ``, `{"0": `, `[1, 2`,
		`["pug","boxer"] {oops`, `["pug"] "boxer"`, `{"0":"pug"} []`} {
		cat, err := Build([]byte(doc), "name")
		require.Error(t, err, doc)
		assert.True(t, errors.Is(err, model.ErrMalformedLabelData), doc)
		require.NotNil(t, cat)
		assert.Equal(t, 0, cat.Len())
	}
}

func TestBuild_EmptyContainers(t *testing.T) {
	for _, doc := range []string{`{}`, `[]`} {
		cat, err := Build([]byte(doc), "name")
		require.NoError(t, err)
		assert.Equal(t, 0, cat.Len())
	}
}

func TestBuild_TrailingWhitespaceIsAccepted(t *testing.T) {
	cat, err := Build([]byte("[\"pug\"]\n\t "), "name")
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())
}

func TestBuild_MappingDuplicateKeyLastWins(t *testing.T) {
	cat, err := Build([]byte(`{"0":"pug","1":"boxer","0":"akita"}`), "name")
	require.NoError(t, err)

	require.Equal(t, 2, cat.Len())
	assert.Equal(t, []string{"akita", "boxer"}, cat.Names())

	boxer, ok := cat.EntryAt(1)
	require.True(t, ok)
	assert.Equal(t, "boxer", boxer.DisplayName)
}

func TestCatalog_NilIsEmpty(t *testing.T) {
	var cat *Catalog

	assert.Equal(t, 0, cat.Len())
	assert.Empty(t, cat.Entries())
	assert.Empty(t, cat.Names())
	_, ok := cat.EntryAt(0)
	assert.False(t, ok)
}
