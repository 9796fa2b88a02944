package ledger

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(title string) Entry {
	return Entry{Title: title, Author: "著者", Rating: "⭐⭐⭐", Genre: "SF"}
}

func TestDocument_RoundTrip(t *testing.T) {
	doc := &Document{}
	doc.Insert("Novel", Entry{Title: "Echoes", Author: "A", Rating: "⭐⭐⭐⭐", Genre: "SF", Tags: []string{"泣ける", "熱い"}, Marker: "k3x"})
	doc.Insert("Novel Extended", entry("Drift"))
	doc.Insert("Novel", entry("Second"))

	body := doc.Render()
	parsed, err := Parse(body)
	require.NoError(t, err)

	if diff := cmp.Diff(doc, parsed); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, body, parsed.Render())
	assert.Equal(t, 3, parsed.Count())
	require.Len(t, parsed.Sections, 2)
	assert.Equal(t, "Novel", parsed.Sections[0].Key)
	assert.Equal(t, []string{"Echoes", "Second"}, []string{parsed.Sections[0].Entries[0].Title, parsed.Sections[0].Entries[1].Title})
}

func TestDocument_PrefixKeysAreDistinct(t *testing.T) {
	doc := &Document{}
	doc.Insert("Novel Extended", entry("A"))
	doc.Insert("Novel", entry("B"))

	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "Novel Extended", doc.Sections[0].Key)
	assert.Len(t, doc.Sections[0].Entries, 1)
	assert.Equal(t, "Novel", doc.Sections[1].Key)
	assert.Equal(t, "B", doc.Sections[1].Entries[0].Title)
}

func TestDocument_DelimitersInFields(t *testing.T) {
	titles := []string{
		"A ｜ B",
		"**bold** and __under__",
		"【Vol.1】",
		"back\\slash",
		"spoiler ||x||",
		"> quoted",
	}
	doc := &Document{}
	for _, title := range titles {
		e := entry(title)
		e.Author = "｜pipe｜"
		e.Tags = []string{"`tick`"}
		doc.Insert("Key 【x】", e)
	}

	parsed, err := Parse(doc.Render())
	require.NoError(t, err)
	require.Len(t, parsed.Sections, 1)
	assert.Equal(t, "Key 【x】", parsed.Sections[0].Key)
	for i, title := range titles {
		assert.Equal(t, title, parsed.Sections[0].Entries[i].Title)
		assert.Equal(t, "｜pipe｜", parsed.Sections[0].Entries[i].Author)
		assert.Equal(t, []string{"`tick`"}, parsed.Sections[0].Entries[i].Tags)
	}
}

func TestDocument_RemoveFirstMatchOnly(t *testing.T) {
	doc := &Document{}
	doc.Insert("Novel", entry("Dup"))
	doc.Insert("Novel", entry("Other"))
	doc.Insert("Comic", entry("Dup"))

	removed, ok := doc.Remove(ByTitle(" Dup "))
	require.True(t, ok)
	assert.Equal(t, "Dup", removed.Title)
	assert.Equal(t, 2, doc.Count())
	assert.Len(t, doc.Find(ByTitle("Dup")), 1)

	_, ok = doc.Remove(ByTitle("Other"))
	require.True(t, ok)
	require.Len(t, doc.Sections, 1, "emptied section is pruned")
	assert.Equal(t, "Comic", doc.Sections[0].Key)
}

func TestRemove_NoMatchKeepsBody(t *testing.T) {
	doc := &Document{}
	doc.Insert("Novel", entry("Echoes"))
	body := doc.Render()

	got, ok, err := Remove(body, ByTitle("echoes"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, body, got)
}

func TestInsert_Body(t *testing.T) {
	body, err := Insert("", "Novel", entry("Echoes"))
	require.NoError(t, err)
	body, err = Insert(body, "Novel", entry("Drift"))
	require.NoError(t, err)

	doc, err := Parse(body)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Count())
	assert.True(t, strings.HasPrefix(body, renderHeader("Novel")))
}

func TestInsertThenRemove_RestoresBody(t *testing.T) {
	base := &Document{}
	base.Insert("Novel", entry("Echoes"))
	base.Insert("Novel Extended", entry("Drift"))
	populated := base.Render()

	tests := []struct {
		name string
		body string
		key  string
	}{
		{"empty body", "", "Novel"},
		{"existing section", populated, "Novel"},
		{"last existing section", populated, "Novel Extended"},
		{"new section header is pruned", populated, "Light Novel"},
		{"key that prefixes another", populated, "Novel Ext"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := entry("Transient ｜ 【x】")
			e.Marker = "abc"
			inserted, err := Insert(tt.body, tt.key, e)
			require.NoError(t, err)
			require.NotEqual(t, tt.body, inserted)

			got, ok, err := Remove(inserted, ByTitle(e.Title))
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.body, got)
		})
	}
}

func TestParse_RejectsLegacyBodies(t *testing.T) {
	legacy := []string{
		"**【 Novel 】**\n> Echoes / A",
		"📂 **【 Novel 】**",
		"📂 **【 Novel 】**\nfree text",
		"📂 **【 Novel 】**\n" + entry("A").Render() + "\n\n📂 **【 Novel 】**\n" + entry("B").Render(),
	}
	for _, body := range legacy {
		_, err := Parse(body)
		assert.ErrorIs(t, err, ErrMalformed, body)
	}
}

func TestMarkerCodec(t *testing.T) {
	c := NewMarkerCodec(0x5eed)
	m, ok := c.Encode("123456789012345678")
	require.True(t, ok)
	assert.NotContains(t, m, "123456789012345678")

	id, ok := c.Decode(m)
	require.True(t, ok)
	assert.Equal(t, "123456789012345678", id)

	_, ok = c.Encode("not-a-number")
	assert.False(t, ok)
	_, ok = c.Decode("NOPE")
	assert.False(t, ok)
}

func TestIndex_ReusesAndInvalidates(t *testing.T) {
	x := NewIndex(2)
	doc := &Document{}
	doc.Insert("Novel", entry("Echoes"))
	body := doc.Render()

	got, err := x.Document("c", "1", body)
	require.NoError(t, err)
	got.Insert("Novel", entry("mutated"))

	again, err := x.Document("c", "1", body)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Count(), "callers get private copies")

	_, err = x.Document("c", "2", "garbage")
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = x.Document("c", "3", body)
	require.NoError(t, err)
	assert.Equal(t, 2, x.Len("c"), "capacity bounds the channel")

	x.Invalidate("c", "3")
	assert.Equal(t, 1, x.Len("c"))
	x.InvalidateChannel("c")
	assert.Equal(t, 0, x.Len("c"))
}
