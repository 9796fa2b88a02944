package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miyasty1919/discordmaidbot/catalog"
	"github.com/miyasty1919/discordmaidbot/model"
)

func TestDefault_LoadsEveryList(t *testing.T) {
	c := catalog.Default()

	for _, cat := range model.Categories {
		assert.Len(t, c.Subtypes[cat], 25, "subtypes for %s", cat)
	}
	assert.Len(t, c.Genres, 25)
	assert.Len(t, c.Tags, 25)
	assert.Len(t, c.Ratings, 7)
	assert.Equal(t, "👑 殿堂入り", c.Ratings[0].Key())
	assert.Equal(t, "🚫 閲覧注意", c.Ratings[len(c.Ratings)-1].Key())
}

func TestCheckRecord(t *testing.T) {
	c := catalog.Default()
	valid := model.Record{
		Category: model.CategoryFilm,
		Subtype:  "ドキュメンタリー",
		Genre:    "ヒューマンドラマ",
		Rating:   "⭐⭐⭐⭐⭐",
		Tags:     []string{"泣ける", "隠れた名作"},
	}

	tests := []struct {
		name    string
		mutate  func(r *model.Record)
		wantErr string
	}{
		{name: "valid", mutate: func(*model.Record) {}},
		{name: "subtype of another category", mutate: func(r *model.Record) { r.Subtype = "OVA" }, wantErr: "subtype"},
		{name: "unknown genre", mutate: func(r *model.Record) { r.Genre = "料理番組" }, wantErr: "genre"},
		{name: "rating label instead of value", mutate: func(r *model.Record) { r.Rating = "⭐⭐⭐ (普通)" }, wantErr: "rating"},
		{name: "unknown tag", mutate: func(r *model.Record) { r.Tags = append(r.Tags, "謎") }, wantErr: "tag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			r.Tags = append([]string(nil), valid.Tags...)
			tt.mutate(&r)
			err := c.CheckRecord(r)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_RejectsOversizedList(t *testing.T) {
	doc := []byte(`
subtypes:
  novel: [{label: a}]
  comic: [{label: a}]
  animation: [{label: a}]
  film: [{label: a}]
genres: [{label: g}]
tags: [{label: t}]
ratings: []
`)
	_, err := catalog.Parse(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ratings")
}
