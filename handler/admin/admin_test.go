package admin

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestBulkDeletable(t *testing.T) {
	now := time.Now()
	msgs := []*discordgo.Message{
		{ID: "new", Timestamp: now.Add(-time.Hour)},
		{ID: "old", Timestamp: now.Add(-15 * 24 * time.Hour)},
		{ID: "edge", Timestamp: now.Add(-13 * 24 * time.Hour)},
	}
	assert.Equal(t, []string{"new", "edge"}, bulkDeletable(msgs, now))
}

func TestServerInfoEmbed(t *testing.T) {
	e := serverInfoEmbed(&discordgo.Guild{ID: "175928847299117063", Name: "メイド喫茶", OwnerID: "1", MemberCount: 42})
	assert.Equal(t, "🏰 メイド喫茶", e.Title)
	assert.Equal(t, "42", e.Fields[1].Value)
	assert.Nil(t, e.Thumbnail)
}
