package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miyasty1919/discordmaidbot/ledger"
)

func restErr(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code},
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"unknown message", restErr(http.StatusNotFound, discordgo.ErrCodeUnknownMessage), ledger.ErrNotFound},
		{"unknown channel", restErr(http.StatusNotFound, discordgo.ErrCodeUnknownChannel), ledger.ErrNotFound},
		{"bare 404", restErr(http.StatusNotFound, 0), ledger.ErrNotFound},
		{"missing access", restErr(http.StatusForbidden, discordgo.ErrCodeMissingAccess), ledger.ErrTransientIO},
		{"server error", restErr(http.StatusBadGateway, 0), ledger.ErrTransientIO},
		{"network", errors.New("connection reset"), ledger.ErrTransientIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

type fakeRest struct {
	history []*discordgo.Message // newest first
	calls   []string
	sent    *discordgo.MessageSend
}

func (f *fakeRest) ChannelMessages(_ string, limit int, beforeID, _, _ string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.calls = append(f.calls, fmt.Sprintf("%d:%s", limit, beforeID))
	start := 0
	if beforeID != "" {
		for i, m := range f.history {
			if m.ID == beforeID {
				start = i + 1
			}
		}
	}
	end := min(start+limit, len(f.history))
	return f.history[start:end], nil
}

func (f *fakeRest) ChannelMessageSendComplex(_ string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = data
	return &discordgo.Message{ID: "new"}, nil
}

func (f *fakeRest) ChannelMessageEditComplex(_ *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return nil, restErr(http.StatusNotFound, discordgo.ErrCodeUnknownMessage)
}

func (f *fakeRest) ChannelMessageDelete(_, _ string, _ ...discordgo.RequestOption) error {
	return nil
}

func TestMessenger_RecentMessagesPaginates(t *testing.T) {
	f := &fakeRest{}
	for i := 250; i > 0; i-- {
		f.history = append(f.history, &discordgo.Message{
			ID:     fmt.Sprint(i),
			Author: &discordgo.User{ID: "bot"},
			Embeds: []*discordgo.MessageEmbed{{Title: "t", Description: "b"}},
		})
	}
	m := NewMessenger(f)

	got, err := m.RecentMessages(context.Background(), "c", 150)
	require.NoError(t, err)
	require.Len(t, got, 150)
	assert.Equal(t, "250", got[0].ID)
	assert.Equal(t, "101", got[149].ID)
	assert.Equal(t, ledger.Message{ID: "250", AuthorID: "bot", Title: "t", Body: "b"}, got[0])
	assert.Equal(t, []string{"100:", "50:151"}, f.calls)

	f.calls = nil
	got, err = m.RecentMessages(context.Background(), "c", 400)
	require.NoError(t, err)
	assert.Len(t, got, 250)
	assert.Len(t, f.calls, 3)
}

func TestMessenger_SendAndEdit(t *testing.T) {
	f := &fakeRest{}
	m := NewMessenger(f)

	id, err := m.SendContainer(context.Background(), "c", "title", "body")
	require.NoError(t, err)
	assert.Equal(t, "new", id)
	require.Len(t, f.sent.Embeds, 1)
	assert.Equal(t, "body", f.sent.Embeds[0].Description)
	assert.Empty(t, f.sent.AllowedMentions.Parse)

	err = m.EditContainer(context.Background(), "c", "gone", "title", "body")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestAuditEmbed(t *testing.T) {
	e := auditEmbed(ledger.AuditEntry{
		Actor:   ledger.Actor{ID: "1", Name: "maid"},
		Action:  "✅ 作品登録",
		Subject: "Echoes",
		At:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	assert.Equal(t, "✅ 作品登録", e.Title)
	assert.Equal(t, "2024-01-02T03:04:05Z", e.Timestamp)
	require.Len(t, e.Fields, 1)
	assert.Equal(t, "Echoes", e.Fields[0].Value)
}
