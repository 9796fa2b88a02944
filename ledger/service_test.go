package ledger_test

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"

	"github.com/miyasty1919/discordmaidbot/ledger"
	"github.com/miyasty1919/discordmaidbot/model"
)

const (
	botID       = "9000"
	novelChan   = "100"
	logChan     = "900"
	guildID     = "1"
	submitterID = "424242"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeMessage struct {
	ledger.Message
	deleted bool
}

// fakeMessenger keeps channel history in memory, oldest first.
type fakeMessenger struct {
	mu      sync.Mutex
	nextID  int
	history map[string][]*fakeMessage

	// failures injected into the next calls of each kind
	editErrs   []error
	sendErrs   []error
	deleteErrs []error
	// lostSends posts the message but still reports a failure, as when the
	// response is lost after Discord accepted the request.
	lostSends int

	sends, edits, deletes int
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{nextID: 1000, history: make(map[string][]*fakeMessage)}
}

func (f *fakeMessenger) RecentMessages(_ context.Context, channelID string, limit int) ([]ledger.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ledger.Message
	h := f.history[channelID]
	for i := len(h) - 1; i >= 0 && len(out) < limit; i-- {
		if !h[i].deleted {
			out = append(out, h[i].Message)
		}
	}
	return out, nil
}

func (f *fakeMessenger) SendContainer(_ context.Context, channelID, title, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := pop(&f.sendErrs); err != nil {
		return "", err
	}
	f.sends++
	id := f.post(channelID, botID, title, body)
	if f.lostSends > 0 {
		f.lostSends--
		return "", ledger.ErrTransientIO
	}
	return id, nil
}

func (f *fakeMessenger) EditContainer(_ context.Context, channelID, messageID, title, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := pop(&f.editErrs); err != nil {
		return err
	}
	m := f.find(channelID, messageID)
	if m == nil {
		return ledger.ErrNotFound
	}
	f.edits++
	m.Title, m.Body = title, body
	return nil
}

func (f *fakeMessenger) DeleteMessage(_ context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := pop(&f.deleteErrs); err != nil {
		return err
	}
	m := f.find(channelID, messageID)
	if m == nil {
		return ledger.ErrNotFound
	}
	f.deletes++
	m.deleted = true
	return nil
}

// post appends a message; callers hold mu.
func (f *fakeMessenger) post(channelID, authorID, title, body string) string {
	f.nextID++
	id := strconv.Itoa(f.nextID)
	f.history[channelID] = append(f.history[channelID], &fakeMessage{Message: ledger.Message{
		ID: id, AuthorID: authorID, Title: title, Body: body,
	}})
	return id
}

func (f *fakeMessenger) Post(channelID, authorID, title, body string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.post(channelID, authorID, title, body)
}

func (f *fakeMessenger) find(channelID, messageID string) *fakeMessage {
	for _, m := range f.history[channelID] {
		if m.ID == messageID && !m.deleted {
			return m
		}
	}
	return nil
}

// Containers returns the live bot containers in a channel, oldest first.
func (f *fakeMessenger) Containers(channelID string) []ledger.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ledger.Message
	for _, m := range f.history[channelID] {
		if !m.deleted && m.AuthorID == botID {
			out = append(out, m.Message)
		}
	}
	return out
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

type fakeSettings struct {
	settings model.GuildSettings
}

func (s *fakeSettings) GuildSettings(context.Context, string) (*model.GuildSettings, error) {
	cp := s.settings
	return &cp, nil
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []ledger.AuditEntry
	err     error
}

func (a *fakeAudit) Audit(_ context.Context, channelID string, e ledger.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, e)
	return nil
}

func (a *fakeAudit) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type denyAllLimiter struct{ wait time.Duration }

func (l denyAllLimiter) Take(string) (bool, time.Duration, func()) { return false, l.wait, nil }

// countingLimiter hands out a fixed number of tokens per key.
type countingLimiter struct {
	mu     sync.Mutex
	tokens map[string]int
}

func newCountingLimiter(key string, n int) *countingLimiter {
	return &countingLimiter{tokens: map[string]int{key: n}}
}

func (l *countingLimiter) Take(key string) (bool, time.Duration, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tokens[key] == 0 {
		return false, time.Minute, nil
	}
	l.tokens[key]--
	return true, 0, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.tokens[key]++
	}
}

func (l *countingLimiter) Left(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokens[key]
}

type fixture struct {
	msgr  *fakeMessenger
	set   *fakeSettings
	audit *fakeAudit
	svc   *ledger.Service
	codec ledger.MarkerCodec
}

func newFixture(t *testing.T, limiter ledger.Limiter, tune ...func(*ledger.Options)) *fixture {
	t.Helper()
	f := &fixture{
		msgr: newFakeMessenger(),
		set: &fakeSettings{settings: model.GuildSettings{
			GuildID:         guildID,
			Channels:        map[model.Category]string{model.CategoryNovel: novelChan},
			LogChannelID:    logChan,
			TrackSubmitters: true,
		}},
		audit: &fakeAudit{},
		codec: ledger.NewMarkerCodec(0xabcdef),
	}
	opts := ledger.Options{
		BotUserID:    botID,
		RetryBackoff: time.Millisecond,
		Codec:        f.codec,
	}
	for _, fn := range tune {
		fn(&opts)
	}
	f.svc = ledger.NewService(f.msgr, f.set, f.audit, limiter, zaptest.NewLogger(t), opts)
	return f
}

func record(title, subtype string) model.Record {
	return model.Record{
		Category:    model.CategoryNovel,
		Subtype:     subtype,
		Genre:       "SF",
		Title:       title,
		Author:      "作者",
		Rating:      "⭐⭐⭐⭐",
		SubmitterID: submitterID,
	}
}

func (f *fixture) add(t *testing.T, title, subtype string) *ledger.Result {
	t.Helper()
	res, err := f.svc.Add(context.Background(), ledger.AddRequest{
		GuildID: guildID,
		Actor:   ledger.Actor{ID: submitterID, Name: "tester"},
		Record:  record(title, subtype),
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) del(title string) (*ledger.Result, error) {
	return f.svc.Delete(context.Background(), ledger.DeleteRequest{
		GuildID:  guildID,
		Actor:    ledger.Actor{ID: submitterID},
		Category: model.CategoryNovel,
		Title:    title,
	})
}

func parseOnly(t *testing.T, msgs []ledger.Message) *ledger.Document {
	t.Helper()
	require.Len(t, msgs, 1)
	doc, err := ledger.Parse(msgs[0].Body)
	require.NoError(t, err)
	return doc
}

func TestService_AddEditDeleteLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	first := f.add(t, "Echoes", "Novel")
	assert.True(t, first.Created)
	assert.Equal(t, novelChan, first.ChannelID)
	assert.Equal(t, "Novel", first.Section)

	second := f.add(t, "Drift", "Novel")
	assert.False(t, second.Created)
	assert.Equal(t, first.MessageID, second.MessageID)

	containers := f.msgr.Containers(novelChan)
	assert.Equal(t, ledger.ContainerTitle(model.CategoryNovel), containers[0].Title)
	doc := parseOnly(t, containers)
	require.Len(t, doc.Sections, 1)
	require.Len(t, doc.Sections[0].Entries, 2)
	assert.Equal(t, "Echoes", doc.Sections[0].Entries[0].Title)
	assert.Equal(t, "Drift", doc.Sections[0].Entries[1].Title)

	res, err := f.del("Echoes")
	require.NoError(t, err)
	assert.False(t, res.Deleted)
	assert.Equal(t, "Echoes", res.Entry.Title)
	doc = parseOnly(t, f.msgr.Containers(novelChan))
	assert.Equal(t, 1, doc.Count())

	res, err = f.del("Drift")
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.Empty(t, f.msgr.Containers(novelChan))

	assert.Equal(t, []string{"✅ 作品登録", "✅ 作品登録", "🗑️ 作品削除", "🗑️ 作品削除"}, f.audit.Actions())
}

func TestService_EleventhEntryOpensNewContainer(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < ledger.DefaultMaxEntries; i++ {
		f.add(t, fmt.Sprintf("Work %02d", i), "Novel")
	}
	res := f.add(t, "Work 10", "Novel")
	assert.True(t, res.Created)

	containers := f.msgr.Containers(novelChan)
	require.Len(t, containers, 2)
	full, err := ledger.Parse(containers[0].Body)
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultMaxEntries, full.Count())
	fresh, err := ledger.Parse(containers[1].Body)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Count())
}

func TestService_SubtypeSectionsAreExact(t *testing.T) {
	f := newFixture(t, nil)
	f.add(t, "A", "Novel Extended")
	f.add(t, "B", "Novel")
	f.add(t, "C", "Novel Extended")

	doc := parseOnly(t, f.msgr.Containers(novelChan))
	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "Novel Extended", doc.Sections[0].Key)
	assert.Len(t, doc.Sections[0].Entries, 2)
	assert.Equal(t, "Novel", doc.Sections[1].Key)
	assert.Len(t, doc.Sections[1].Entries, 1)
}

func TestService_LegacyContainerIsNeverTouched(t *testing.T) {
	f := newFixture(t, nil)
	legacy := "**【 Novel 】**\n> 古い形式 / 作者"
	legacyID := f.msgr.Post(novelChan, botID, ledger.ContainerTitle(model.CategoryNovel), legacy)

	res := f.add(t, "Echoes", "Novel")
	assert.True(t, res.Created)
	assert.NotEqual(t, legacyID, res.MessageID)

	containers := f.msgr.Containers(novelChan)
	require.Len(t, containers, 2)
	assert.Equal(t, legacy, containers[0].Body)

	_, err := f.del("古い形式")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.Equal(t, legacy, f.msgr.Containers(novelChan)[0].Body)
}

func TestService_IgnoresForeignMessages(t *testing.T) {
	f := newFixture(t, nil)
	doc := &ledger.Document{}
	doc.Insert("Novel", ledger.Entry{Title: "Spoof", Author: "x", Rating: "⭐", Genre: "x"})
	f.msgr.Post(novelChan, "someone-else", ledger.ContainerTitle(model.CategoryNovel), doc.Render())

	res := f.add(t, "Echoes", "Novel")
	assert.True(t, res.Created)
	_, err := f.del("Spoof")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestService_DuplicateTitlesRemoveOneAtATime(t *testing.T) {
	f := newFixture(t, nil)
	f.add(t, "Same", "Novel")
	f.add(t, "Same", "Novel")

	_, err := f.del("Same")
	require.NoError(t, err)
	doc := parseOnly(t, f.msgr.Containers(novelChan))
	assert.Equal(t, 1, doc.Count())
}

func TestService_DeniedSubmitter(t *testing.T) {
	f := newFixture(t, nil)
	f.set.settings.DenyList = []string{submitterID}

	_, err := f.svc.Add(context.Background(), ledger.AddRequest{GuildID: guildID, Record: record("Echoes", "Novel")})
	assert.ErrorIs(t, err, ledger.ErrForbidden)
	assert.Empty(t, f.msgr.Containers(novelChan))
	assert.Equal(t, []string{"🚫 投稿拒否 (NGユーザー)"}, f.audit.Actions())
}

func TestService_RateLimited(t *testing.T) {
	f := newFixture(t, denyAllLimiter{wait: 42 * time.Second})

	_, err := f.svc.Add(context.Background(), ledger.AddRequest{GuildID: guildID, Record: record("Echoes", "Novel")})
	require.ErrorIs(t, err, ledger.ErrRateLimited)
	var lerr *ledger.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, 42*time.Second, lerr.RetryAfter)
	assert.Empty(t, f.msgr.Containers(novelChan))
}

func TestService_NotConfigured(t *testing.T) {
	f := newFixture(t, nil)
	rec := record("Echoes", "TV")
	rec.Category = model.CategoryAnimation

	_, err := f.svc.Add(context.Background(), ledger.AddRequest{GuildID: guildID, Record: rec})
	assert.ErrorIs(t, err, ledger.ErrNotConfigured)
}

func TestService_InvalidRecord(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Add(context.Background(), ledger.AddRequest{GuildID: guildID, Record: record("", "Novel")})
	require.Error(t, err)
	assert.Empty(t, f.msgr.Containers(novelChan))
}

func TestService_TransientEditIsRetriedOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.add(t, "Echoes", "Novel")

	f.msgr.editErrs = []error{ledger.ErrTransientIO}
	res := f.add(t, "Drift", "Novel")
	assert.False(t, res.Created)
	assert.Equal(t, 2, parseOnly(t, f.msgr.Containers(novelChan)).Count())

	f.msgr.editErrs = []error{ledger.ErrTransientIO, ledger.ErrTransientIO}
	_, err := f.svc.Add(context.Background(), ledger.AddRequest{GuildID: guildID, Record: record("Lost", "Novel")})
	assert.ErrorIs(t, err, ledger.ErrTransientIO)
	assert.Equal(t, 2, parseOnly(t, f.msgr.Containers(novelChan)).Count(), "failed write leaves the body alone")
}

func TestService_LostSendResponseIsNotResent(t *testing.T) {
	f := newFixture(t, nil)
	f.msgr.lostSends = 1

	res := f.add(t, "Echoes", "Novel")
	assert.True(t, res.Created)

	containers := f.msgr.Containers(novelChan)
	require.Len(t, containers, 1)
	assert.Equal(t, containers[0].ID, res.MessageID)
	assert.Equal(t, 1, parseOnly(t, containers).Count())
	assert.Equal(t, 1, f.msgr.sends)

	// the next add lands in the same container
	res = f.add(t, "Drift", "Novel")
	assert.False(t, res.Created)
	assert.Equal(t, 2, parseOnly(t, f.msgr.Containers(novelChan)).Count())
}

func TestService_FailedSendIsRetriedOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.msgr.sendErrs = []error{ledger.ErrTransientIO}

	res := f.add(t, "Echoes", "Novel")
	assert.True(t, res.Created)
	assert.Len(t, f.msgr.Containers(novelChan), 1)

	for i := 0; i < ledger.DefaultMaxEntries-1; i++ {
		f.add(t, fmt.Sprintf("Fill %d", i), "Novel")
	}
	f.msgr.sendErrs = []error{ledger.ErrTransientIO, ledger.ErrTransientIO}
	_, err := f.svc.Add(context.Background(), ledger.AddRequest{GuildID: guildID, Record: record("Other", "Novel")})
	assert.ErrorIs(t, err, ledger.ErrTransientIO)
	assert.Len(t, f.msgr.Containers(novelChan), 1)
}

func TestService_LengthCeilingOpensNewContainer(t *testing.T) {
	const ceiling = 300
	f := newFixture(t, nil, func(o *ledger.Options) { o.MaxBodyLength = ceiling })

	long := strings.Repeat("長", 60)
	for i := 0; i < 5; i++ {
		f.add(t, fmt.Sprintf("%s %d", long, i), "Novel")
	}

	containers := f.msgr.Containers(novelChan)
	require.Greater(t, len(containers), 1, "length, not count, split the collection")
	total := 0
	for _, c := range containers {
		assert.Less(t, ledger.Length(c.Body), ceiling)
		doc, err := ledger.Parse(c.Body)
		require.NoError(t, err)
		assert.Less(t, doc.Count(), ledger.DefaultMaxEntries)
		total += doc.Count()
	}
	assert.Equal(t, 5, total)
}

func TestService_EntryLargerThanAnyContainer(t *testing.T) {
	tests := []struct {
		name string
		tune func(*ledger.Options)
	}{
		{"tiny ceiling", func(o *ledger.Options) { o.MaxBodyLength = 40 }},
		{"one entry per container", func(o *ledger.Options) { o.MaxEntries = 1; o.MaxBodyLength = 20 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := newCountingLimiter(guildID+":"+submitterID, 3)
			f := newFixture(t, limiter, tt.tune)

			_, err := f.svc.Add(context.Background(), ledger.AddRequest{GuildID: guildID, Record: record("Echoes", "Novel")})
			assert.ErrorIs(t, err, ledger.ErrCapacityExceeded)
			assert.Empty(t, f.msgr.Containers(novelChan))
			assert.Zero(t, f.msgr.sends)
			assert.Equal(t, 3, limiter.Left(guildID+":"+submitterID))
		})
	}
}

func TestService_FailedAddsKeepRateLimitTokens(t *testing.T) {
	key := guildID + ":" + submitterID
	limiter := newCountingLimiter(key, 1)
	f := newFixture(t, limiter)

	rec := record("Echoes", "TV")
	rec.Category = model.CategoryAnimation
	_, err := f.svc.Add(context.Background(), ledger.AddRequest{GuildID: guildID, Record: rec})
	require.ErrorIs(t, err, ledger.ErrNotConfigured)
	assert.Equal(t, 1, limiter.Left(key))

	f.msgr.sendErrs = []error{ledger.ErrTransientIO, ledger.ErrTransientIO}
	_, err = f.svc.Add(context.Background(), ledger.AddRequest{GuildID: guildID, Record: record("Echoes", "Novel")})
	require.ErrorIs(t, err, ledger.ErrTransientIO)
	assert.Equal(t, 1, limiter.Left(key), "a write that never landed gives the token back")

	f.add(t, "Echoes", "Novel")
	assert.Zero(t, limiter.Left(key))
	_, err = f.svc.Add(context.Background(), ledger.AddRequest{GuildID: guildID, Record: record("Drift", "Novel")})
	assert.ErrorIs(t, err, ledger.ErrRateLimited)
}

func TestService_VanishedContainerIsRelocated(t *testing.T) {
	f := newFixture(t, nil)
	first := f.add(t, "Echoes", "Novel")

	// The edit reports the message as gone; the second scan finds it again.
	f.msgr.editErrs = []error{ledger.ErrNotFound}
	res := f.add(t, "Drift", "Novel")
	assert.False(t, res.Created)
	assert.Equal(t, first.MessageID, res.MessageID)
	assert.Equal(t, 2, parseOnly(t, f.msgr.Containers(novelChan)).Count())

	// Gone for good: both attempts fail and the error surfaces.
	f.msgr.editErrs = []error{ledger.ErrNotFound, ledger.ErrNotFound}
	_, err := f.svc.Add(context.Background(), ledger.AddRequest{GuildID: guildID, Record: record("Lost", "Novel")})
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestService_ConcurrentAddsLoseNothing(t *testing.T) {
	f := newFixture(t, nil)
	const n = 25

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			_, err := f.svc.Add(context.Background(), ledger.AddRequest{
				GuildID: guildID,
				Record:  record(fmt.Sprintf("Work %02d", i), "Novel"),
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	seen := map[string]bool{}
	total := 0
	for _, m := range f.msgr.Containers(novelChan) {
		doc, err := ledger.Parse(m.Body)
		require.NoError(t, err)
		assert.LessOrEqual(t, doc.Count(), ledger.DefaultMaxEntries)
		total += doc.Count()
		for _, sec := range doc.Sections {
			for _, e := range sec.Entries {
				seen[e.Title] = true
			}
		}
	}
	assert.Equal(t, n, total)
	assert.Len(t, seen, n)
	assert.Len(t, f.msgr.Containers(novelChan), 3)
}

func TestService_PurgeSubmitter(t *testing.T) {
	f := newFixture(t, nil)
	f.add(t, "Mine 1", "Novel")
	other := record("Theirs", "Novel")
	other.SubmitterID = "777"
	_, err := f.svc.Add(context.Background(), ledger.AddRequest{GuildID: guildID, Record: other})
	require.NoError(t, err)
	f.add(t, "Mine 2", "Short")

	n, err := f.svc.PurgeSubmitter(context.Background(), ledger.PurgeRequest{GuildID: guildID, SubmitterID: submitterID})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	doc := parseOnly(t, f.msgr.Containers(novelChan))
	require.Equal(t, 1, doc.Count())
	assert.Equal(t, "Theirs", doc.Sections[0].Entries[0].Title)
}

func TestService_UntrackedEntriesCarryNoMarker(t *testing.T) {
	f := newFixture(t, nil)
	f.set.settings.TrackSubmitters = false
	res := f.add(t, "Echoes", "Novel")
	assert.Empty(t, res.Entry.Marker)

	n, err := f.svc.PurgeSubmitter(context.Background(), ledger.PurgeRequest{GuildID: guildID, SubmitterID: submitterID})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_Lookup(t *testing.T) {
	f := newFixture(t, nil)
	f.add(t, "Echoes of Time", "Novel")
	f.add(t, "Drift", "Novel")

	hits, err := f.svc.Lookup(context.Background(), ledger.LookupRequest{GuildID: guildID, Title: "echoes"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Echoes of Time", hits[0].Entry.Title)
	assert.Equal(t, submitterID, hits[0].SubmitterID)
	assert.Equal(t, model.CategoryNovel, hits[0].Category)

	hits, err = f.svc.Lookup(context.Background(), ledger.LookupRequest{GuildID: guildID, SubmitterID: submitterID})
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	f.set.settings.Channels = nil
	_, err = f.svc.Lookup(context.Background(), ledger.LookupRequest{GuildID: guildID})
	assert.ErrorIs(t, err, ledger.ErrNotConfigured)
}

func TestService_AuditFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t, nil)
	f.audit.err = fmt.Errorf("log channel gone")
	res := f.add(t, "Echoes", "Novel")
	assert.True(t, res.Created)
}

func TestGate_SerializesPerChannel(t *testing.T) {
	gate := ledger.NewGate(4)
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			return gate.Do(context.Background(), "c", func(context.Context) error {
				mu.Lock()
				inFlight++
				maxInFlight = max(maxInFlight, inFlight)
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				inFlight--
				mu.Unlock()
				return nil
			})
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 1, maxInFlight)
}

func TestGate_HonoursContext(t *testing.T) {
	gate := ledger.NewGate(1)
	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- gate.Do(context.Background(), "c", func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := gate.Do(ctx, "c", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)
}
