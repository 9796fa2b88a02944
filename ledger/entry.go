package ledger

import (
	"strconv"
	"strings"

	"github.com/miyasty1919/discordmaidbot/model"
)

const (
	entryPrefix  = "> 🔖 **"
	titleClose   = "**"
	fieldSep     = " ｜ "
	authorPrefix = "👤 "
	genrePrefix  = "🏷️ "
	tagsPrefix   = "💭 "
	markerFence  = "||"

	headerPrefix = "📂 **【 "
	headerSuffix = " 】**"

	// UnknownAuthor is shown when a record has no author.
	UnknownAuthor = "不明"
)

// Entry is one rendered record inside a section.
type Entry struct {
	Title  string
	Author string
	Rating string
	Genre  string
	Tags   []string
	// Marker is the obfuscated submitter identifier, empty when the guild
	// does not track submitters.
	Marker string
}

// NewEntry builds the entry for a record. The record is expected to be
// normalized already.
func NewEntry(r model.Record, marker string) Entry {
	author := r.Author
	if author == "" {
		author = UnknownAuthor
	}
	var tags []string
	if len(r.Tags) > 0 {
		tags = append(tags, r.Tags...)
	}
	return Entry{
		Title:  r.Title,
		Author: author,
		Rating: r.Rating,
		Genre:  r.Genre,
		Tags:   tags,
		Marker: marker,
	}
}

// SectionKey derives the section key from a subtype. Only the subtype feeds
// the key so free-text fields can never produce a header.
func SectionKey(subtype string) string {
	return strings.Join(strings.Fields(subtype), " ")
}

// Format renders a record into its section key and entry line.
func Format(r model.Record, codec MarkerCodec, track bool) (key, text string) {
	marker := ""
	if track {
		marker, _ = codec.Encode(r.SubmitterID)
	}
	return SectionKey(r.Subtype), NewEntry(r, marker).Render()
}

// Render returns the single-line form of the entry.
func (e Entry) Render() string {
	var b strings.Builder
	b.WriteString(entryPrefix)
	b.WriteString(escape(e.Title))
	b.WriteString(titleClose)
	b.WriteString(fieldSep)
	b.WriteString(authorPrefix)
	b.WriteString(escape(e.Author))
	b.WriteString(fieldSep)
	b.WriteString(escape(e.Rating))
	b.WriteString(fieldSep)
	b.WriteString(genrePrefix)
	b.WriteString(escape(e.Genre))
	if len(e.Tags) > 0 {
		b.WriteString(fieldSep)
		b.WriteString(tagsPrefix)
		for i, t := range e.Tags {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteByte('`')
			b.WriteString(escape(t))
			b.WriteByte('`')
		}
	}
	if e.Marker != "" {
		b.WriteString(fieldSep)
		b.WriteString(markerFence)
		b.WriteString(e.Marker)
		b.WriteString(markerFence)
	}
	return b.String()
}

func (e Entry) clone() Entry {
	if e.Tags != nil {
		e.Tags = append([]string(nil), e.Tags...)
	}
	return e
}

func parseEntry(line string) (Entry, bool) {
	if !strings.HasPrefix(line, entryPrefix) {
		return Entry{}, false
	}
	rest := line[len(entryPrefix):]
	end := indexUnescaped(rest, titleClose)
	if end < 0 {
		return Entry{}, false
	}
	e := Entry{Title: unescape(rest[:end])}
	rest = rest[end+len(titleClose):]
	if !strings.HasPrefix(rest, fieldSep) {
		return Entry{}, false
	}
	fields := strings.Split(rest[len(fieldSep):], fieldSep)
	if len(fields) < 3 || len(fields) > 5 {
		return Entry{}, false
	}

	author, ok := strings.CutPrefix(fields[0], authorPrefix)
	if !ok {
		return Entry{}, false
	}
	e.Author = unescape(author)
	e.Rating = unescape(fields[1])
	genre, ok := strings.CutPrefix(fields[2], genrePrefix)
	if !ok {
		return Entry{}, false
	}
	e.Genre = unescape(genre)

	for _, f := range fields[3:] {
		switch {
		case strings.HasPrefix(f, tagsPrefix) && e.Tags == nil && e.Marker == "":
			tags, ok := parseTags(f[len(tagsPrefix):])
			if !ok {
				return Entry{}, false
			}
			e.Tags = tags
		case strings.HasPrefix(f, markerFence) && strings.HasSuffix(f, markerFence) && len(f) > 2*len(markerFence) && e.Marker == "":
			e.Marker = f[len(markerFence) : len(f)-len(markerFence)]
			if !validMarker(e.Marker) {
				return Entry{}, false
			}
		default:
			return Entry{}, false
		}
	}
	return e, true
}

func parseTags(s string) ([]string, bool) {
	var tags []string
	for s != "" {
		if !strings.HasPrefix(s, "`") {
			return nil, false
		}
		s = s[1:]
		end := indexUnescaped(s, "`")
		if end < 0 {
			return nil, false
		}
		tags = append(tags, unescape(s[:end]))
		s = s[end+1:]
		if s == "" {
			break
		}
		if !strings.HasPrefix(s, " ") {
			return nil, false
		}
		s = s[1:]
	}
	if len(tags) == 0 {
		return nil, false
	}
	return tags, true
}

func renderHeader(key string) string {
	return headerPrefix + escape(key) + headerSuffix
}

func parseHeader(line string) (string, bool) {
	inner, ok := strings.CutPrefix(line, headerPrefix)
	if !ok {
		return "", false
	}
	inner, ok = strings.CutSuffix(inner, headerSuffix)
	if !ok || inner == "" {
		return "", false
	}
	// An unescaped closing bracket inside means this is not a header we wrote.
	if indexUnescaped(inner, "】") >= 0 {
		return "", false
	}
	return unescape(inner), true
}

// MarkerCodec obfuscates numeric submitter IDs so they are not readable at a
// glance in the channel, while staying reversible for moderation.
type MarkerCodec struct {
	key uint64
}

// NewMarkerCodec returns a codec keyed by key.
func NewMarkerCodec(key uint64) MarkerCodec {
	return MarkerCodec{key: key}
}

// Encode returns the marker for a numeric user ID.
func (c MarkerCodec) Encode(userID string) (string, bool) {
	id, err := strconv.ParseUint(userID, 10, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatUint(id^c.key, 36), true
}

// Decode reverses Encode.
func (c MarkerCodec) Decode(marker string) (string, bool) {
	if !validMarker(marker) {
		return "", false
	}
	v, err := strconv.ParseUint(marker, 36, 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatUint(v^c.key, 10), true
}

func validMarker(m string) bool {
	if m == "" {
		return false
	}
	for _, r := range m {
		if (r < '0' || r > '9') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
