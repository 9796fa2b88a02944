package ledger

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const sectionSep = "\n\n"

// ErrMalformed is returned by Parse for bodies that do not follow the
// container grammar, including containers written by older bot versions.
var ErrMalformed = errors.New("malformed container body")

// Section groups the entries sharing one subtype.
type Section struct {
	Key     string
	Entries []Entry
}

// Document is the parsed form of a container body.
type Document struct {
	Sections []Section
}

// Matcher selects entries for removal or lookup.
type Matcher func(Entry) bool

// ByTitle matches entries whose title equals title exactly.
func ByTitle(title string) Matcher {
	title = strings.TrimSpace(title)
	return func(e Entry) bool { return e.Title == title }
}

// BySubmitter matches entries carrying the given submitter marker.
func BySubmitter(marker string) Matcher {
	return func(e Entry) bool { return marker != "" && e.Marker == marker }
}

// TitleContains matches entries whose title contains substr, ignoring case.
func TitleContains(substr string) Matcher {
	substr = strings.ToLower(strings.TrimSpace(substr))
	return func(e Entry) bool { return strings.Contains(strings.ToLower(e.Title), substr) }
}

// Parse reads a container body. The empty body parses to an empty document.
func Parse(body string) (*Document, error) {
	doc := &Document{}
	if body == "" {
		return doc, nil
	}
	for i, block := range strings.Split(body, sectionSep) {
		lines := strings.Split(block, "\n")
		key, ok := parseHeader(lines[0])
		if !ok {
			return nil, fmt.Errorf("%w: section %d has no header", ErrMalformed, i+1)
		}
		if len(lines) < 2 {
			return nil, fmt.Errorf("%w: section %q is empty", ErrMalformed, key)
		}
		if doc.section(key) >= 0 {
			return nil, fmt.Errorf("%w: duplicate section %q", ErrMalformed, key)
		}
		sec := Section{Key: key, Entries: make([]Entry, 0, len(lines)-1)}
		for _, line := range lines[1:] {
			e, ok := parseEntry(line)
			if !ok {
				return nil, fmt.Errorf("%w: bad entry line in section %q", ErrMalformed, key)
			}
			sec.Entries = append(sec.Entries, e)
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc, nil
}

// Render writes the canonical body text. Render(Parse(b)) == b for every
// body this package produced.
func (d *Document) Render() string {
	var b strings.Builder
	for i, sec := range d.Sections {
		if i > 0 {
			b.WriteString(sectionSep)
		}
		b.WriteString(renderHeader(sec.Key))
		for _, e := range sec.Entries {
			b.WriteByte('\n')
			b.WriteString(e.Render())
		}
	}
	return b.String()
}

// Count returns the number of entries across all sections.
func (d *Document) Count() int {
	n := 0
	for _, sec := range d.Sections {
		n += len(sec.Entries)
	}
	return n
}

// Empty reports whether the document holds no entries.
func (d *Document) Empty() bool {
	return d.Count() == 0
}

// Insert appends e as the last entry of the section keyed key, creating the
// section after all existing ones if needed.
func (d *Document) Insert(key string, e Entry) {
	if i := d.section(key); i >= 0 {
		d.Sections[i].Entries = append(d.Sections[i].Entries, e.clone())
		return
	}
	d.Sections = append(d.Sections, Section{Key: key, Entries: []Entry{e.clone()}})
}

// Remove deletes the first entry, in document order, accepted by match.
// A section left without entries is dropped.
func (d *Document) Remove(match Matcher) (Entry, bool) {
	for si := range d.Sections {
		for ei, e := range d.Sections[si].Entries {
			if !match(e) {
				continue
			}
			sec := &d.Sections[si]
			sec.Entries = append(sec.Entries[:ei:ei], sec.Entries[ei+1:]...)
			if len(sec.Entries) == 0 {
				d.Sections = append(d.Sections[:si:si], d.Sections[si+1:]...)
			}
			return e, true
		}
	}
	return Entry{}, false
}

// RemoveAll deletes every entry accepted by match.
func (d *Document) RemoveAll(match Matcher) []Entry {
	var removed []Entry
	for {
		e, ok := d.Remove(match)
		if !ok {
			return removed
		}
		removed = append(removed, e)
	}
}

// Find returns the entries accepted by match with their section keys.
func (d *Document) Find(match Matcher) []Located {
	var out []Located
	for _, sec := range d.Sections {
		for _, e := range sec.Entries {
			if match(e) {
				out = append(out, Located{Section: sec.Key, Entry: e.clone()})
			}
		}
	}
	return out
}

// Located is an entry together with the section it sits in.
type Located struct {
	Section string
	Entry   Entry
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	out := &Document{Sections: make([]Section, len(d.Sections))}
	for i, sec := range d.Sections {
		entries := make([]Entry, len(sec.Entries))
		for j, e := range sec.Entries {
			entries[j] = e.clone()
		}
		out.Sections[i] = Section{Key: sec.Key, Entries: entries}
	}
	return out
}

func (d *Document) section(key string) int {
	for i, sec := range d.Sections {
		if sec.Key == key {
			return i
		}
	}
	return -1
}

// Length is the body size as Discord counts it.
func Length(body string) int {
	return utf8.RuneCountInString(body)
}

// Insert splices entry into the section keyed key of body.
func Insert(body, key string, e Entry) (string, error) {
	doc, err := Parse(body)
	if err != nil {
		return body, err
	}
	doc.Insert(key, e)
	return doc.Render(), nil
}

// Remove deletes the first entry of body accepted by match. On no match the
// body is returned unchanged with false.
func Remove(body string, match Matcher) (string, bool, error) {
	doc, err := Parse(body)
	if err != nil {
		return body, false, err
	}
	if _, ok := doc.Remove(match); !ok {
		return body, false, nil
	}
	return doc.Render(), true, nil
}
