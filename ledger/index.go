package ledger

import (
	"container/list"
	"sync"
)

type indexEntry struct {
	messageID string
	raw       string
	doc       *Document
	err       error
}

type channelIndex struct {
	byID  map[string]*list.Element
	order *list.List // front is most recently used
}

// Index caches parsed container bodies per channel so repeated scans do not
// re-parse unchanged messages. A cached parse is reused only while the raw
// body is identical; any mismatch re-parses and replaces the entry.
type Index struct {
	mu       sync.Mutex
	channels map[string]*channelIndex
	capacity int
}

// NewIndex returns an index keeping up to capacity messages per channel.
func NewIndex(capacity int) *Index {
	if capacity <= 0 {
		capacity = 200
	}
	return &Index{channels: make(map[string]*channelIndex), capacity: capacity}
}

// Document returns a private copy of the parsed body of a message.
func (x *Index) Document(channelID, messageID, body string) (*Document, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	ci := x.channel(channelID)
	if el, ok := ci.byID[messageID]; ok {
		ent := el.Value.(*indexEntry)
		if ent.raw == body {
			ci.order.MoveToFront(el)
			if ent.err != nil {
				return nil, ent.err
			}
			return ent.doc.Clone(), nil
		}
		ci.order.Remove(el)
		delete(ci.byID, messageID)
	}

	doc, err := Parse(body)
	ent := &indexEntry{messageID: messageID, raw: body, doc: doc, err: err}
	ci.byID[messageID] = ci.order.PushFront(ent)
	for ci.order.Len() > x.capacity {
		last := ci.order.Back()
		ci.order.Remove(last)
		delete(ci.byID, last.Value.(*indexEntry).messageID)
	}
	if err != nil {
		return nil, err
	}
	return doc.Clone(), nil
}

// Store records a body the ledger just wrote together with its parse.
func (x *Index) Store(channelID, messageID, body string, doc *Document) {
	x.mu.Lock()
	defer x.mu.Unlock()

	ci := x.channel(channelID)
	if el, ok := ci.byID[messageID]; ok {
		ci.order.Remove(el)
	}
	ent := &indexEntry{messageID: messageID, raw: body, doc: doc.Clone()}
	ci.byID[messageID] = ci.order.PushFront(ent)
	for ci.order.Len() > x.capacity {
		last := ci.order.Back()
		ci.order.Remove(last)
		delete(ci.byID, last.Value.(*indexEntry).messageID)
	}
}

// Invalidate drops a cached message, e.g. after it was edited or deleted
// outside of the ledger.
func (x *Index) Invalidate(channelID, messageID string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	ci, ok := x.channels[channelID]
	if !ok {
		return
	}
	if el, ok := ci.byID[messageID]; ok {
		ci.order.Remove(el)
		delete(ci.byID, messageID)
	}
}

// InvalidateChannel drops everything cached for a channel.
func (x *Index) InvalidateChannel(channelID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.channels, channelID)
}

// Len returns the number of cached messages for a channel.
func (x *Index) Len(channelID string) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	if ci, ok := x.channels[channelID]; ok {
		return ci.order.Len()
	}
	return 0
}

func (x *Index) channel(channelID string) *channelIndex {
	ci, ok := x.channels[channelID]
	if !ok {
		ci = &channelIndex{byID: make(map[string]*list.Element), order: list.New()}
		x.channels[channelID] = ci
	}
	return ci
}
