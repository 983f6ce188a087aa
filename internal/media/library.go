package media

import (
	"sync"

	"github.com/goliatone/go-narration/pkg/interfaces"
)

// Library is the in-memory attachment state for an editing session: at most
// one audio and one caption attachment per block. Every mutation path
// (upload, recording, bulk import, resolution) funnels through it, and all
// operations are safe to apply redundantly, which substitutes for locking at
// the call sites.
type Library struct {
	mu     sync.RWMutex
	byKind map[interfaces.MediaKind]map[string]*Attachment
}

// NewLibrary constructs an empty attachment library.
func NewLibrary() *Library {
	return &Library{
		byKind: map[interfaces.MediaKind]map[string]*Attachment{},
	}
}

// Get returns the attachment of the given kind for a block.
func (l *Library) Get(kind interfaces.MediaKind, blockNumber string) (*Attachment, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	att, ok := l.byKind[kind][blockNumber]
	if !ok {
		return nil, false
	}
	return att.Clone(), true
}

// Put stores the attachment, overwriting any existing one for the same block
// and kind. Used by upload, recording, and per-block replace.
func (l *Library) Put(att *Attachment) {
	if att == nil || att.BlockNumber == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.kindLocked(att.Kind)[att.BlockNumber] = att.Clone()
}

// Merge adds each attachment only when no attachment for that block and kind
// exists yet: existing state wins over freshly loaded state, so resolution
// completing after a concurrent upload cannot clobber it. Returns the number
// of attachments added.
func (l *Library) Merge(list []*Attachment) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	added := 0
	for _, att := range list {
		if att == nil || att.BlockNumber == "" {
			continue
		}
		kind := l.kindLocked(att.Kind)
		if _, exists := kind[att.BlockNumber]; exists {
			continue
		}
		kind[att.BlockNumber] = att.Clone()
		added++
	}
	return added
}

// Replace swaps the full attachment set of one kind. Bulk import is a
// deliberate overwrite, distinct from per-block upload's merge semantics.
// Returns the attachments that were displaced.
func (l *Library) Replace(kind interfaces.MediaKind, list []*Attachment) []*Attachment {
	l.mu.Lock()
	defer l.mu.Unlock()
	displaced := make([]*Attachment, 0, len(l.byKind[kind]))
	for _, att := range l.byKind[kind] {
		displaced = append(displaced, att)
	}
	next := make(map[string]*Attachment, len(list))
	for _, att := range list {
		if att == nil || att.BlockNumber == "" || att.Kind != kind {
			continue
		}
		next[att.BlockNumber] = att.Clone()
	}
	l.byKind[kind] = next
	sortByBlockNumber(displaced)
	return displaced
}

// Remove drops the attachment of a kind for one block.
func (l *Library) Remove(kind interfaces.MediaKind, blockNumber string) (*Attachment, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	att, ok := l.byKind[kind][blockNumber]
	if !ok {
		return nil, false
	}
	delete(l.byKind[kind], blockNumber)
	return att, true
}

// Clear empties the library, returning everything that was attached.
func (l *Library) Clear() []*Attachment {
	l.mu.Lock()
	defer l.mu.Unlock()
	var removed []*Attachment
	for _, attachments := range l.byKind {
		for _, att := range attachments {
			removed = append(removed, att)
		}
	}
	l.byKind = map[interfaces.MediaKind]map[string]*Attachment{}
	sortByBlockNumber(removed)
	return removed
}

// All returns the attachments of a kind ordered by block number.
func (l *Library) All(kind interfaces.MediaKind) []*Attachment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Attachment, 0, len(l.byKind[kind]))
	for _, att := range l.byKind[kind] {
		out = append(out, att.Clone())
	}
	sortByBlockNumber(out)
	return out
}

// Empty reports whether no attachment of any kind is held.
func (l *Library) Empty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, attachments := range l.byKind {
		if len(attachments) > 0 {
			return false
		}
	}
	return true
}

func (l *Library) kindLocked(kind interfaces.MediaKind) map[string]*Attachment {
	m, ok := l.byKind[kind]
	if !ok {
		m = make(map[string]*Attachment)
		l.byKind[kind] = m
	}
	return m
}
