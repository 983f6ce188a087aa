package media

import (
	"sort"

	"github.com/goliatone/go-narration/pkg/interfaces"
)

// Attachment binds one stored media item (audio or caption) to a narration
// block. The wizard state owns attachments for the duration of the editing
// session; the media store owns the durable payload; the course-content
// document owns the durable reference once reconciled.
type Attachment struct {
	BlockNumber  string               `json:"block_number"`
	MediaID      string               `json:"media_id"`
	Kind         interfaces.MediaKind `json:"kind"`
	Title        string               `json:"title,omitempty"`
	MimeType     string               `json:"mime_type,omitempty"`
	OriginalName string               `json:"original_name,omitempty"`
	// Content carries caption text. Audio payloads are never held here; they
	// are materialized lazily through playable handles.
	Content string `json:"content,omitempty"`
	// Placeholder marks a descriptor whose store metadata could not be
	// resolved. The reference is kept so reconciliation does not lose it.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Clone copies the attachment.
func (a *Attachment) Clone() *Attachment {
	if a == nil {
		return nil
	}
	cloned := *a
	return &cloned
}

// FromRecord builds an attachment for a block from a stored media record.
func FromRecord(blockNumber string, record *interfaces.MediaRecord) *Attachment {
	if record == nil {
		return nil
	}
	att := &Attachment{
		BlockNumber:  blockNumber,
		MediaID:      record.ID,
		Kind:         record.Metadata.Type,
		Title:        record.Metadata.Title,
		MimeType:     record.Metadata.MimeType,
		OriginalName: record.Metadata.OriginalName,
	}
	if record.Metadata.Type == interfaces.MediaKindCaption && len(record.Data) > 0 {
		att.Content = string(record.Data)
	}
	return att
}

func sortByBlockNumber(list []*Attachment) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].BlockNumber < list[j].BlockNumber
	})
}
