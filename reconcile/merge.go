package reconcile

import (
	"github.com/goliatone/go-narration/blocks"
	"github.com/goliatone/go-narration/document"
	"github.com/goliatone/go-narration/media"
	"github.com/goliatone/go-narration/pkg/interfaces"
)

// Merge produces the document that should be persisted: the source document,
// deep-cloned, with the session's narration edits written back and one media
// entry per attached kind on each page. The source document is never mutated.
//
// Media entries are written remove-then-append, so applying the same merge
// twice yields the same document and a page can never accumulate duplicate
// entries of one type.
func Merge(doc *document.CourseContent, blockList []blocks.Block, edits map[string]string, attachments []*media.Attachment) *document.CourseContent {
	if doc == nil {
		return nil
	}
	merged := document.Clone(doc)

	pageByNumber := make(map[string]string, len(blockList))
	for _, block := range blockList {
		pageByNumber[block.BlockNumber] = block.PageID
	}

	for number, text := range edits {
		pageID, ok := pageByNumber[number]
		if !ok {
			continue
		}
		if page := merged.FindPage(pageID); page != nil {
			page.Narration = text
		}
	}

	for _, att := range attachments {
		if att == nil {
			continue
		}
		pageID, ok := pageByNumber[att.BlockNumber]
		if !ok {
			continue
		}
		page := merged.FindPage(pageID)
		if page == nil {
			continue
		}
		page.ReplaceMedia(mediaEntry(att))
	}
	return merged
}

// StripMedia returns a deep clone of the document with every media entry
// removed from every page. Narration text is left untouched.
func StripMedia(doc *document.CourseContent) *document.CourseContent {
	if doc == nil {
		return nil
	}
	stripped := document.Clone(doc)
	for _, page := range stripped.Pages() {
		page.Media = nil
	}
	return stripped
}

func mediaEntry(att *media.Attachment) document.MediaEntry {
	entry := document.MediaEntry{
		ID:        att.MediaID,
		Type:      string(att.Kind),
		StorageID: att.MediaID,
		Title:     att.Title,
	}
	if att.Kind == interfaces.MediaKindCaption {
		entry.Content = att.Content
	}
	return entry
}
