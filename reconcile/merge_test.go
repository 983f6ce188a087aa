package reconcile_test

import (
	"testing"

	"github.com/goliatone/go-narration/blocks"
	"github.com/goliatone/go-narration/document"
	"github.com/goliatone/go-narration/media"
	"github.com/goliatone/go-narration/pkg/interfaces"
	"github.com/goliatone/go-narration/reconcile"
)

func mergeDoc() (*document.CourseContent, []blocks.Block) {
	doc := &document.CourseContent{
		WelcomePage:            &document.Page{Title: "Welcome", Narration: "Old hello"},
		LearningObjectivesPage: &document.Page{Title: "Objectives"},
		Topics: []*document.Page{
			{ID: "topic-0", Title: "Topic Zero", Narration: "Zero"},
		},
	}
	return doc, blocks.Extract(doc)
}

func TestMergeWritesEditsAndMedia(t *testing.T) {
	doc, blockList := mergeDoc()

	edits := map[string]string{"0001": "New hello"}
	attachments := []*media.Attachment{
		{BlockNumber: "0001", MediaID: "aud-1", Kind: interfaces.MediaKindAudio, Title: "Welcome"},
		{BlockNumber: "0003", MediaID: "cap-1", Kind: interfaces.MediaKindCaption, Content: "WEBVTT"},
	}

	merged := reconcile.Merge(doc, blockList, edits, attachments)

	if merged.WelcomePage.Narration != "New hello" {
		t.Fatalf("expected edit applied, got %q", merged.WelcomePage.Narration)
	}
	if doc.WelcomePage.Narration != "Old hello" {
		t.Fatal("merge mutated the source document")
	}

	audio, ok := merged.WelcomePage.MediaOfType("audio")
	if !ok || audio.StorageID != "aud-1" {
		t.Fatalf("expected audio entry on welcome, got %+v", audio)
	}
	caption, ok := merged.Topics[0].MediaOfType("caption")
	if !ok || caption.Content != "WEBVTT" {
		t.Fatalf("expected caption entry with embedded content, got %+v", caption)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	doc, blockList := mergeDoc()
	attachments := []*media.Attachment{
		{BlockNumber: "0001", MediaID: "aud-1", Kind: interfaces.MediaKindAudio},
	}

	once := reconcile.Merge(doc, blockList, nil, attachments)
	twice := reconcile.Merge(once, blockList, nil, attachments)

	if len(twice.WelcomePage.Media) != 1 {
		t.Fatalf("expected single audio entry after repeated merge, got %d", len(twice.WelcomePage.Media))
	}
}

func TestMergeReplacesStaleEntryOfSameType(t *testing.T) {
	doc, blockList := mergeDoc()
	doc.WelcomePage.Media = []document.MediaEntry{
		{ID: "stale", Type: "audio", StorageID: "stale"},
		{ID: "cap", Type: "caption", StorageID: "cap"},
	}

	merged := reconcile.Merge(doc, blockList, nil, []*media.Attachment{
		{BlockNumber: "0001", MediaID: "fresh", Kind: interfaces.MediaKindAudio},
	})

	audio, _ := merged.WelcomePage.MediaOfType("audio")
	if audio.StorageID != "fresh" {
		t.Fatalf("expected fresh audio entry, got %+v", audio)
	}
	if _, ok := merged.WelcomePage.MediaOfType("caption"); !ok {
		t.Fatal("expected unrelated caption entry preserved")
	}
}

func TestMergeIgnoresUnknownBlocks(t *testing.T) {
	doc, blockList := mergeDoc()

	merged := reconcile.Merge(doc, blockList,
		map[string]string{"0042": "nope"},
		[]*media.Attachment{{BlockNumber: "0042", MediaID: "x", Kind: interfaces.MediaKindAudio}},
	)

	for _, page := range merged.Pages() {
		if len(page.Media) != 0 {
			t.Fatalf("expected no media written for unknown block, got %+v", page.Media)
		}
	}
}

func TestStripMediaLeavesNarration(t *testing.T) {
	doc, _ := mergeDoc()
	doc.WelcomePage.Media = []document.MediaEntry{{ID: "m", Type: "audio", StorageID: "m"}}

	stripped := reconcile.StripMedia(doc)

	if len(stripped.WelcomePage.Media) != 0 {
		t.Fatal("expected media stripped")
	}
	if stripped.WelcomePage.Narration != "Old hello" {
		t.Fatalf("expected narration untouched, got %q", stripped.WelcomePage.Narration)
	}
	if len(doc.WelcomePage.Media) != 1 {
		t.Fatal("strip mutated the source document")
	}
}
