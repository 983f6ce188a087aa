package media_test

import (
	"testing"

	media "github.com/goliatone/go-narration/internal/media"
	"github.com/goliatone/go-narration/pkg/interfaces"
)

func audioAtt(block, id string) *media.Attachment {
	return &media.Attachment{BlockNumber: block, MediaID: id, Kind: interfaces.MediaKindAudio}
}

func captionAtt(block, id string) *media.Attachment {
	return &media.Attachment{BlockNumber: block, MediaID: id, Kind: interfaces.MediaKindCaption}
}

func TestLibraryPutOverwrites(t *testing.T) {
	lib := media.NewLibrary()
	lib.Put(audioAtt("0001", "a"))
	lib.Put(audioAtt("0001", "b"))

	att, ok := lib.Get(interfaces.MediaKindAudio, "0001")
	if !ok || att.MediaID != "b" {
		t.Fatalf("expected put to overwrite, got %+v ok=%v", att, ok)
	}
}

func TestLibraryGetReturnsCopies(t *testing.T) {
	lib := media.NewLibrary()
	lib.Put(audioAtt("0001", "a"))

	att, _ := lib.Get(interfaces.MediaKindAudio, "0001")
	att.MediaID = "mutated"

	again, _ := lib.Get(interfaces.MediaKindAudio, "0001")
	if again.MediaID != "a" {
		t.Fatalf("expected stored attachment unchanged, got %s", again.MediaID)
	}
}

func TestLibraryMergeNeverClobbers(t *testing.T) {
	lib := media.NewLibrary()
	lib.Put(audioAtt("0001", "existing"))

	added := lib.Merge([]*media.Attachment{
		audioAtt("0001", "loaded"),
		audioAtt("0002", "new"),
		captionAtt("0001", "cap"),
		nil,
		{Kind: interfaces.MediaKindAudio, MediaID: "blockless"},
	})
	if added != 2 {
		t.Fatalf("expected 2 added, got %d", added)
	}

	att, _ := lib.Get(interfaces.MediaKindAudio, "0001")
	if att.MediaID != "existing" {
		t.Fatalf("merge clobbered existing attachment: %s", att.MediaID)
	}
	if _, ok := lib.Get(interfaces.MediaKindAudio, "0002"); !ok {
		t.Fatal("expected merged attachment for empty slot")
	}
	if _, ok := lib.Get(interfaces.MediaKindCaption, "0001"); !ok {
		t.Fatal("expected caption merged independently of audio")
	}
}

func TestLibraryReplaceSwapsWholeKind(t *testing.T) {
	lib := media.NewLibrary()
	lib.Put(audioAtt("0001", "old-1"))
	lib.Put(audioAtt("0002", "old-2"))
	lib.Put(captionAtt("0001", "cap"))

	displaced := lib.Replace(interfaces.MediaKindAudio, []*media.Attachment{
		audioAtt("0002", "new-2"),
		audioAtt("0003", "new-3"),
	})
	if len(displaced) != 2 {
		t.Fatalf("expected 2 displaced, got %d", len(displaced))
	}
	if displaced[0].BlockNumber != "0001" || displaced[1].BlockNumber != "0002" {
		t.Fatalf("expected displaced sorted by block, got %+v", displaced)
	}

	if _, ok := lib.Get(interfaces.MediaKindAudio, "0001"); ok {
		t.Fatal("expected block 0001 audio removed by replace")
	}
	att, _ := lib.Get(interfaces.MediaKindAudio, "0002")
	if att == nil || att.MediaID != "new-2" {
		t.Fatalf("expected replacement attachment, got %+v", att)
	}
	if _, ok := lib.Get(interfaces.MediaKindCaption, "0001"); !ok {
		t.Fatal("replace of audio must not touch captions")
	}
}

func TestLibraryRemoveAndClear(t *testing.T) {
	lib := media.NewLibrary()
	lib.Put(audioAtt("0001", "a"))
	lib.Put(captionAtt("0002", "c"))

	removed, ok := lib.Remove(interfaces.MediaKindAudio, "0001")
	if !ok || removed.MediaID != "a" {
		t.Fatalf("expected removal of a, got %+v ok=%v", removed, ok)
	}
	if _, ok := lib.Remove(interfaces.MediaKindAudio, "0001"); ok {
		t.Fatal("second removal should miss")
	}

	cleared := lib.Clear()
	if len(cleared) != 1 || cleared[0].MediaID != "c" {
		t.Fatalf("expected clear to return remaining caption, got %+v", cleared)
	}
	if !lib.Empty() {
		t.Fatal("expected empty library after clear")
	}
}

func TestLibraryAllSorted(t *testing.T) {
	lib := media.NewLibrary()
	lib.Put(audioAtt("0003", "c"))
	lib.Put(audioAtt("0001", "a"))
	lib.Put(audioAtt("0002", "b"))

	all := lib.All(interfaces.MediaKindAudio)
	if len(all) != 3 {
		t.Fatalf("expected 3 attachments, got %d", len(all))
	}
	for i, want := range []string{"0001", "0002", "0003"} {
		if all[i].BlockNumber != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, all[i].BlockNumber)
		}
	}
}
