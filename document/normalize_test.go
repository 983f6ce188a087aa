package document_test

import (
	"testing"

	"github.com/goliatone/go-narration/document"
)

func TestNormalizePageIDLegacyMapping(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"welcome", "welcome"},
		{"welcome-page", "welcome"},
		{"content-0", "welcome"},
		{"audio-0", "welcome"},
		{"caption-0", "welcome"},
		{"objectives", "objectives"},
		{"learning-objectives", "objectives"},
		{"learningObjectivesPage", "objectives"},
		{"content-1", "objectives"},
		{"audio-1", "objectives"},
		{"audio-2", "topic-0"},
		{"caption-5", "topic-3"},
		{"content-4", "topic-2"},
		{"topic-7", "topic-7"},
		{"safety-basics", "safety-basics"},
		{"  welcome  ", "welcome"},
		{"", ""},
		{"audio-x", "audio-x"},
		{"audio--1", "audio--1"},
	}
	for _, tc := range cases {
		if got := document.NormalizePageID(tc.in); got != tc.want {
			t.Errorf("NormalizePageID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEnsureTopicIDsSlugsTitles(t *testing.T) {
	doc := &document.CourseContent{
		Topics: []*document.Page{
			{Title: "Fire Safety & You"},
			{ID: "keep-me", Title: "Ignored"},
			{Title: "   "},
			nil,
		},
	}
	document.EnsureTopicIDs(doc)

	if doc.Topics[0].ID == "" {
		t.Fatal("expected first topic to receive a slugged id")
	}
	if doc.Topics[1].ID != "keep-me" {
		t.Fatalf("expected existing id preserved, got %q", doc.Topics[1].ID)
	}
	if doc.Topics[2].ID != "topic-2" {
		t.Fatalf("expected positional fallback topic-2, got %q", doc.Topics[2].ID)
	}
}

func TestEnsureTopicIDsNilDocument(t *testing.T) {
	document.EnsureTopicIDs(nil)
}
