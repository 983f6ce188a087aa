package interfaces

import (
	"context"

	"github.com/goliatone/go-narration/document"
)

// DocumentStore is the host application's persistence surface for the shared
// course-content document and its project metadata. The narration core only
// calls these; it never owns durable storage of the document itself.
type DocumentStore interface {
	// SaveContent persists the reconciled course-content document.
	SaveContent(ctx context.Context, content *document.CourseContent) error
	// LoadMetadata returns wizard bookkeeping (current step, flags) for the project.
	LoadMetadata(ctx context.Context) (map[string]any, error)
	// SaveMetadata applies a partial metadata patch.
	SaveMetadata(ctx context.Context, patch map[string]any) error
}
