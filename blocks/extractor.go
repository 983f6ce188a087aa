package blocks

import (
	"github.com/goliatone/go-narration/document"
	"github.com/goliatone/go-narration/internal/identity"
)

// Extract derives the ordered narration blocks from a course-content
// document. It is pure and total: nil or partial documents produce as many
// blocks as can be identified, never an error. Welcome and objectives pages
// always yield a block when present, even with empty narration, because
// downstream media addressing depends on their positional numbers existing
// before any narration is authored.
func Extract(doc *document.CourseContent) []Block {
	if doc == nil {
		return nil
	}
	document.EnsureTopicIDs(doc)

	out := make([]Block, 0, len(doc.Topics)+2)
	position := 1
	if doc.WelcomePage != nil {
		out = append(out, newBlock(position, document.PageWelcome, doc.WelcomePage))
		position++
	}
	if doc.LearningObjectivesPage != nil {
		out = append(out, newBlock(position, document.PageObjectives, doc.LearningObjectivesPage))
		position++
	}
	for _, topic := range doc.Topics {
		if topic == nil {
			continue
		}
		out = append(out, newBlock(position, topic.ID, topic))
		position++
	}
	return out
}

func newBlock(position int, pageID string, page *document.Page) Block {
	return Block{
		ID:          identity.BlockUUID(pageID),
		BlockNumber: FormatNumber(position),
		PageID:      pageID,
		PageTitle:   page.Title,
		Text:        page.Narration,
	}
}
