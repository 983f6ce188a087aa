package document

// Canonical page identifiers for the two fixed course pages. Topic pages use
// the topic's own identifier.
const (
	PageWelcome    = "welcome"
	PageObjectives = "objectives"
)

// CourseContent is the shared course-content document owned by the host
// application. The narration core reads it to derive blocks and writes it
// back through the reconciliation engine; it never persists it directly.
type CourseContent struct {
	WelcomePage            *Page   `json:"welcomePage,omitempty"`
	LearningObjectivesPage *Page   `json:"learningObjectivesPage,omitempty"`
	Topics                 []*Page `json:"topics,omitempty"`
}

// Page is one narration-bearing unit of the document: the welcome page, the
// learning objectives page, or a topic.
type Page struct {
	ID        string       `json:"id,omitempty"`
	Title     string       `json:"title,omitempty"`
	Narration string       `json:"narration,omitempty"`
	Media     []MediaEntry `json:"media,omitempty"`
}

// MediaEntry is the durable reference a page keeps to a stored media item.
// Content optionally embeds small text payloads (captions) directly.
type MediaEntry struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	StorageID string `json:"storageId"`
	Title     string `json:"title,omitempty"`
	Content   string `json:"content,omitempty"`
}

// Clone performs a deep copy so reconciliation can mutate a snapshot without
// sharing slices with the caller's document.
func Clone(src *CourseContent) *CourseContent {
	if src == nil {
		return nil
	}
	cloned := &CourseContent{
		WelcomePage:            clonePage(src.WelcomePage),
		LearningObjectivesPage: clonePage(src.LearningObjectivesPage),
	}
	if len(src.Topics) > 0 {
		cloned.Topics = make([]*Page, len(src.Topics))
		for i, topic := range src.Topics {
			cloned.Topics[i] = clonePage(topic)
		}
	}
	return cloned
}

func clonePage(src *Page) *Page {
	if src == nil {
		return nil
	}
	cloned := &Page{
		ID:        src.ID,
		Title:     src.Title,
		Narration: src.Narration,
	}
	if len(src.Media) > 0 {
		cloned.Media = append([]MediaEntry(nil), src.Media...)
	}
	return cloned
}

// FindPage locates a page by its canonical identifier, checking the fixed
// pages first and falling back to topics in document order.
func (c *CourseContent) FindPage(pageID string) *Page {
	if c == nil {
		return nil
	}
	switch pageID {
	case PageWelcome:
		return c.WelcomePage
	case PageObjectives:
		return c.LearningObjectivesPage
	}
	for _, topic := range c.Topics {
		if topic != nil && topic.ID == pageID {
			return topic
		}
	}
	return nil
}

// Pages returns every page present in the document in narration order.
func (c *CourseContent) Pages() []*Page {
	if c == nil {
		return nil
	}
	out := make([]*Page, 0, len(c.Topics)+2)
	if c.WelcomePage != nil {
		out = append(out, c.WelcomePage)
	}
	if c.LearningObjectivesPage != nil {
		out = append(out, c.LearningObjectivesPage)
	}
	for _, topic := range c.Topics {
		if topic != nil {
			out = append(out, topic)
		}
	}
	return out
}

// ReplaceMedia removes any existing entry of the same type before appending,
// keeping at most one entry per type on a page. Calling it repeatedly with
// the same entry is a no-op beyond the first call.
func (p *Page) ReplaceMedia(entry MediaEntry) {
	if p == nil {
		return
	}
	p.RemoveMediaOfType(entry.Type)
	p.Media = append(p.Media, entry)
}

// RemoveMediaOfType drops every entry of the given type from the page.
func (p *Page) RemoveMediaOfType(mediaType string) {
	if p == nil || len(p.Media) == 0 {
		return
	}
	kept := p.Media[:0]
	for _, entry := range p.Media {
		if entry.Type != mediaType {
			kept = append(kept, entry)
		}
	}
	p.Media = kept
}

// MediaOfType returns the page's entry of the given type, if present.
func (p *Page) MediaOfType(mediaType string) (MediaEntry, bool) {
	if p == nil {
		return MediaEntry{}, false
	}
	for _, entry := range p.Media {
		if entry.Type == mediaType {
			return entry, true
		}
	}
	return MediaEntry{}, false
}
