package document

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-slug"
)

// NormalizePageID maps stored media page identifiers onto canonical page ids.
// Older projects recorded positional ids ("audio-0", "caption-3", "content-2")
// instead of page identifiers; position 0 is the welcome page, position 1 the
// objectives page, and position n maps to topic n-2.
func NormalizePageID(id string) string {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return ""
	}
	switch trimmed {
	case PageWelcome, "welcome-page", "content-0":
		return PageWelcome
	case PageObjectives, "learning-objectives", "learningObjectivesPage", "content-1":
		return PageObjectives
	}
	if strings.HasPrefix(trimmed, "topic-") {
		return trimmed
	}
	if index, ok := positionalIndex(trimmed); ok {
		switch index {
		case 0:
			return PageWelcome
		case 1:
			return PageObjectives
		default:
			return "topic-" + strconv.Itoa(index-2)
		}
	}
	return trimmed
}

// positionalIndex extracts the trailing index from legacy ids such as
// "audio-3" or "caption-0".
func positionalIndex(id string) (int, bool) {
	for _, prefix := range []string{"audio-", "caption-", "content-"} {
		if rest, ok := strings.CutPrefix(id, prefix); ok {
			index, err := strconv.Atoi(rest)
			if err != nil || index < 0 {
				return 0, false
			}
			return index, true
		}
	}
	return 0, false
}

// EnsureTopicIDs assigns a stable identifier to every topic missing one,
// deriving it from the topic title. Positional ids are used when the title
// produces no usable slug.
func EnsureTopicIDs(doc *CourseContent) {
	if doc == nil {
		return
	}
	for i, topic := range doc.Topics {
		if topic == nil || strings.TrimSpace(topic.ID) != "" {
			continue
		}
		topic.ID = topicID(topic.Title, i)
	}
}

func topicID(title string, position int) string {
	candidate := strings.TrimSpace(title)
	if candidate != "" {
		if normalized, err := slug.Default().Normalize(candidate); err == nil && normalized != "" {
			return normalized
		}
	}
	return "topic-" + strconv.Itoa(position)
}
