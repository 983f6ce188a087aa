package blocks

import (
	"fmt"

	"github.com/google/uuid"
)

// Block is one narration unit: the welcome page, the objectives page, or one
// topic. BlockNumber is the positional 4-digit address every other component
// uses to refer to the block; reordering topics reorders block numbers.
type Block struct {
	ID          uuid.UUID `json:"id"`
	BlockNumber string    `json:"block_number"`
	PageID      string    `json:"page_id"`
	PageTitle   string    `json:"page_title,omitempty"`
	Text        string    `json:"text"`
}

// FormatNumber renders a 1-based position as a zero-padded block number.
func FormatNumber(position int) string {
	return fmt.Sprintf("%04d", position)
}

// FindByNumber returns the block addressed by the given 4-digit number.
func FindByNumber(list []Block, number string) (Block, bool) {
	for _, block := range list {
		if block.BlockNumber == number {
			return block, true
		}
	}
	return Block{}, false
}

// FindByPageID returns the block derived from the given canonical page id.
func FindByPageID(list []Block, pageID string) (Block, bool) {
	for _, block := range list {
		if block.PageID == pageID {
			return block, true
		}
	}
	return Block{}, false
}
