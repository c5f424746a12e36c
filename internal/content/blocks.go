package content

import (
	"errors"
	"fmt"
)

// BlockType tags the union of content blocks a blog post body is made of.
// Posts are validated on write, so render paths never meet a malformed block.
type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockHeading   BlockType = "heading"
	BlockList      BlockType = "list"
	BlockQuote     BlockType = "quote"
	BlockProTip    BlockType = "protip"
	BlockImage     BlockType = "image"
)

type Block struct {
	Type  BlockType `json:"type"`
	Text  string    `json:"text,omitempty"`  // paragraph, heading, quote, protip
	Level int       `json:"level,omitempty"` // heading: 2..4
	Items []string  `json:"items,omitempty"` // list
	URL   string    `json:"url,omitempty"`   // image
	Alt   string    `json:"alt,omitempty"`   // image
}

var ErrInvalidBlock = errors.New("invalid content block")

func (b Block) Validate() error {
	switch b.Type {
	case BlockParagraph, BlockQuote, BlockProTip:
		if b.Text == "" {
			return fmt.Errorf("%w: %s requires text", ErrInvalidBlock, b.Type)
		}
	case BlockHeading:
		if b.Text == "" {
			return fmt.Errorf("%w: heading requires text", ErrInvalidBlock)
		}
		if b.Level < 2 || b.Level > 4 {
			return fmt.Errorf("%w: heading level %d out of range", ErrInvalidBlock, b.Level)
		}
	case BlockList:
		if len(b.Items) == 0 {
			return fmt.Errorf("%w: list requires items", ErrInvalidBlock)
		}
		for _, it := range b.Items {
			if it == "" {
				return fmt.Errorf("%w: empty list item", ErrInvalidBlock)
			}
		}
	case BlockImage:
		if b.URL == "" {
			return fmt.Errorf("%w: image requires url", ErrInvalidBlock)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidBlock, b.Type)
	}
	return nil
}

func ValidateBlocks(blocks []Block) error {
	if len(blocks) == 0 {
		return fmt.Errorf("%w: post body is empty", ErrInvalidBlock)
	}
	for i, b := range blocks {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}
	return nil
}
