package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateBlocks(t *testing.T) {
	good := []Block{
		{Type: BlockHeading, Text: "Packing 101", Level: 2},
		{Type: BlockParagraph, Text: "Start with the right box."},
		{Type: BlockList, Items: []string{"tape", "labels"}},
		{Type: BlockQuote, Text: "Measure twice, ship once."},
		{Type: BlockProTip, Text: "Reuse inbound boxes."},
		{Type: BlockImage, URL: "https://cdn/x.png", Alt: "a box"},
	}
	assert.NoError(t, ValidateBlocks(good))
}

func TestValidateBlocksRejects(t *testing.T) {
	cases := []struct {
		name  string
		block Block
	}{
		{"unknown type", Block{Type: "table"}},
		{"empty paragraph", Block{Type: BlockParagraph}},
		{"heading without level", Block{Type: BlockHeading, Text: "x"}},
		{"heading level out of range", Block{Type: BlockHeading, Text: "x", Level: 7}},
		{"empty list", Block{Type: BlockList}},
		{"list with empty item", Block{Type: BlockList, Items: []string{"a", ""}}},
		{"image without url", Block{Type: BlockImage, Alt: "x"}},
		{"empty protip", Block{Type: BlockProTip}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateBlocks([]Block{tc.block})
			assert.ErrorIs(t, err, ErrInvalidBlock)
		})
	}

	assert.ErrorIs(t, ValidateBlocks(nil), ErrInvalidBlock)
}
