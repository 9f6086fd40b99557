package section

// CoverData holds the texts of the cover page.
type CoverData struct {
	Title    string
	Subtitle string
	Date     string // already formatted
}

// Cover returns the block sequence prepended once before the sections: the
// cover page, a page break, and the items section heading that opens the
// first content page.
func Cover(c CoverData, labels Labels) []Block {
	blocks := []Block{{Kind: KindSpacer, Height: 108}}
	if c.Title != "" {
		blocks = append(blocks, Block{Kind: KindCoverTitle, Text: c.Title})
	}
	if c.Subtitle != "" {
		blocks = append(blocks, Block{Kind: KindCoverTitle, Text: c.Subtitle})
	}
	blocks = append(blocks, Block{Kind: KindSpacer, Height: 36})
	if c.Date != "" {
		blocks = append(blocks, Block{Kind: KindCoverText, Text: c.Date})
	}
	return append(blocks,
		Block{Kind: KindPageBreak},
		Block{Kind: KindItemsHeading, Text: labels.Items},
	)
}
