// Package section turns the sorted catalog into the abstract block stream of
// the study document: the items section followed by the answers section,
// both numbered by one shared counter.
package section

import (
	"github.com/opencs408/workbook/internal/catalog"
	"github.com/opencs408/workbook/internal/images"
)

// BlockKind identifies the role of a block. The set is closed.
type BlockKind int

// Block kinds.
const (
	KindCoverTitle BlockKind = iota + 1
	KindCoverText
	KindSpacer
	KindItemsHeading
	KindGroupHeading
	KindSubgroupHeading
	KindItem
	KindChoice
	KindImage
	KindAnswersHeading
	KindAnswer
	KindExplanation
	KindPageBreak
)

var kindNames = map[BlockKind]string{
	KindCoverTitle:      "cover-title",
	KindCoverText:       "cover-text",
	KindSpacer:          "spacer",
	KindItemsHeading:    "items-heading",
	KindGroupHeading:    "group-heading",
	KindSubgroupHeading: "subgroup-heading",
	KindItem:            "item",
	KindChoice:          "choice",
	KindImage:           "image",
	KindAnswersHeading:  "answers-heading",
	KindAnswer:          "answer",
	KindExplanation:     "explanation",
	KindPageBreak:       "page-break",
}

// String returns the kebab-case name of k.
func (k BlockKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Block is one unit of document content prior to layout.
type Block struct {
	Kind     BlockKind
	Text     string
	Number   int     // shared counter value for KindItem and KindAnswer
	Letter   byte    // KindChoice
	Height   float64 // KindSpacer, in points
	Image    images.Asset
	Group    catalog.Group
	Subgroup string
	RecordID string
}
