// Package outline attaches the navigation tree (PDF bookmarks) to a
// paginated workbook once its page count is known.
package outline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/opencs408/workbook/internal/catalog"
)

// ErrArtifactUnavailable is returned when the paginated artifact cannot be
// re-opened or has no pages. Nothing is written in that case.
var ErrArtifactUnavailable = errors.New("paginated artifact unavailable")

// Node is one entry of the navigation tree. Page is a 0-based physical page
// index fixed when the node is created.
type Node struct {
	Label    string
	Page     int
	Children []Node
}

// Writer reads page counts from and writes bookmarks into paginated
// artifacts.
type Writer interface {
	PageCount(path string) (int, error)
	// Write copies in to out with tree as its complete outline.
	Write(in, out string, tree []Node) error
}

// PagePolicy decides where outline anchors point.
type PagePolicy interface {
	// SubgroupPage returns the page of the i-th subgroup (0-based, in
	// sequence order across all groups).
	SubgroupPage(i int) int
	// AnswersPage returns the page of the answers section.
	AnswersPage(pageCount int) int
}

// OnePagePerSubgroup assumes the cover takes page 0 and every subgroup
// takes exactly one page after it. Subgroups that overflow a page, or share
// one, shift every later anchor. The answers anchor is the last page,
// pageCount-1.
//
// This approximation is kept because it defines the bookmark positions of
// existing workbooks. A policy fed with real block positions from the
// paginator can replace it.
type OnePagePerSubgroup struct{}

// SubgroupPage implements PagePolicy.
func (OnePagePerSubgroup) SubgroupPage(i int) int { return 1 + i }

// AnswersPage implements PagePolicy.
func (OnePagePerSubgroup) AnswersPage(pageCount int) int { return pageCount - 1 }

// Labels holds the top-level node titles.
type Labels struct {
	Items   string
	Answers string
}

// DefaultLabels returns the titles used by the study document.
func DefaultLabels() Labels {
	return Labels{Items: "习题", Answers: "答案解析"}
}

// Synchronizer builds the outline from the sorted records and writes it
// into a copy of the artifact.
type Synchronizer struct {
	Writer Writer
	Policy PagePolicy // nil means OnePagePerSubgroup
	Labels Labels     // zero value means DefaultLabels
	Logger *zap.Logger
}

// Sync opens in, builds the tree for sorted and writes the result to out.
// sorted must be the sequence given to the section builder.
func (s *Synchronizer) Sync(ctx context.Context, in, out string, sorted []catalog.Record) ([]Node, error) {
	if s.Writer == nil {
		return nil, fmt.Errorf("%w: no outline writer", ErrArtifactUnavailable)
	}

	pages, err := s.Writer.PageCount(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactUnavailable, err)
	}
	if pages <= 0 {
		return nil, fmt.Errorf("%w: %s has no pages", ErrArtifactUnavailable, in)
	}

	tree := Build(catalog.GroupRuns(catalog.Eligible(sorted)), pages, s.policy(), s.labels())

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.Writer.Write(in, out, tree); err != nil {
		return nil, fmt.Errorf("writing outline: %w", err)
	}

	s.logger().Debug("outline written",
		zap.String("path", out),
		zap.Int("pages", pages),
		zap.Int("nodes", Count(tree)))
	return tree, nil
}

func (s *Synchronizer) policy() PagePolicy {
	if s.Policy == nil {
		return OnePagePerSubgroup{}
	}
	return s.Policy
}

func (s *Synchronizer) labels() Labels {
	if s.Labels == (Labels{}) {
		return DefaultLabels()
	}
	return s.Labels
}

func (s *Synchronizer) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Build returns the two-branch tree: Items with one child per group and one
// grandchild per subgroup, then Answers. Anchors are clamped into
// [0, pageCount-1].
func Build(runs []catalog.GroupRun, pageCount int, policy PagePolicy, labels Labels) []Node {
	clamp := func(p int) int {
		return max(0, min(p, pageCount-1))
	}

	items := Node{Label: labels.Items, Page: clamp(policy.SubgroupPage(0))}
	i := 0
	for _, g := range runs {
		group := Node{Label: g.Group.Name(), Page: clamp(policy.SubgroupPage(i))}
		for _, sub := range g.Subgroups {
			group.Children = append(group.Children, Node{
				Label: g.Group.ChapterName(sub.Key),
				Page:  clamp(policy.SubgroupPage(i)),
			})
			i++
		}
		items.Children = append(items.Children, group)
	}

	answers := Node{Label: labels.Answers, Page: clamp(policy.AnswersPage(pageCount))}
	return []Node{items, answers}
}

// Count returns the number of nodes in tree.
func Count(tree []Node) int {
	n := len(tree)
	for _, c := range tree {
		n += Count(c.Children)
	}
	return n
}
