package section

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/opencs408/workbook/internal/catalog"
	"github.com/opencs408/workbook/internal/images"
)

// mockResolver resolves the references listed in Known.
type mockResolver struct {
	Known map[string]images.Asset
	Calls []string
}

func (m *mockResolver) Resolve(ref string) images.Result {
	m.Calls = append(m.Calls, ref)
	if a, ok := m.Known[ref]; ok {
		return images.Result{Asset: a}
	}
	return images.Result{Err: fmt.Errorf("%w: %s", images.ErrUnresolvedAsset, ref)}
}

func published(id string, g catalog.Group, sub string) catalog.Record {
	return catalog.Record{
		ID:            id,
		Group:         g,
		Subgroup:      sub,
		Kind:          catalog.KindApplication,
		Status:        catalog.StatusPublished,
		Body:          "question " + id,
		CorrectAnswer: "answer " + id,
	}
}

func kinds(blocks []Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Kind.String()
	}
	return out
}

func build(t *testing.T, records []catalog.Record, opts ...Option) *Document {
	t.Helper()
	catalog.Sort(records)
	doc, err := NewBuilder(&mockResolver{}, opts...).Build(records)
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	return doc
}

func TestBuild_EndToEndExample(t *testing.T) {
	t.Parallel()

	doc := build(t, []catalog.Record{
		published("DS02000001", catalog.GroupDS, "02"),
		published("DS01000001", catalog.GroupDS, "01"),
	})

	want := []string{
		"group-heading",
		"subgroup-heading", "item",
		"subgroup-heading", "item",
		"page-break",
		"answers-heading", "answer", "answer",
	}
	if got := kinds(doc.Blocks); !slices.Equal(got, want) {
		t.Fatalf("Build() kinds =\n%v\nwant\n%v", got, want)
	}

	if doc.Blocks[0].Text != "数据结构" {
		t.Errorf("group heading = %q", doc.Blocks[0].Text)
	}
	if doc.Blocks[1].Text != catalog.GroupDS.ChapterName("01") || doc.Blocks[3].Text != catalog.GroupDS.ChapterName("02") {
		t.Errorf("subgroup headings = %q, %q", doc.Blocks[1].Text, doc.Blocks[3].Text)
	}
	if doc.Blocks[2].Number != 1 || doc.Blocks[4].Number != 2 {
		t.Errorf("item numbers = %d, %d, want 1, 2", doc.Blocks[2].Number, doc.Blocks[4].Number)
	}
	if doc.Blocks[7].Number != 1 || doc.Blocks[8].Number != 2 {
		t.Errorf("answer numbers = %d, %d, want 1, 2", doc.Blocks[7].Number, doc.Blocks[8].Number)
	}
	if doc.AnswersStart != 6 {
		t.Errorf("AnswersStart = %d, want 6", doc.AnswersStart)
	}
	if i, ok := doc.Index.Lookup(catalog.GroupDS, "02"); !ok || i != 3 {
		t.Errorf("Index DS/02 = %d, %v, want 3, true", i, ok)
	}
}

func TestBuild_SharedNumbering(t *testing.T) {
	t.Parallel()

	var records []catalog.Record
	for _, g := range []catalog.Group{catalog.GroupCN, catalog.GroupDS, catalog.GroupOS} {
		for _, sub := range []string{"03", "01", "02"} {
			for seq := 3; seq >= 1; seq-- {
				records = append(records, published(catalog.FormatID(g, sub, seq), g, sub))
			}
		}
	}
	doc := build(t, records)

	itemNumbers := make(map[string]int)
	answerNumbers := make(map[string]int)
	var seen []int
	for i, b := range doc.Blocks {
		switch b.Kind {
		case KindItem:
			if i >= doc.AnswersStart {
				t.Fatalf("item block %d after answers start", i)
			}
			itemNumbers[b.RecordID] = b.Number
			seen = append(seen, b.Number)
		case KindAnswer:
			answerNumbers[b.RecordID] = b.Number
		}
	}

	n := len(records)
	for i := 0; i < n; i++ {
		if seen[i] != i+1 {
			t.Fatalf("item numbers = %v, want 1..%d in order", seen, n)
		}
	}
	if len(answerNumbers) != n {
		t.Fatalf("%d answers, want %d", len(answerNumbers), n)
	}
	for id, num := range itemNumbers {
		if answerNumbers[id] != num {
			t.Errorf("record %s: item #%d, answer #%d", id, num, answerNumbers[id])
		}
		if got, _ := doc.NumberOf(id); got != num {
			t.Errorf("NumberOf(%s) = %d, want %d", id, got, num)
		}
	}
}

func TestBuild_GroupsContiguous(t *testing.T) {
	t.Parallel()

	records := []catalog.Record{
		published("OS01000001", catalog.GroupOS, "01"),
		published("DS02000001", catalog.GroupDS, "02"),
		published("OS01000002", catalog.GroupOS, "01"),
		published("DS01000001", catalog.GroupDS, "01"),
		published("DS02000002", catalog.GroupDS, "02"),
		published("CO04000001", catalog.GroupCO, "04"),
	}
	doc := build(t, records)

	type key struct {
		g   catalog.Group
		sub string
	}
	closed := make(map[key]bool)
	closedGroups := make(map[catalog.Group]bool)
	var cur key
	for _, b := range doc.Blocks[:doc.AnswersStart] {
		if b.Kind != KindItem {
			continue
		}
		k := key{b.Group, b.Subgroup}
		if k != cur {
			if closed[k] {
				t.Fatalf("subgroup %v reappears after being closed", k)
			}
			if k.g != cur.g {
				if closedGroups[k.g] {
					t.Fatalf("group %s reappears after being closed", k.g)
				}
				closedGroups[cur.g] = true
			}
			closed[cur] = true
			cur = k
		}
	}

	breaks := 0
	for _, b := range doc.Blocks {
		if b.Kind == KindPageBreak {
			breaks++
		}
	}
	if breaks != 3 {
		t.Errorf("page breaks = %d, want one per group (3)", breaks)
	}
	if last := doc.Blocks[doc.AnswersStart-1]; last.Kind != KindPageBreak {
		t.Errorf("items section ends with %s, want page-break", last.Kind)
	}
}

func TestBuild_Choices(t *testing.T) {
	t.Parallel()

	full := published("DS01000001", catalog.GroupDS, "01")
	full.Kind = catalog.KindSingleChoice
	full.ChoiceA, full.ChoiceB, full.ChoiceC, full.ChoiceD = "a", "b", "c", "d"

	gaps := published("DS01000002", catalog.GroupDS, "01")
	gaps.Kind = catalog.KindSingleChoice
	gaps.ChoiceA, gaps.ChoiceC = "a", "c"

	none := published("DS01000003", catalog.GroupDS, "01")
	none.Kind = catalog.KindSingleChoice

	doc := build(t, []catalog.Record{full, gaps, none})

	letters := make(map[string]string)
	for _, b := range doc.Blocks {
		if b.Kind == KindChoice {
			letters[b.RecordID] += string(b.Letter)
		}
	}
	if letters[full.ID] != "ABCD" {
		t.Errorf("full choices = %q, want ABCD", letters[full.ID])
	}
	if letters[gaps.ID] != "AC" {
		t.Errorf("gapped choices = %q, want AC", letters[gaps.ID])
	}
	if _, ok := letters[none.ID]; ok {
		t.Errorf("record without choices emitted %q", letters[none.ID])
	}
}

func TestBuild_Images(t *testing.T) {
	t.Parallel()

	withImage := published("DS01000001", catalog.GroupDS, "01")
	withImage.ImageRef = "assets/images/DS01000001.png"
	missing := published("DS01000002", catalog.GroupDS, "01")
	missing.ImageRef = "assets/images/gone.png"

	resolver := &mockResolver{Known: map[string]images.Asset{
		withImage.ImageRef: {Path: "/abs/DS01000001.png", Width: 100, Height: 50},
	}}
	var skipped []string
	records := []catalog.Record{withImage, missing}
	catalog.Sort(records)
	doc, err := NewBuilder(resolver, WithSkippedImageHook(func(rec catalog.Record, res images.Result) {
		skipped = append(skipped, rec.ID)
		if !errors.Is(res.Err, images.ErrUnresolvedAsset) {
			t.Errorf("hook error = %v", res.Err)
		}
	})).Build(records)
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}

	want := []string{
		"group-heading", "subgroup-heading",
		"item", "image",
		"item",
		"page-break",
		"answers-heading",
		"answer", "image",
		"answer",
	}
	if got := kinds(doc.Blocks); !slices.Equal(got, want) {
		t.Fatalf("kinds =\n%v\nwant\n%v", got, want)
	}
	if doc.Blocks[3].Image.Path != "/abs/DS01000001.png" {
		t.Errorf("image path = %q", doc.Blocks[3].Image.Path)
	}
	if !slices.Equal(skipped, []string{missing.ID, missing.ID}) {
		t.Errorf("skipped = %v, want missing image reported for both passes", skipped)
	}
}

func TestBuild_Explanation(t *testing.T) {
	t.Parallel()

	explained := published("CN01000001", catalog.GroupCN, "01")
	explained.Explanation = "because"
	blank := published("CN01000002", catalog.GroupCN, "01")
	blank.Explanation = "  \n"

	doc := build(t, []catalog.Record{explained, blank})
	got := kinds(doc.Blocks[doc.AnswersStart:])
	want := []string{"answers-heading", "answer", "explanation", "answer"}
	if !slices.Equal(got, want) {
		t.Errorf("answers kinds = %v, want %v", got, want)
	}
}

func TestBuild_DraftExcluded(t *testing.T) {
	t.Parallel()

	draft := published("DS01000002", catalog.GroupDS, "01")
	draft.Status = catalog.StatusDraft
	deprecated := published("DS01000003", catalog.GroupDS, "01")
	deprecated.Status = catalog.StatusDeprecated

	doc := build(t, []catalog.Record{
		published("DS01000001", catalog.GroupDS, "01"),
		draft,
		deprecated,
		published("DS01000004", catalog.GroupDS, "01"),
	})

	for _, b := range doc.Blocks {
		if b.RecordID == draft.ID || b.RecordID == deprecated.ID {
			t.Fatalf("ineligible record %s emitted as %s", b.RecordID, b.Kind)
		}
	}
	if n, _ := doc.NumberOf("DS01000004"); n != 2 {
		t.Errorf("number after draft = %d, want 2", n)
	}
	if len(doc.Assignments) != 2 {
		t.Errorf("assignments = %d, want 2", len(doc.Assignments))
	}
}

func TestBuild_Unsorted(t *testing.T) {
	t.Parallel()

	records := []catalog.Record{
		published("OS01000001", catalog.GroupOS, "01"),
		published("DS01000001", catalog.GroupDS, "01"),
	}
	_, err := NewBuilder(nil).Build(records)
	if !errors.Is(err, ErrUnsorted) {
		t.Errorf("Build() error = %v, want ErrUnsorted", err)
	}
}

func TestBuild_Empty(t *testing.T) {
	t.Parallel()

	doc, err := NewBuilder(nil).Build(nil)
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	if got := kinds(doc.Blocks); !slices.Equal(got, []string{"answers-heading"}) {
		t.Errorf("kinds = %v", got)
	}
}

func TestAnswersPass_OrderMismatch(t *testing.T) {
	t.Parallel()

	records := []catalog.Record{
		published("DS01000001", catalog.GroupDS, "01"),
		published("DS01000002", catalog.GroupDS, "01"),
	}
	b := NewBuilder(nil)

	_, err := b.answersPass(records, []Assignment{{"DS01000002", 1}, {"DS01000001", 2}})
	if !errors.Is(err, ErrOrderMismatch) {
		t.Errorf("swapped assignments error = %v, want ErrOrderMismatch", err)
	}
	_, err = b.answersPass(records, []Assignment{{"DS01000001", 1}})
	if !errors.Is(err, ErrOrderMismatch) {
		t.Errorf("short assignments error = %v, want ErrOrderMismatch", err)
	}
}

func TestCounter(t *testing.T) {
	t.Parallel()

	var c Counter
	if c.Last() != 0 {
		t.Errorf("zero Counter Last() = %d", c.Last())
	}
	for want := 1; want <= 3; want++ {
		if got := c.Next(); got != want {
			t.Errorf("Next() = %d, want %d", got, want)
		}
	}
	if c.Last() != 3 {
		t.Errorf("Last() = %d, want 3", c.Last())
	}
}

func TestCover(t *testing.T) {
	t.Parallel()

	blocks := Cover(CoverData{Title: "Open-CS-408", Subtitle: "习题册", Date: "生成时间：2026年10月19日"}, DefaultLabels())
	want := []string{"spacer", "cover-title", "cover-title", "spacer", "cover-text", "page-break", "items-heading"}
	if got := kinds(blocks); !slices.Equal(got, want) {
		t.Errorf("Cover() kinds = %v, want %v", got, want)
	}
	if blocks[len(blocks)-1].Text != "习题" {
		t.Errorf("items heading = %q", blocks[len(blocks)-1].Text)
	}

	minimal := Cover(CoverData{}, DefaultLabels())
	if got := kinds(minimal); !slices.Equal(got, []string{"spacer", "spacer", "page-break", "items-heading"}) {
		t.Errorf("empty Cover() kinds = %v", got)
	}
}

func TestBlockKind_String(t *testing.T) {
	t.Parallel()

	if KindPageBreak.String() != "page-break" {
		t.Errorf("KindPageBreak = %q", KindPageBreak.String())
	}
	if BlockKind(0).String() != "unknown" {
		t.Errorf("zero kind = %q", BlockKind(0).String())
	}
}
