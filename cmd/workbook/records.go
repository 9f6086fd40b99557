package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/opencs408/workbook/internal/catalog"
	"github.com/opencs408/workbook/internal/fileutil"
	"github.com/opencs408/workbook/internal/hints"
	"github.com/opencs408/workbook/internal/store"
)

// runImport upserts the records of a JSON export file.
func runImport(ctx context.Context, args []string, env *Environment) error {
	c, _, rest, err := parseSimpleFlags("import", args, env.Stderr, printImportUsage)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return usageError(errors.New("import takes exactly one JSON file"))
	}

	data, err := os.ReadFile(rest[0]) // #nosec G304 -- user-provided import file
	if err != nil {
		return fmt.Errorf("reading %s: %w", rest[0], err)
	}
	var records []catalog.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("%w: %s is not a JSON array of records: %v", ErrUsage, rest[0], err)
	}

	sess, err := openSession(c, c.apply, false, env)
	if err != nil {
		return err
	}
	defer sess.Close()

	sum, err := sess.store.Import(ctx, records)
	if err != nil {
		return err
	}
	if !c.quiet {
		fmt.Fprintf(env.Stdout, "imported: %d new, %d overwritten, %d skipped without id\n",
			sum.Inserted, sum.Updated, sum.Skipped)
	}
	return nil
}

// runExport writes every record as a JSON array ordered by id.
func runExport(ctx context.Context, args []string, env *Environment) error {
	c, s, rest, err := parseSimpleFlags("export", args, env.Stderr, printExportUsage)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return usageError(fmt.Errorf("unexpected arguments: %v", rest))
	}

	sess, err := openSession(c, c.apply, true, env)
	if err != nil {
		return err
	}
	defer sess.Close()

	records, err := sess.store.Export(ctx)
	if err != nil {
		return err
	}
	if records == nil {
		records = []catalog.Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	if s.output == "" {
		_, err = env.Stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(s.output, buf.Bytes(), 0o644); err != nil { // #nosec G306 -- export is meant to be shared
		return withHint(fmt.Errorf("writing %s: %w", s.output, err), hints.ForOutputDirectory())
	}
	if !c.quiet {
		fmt.Fprintf(env.Stdout, "exported %d records to %s\n", len(records), s.output)
	}
	return nil
}

// runNew creates a record with the next identifier of its chapter.
func runNew(ctx context.Context, args []string, env *Environment) error {
	f, err := parseNewFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	sess, err := openSession(&f.common, f.common.apply, false, env)
	if err != nil {
		return err
	}
	defer sess.Close()

	rec, err := sess.store.Create(ctx, catalog.Record{
		Group:         catalog.Group(f.group),
		Subgroup:      f.chapter,
		Kind:          catalog.Kind(f.kind),
		Status:        catalog.Status(f.status),
		Body:          f.body,
		ChoiceA:       f.choices[0],
		ChoiceB:       f.choices[1],
		ChoiceC:       f.choices[2],
		ChoiceD:       f.choices[3],
		CorrectAnswer: f.answer,
		Explanation:   f.explanation,
		Knowledge:     f.knowledge,
		Notes:         f.notes,
		ImageRef:      f.image,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateIdentifier) {
			return withHint(err, hints.ForDuplicateIdentifier())
		}
		return err
	}
	fmt.Fprintln(env.Stdout, rec.ID)
	return nil
}

// runDuplicate copies a record, and its image, under a new identifier.
func runDuplicate(ctx context.Context, args []string, env *Environment) error {
	c, _, rest, err := parseSimpleFlags("duplicate", args, env.Stderr, printDuplicateUsage)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return usageError(errors.New("duplicate takes exactly one record id"))
	}

	sess, err := openSession(c, c.apply, true, env)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := os.MkdirAll(sess.cfg.Images.Dir, 0o750); err != nil {
		return fmt.Errorf("creating image directory: %w", err)
	}
	rec, err := sess.store.Duplicate(ctx, rest[0], sess.cfg.Images.Dir)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateIdentifier) {
			return withHint(err, hints.ForDuplicateIdentifier())
		}
		return err
	}
	fmt.Fprintln(env.Stdout, rec.ID)
	return nil
}

// runList prints the records matching the filters, ordered by id.
func runList(ctx context.Context, args []string, env *Environment) error {
	f, err := parseListFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	sess, err := openSession(&f.common, f.common.apply, true, env)
	if err != nil {
		return err
	}
	defer sess.Close()

	records, err := sess.store.List(ctx, store.Filter{
		Group:  catalog.Group(f.group),
		Kind:   catalog.Kind(f.kind),
		Status: catalog.Status(f.status),
		Search: f.search,
	})
	if err != nil {
		return err
	}
	if f.json {
		if records == nil {
			records = []catalog.Record{}
		}
		enc := json.NewEncoder(env.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	printList(env.Stdout, records)
	return nil
}

const previewRunes = 80

func printList(w io.Writer, records []catalog.Record) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t科目\t章节\t题型\t状态\t题干")
	for i := range records {
		r := &records[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Group.Name(),
			r.Group.ChapterName(r.Subgroup), r.Kind.Label(), r.Status, preview(r.Body))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d records\n", len(records))
}

// preview flattens s to one line of at most previewRunes runes.
func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= previewRunes {
		return s
	}
	return string([]rune(s)[:previewRunes]) + "..."
}

// runUpdate overwrites the given fields of a stored record.
func runUpdate(ctx context.Context, args []string, env *Environment) error {
	f, id, err := parseUpdateFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	sess, err := openSession(&f.common, f.common.apply, true, env)
	if err != nil {
		return err
	}
	defer sess.Close()

	rec, err := sess.store.Get(ctx, id)
	if err != nil {
		return err
	}
	f.apply(&rec)
	if err := sess.store.Update(ctx, rec); err != nil {
		return err
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "updated %s\n", rec.ID)
	}
	return nil
}

// runDelete removes a record and the image it references.
func runDelete(ctx context.Context, args []string, env *Environment) error {
	f, err := parseDeleteFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	sess, err := openSession(&f.common, f.common.apply, true, env)
	if err != nil {
		return err
	}
	defer sess.Close()

	rec, err := sess.store.Get(ctx, f.id)
	if err != nil {
		return err
	}
	if err := sess.store.Delete(ctx, rec.ID); err != nil {
		return err
	}
	if rec.ImageRef != "" && !f.keepImage && fileutil.FileExists(rec.ImageRef) {
		// The record is gone already; a stale image only costs disk space.
		if err := os.Remove(rec.ImageRef); err != nil {
			sess.logger.Warn("could not remove image", zap.String("path", rec.ImageRef), zap.Error(err))
		}
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "deleted %s\n", rec.ID)
	}
	return nil
}

// runStats prints record counts per subject and type.
func runStats(ctx context.Context, args []string, env *Environment) error {
	c, s, rest, err := parseSimpleFlags("stats", args, env.Stderr, printStatsUsage)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return usageError(fmt.Errorf("unexpected arguments: %v", rest))
	}

	sess, err := openSession(c, c.apply, true, env)
	if err != nil {
		return err
	}
	defer sess.Close()

	st, err := sess.store.Stats(ctx)
	if err != nil {
		return err
	}
	if s.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(statsJSON(st))
	}
	printStats(env.Stdout, st)
	return nil
}

type groupStatsJSON struct {
	Code  string         `json:"code"`
	Name  string         `json:"name"`
	Total int            `json:"total"`
	Types map[string]int `json:"types"`
}

type statsOutput struct {
	Total    int              `json:"total_questions"`
	ByStatus map[string]int   `json:"status"`
	Subjects []groupStatsJSON `json:"subjects"`
}

func statsJSON(st store.Stats) statsOutput {
	out := statsOutput{Total: st.Total, ByStatus: make(map[string]int)}
	for k, v := range st.ByStatus {
		out.ByStatus[string(k)] = v
	}
	for _, g := range st.Groups {
		types := make(map[string]int)
		for k, v := range g.Kinds {
			types[k.Label()] = v
		}
		out.Subjects = append(out.Subjects, groupStatsJSON{Code: string(g.Group), Name: g.Name, Total: g.Total, Types: types})
	}
	return out
}

func printStats(w io.Writer, st store.Stats) {
	fmt.Fprintf(w, "总题目数: %d\n", st.Total)
	statuses := make([]string, 0, len(st.ByStatus))
	for k := range st.ByStatus {
		statuses = append(statuses, string(k))
	}
	sort.Strings(statuses)
	for _, k := range statuses {
		fmt.Fprintf(w, "  %s: %d\n", k, st.ByStatus[catalog.Status(k)])
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "科目\t总数\t单选题\t应用题")
	for _, g := range st.Groups {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", g.Name, g.Total,
			g.Kinds[catalog.KindSingleChoice], g.Kinds[catalog.KindApplication])
	}
	_ = tw.Flush()
}
