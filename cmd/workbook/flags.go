package main

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/opencs408/workbook/internal/catalog"
	"github.com/opencs408/workbook/internal/config"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	db      string
	quiet   bool
	verbose bool
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file path")
	fs.StringVar(&f.db, "db", "", "question database path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only print errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "print debug logs")
}

// apply merges the flags into cfg. Flags win over file and environment.
func (f *commonFlags) apply(cfg *config.Config) {
	if f.db != "" {
		cfg.Database.Path = f.db
	}
	switch {
	case f.quiet:
		cfg.Logging.ConsoleLogger.Level = config.LevelNone
	case f.verbose:
		cfg.Logging.ConsoleLogger.Level = config.LevelDebug
	}
}

// buildFlags holds the build command flags.
type buildFlags struct {
	common   commonFlags
	output   string
	font     string
	timeout  string
	pageSize string
	margin   float64
	date     string
	keepHTML bool
}

func parseBuildFlags(args []string, stderr io.Writer) (*buildFlags, []string, error) {
	fs := newFlagSet("build", stderr, printBuildUsage)
	f := &buildFlags{}
	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.output, "output", "o", "", "output PDF path")
	fs.StringVar(&f.font, "font", "", "CJK font file (TTF/OTF)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "build timeout (e.g. 90s, 5m)")
	fs.StringVarP(&f.pageSize, "page-size", "p", "", "page size: a4, letter, legal")
	fs.Float64Var(&f.margin, "margin", 0, "margin in inches (0.25-3.0)")
	fs.StringVar(&f.date, "date", "", "cover date: \"auto\", \"auto:FORMAT\", literal or \"\"")
	fs.BoolVar(&f.keepHTML, "keep-html", false, "write the HTML rendition next to the PDF")

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// apply merges the build flags into cfg.
func (f *buildFlags) apply(cfg *config.Config) {
	f.common.apply(cfg)
	if f.output != "" {
		cfg.Output.Path = f.output
	}
	if f.font != "" {
		cfg.Font.Path = f.font
	}
	if f.timeout != "" {
		cfg.Browser.Timeout = f.timeout
	}
	if f.pageSize != "" {
		cfg.Page.Size = f.pageSize
	}
	if f.margin != 0 {
		cfg.Page.Margin = f.margin
	}
	if f.date != "" {
		cfg.Cover.Date = f.date
	}
	if f.keepHTML {
		cfg.Output.KeepHTML = true
	}
}

// recordFlags holds the fields accepted by the new command.
type recordFlags struct {
	common      commonFlags
	group       string
	chapter     string
	kind        string
	status      string
	body        string
	choices     [4]string
	answer      string
	explanation string
	knowledge   string
	notes       string
	image       string

	changed func(name string) bool // set by parseUpdateFlags
}

// addRecordFlags registers the editable fields of a record.
func addRecordFlags(fs *flag.FlagSet, f *recordFlags) {
	fs.StringVarP(&f.kind, "kind", "k", string(catalog.KindSingleChoice), "single_choice or application")
	fs.StringVar(&f.status, "status", string(catalog.StatusDraft), "draft, published or deprecated")
	fs.StringVarP(&f.body, "body", "b", "", "question text")
	for i, letter := range []string{"a", "b", "c", "d"} {
		fs.StringVar(&f.choices[i], "option-"+letter, "", "choice "+letter)
	}
	fs.StringVarP(&f.answer, "answer", "a", "", "correct answer")
	fs.StringVar(&f.explanation, "explanation", "", "explanation")
	fs.StringVar(&f.knowledge, "knowledge", "", "knowledge points")
	fs.StringVar(&f.notes, "notes", "", "private notes")
	fs.StringVar(&f.image, "image", "", "image path")
}

func parseNewFlags(args []string, stderr io.Writer) (*recordFlags, error) {
	fs := newFlagSet("new", stderr, printNewUsage)
	f := &recordFlags{}
	addCommonFlags(fs, &f.common)
	addRecordFlags(fs, f)
	fs.StringVarP(&f.group, "group", "g", "", "subject code: DS, CO, OS, CN")
	fs.StringVar(&f.chapter, "chapter", "", "two-digit chapter number, e.g. 03")

	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	if len(fs.Args()) > 0 {
		return nil, usageError(fmt.Errorf("unexpected arguments: %v", fs.Args()))
	}
	if f.group == "" || f.chapter == "" || f.body == "" {
		return nil, usageError(fmt.Errorf("--group, --chapter and --body are required"))
	}
	return f, nil
}

// parseUpdateFlags parses "update <id>". Only the flags given on the
// command line are applied to the stored record.
func parseUpdateFlags(args []string, stderr io.Writer) (*recordFlags, string, error) {
	fs := newFlagSet("update", stderr, printUpdateUsage)
	f := &recordFlags{}
	addCommonFlags(fs, &f.common)
	addRecordFlags(fs, f)

	if err := fs.Parse(args); err != nil {
		return nil, "", usageError(err)
	}
	if fs.NArg() != 1 {
		return nil, "", usageError(fmt.Errorf("update takes exactly one record id"))
	}
	f.changed = func(name string) bool { return fs.Changed(name) }
	if fs.NFlag() == countCommon(fs) {
		return nil, "", usageError(fmt.Errorf("nothing to update: give at least one field flag"))
	}
	return f, fs.Arg(0), nil
}

// countCommon returns how many of the set flags are common flags.
func countCommon(fs *flag.FlagSet) int {
	n := 0
	for _, name := range []string{"config", "db", "quiet", "verbose"} {
		if fs.Changed(name) {
			n++
		}
	}
	return n
}

// apply overwrites the fields of rec whose flags were set.
func (f *recordFlags) apply(rec *catalog.Record) {
	set := func(name string, dst *string, v string) {
		if f.changed(name) {
			*dst = v
		}
	}
	if f.changed("kind") {
		rec.Kind = catalog.Kind(f.kind)
	}
	if f.changed("status") {
		rec.Status = catalog.Status(f.status)
	}
	set("body", &rec.Body, f.body)
	set("option-a", &rec.ChoiceA, f.choices[0])
	set("option-b", &rec.ChoiceB, f.choices[1])
	set("option-c", &rec.ChoiceC, f.choices[2])
	set("option-d", &rec.ChoiceD, f.choices[3])
	set("answer", &rec.CorrectAnswer, f.answer)
	set("explanation", &rec.Explanation, f.explanation)
	set("knowledge", &rec.Knowledge, f.knowledge)
	set("notes", &rec.Notes, f.notes)
	set("image", &rec.ImageRef, f.image)
}

// listFlags holds the list command filters.
type listFlags struct {
	common commonFlags
	group  string
	kind   string
	status string
	search string
	json   bool
}

func parseListFlags(args []string, stderr io.Writer) (*listFlags, error) {
	fs := newFlagSet("list", stderr, printListUsage)
	f := &listFlags{}
	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.group, "group", "g", "", "only this subject code")
	fs.StringVarP(&f.kind, "kind", "k", "", "only this question type")
	fs.StringVar(&f.status, "status", "", "only this status")
	fs.StringVarP(&f.search, "search", "s", "", "substring of id, question text or answer")
	fs.BoolVar(&f.json, "json", false, "JSON output")

	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	if fs.NArg() > 0 {
		return nil, usageError(fmt.Errorf("unexpected arguments: %v", fs.Args()))
	}
	if f.group != "" && !catalog.Group(f.group).Valid() {
		return nil, usageError(fmt.Errorf("%w: %q", catalog.ErrUnknownGroup, f.group))
	}
	if f.kind != "" && !catalog.Kind(f.kind).Valid() {
		return nil, usageError(fmt.Errorf("%w: %q", catalog.ErrInvalidKind, f.kind))
	}
	if f.status != "" && !catalog.Status(f.status).Valid() {
		return nil, usageError(fmt.Errorf("%w: %q", catalog.ErrInvalidStatus, f.status))
	}
	return f, nil
}

// deleteFlags holds the delete command flags.
type deleteFlags struct {
	common    commonFlags
	id        string
	keepImage bool
}

func parseDeleteFlags(args []string, stderr io.Writer) (*deleteFlags, error) {
	fs := newFlagSet("delete", stderr, printDeleteUsage)
	f := &deleteFlags{}
	addCommonFlags(fs, &f.common)
	fs.BoolVar(&f.keepImage, "keep-image", false, "leave the image file in place")

	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	if fs.NArg() != 1 {
		return nil, usageError(fmt.Errorf("delete takes exactly one record id"))
	}
	f.id = fs.Arg(0)
	return f, nil
}

// parseSimpleFlags parses commands taking only common flags, an optional
// output and an optional --json switch.
func parseSimpleFlags(name string, args []string, stderr io.Writer, usage func(io.Writer)) (*commonFlags, *simpleFlags, []string, error) {
	fs := newFlagSet(name, stderr, usage)
	c := &commonFlags{}
	s := &simpleFlags{}
	addCommonFlags(fs, c)
	fs.StringVarP(&s.output, "output", "o", "", "output file (default stdout)")
	fs.BoolVar(&s.json, "json", false, "JSON output")
	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, usageError(err)
	}
	return c, s, fs.Args(), nil
}

type simpleFlags struct {
	output string
	json   bool
}

func newFlagSet(name string, stderr io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	return fs
}
