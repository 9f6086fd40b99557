package main

import (
	"fmt"
	"io"
)

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: workbook [command] [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build      Build the study PDF (default)")
	fmt.Fprintln(w, "  import     Import records from a JSON file (overwrites by id)")
	fmt.Fprintln(w, "  export     Export all records as JSON")
	fmt.Fprintln(w, "  list       List records, with filters")
	fmt.Fprintln(w, "  new        Create a record with the next id of its chapter")
	fmt.Fprintln(w, "  update     Change fields of a record")
	fmt.Fprintln(w, "  delete     Delete a record and its image")
	fmt.Fprintln(w, "  duplicate  Copy a record as a new draft")
	fmt.Fprintln(w, "  stats      Show record counts")
	fmt.Fprintln(w, "  config     Print the effective configuration")
	fmt.Fprintln(w, "  doctor     Check Chrome, font, database and output")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'workbook help <command>' for details on a specific command.")
}

func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <path>       Config file (default: ./workbook.yaml, then user config dir)")
	fmt.Fprintln(w, "      --db <path>           Question database (env WORKBOOK_DB)")
	fmt.Fprintln(w, "  -q, --quiet               Only print errors")
	fmt.Fprintln(w, "  -v, --verbose             Print debug logs")
}

func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: workbook build [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build the study PDF from the published records.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -o, --output <path>       Output PDF (env WORKBOOK_OUTPUT)")
	fmt.Fprintln(w, "      --font <path>         CJK font file (env WORKBOOK_FONT)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Build timeout (e.g. 90s, 5m)")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: a4, letter, legal")
	fmt.Fprintln(w, "      --margin <f>          Margin in inches (0.25-3.0)")
	fmt.Fprintln(w, "      --date <s>            Cover date: \"auto\", \"auto:FORMAT\", literal")
	fmt.Fprintln(w, "                            Presets (case-insensitive): iso, european, us, long, cn")
	fmt.Fprintln(w, "      --keep-html           Write the HTML rendition next to the PDF")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

func printImportUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: workbook import <file.json> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Upsert records by id in one transaction. Records without id are skipped.")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

func printExportUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: workbook export [-o file.json] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Write all records, ordered by id, as a JSON array.")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

func printNewUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: workbook new --group <DS|CO|OS|CN> --chapter <NN> --body <text> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -k, --kind <s>            single_choice (default) or application")
	fmt.Fprintln(w, "      --status <s>          draft (default), published, deprecated")
	fmt.Fprintln(w, "      --option-a..d <s>     Choices of a single-choice record")
	fmt.Fprintln(w, "  -a, --answer <s>          Correct answer")
	fmt.Fprintln(w, "      --explanation <s>     Explanation")
	fmt.Fprintln(w, "      --knowledge <s>       Knowledge points")
	fmt.Fprintln(w, "      --notes <s>           Private notes")
	fmt.Fprintln(w, "      --image <path>        Image path")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

func printListUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: workbook list [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -g, --group <code>        Only this subject: DS, CO, OS, CN")
	fmt.Fprintln(w, "  -k, --kind <s>            Only single_choice or application")
	fmt.Fprintln(w, "      --status <s>          Only draft, published or deprecated")
	fmt.Fprintln(w, "  -s, --search <text>       Substring of the id, question text or answer")
	fmt.Fprintln(w, "      --json                JSON output")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

func printUpdateUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: workbook update <id> [field flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Only the given fields change. Subject and chapter are fixed by the id.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -k, --kind <s>            single_choice or application")
	fmt.Fprintln(w, "      --status <s>          draft, published, deprecated")
	fmt.Fprintln(w, "  -b, --body <s>            Question text")
	fmt.Fprintln(w, "      --option-a..d <s>     Choices of a single-choice record")
	fmt.Fprintln(w, "  -a, --answer <s>          Correct answer")
	fmt.Fprintln(w, "      --explanation <s>     Explanation")
	fmt.Fprintln(w, "      --knowledge <s>       Knowledge points")
	fmt.Fprintln(w, "      --notes <s>           Private notes")
	fmt.Fprintln(w, "      --image <path>        Image path (\"\" clears it)")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

func printDeleteUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: workbook delete <id> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Delete a record. The image file it references is removed too.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --keep-image          Leave the image file in place")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

func printDuplicateUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: workbook duplicate <id> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Copy a record under the next id of its chapter, as a draft.")
	fmt.Fprintln(w, "Its image is copied into images.dir.")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

func printStatsUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: workbook stats [--json] [flags]")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: workbook config [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the effective configuration as YAML.")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: workbook doctor [--json] [flags]")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

var commandUsage = map[string]func(io.Writer){
	"build":     printBuildUsage,
	"import":    printImportUsage,
	"export":    printExportUsage,
	"list":      printListUsage,
	"new":       printNewUsage,
	"update":    printUpdateUsage,
	"delete":    printDeleteUsage,
	"duplicate": printDuplicateUsage,
	"stats":     printStatsUsage,
	"config":    printConfigUsage,
	"doctor":    printDoctorUsage,
}

// runHelp prints the usage of a command, or the main usage.
func runHelp(args []string, env *Environment) {
	if len(args) > 0 {
		if usage, ok := commandUsage[args[0]]; ok {
			usage(env.Stdout)
			return
		}
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n\n", args[0])
	}
	printUsage(env.Stdout)
}
