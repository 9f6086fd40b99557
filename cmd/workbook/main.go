// Command workbook builds the Open-CS-408 study PDF from the question bank
// and manages the bank's records.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// maxprocs.Set only fails on an invalid GOMAXPROCS; runtime defaults apply then.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))

	ctx, stop := notifyContext(context.Background())
	code := runMain(ctx, os.Args, DefaultEnv())
	stop()
	os.Exit(code)
}

// runMain dispatches the subcommand and maps its error to an exit code.
// Without a subcommand, or with only flags, it builds the document.
func runMain(ctx context.Context, args []string, env *Environment) int {
	cmd, rest := "build", []string{}
	if len(args) > 1 {
		rest = args[1:]
		if isCommand(args[1]) {
			cmd, rest = args[1], args[2:]
		}
	}

	var err error
	switch cmd {
	case "build":
		err = runBuild(ctx, rest, env)
	case "import":
		err = runImport(ctx, rest, env)
	case "export":
		err = runExport(ctx, rest, env)
	case "list":
		err = runList(ctx, rest, env)
	case "new":
		err = runNew(ctx, rest, env)
	case "update":
		err = runUpdate(ctx, rest, env)
	case "delete":
		err = runDelete(ctx, rest, env)
	case "duplicate":
		err = runDuplicate(ctx, rest, env)
	case "stats":
		err = runStats(ctx, rest, env)
	case "config":
		err = runConfig(rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "version":
		fmt.Fprintf(env.Stdout, "workbook %s\n", Version)
		return ExitSuccess
	case "help":
		runHelp(rest, env)
		return ExitSuccess
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
	}
	return exitCodeFor(err)
}

var commands = []string{"build", "import", "export", "list", "new", "update", "delete", "duplicate", "stats", "config", "doctor", "version", "help"}

func isCommand(arg string) bool {
	for _, c := range commands {
		if arg == c {
			return true
		}
	}
	return false
}
