package cli

import (
	"errors"
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Refresh *RefreshCommand
	Search  *SearchCommand
	Status  *StatusCommand
	Serve   *ServeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "archistory"
	parser.LongDescription = "Search local snapshots of Arc browser history across profiles."

	cmds := &commands{
		Refresh: &RefreshCommand{globals: &globals, version: version},
		Search:  &SearchCommand{globals: &globals, version: version},
		Status:  &StatusCommand{globals: &globals, version: version},
		Serve:   &ServeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("refresh", "Copy browser history into snapshots", "Copy each configured profile's History file into the snapshot directory.", cmds.Refresh)
	parser.AddCommand("search", "Search history snapshots", "Search history snapshots by keyword, with optional date range and profile filters.", cmds.Search)
	parser.AddCommand("status", "Show profile and snapshot status", "Show configured profiles, snapshot freshness, size and visit counts.", cmds.Status)
	parser.AddCommand("serve", "Start the local HTTP service", "Refresh snapshots and serve /search, /refresh and /status over HTTP.", cmds.Serve)

	return parser, &globals, cmds
}

// Run is the main entry point for the archistory CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, os.Args[1:])
}

// RunWithArgs parses args and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	if wantsVersion(args) {
		fmt.Printf("archistory %s\n", version)
		return nil
	}

	parser, _, _ := buildParser(version)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *goflags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == goflags.ErrHelp {
			return nil
		}
		return err
	}
	return nil
}

// wantsVersion reports whether --version appears before any "--" terminator.
// go-flags insists on a subcommand, so the flag is handled ahead of parsing.
func wantsVersion(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "--version":
			return true
		case "--":
			return false
		}
	}
	return false
}
