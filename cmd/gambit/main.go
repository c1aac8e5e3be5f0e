// Package main is a terminal front end for the scoring engine: classify and
// score hands, scan seeds, or play a run interactively.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pterm/pterm"

	"github.com/MJE43/jokers-gambit/internal/config"
	"github.com/MJE43/jokers-gambit/internal/joker"
	"github.com/MJE43/jokers-gambit/internal/logging"
	"github.com/MJE43/jokers-gambit/internal/scoring"
	"github.com/MJE43/jokers-gambit/internal/scripting"
)

type command struct {
	name  string
	usage string
	run   func(env *cliEnv, args []string) error
}

var commands = []command{
	{"demo", "score a set of sample hands", runDemo},
	{"classify", "classify a selection: classify 10H JH QH KH AH", runClassify},
	{"score", "score a selection: score -jokers j_joker -held 9S 2C 2D", runScore},
	{"scan", "search seeds for opening hands: scan -from 1 -to 100000 -op ge -target 500", runScan},
	{"play", "play a run in the terminal: play -seed 42", runPlay},
	{"jokers", "list registered jokers", runJokers},
}

// cliEnv is what every subcommand shares.
type cliEnv struct {
	cfg    config.Config
	logger *slog.Logger
	engine *scoring.Engine
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	global := flag.NewFlagSet("gambit", flag.ExitOnError)
	level := global.String("log-level", "warn", "log level: debug, info, warn, error")
	scripts := global.String("scripts", cfg.JokerScripts, "directory of *.js joker scripts")
	global.Usage = usage
	_ = global.Parse(os.Args[1:])

	if global.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	logger := logging.New(logging.Options{Level: *level})
	registry := joker.NewCatalog(logger)
	if *scripts != "" {
		if _, err := scripting.LoadDir(*scripts, registry, scripting.WithLogger(logger)); err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}
	}
	env := &cliEnv{cfg: cfg, logger: logger, engine: scoring.New(registry, logger)}

	name, args := global.Arg(0), global.Args()[1:]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(env, args); err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}
		return
	}

	pterm.Error.Printfln("unknown command %q", name)
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: gambit [-log-level L] [-scripts DIR] <command> [flags]")
	fmt.Fprintln(os.Stderr)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-9s %s\n", c.name, c.usage)
	}
}
