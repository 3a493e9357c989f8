// Command framez is the command-line client for the Framez feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/framez/internal/config"
	"github.com/and161185/framez/internal/logger"
	"github.com/and161185/framez/internal/migrate"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const commandTimeout = 30 * time.Second

func usage(w io.Writer) {
	fmt.Fprint(w, `framez CLI
Usage:
  framez [-config file] [-store postgres|memory] [-dsn DSN] [-log-level L] <cmd> [args]

Commands:
  version
  migrate                                            (apply database migrations)
  signup   -fullname <name> -username <u> -email <e> -password <p>
  login    -email <e> -password <p>                  (saves session)
  logout
  whoami
  post     -text <text> [-image <file>]
  feed
  profile
`)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses global flags, loads config and dispatches one command.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("framez", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "", "config file (default $XDG_CONFIG_HOME/framez/config.yaml)")
	store := fs.String("store", "", "store backend: postgres or memory")
	dsn := fs.String("dsn", "", "PostgreSQL DSN")
	level := fs.String("log-level", "", "log level")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		usage(stderr)
		return 2
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	if cmd == "version" {
		fmt.Fprintf(stdout, "framez %s (%s)\n", version, buildDate)
		return 0
	}

	path, required := *cfgPath, true
	if path == "" {
		path, required = config.DefaultPath(), false
	}
	cfg, err := config.Load(path, required, func(c *config.Config) {
		if *store != "" {
			c.Store = *store
		}
		if *dsn != "" {
			c.DatabaseDSN = *dsn
		}
		if *level != "" {
			c.Log.Level = *level
		}
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Dev)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if cmd == "migrate" {
		if cfg.Store != config.StorePostgres {
			fmt.Fprintln(stderr, "migrate needs the postgres store")
			return 1
		}
		if err := migrate.Up(ctx, cfg.DatabaseDSN, log); err != nil {
			log.Error("migrate failed", zap.Error(err))
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintln(stdout, "ok")
		return 0
	}

	a, err := newApp(ctx, cfg, log, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer a.close()
	return a.exec(ctx, cmd, rest)
}
