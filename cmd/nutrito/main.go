// Command nutrito is the command-line diet tracker: meals, exchanges,
// recipes, water and weight, stored locally and optionally synced.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/and161185/nutrito/internal/auth"
	"github.com/and161185/nutrito/internal/config"
	"github.com/and161185/nutrito/internal/errs"
	"github.com/and161185/nutrito/internal/localstore"
	"github.com/and161185/nutrito/internal/remote"
	"github.com/and161185/nutrito/internal/store"
	"github.com/and161185/nutrito/internal/syncer"
	"go.uber.org/zap"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// errUsage is returned by commands given bad arguments; usage has been printed.
var errUsage = errors.New("usage")

const usageText = `nutrito - diet tracker

Usage:
  nutrito [-config file] [-env file] [-db file] [-v] <cmd> [args]

Commands:
  version | status
  register -u <user> -p <pass>
  login    -u <user> -p <pass>       (then pulls remote data)
  logout | whoami
  sync pull | sync push
  unit     add -name N -abbr A | rm <id> | ls
  food     add -name N [-unit U] | rm <id> | ls [-q text]
  exchange add -food F [-qty 1] [-unit U] -item food:qty[:unit]... | rm <id> | ls [-food F]
  category add -name N [-color #hex] | rm <id> | ls
  recipe   add -title T [-category C] [-ingredients I] [-instructions S] | rm <id> | ls [-q text] [-category C] | random [-q text] [-category C]
  meal     add [-date D] -type T (-food F | -recipe R) [-qty 1] [-unit U] | rm <id> | ls [-date D] | copy -from D -to D
  water    add [-date D] | rm [-date D] | status [-date D]
  weight   log [-date D] -kg W | rm <id> | ls | progress [-days N]
  settings [-water-target N] [-glass-ml N] [-weight-target KG] [-clear-weight-target]
  export   [-o file|-]
  import   <file|->
  clear    -yes
`

type app struct {
	ctx    context.Context
	cfg    config.Config
	log    *zap.Logger
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	now    func() time.Time

	local  *localstore.Store
	remote *remote.Client
	store  *store.Store
	auth   *auth.Holder
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("nutrito", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", config.DefaultConfigPath(), "config file (YAML)")
	envPath := fs.String("env", ".env", "dotenv file")
	dbPath := fs.String("db", "", "local database file (overrides config)")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Usage = func() { fmt.Fprint(stderr, usageText) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "nutrito %s (%s)\n", version, buildDate)
		return 0
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usageText)
		return 0
	}

	log := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			log = l
		}
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(*cfgPath, *envPath)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a := &app{ctx: ctx, cfg: cfg, log: log, in: stdin, out: stdout, errOut: stderr, now: time.Now}
	if err := a.open(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer a.close()

	err = a.dispatch(cmd, rest)
	a.reportSync()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
}

func (a *app) open() error {
	local, err := localstore.Open(a.cfg.DBPath)
	if err != nil {
		return err
	}
	a.local = local

	opts := store.Options{Local: local, Logger: a.log, SyncTimeout: a.cfg.SyncTimeout}
	var provider auth.Provider
	rc, err := remote.New(a.cfg.Remote(), a.log)
	switch {
	case errors.Is(err, errs.ErrNotConfigured):
		a.log.Debug("remote backend not configured, running local-only")
	case err != nil:
		_ = local.Close()
		return fmt.Errorf("connect backend: %w", err)
	default:
		a.remote = rc
		opts.Backend = rc
		provider = rc
	}

	s, err := store.New(a.ctx, opts)
	if err != nil {
		a.close()
		return err
	}
	a.store = s
	a.auth = auth.NewHolder(provider, a.log)
	return nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.remote != nil {
		_ = a.remote.Close()
	}
	if a.local != nil {
		_ = a.local.Close()
	}
}

// reportSync waits for queued remote writes and prints the failed ones.
func (a *app) reportSync() {
	if a.store == nil || !a.store.RemoteConfigured() {
		return
	}
	if err := a.store.Flush(a.ctx); err != nil {
		fmt.Fprintln(a.errOut, "warning: remote sync:", err)
		return
	}
	for {
		select {
		case ev := <-a.store.Events():
			if ev.Kind == syncer.EventFailed {
				fmt.Fprintf(a.errOut, "warning: remote %s %s %s failed: %v\n", ev.Op, ev.Table, ev.ID, ev.Err)
			}
		default:
			return
		}
	}
}

func (a *app) dispatch(cmd string, args []string) error {
	switch cmd {
	case "status":
		return a.cmdStatus()
	case "register":
		return a.cmdRegister(args)
	case "login":
		return a.cmdLogin(args)
	case "logout":
		return a.cmdLogout()
	case "whoami":
		return a.cmdWhoami()
	case "sync":
		return a.cmdSync(args)
	case "unit":
		return a.cmdUnit(args)
	case "food":
		return a.cmdFood(args)
	case "exchange":
		return a.cmdExchange(args)
	case "category":
		return a.cmdCategory(args)
	case "recipe":
		return a.cmdRecipe(args)
	case "meal":
		return a.cmdMeal(args)
	case "water":
		return a.cmdWater(args)
	case "weight":
		return a.cmdWeight(args)
	case "settings":
		return a.cmdSettings(args)
	case "export":
		return a.cmdExport(args)
	case "import":
		return a.cmdImport(args)
	case "clear":
		return a.cmdClear(args)
	default:
		return a.usage("unknown command %q", cmd)
	}
}

func (a *app) usage(format string, args ...any) error {
	fmt.Fprintf(a.errOut, format+"\n", args...)
	fmt.Fprint(a.errOut, usageText)
	return errUsage
}

// flags returns a FlagSet reporting to stderr; parse errors become errUsage.
func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}
