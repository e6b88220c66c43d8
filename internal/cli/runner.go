package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/idilsaglam/todosync/internal/api"
	"github.com/idilsaglam/todosync/internal/auth"
	"github.com/idilsaglam/todosync/internal/config"
	"github.com/idilsaglam/todosync/internal/model"
	"github.com/idilsaglam/todosync/internal/store"
	"github.com/idilsaglam/todosync/internal/ui"
)

// Backend is what the subcommands talk to. *api.Client implements it.
type Backend interface {
	store.API
	GetTodo(ctx context.Context, id int64) (model.TodoItem, error)
	BaseURL() string
}

// Options tune output behavior from root flags and carry the wiring.
type Options struct {
	Group  bool // list grouped by pending/completed
	Config config.Config
	Logger *zap.Logger
	In     io.Reader // confirmation prompts and auth login; defaults to os.Stdin

	// NewBackend overrides how the backend client is built.
	NewBackend func(cfg config.Config, log *zap.Logger) Backend
	// Interactive runs the TUI for the "ui" subcommand.
	Interactive func(ctx context.Context, st *store.Store, baseURL string) error
}

func (o Options) in() io.Reader {
	if o.In != nil {
		return o.In
	}
	return os.Stdin
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}

func (o Options) backend() Backend {
	if o.NewBackend != nil {
		return o.NewBackend(o.Config, o.logger())
	}
	return NewClient(o.Config, o.logger())
}

// NewClient builds the HTTP client from the configuration and the saved token.
func NewClient(cfg config.Config, log *zap.Logger) Backend {
	return api.NewClient(api.Config{
		BaseURL: cfg.APIURL,
		Timeout: cfg.Timeout,
		Origin:  cfg.Origin,
		Token:   auth.Token(),
		Logger:  log,
	})
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0
	case "ls":
		return doList(ctx, a, opt)
	case "show":
		return doShow(ctx, a, opt)
	case "add":
		return doAdd(ctx, a, opt)
	case "edit":
		return doEdit(ctx, a, opt)
	case "done":
		return doToggle(ctx, a, opt)
	case "rm":
		return doRemove(ctx, a, opt)
	case "demo":
		return doDemo(ctx, a, opt)
	case "ui":
		return doInteractive(ctx, opt)
	case "auth":
		return doAuth(a, opt)
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(ui.Err())
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Fprint(ui.Out(), `todo - a terminal client for the todo backend

Usage:
  todo [-group] [-config path] [-verbose] <subcommand> [args]

Subcommands:
  ls [-completed|-pending] [-priority P] [-category C]
                             List items
  show <id>                  Show one item
  add [-priority P] [-due YYYY-MM-DD] [-category C] <description...>
                             Add a new item
  edit <id> [-priority P] [-due YYYY-MM-DD] [-category C] [-completed=true|false] [description...]
                             Change an item
  done <id>                  Toggle completed
  rm [-y] <id>               Delete an item
  demo [-delay d] [-local]   Scripted walkthrough
  ui                         Interactive list
  auth <login|logout|status|whoami>   Token authentication

Examples:
  todo add -priority High "Buy milk"
  todo ls -pending
  todo done 2
  todo rm -y 3
`)
}

// newFlags returns a flag set that reports to the error writer.
func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(ui.Err())
	return fs
}

// parseFlags maps flag errors to exit codes; ok is false when the caller
// should return code.
func parseFlags(fs *flag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

// parseWithID accepts the id either before or after the flags:
// "edit 3 -priority High" and "edit -priority High 3" both work.
func parseWithID(fs *flag.FlagSet, usage string, args []string) (id int64, rest []string, code int, ok bool) {
	var idArg string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		idArg, args = args[0], args[1:]
	}
	if code, ok := parseFlags(fs, args); !ok {
		return 0, nil, code, false
	}
	rest = fs.Args()
	if idArg == "" {
		if len(rest) == 0 {
			ui.Fail("usage: " + usage)
			return 0, nil, 2, false
		}
		idArg, rest = rest[0], rest[1:]
	}
	n, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil || n <= 0 {
		ui.Fail(fs.Name() + ": not a valid id: " + idArg)
		return 0, nil, 2, false
	}
	return n, rest, 0, true
}

// report prints err and picks the exit code: bad input is a usage error,
// everything else a runtime failure.
func report(err error, baseURL string) int {
	if model.IsValidation(err) {
		ui.Fail(err.Error())
		return 2
	}
	if model.IsNotFound(err) {
		ui.Fail(err.Error())
		fmt.Fprintln(ui.Err(), ui.C(ui.Current().Muted, "Hint: run `todo ls` to see valid ids"))
		return 1
	}
	ui.ErrorBlock(err.Error(), baseURL)
	return 1
}
