package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/idilsaglam/todosync/internal/cli"
	"github.com/idilsaglam/todosync/internal/config"
	"github.com/idilsaglam/todosync/internal/logging"
	"github.com/idilsaglam/todosync/internal/store"
	"github.com/idilsaglam/todosync/internal/tui"
	"github.com/idilsaglam/todosync/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Root flags (apply to every subcommand)
	groupPending := flag.Bool("group", false, "group output by pending/done")
	configPath := flag.String("config", "", "config file (default ~/.tada/config.json)")
	verbose := flag.Bool("verbose", false, "debug logging on stderr")
	flag.Usage = cli.PrintHelp
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp()
		return 2
	}

	if err := config.LoadEnv(); err != nil {
		ui.Fail(err.Error())
		return 1
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		ui.Fail("config: " + err.Error())
		return 2
	}
	if err := ui.SetTheme(cfg.Theme); err != nil {
		ui.Fail(err.Error())
		return 2
	}

	log, flush, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Verbose: *verbose,
	})
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	defer flush()
	log.Debug("config loaded",
		zap.String("api_url", cfg.APIURL),
		zap.Duration("timeout", cfg.Timeout),
		zap.String("theme", cfg.Theme),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := cli.Run(ctx, args, cli.Options{
		Group:  *groupPending,
		Config: cfg,
		Logger: log,
		Interactive: func(ctx context.Context, st *store.Store, baseURL string) error {
			return tui.Run(ctx, st, tui.Options{BaseURL: baseURL, AltScreen: true})
		},
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	return code
}
