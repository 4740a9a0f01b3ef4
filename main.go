package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/awnumar/memguard"
	"go.uber.org/zap"

	"github.com/illarion/passman/cmd"
	"github.com/illarion/passman/internal/config"
	"github.com/illarion/passman/internal/core"
	"github.com/illarion/passman/internal/logger"
	"github.com/illarion/passman/internal/security"
	"github.com/illarion/passman/internal/session"
	"github.com/illarion/passman/internal/storage"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config file (default "+config.Path()+")")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Println("passman", version)
		return
	}
	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Unknown argument: %s\n", flag.Arg(0))
		printUsage()
		os.Exit(1)
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		memguard.SafeExit(1)
	}
	memguard.Purge()
}

func run(configPath string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			memguard.SafePanic(r)
		}
	}()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	root, err := security.OpenRoot(cfg.DataDir)
	if err != nil {
		return err
	}
	defer root.Close()

	log, closeLog, err := logger.New(cfg.LogLevel, cfg.LogPath())
	if err != nil {
		return err
	}
	defer func() {
		_ = closeLog()
	}()
	log.Info("starting", zap.String("version", version), zap.String("data_dir", cfg.DataDir))

	store := storage.New(root, storage.WithLogger(log.Named("storage")))
	sessions := session.NewManager(store, session.WithLogger(log.Named("session")))
	pm := core.New(sessions, store, core.WithLogger(log.Named("core")))

	var shell *cmd.Shell
	terminal := cmd.NewTerminal(cfg.HistoryPath(), func(line string) []string {
		return shell.Complete(line)
	})
	defer terminal.Close()

	shell = cmd.NewShell(pm, terminal, os.Stdout,
		cmd.WithClipboardClear(cfg.ClipboardClear.Duration),
		cmd.WithUnlockLimit(cfg.UnlockAttempts, cfg.UnlockInterval.Duration),
		cmd.WithShellLogger(log.Named("shell")),
	)

	// SIGINT at the prompt is handled by the terminal; outside it, and for
	// SIGTERM, lock up, wipe and leave.
	memguard.CatchSignal(func(sig os.Signal) {
		log.Info("signal received", zap.Stringer("signal", sig))
		shell.Shutdown()
		_ = terminal.Close()
		_ = closeLog()
	}, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	err = shell.Run(context.Background())
	log.Info("exiting")
	return err
}

func printUsage() {
	fmt.Println("passman - local encrypted password vaults")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  passman [-config <file>]")
	fmt.Println()
	fmt.Println("Starts an interactive shell. Type 'help' at the prompt for commands.")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -config <file>   Config file (default " + config.Path() + ")")
	fmt.Println("  -version         Print version and exit")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  " + config.EnvDataDir + "   Directory holding the vaults")
}
