package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/afewwords/companion/internal/config"
	"codeberg.org/afewwords/companion/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	command, args := os.Args[1], os.Args[2:]

	// load environment variables
	cfg, err := config.LoadEnvironmentVariables()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	logger.Configure(cfg.Environment, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "background":
		flags, err := config.ParseBackgroundFlags(args)
		if err != nil {
			os.Exit(2)
		}
		if flags.Addr != "" {
			cfg.RelayAddr = flags.Addr
		}
		err = runBackground(ctx, cfg)
		exitOnError(err, "background failed")

	case "panel":
		flags, err := config.ParsePanelFlags(args)
		if err != nil {
			os.Exit(2)
		}
		err = runPanel(ctx, cfg, flags)
		exitOnError(err, "panel failed")

	case "save":
		flags, err := config.ParseSaveFlags(args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		err = runSave(ctx, cfg, flags)
		exitOnError(err, "save failed")

	case "login":
		err = runLogin(ctx, cfg)
		exitOnError(err, "login failed")

	case "logout":
		err = runLogout(ctx, cfg)
		exitOnError(err, "logout failed")

	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: afewwords <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  background  - run the message bus, relay and token refresher")
	fmt.Println("  panel       - open the word list")
	fmt.Println("  save        - save a selection: --url <page> --text <selection> [--translate=false]")
	fmt.Println("  login       - sign in through the browser")
	fmt.Println("  logout      - sign out everywhere")
}

func exitOnError(err error, msg string) {
	if err != nil {
		logger.FatalErr(err, msg)
	}
}
