package config

import (
	"flag"
	"fmt"
	"net/url"
)

// parses CLI flags for the save subcommand
func ParseSaveFlags(args []string) (Flags, error) {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	pageURL := fs.String("url", "", "page the selection was made on")
	text := fs.String("text", "", "selected text")
	translate := fs.Bool("translate", true, "fetch a translation and store it as the definition")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	if *pageURL == "" {
		return Flags{}, fmt.Errorf("--url is required")
	}

	u, err := url.Parse(*pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Flags{}, fmt.Errorf("--url must be an absolute http(s) URL, got %q", *pageURL)
	}

	return Flags{URL: *pageURL, Text: *text, Translate: *translate}, nil
}

// parses CLI flags for the panel subcommand
func ParsePanelFlags(args []string) (Flags, error) {
	fs := flag.NewFlagSet("panel", flag.ContinueOnError)
	logFile := fs.String("log-file", "afewwords-panel.log", "file receiving panel logs")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	return Flags{LogFile: *logFile}, nil
}

// parses CLI flags for the background subcommand
func ParseBackgroundFlags(args []string) (Flags, error) {
	fs := flag.NewFlagSet("background", flag.ContinueOnError)
	addr := fs.String("addr", "", "relay listen address (overrides RELAY_ADDR)")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	return Flags{Addr: *addr}, nil
}
