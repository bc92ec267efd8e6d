// Package main implements the qnes NES emulator executable.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"qnes/internal/app"
	"qnes/internal/graphics"
	"qnes/internal/logger"
	"qnes/internal/statsview"
	"qnes/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options are the command line flags
type options struct {
	rom        string
	configFile string
	debug      bool
	nogui      bool
	frames     int
	trace      string
	breaks     string
	statsview  bool
	backend    string
	help       bool
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	opts := &options{}
	fs := flag.NewFlagSet("qnes", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.rom, "rom", "", "Path to NES ROM file")
	fs.StringVar(&opts.configFile, "config", "", "Path to configuration file (default "+app.GetDefaultConfigPath()+")")
	fs.BoolVar(&opts.debug, "debug", false, "Echo the log to stderr and print its tail on exit")
	fs.BoolVar(&opts.nogui, "nogui", false, "Run without GUI (headless mode)")
	fs.IntVar(&opts.frames, "frames", 0, "Number of frames to run in headless mode")
	fs.StringVar(&opts.trace, "trace", "", "Write a CPU trace to this file, - for stdout")
	fs.StringVar(&opts.breaks, "break", "", "Comma separated breakpoints, ADDR[:rwx]")
	fs.BoolVar(&opts.statsview, "statsview", false, "Serve runtime statistics (statsview builds only)")
	fs.StringVar(&opts.backend, "backend", "", "Graphics backend: ebitengine, terminal or headless")
	fs.BoolVar(&opts.help, "help", false, "Show help message")
	fs.BoolVar(&opts.version, "version", false, "Show version information")
	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return opts, fs, nil
}

// applyFlags overrides the configuration file with the command line
func applyFlags(opts *options, config *app.Config) {
	if opts.backend != "" {
		config.Video.Backend = opts.backend
	}
	if opts.nogui {
		config.Video.Backend = string(graphics.BackendHeadless)
	}
	if opts.frames > 0 {
		config.Emulation.HeadlessFrames = opts.frames
	}
	if opts.trace != "" {
		config.Debug.CPUTrace = opts.trace
	}
	if opts.breaks != "" {
		for _, bp := range strings.Split(opts.breaks, ",") {
			if bp = strings.TrimSpace(bp); bp != "" {
				config.Debug.Breakpoints = append(config.Debug.Breakpoints, bp)
			}
		}
	}
	if opts.debug {
		config.Debug.EchoLog = true
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if opts.help {
		printUsage(stdout, fs)
		return 0
	}
	if opts.version {
		version.PrintBuildInfo(stdout)
		return 0
	}
	if opts.rom == "" {
		fmt.Fprintln(stderr, "qnes: a ROM file is required, see -help")
		return 2
	}

	configPath := opts.configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}
	config := app.NewConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		fmt.Fprintf(stderr, "qnes: %v\n", err)
		return 1
	}
	applyFlags(opts, config)

	if opts.statsview || config.Debug.StatsView != "" {
		if err := statsview.Launch(config.Debug.StatsView, stdout); err != nil {
			fmt.Fprintf(stderr, "qnes: %v\n", err)
		}
	}

	application, err := app.NewApplication(config)
	if err != nil {
		fmt.Fprintf(stderr, "qnes: %v\n", err)
		return 1
	}
	defer func() {
		if err := application.Cleanup(); err != nil {
			fmt.Fprintf(stderr, "qnes: cleanup: %v\n", err)
		}
		if opts.debug {
			logger.Tail(stderr, 20)
		}
	}()
	stop := setupGracefulShutdown(application, stderr)
	defer stop()

	if err := application.LoadROM(opts.rom); err != nil {
		fmt.Fprintf(stderr, "qnes: %v\n", err)
		return 1
	}
	if err := application.Run(); err != nil {
		fmt.Fprintf(stderr, "qnes: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "%d frames in %v\n", application.GetFrameCount(), application.GetUptime().Round(1e6))
	return 0
}

// setupGracefulShutdown restores the terminal and exits on an interrupt.
// The returned function stops listening.
func setupGracefulShutdown(application *app.Application, stderr io.Writer) func() {
	c := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-c:
			fmt.Fprintln(stderr, "\ninterrupt received, shutting down")
			application.Cleanup()
			os.Exit(130)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(c)
		close(done)
	}
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "qnes - NES emulator")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  qnes -rom <file> [options]")
	fmt.Fprintln(w, "  qnes -nogui -frames 600 -rom <file>    # headless run")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "CONTROLS (Default):")
	fmt.Fprintln(w, "  Player 1: WASD d-pad, K A, J B, Enter Start, Space Select")
	fmt.Fprintln(w, "  Player 2: arrows d-pad, M A, N B, Backspace Start, Tab Select")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Escape         Quit")
	fmt.Fprintln(w, "  F1-F4          Save state slot")
	fmt.Fprintln(w, "  Shift+F1-F4    Load state slot")
	fmt.Fprintln(w, "  F5             Reset")
	fmt.Fprintln(w, "  F6             Pause")
	fmt.Fprintln(w, "  F7             Run one instruction while paused")
	fmt.Fprintln(w, "  F12            Screenshot")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "CONFIGURATION:")
	fmt.Fprintf(w, "  Config file: %s\n", app.GetDefaultConfigPath())
}
