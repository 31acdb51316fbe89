// Command mentor runs the interactive learning companion: a Python
// tutoring agent with safety filtering, tool use, and a skill-adaptive
// learner profile.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/mentorlabs/mentor/internal/agent"
	"github.com/mentorlabs/mentor/internal/api"
	"github.com/mentorlabs/mentor/internal/buildinfo"
	"github.com/mentorlabs/mentor/internal/config"
	"github.com/mentorlabs/mentor/internal/llm"
	"github.com/mentorlabs/mentor/internal/memory"
	"github.com/mentorlabs/mentor/internal/safety"
	"github.com/mentorlabs/mentor/internal/tools"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run] so the full
// lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the mentor command. Arguments are
// parsed by hand: the flag package relies on package-level globals
// (flag.CommandLine), which interferes with calling run() from
// parallel tests, and the argument surface is small.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "chat":
		return runChat(ctx, stdin, stdout, configPath)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: mentor ask [-correct=true|false] [-rate=1..5] <question>")
		}
		return runAsk(ctx, stdin, stdout, configPath, cmdArgs)
	case "serve":
		return runServe(ctx, stdin, stdout, configPath)
	case "init":
		var dir string
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Mentor - Interactive Learning Companion for Python")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: mentor [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  chat         Start an interactive tutoring session")
	fmt.Fprintln(w, "  ask          Ask a single question, optionally with feedback flags")
	fmt.Fprintln(w, "  serve        Start the HTTP API server")
	fmt.Fprintln(w, "  init         Install an example config file (default: ~/.config/mentor)")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/mentor/config.yaml, /etc/mentor/config.yaml")
	return nil
}

// loadConfig resolves and loads the config file. With no explicit path
// and no discoverable file, defaults apply — chat should work out of
// the box with just GEMINI_API_KEY set.
func loadConfig(explicit string) (*config.Config, string, error) {
	path, err := config.FindConfig(explicit)
	if err != nil {
		if explicit != "" {
			return nil, "", err
		}
		return config.Default(), "(defaults)", nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// newLogger builds an slog logger writing to w as text or JSON.
// All log output in mentor goes through slog.
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// session bundles everything one tutoring session needs.
type session struct {
	loop    *agent.Loop
	store   *memory.Store
	archive *memory.ArchiveStore
}

// close releases session resources.
func (s *session) close() {
	if s.archive != nil {
		s.archive.Close()
	}
}

// newSession wires a complete session from configuration: model
// backend, memory store, tool registry, safety classifier, and the
// optional interaction archive.
func newSession(cfg *config.Config, stdin io.Reader, stderr io.Writer, logger *slog.Logger) (*session, error) {
	client, err := newBackendClient(cfg, stdin, stderr)
	if err != nil {
		return nil, err
	}

	store := memory.NewStore(cfg.Learner.Name, cfg.Learner.TargetDomain,
		cfg.Learner.SkillLevel, cfg.Memory.MaxBuffer)

	var archive *memory.ArchiveStore
	if cfg.Memory.ArchivePath != "" {
		archive, err = memory.OpenArchive(cfg.Memory.ArchivePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open archive: %w", err)
		}
	}

	loop := agent.NewLoop(agent.LoopConfig{
		Logger:  logger,
		Client:  client,
		Memory:  store,
		Tools:   tools.NewRegistry(),
		Safety:  safety.NewClassifier(cfg.Safety.ExtraDenylist, cfg.Safety.ExtraAllowlist),
		Archive: archive,
	})

	return &session{loop: loop, store: store, archive: archive}, nil
}

// newBackendClient constructs the configured LLM client.
func newBackendClient(cfg *config.Config, stdin io.Reader, stderr io.Writer) (llm.Client, error) {
	switch cfg.Backend.Provider {
	case "ollama":
		return llm.NewOllamaClient(cfg.Backend.BaseURL, cfg.Backend.Model), nil
	case "gemini":
		key, err := resolveAPIKey(cfg, stdin, stderr)
		if err != nil {
			return nil, err
		}
		return llm.NewGeminiClient(cfg.Backend.BaseURL, key, cfg.Backend.Model), nil
	default:
		return nil, fmt.Errorf("unknown backend provider %q", cfg.Backend.Provider)
	}
}

// resolveAPIKey finds the Gemini key: environment variable first, then
// the config file, then a hidden interactive prompt.
func resolveAPIKey(cfg *config.Config, stdin io.Reader, stderr io.Writer) (string, error) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key, nil
	}
	if cfg.Backend.APIKey != "" {
		return cfg.Backend.APIKey, nil
	}

	// Only prompt when stdin is really a terminal; reading a key from a
	// pipe would silently swallow piped questions.
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(stderr, "Enter your Gemini API key (input will be hidden): ")
		key, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(stderr)
		if err != nil {
			return "", fmt.Errorf("read API key: %w", err)
		}
		if len(key) == 0 {
			return "", errors.New("no API key provided")
		}
		return string(key), nil
	}

	return "", errors.New("no Gemini API key: set GEMINI_API_KEY or backend.api_key in config")
}

// runChat handles the "mentor chat" subcommand: a line-oriented REPL.
// Correctness and rating are not collected interactively; use "ask"
// with feedback flags, or the HTTP API, to supply them.
func runChat(ctx context.Context, stdin io.Reader, stdout io.Writer, configPath string) error {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := newLogger(stdout, level, "text")
	logger.Info("config loaded", "path", cfgPath)

	sess, err := newSession(cfg, stdin, stdout, logger)
	if err != nil {
		return err
	}
	defer sess.close()

	fmt.Fprintln(stdout, "Interactive Learning Companion - Python Tutor")
	fmt.Fprintln(stdout, "Type 'quit' to stop.")
	fmt.Fprintln(stdout)

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(stdout, "\nGoodbye!")
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			fmt.Fprintln(stdout, "Session ended.")
			return nil
		}
		if input == "/profile" {
			fmt.Fprintln(stdout, sess.store.Summary())
			continue
		}

		answer, err := sess.loop.HandleTurn(ctx, input, agent.Feedback{})
		if err != nil {
			return fmt.Errorf("chat: %w", err)
		}

		fmt.Fprintf(stdout, "\nAgent: %s\n", answer)
		fmt.Fprintln(stdout, strings.Repeat("-", 60))
	}
}

// runAsk handles the "mentor ask" subcommand: one question, one answer,
// with optional feedback flags for testing the adaptation path.
func runAsk(ctx context.Context, stdin io.Reader, stdout io.Writer, configPath string, args []string) error {
	fb, question, err := parseAskArgs(args)
	if err != nil {
		return err
	}

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := newLogger(stdout, level, "text")
	logger.Info("config loaded", "path", cfgPath)

	sess, err := newSession(cfg, stdin, stdout, logger)
	if err != nil {
		return err
	}
	defer sess.close()

	answer, err := sess.loop.HandleTurn(ctx, question, fb)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	fmt.Fprintln(stdout, answer)
	return nil
}

// parseAskArgs splits ask's feedback flags from the question words.
func parseAskArgs(args []string) (agent.Feedback, string, error) {
	var fb agent.Feedback
	var words []string

	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "-correct="):
			v, err := strconv.ParseBool(strings.TrimPrefix(arg, "-correct="))
			if err != nil {
				return fb, "", fmt.Errorf("invalid -correct value: %w", err)
			}
			fb.Correctness = &v
		case strings.HasPrefix(arg, "-rate="):
			n, err := strconv.Atoi(strings.TrimPrefix(arg, "-rate="))
			if err != nil || n < 1 || n > 5 {
				return fb, "", fmt.Errorf("invalid -rate value %q (expected 1..5)", strings.TrimPrefix(arg, "-rate="))
			}
			fb.Rating = &n
		default:
			words = append(words, arg)
		}
	}

	if len(words) == 0 {
		return fb, "", errors.New("usage: mentor ask [-correct=true|false] [-rate=1..5] <question>")
	}
	return fb, strings.Join(words, " "), nil
}

// runServe handles the "mentor serve" subcommand.
func runServe(ctx context.Context, stdin io.Reader, stdout io.Writer, configPath string) error {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := newLogger(stdout, level, "text")
	logger.Info("starting mentor", "version", buildinfo.Version, "config", cfgPath)

	sess, err := newSession(cfg, stdin, stdout, logger)
	if err != nil {
		return err
	}
	defer sess.close()

	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, sess.loop, sess.store, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
