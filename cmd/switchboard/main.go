package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/roelfdiedericks/switchboard/internal/commands"
	"github.com/roelfdiedericks/switchboard/internal/config"
	"github.com/roelfdiedericks/switchboard/internal/llm"
	. "github.com/roelfdiedericks/switchboard/internal/logging"
	"github.com/roelfdiedericks/switchboard/internal/router"
	"github.com/roelfdiedericks/switchboard/internal/session"
)

const version = "0.0.1"

var cli struct {
	Config     string           `help:"Path to config file." type:"path"`
	Kind       string           `help:"Provider kind override (apikey, openai, ollama, lmstudio, oauth, cloudshell)."`
	Model      string           `help:"Starting model id override."`
	LogLevel   string           `help:"Log level (trace, debug, info, warn, error)." name:"log-level"`
	AutoSwitch bool             `help:"Enable per-turn auto model switching." name:"auto-switch"`
	Version    kong.VersionFlag `help:"Show version."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("switchboard"),
		kong.Description("Mid-session model switching and task routing for local and hosted LLMs."),
		kong.Vars{"version": "switchboard " + version},
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "switchboard: %s\n", err)
		os.Exit(1)
	}

	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	Init(&Config{Level: parseLogLevel(cfg.LogLevel)})

	L_info("switchboard %s starting", version)

	if cli.Kind != "" {
		cfg.Provider.Kind = cli.Kind
	}
	if cli.Model != "" {
		cfg.Provider.Model = cli.Model
	}
	kind := llm.ProviderKind(cfg.Provider.Kind)
	if !kind.Valid() {
		L_fatal("unknown provider kind %q", cfg.Provider.Kind)
	}

	var journal *session.Journal
	if cfg.Session.JournalPath != "" {
		journal, err = session.OpenJournal(cfg.Session.JournalPath)
		if err != nil {
			L_fatal("failed to open journal: %v", err)
		}
		defer journal.Close()
	}

	coord := router.NewCoordinator(router.CoordinatorConfig{
		Journal: journal,
		Compress: session.NewTailCompressor(session.TailCompressorConfig{
			KeepPercent: cfg.Compaction.KeepPercent,
			MinMessages: cfg.Compaction.MinMessages,
		}),
	})
	coord.SetAutoSwitch(cfg.Session.AutoSwitch || cli.AutoSwitch)

	a := &app{
		coord: coord,
		kind:  kind,
		base:  cfg.GeneratorConfig(),
	}

	ctx := context.Background()

	// Bring up the starting model: an explicit model id wins,
	// otherwise the kind's weak model.
	if cfg.Provider.Model != "" {
		err = coord.SwitchModel(ctx, cfg.Provider.Model, kind, a.base)
	} else {
		err = coord.SwitchToStrength(ctx, router.StrengthWeak, kind, a.base)
	}
	if err != nil {
		L_fatal("failed to start model: %v", err)
	}

	L_info("switchboard ready", "model", coord.CurrentGenerator().Model(), "kind", kind, "contextTokens", coord.ContextLength())

	runREPL(ctx, a)
}

func runREPL(ctx context.Context, a *app) {
	mgr := commands.NewManager(a)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}
		if line == "/quit" || line == "/exit" {
			return
		}

		if commands.IsCommand(line) {
			result := mgr.Execute(ctx, line)
			fmt.Println(result.Text)
			fmt.Print("> ")
			continue
		}

		_, err := a.sendTurn(ctx, line, func(delta string) {
			fmt.Print(delta)
		})
		if err != nil {
			fmt.Printf("error: %s\n", err)
		} else {
			fmt.Println()
		}
		fmt.Print("> ")
	}
}

func parseLogLevel(s string) int {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}
