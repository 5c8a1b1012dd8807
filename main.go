// Newtab is a keyboard-driven new-tab page: type a shortcut, a URL or a
// search and get live suggestions from a language model.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"newtab/config"
	"newtab/dispatch"
	"newtab/logging"
	"newtab/navigate"
	"newtab/omnibox"
	"newtab/server"
	"newtab/settings"
	"newtab/suggest"
	"newtab/theme"
	"newtab/tui"
)

func main() {
	args := os.Args[1:]
	cmd := "tui"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "-h", "--help", "help":
		printUsage()
		return
	case "--init-config":
		fmt.Print(config.DefaultTOML())
		return
	case "tui":
		err = runTUI()
	case "serve":
		err = runServe(args)
	case "open":
		err = runOpen(args)
	case "suggest":
		err = runSuggest(args)
	case "mode":
		err = runMode(args)
	case "pins":
		err = runPins(args)
	case "key":
		err = runKey(args)
	case "bg":
		err = runBackground(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`newtab - keyboard-driven new tab page

Usage: newtab [command] [args]

Commands:
  tui                        Open the terminal new tab page (default)
  serve [addr]               Serve the new tab page over HTTP and websocket
  open [-p] <text...>        Open what the text resolves to (-p prints the URL)
  suggest <text...>          Print suggestions for a query
  mode <text...>             Print the provider the text selects
  pins                       List pins
  pins add <type> <url>      Add a pin
  pins rm <n>                Remove pin n
  key [provider] <apikey>    Store the completion API key (provider: openai, anthropic)
  bg                         List backgrounds
  bg add <image|video|color> <url|hex>
  bg use <id>                Select a background
  --init-config              Print the default config
  -h, --help                 Show this help

Shortcuts:
  example.com  //host        direct link
  gh <user/repo>             GitHub
  :<port>                    localhost
  yt <query>                 YouTube
  1 2 3 ...                  pins
  ask <question>             Perplexity
  gpt <prompt>               ChatGPT
  cl <prompt>                Claude

Configuration:
  Config file: ~/.config/newtab/config.toml
  Generate with: newtab --init-config > ~/.config/newtab/config.toml
  OPENAI_API_KEY is used when no key has been stored.`)
}

// app holds everything the commands share.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	settings *envSettings
	registry *omnibox.Registry
	fetcher  *suggest.Fetcher
	closers  []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
}

// envSettings overlays OPENAI_API_KEY on the stored settings when no key
// has been stored.
type envSettings struct {
	*settings.Manager
	openAIKey string
}

func (e *envSettings) Snapshot() settings.Snapshot {
	snap := e.Manager.Snapshot()
	if snap.Keys.OpenAI == "" {
		snap.Keys.OpenAI = e.openAIKey
	}
	return snap
}

func setup(ctx context.Context, tuiMode bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\n\n%s", err, config.FormatError(err))
	}

	log, logCloser, err := logging.New(cfg.Log, tuiMode)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, closers: []io.Closer{logCloser}}

	storage, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c, ok := storage.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	mgr, err := settings.Load(ctx, storage, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.settings = &envSettings{Manager: mgr, openAIKey: os.Getenv("OPENAI_API_KEY")}

	a.registry = omnibox.Default().WithFallback(cfg.Search.FallbackURL)

	backend, err := suggest.BackendByName(cfg.Completion.Provider, cfg.Completion.BaseURL, cfg.Completion.Timeout(), log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.fetcher = suggest.NewFetcher(backend, suggest.WithModel(cfg.Completion.Model), suggest.WithLogger(log))
	return a, nil
}

func openStorage(ctx context.Context, cfg config.Storage) (settings.Storage, error) {
	path := cfg.Path
	switch cfg.Backend {
	case "", "file":
		if path == "" {
			dir, err := settings.DefaultDir()
			if err != nil {
				return nil, err
			}
			path = dir
		}
		return settings.NewFileStorage(path), nil
	case "sqlite":
		if path == "" {
			dir, err := config.Dir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "newtab.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
		return settings.OpenSQLite(ctx, path)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func (a *app) controller(ctx context.Context, nav navigate.Navigator) *dispatch.Controller {
	return dispatch.New(ctx, dispatch.Options{
		Registry:  a.registry,
		Settings:  a.settings,
		Suggester: a.fetcher,
		Navigator: nav,
		Logger:    a.log,
	})
}

func runTUI() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	th, ok := theme.Lookup(a.cfg.Display.Theme)
	if !ok {
		a.log.Warn().Str("theme", a.cfg.Display.Theme).Msg("Unknown theme, using default")
		th = theme.DefaultDark
	}

	snapshots, unsubscribe := a.settings.Subscribe()
	defer unsubscribe()

	ctrl := a.controller(ctx, navigate.NewBrowser())
	defer ctrl.Close()

	url, err := tui.Run(tui.Options{
		Controller: ctrl,
		Snapshot:   a.settings.Snapshot(),
		Snapshots:  snapshots,
		Theme:      th,
		Keys:       a.cfg.Keybindings,
	})
	if err != nil {
		return err
	}
	if url != "" {
		fmt.Println(url)
	}
	return nil
}

func runServe(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Server.Addr
	if len(args) > 0 {
		addr = args[0]
	}

	srv := server.New(server.Options{
		Registry:  a.registry,
		Settings:  a.settings,
		Suggester: a.fetcher,
		Logger:    a.log,
	})
	return srv.ListenAndServe(ctx, addr)
}

func runOpen(args []string) error {
	printOnly := false
	if len(args) > 0 && (args[0] == "-p" || args[0] == "--print") {
		printOnly, args = true, args[1:]
	}

	ctx := context.Background()
	a, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	var nav navigate.Navigator = navigate.NewBrowser()
	if printOnly {
		nav = navigate.NewWriter(os.Stdout)
	}

	_, err = a.open(ctx, strings.Join(args, " "), nav)
	return err
}

// open submits text in one go. The controller has no suggester since the
// text is submitted before any fetch could be useful.
func (a *app) open(ctx context.Context, text string, nav navigate.Navigator) (string, error) {
	ctrl := dispatch.New(ctx, dispatch.Options{
		Registry:  a.registry,
		Settings:  a.settings,
		Navigator: nav,
		Logger:    a.log,
	})
	defer ctrl.Close()

	ctrl.Input(text)
	return ctrl.Submit(ctx)
}

func runSuggest(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	query := strings.Join(args, " ")
	snap := a.settings.Snapshot()
	if snap.Key(a.cfg.Completion.Provider) == "" {
		return fmt.Errorf("no %s API key: run 'newtab key <apikey>' or set OPENAI_API_KEY", a.cfg.Completion.Provider)
	}

	result, err := a.fetcher.Fetch(ctx, query, snap)
	if err != nil {
		return err
	}
	for _, s := range result {
		switch s.Kind {
		case suggest.Link:
			fmt.Printf("%-10s %s\n", s.Kind, s.URL)
		case suggest.Completion:
			fmt.Printf("%-10s %s%s\n", s.Kind, query, s.Content)
		default:
			fmt.Printf("%-10s %s\n", s.Kind, s.Content)
		}
	}
	return nil
}

func runMode(args []string) error {
	a, err := setup(context.Background(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	text := strings.Join(args, " ")
	snap := a.settings.Snapshot()

	mode := "free"
	if d, ok := a.registry.Detect(text, snap); ok {
		mode = fmt.Sprintf("%s %s", d.Provider.Icon(d.Payload, snap).Glyph(), d.Provider.ID)
	}
	fmt.Printf("%s\n%s\n", mode, a.registry.Compose(text, snap))
	return nil
}

func runPins(args []string) error {
	ctx := context.Background()
	a, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	switch {
	case len(args) == 0:
		for i, p := range a.settings.Snapshot().Pins {
			fmt.Printf("%d  %s %-8s %s\n", i+1, omnibox.PinIcon(p.Kind).Glyph(), p.Kind, p.URL)
		}
		return nil
	case args[0] == "add" && len(args) == 3:
		return a.settings.AddPin(ctx, settings.Pin{Kind: args[1], URL: args[2]})
	case args[0] == "rm" && len(args) == 2:
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid pin number %q", args[1])
		}
		return a.settings.RemovePin(ctx, n-1)
	}
	return fmt.Errorf("usage: newtab pins [add <type> <url> | rm <n>]")
}

func runKey(args []string) error {
	provider := "openai"
	switch len(args) {
	case 1:
	case 2:
		provider, args = args[0], args[1:]
	default:
		return fmt.Errorf("usage: newtab key [provider] <apikey>")
	}

	ctx := context.Background()
	a, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.settings.SetKey(ctx, provider, args[0])
}

func runBackground(args []string) error {
	ctx := context.Background()
	a, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	switch {
	case len(args) == 0:
		snap := a.settings.Snapshot()
		current, _ := snap.CurrentBackground()
		for _, asset := range snap.Background.SavedAssets {
			marker := " "
			if asset.ID == current.ID {
				marker = "*"
			}
			value := asset.URL
			if asset.Type == settings.AssetColor {
				value = asset.Hex
			}
			fmt.Printf("%s %-36s %-6s %s\n", marker, asset.ID, asset.Type, value)
		}
		return nil

	case args[0] == "add" && len(args) == 3:
		asset := settings.Asset{ID: uuid.NewString(), Type: settings.AssetType(args[1])}
		switch asset.Type {
		case settings.AssetImage, settings.AssetVideo:
			asset.URL = args[2]
		case settings.AssetColor:
			asset.Hex = args[2]
		default:
			return fmt.Errorf("unknown background type %q", args[1])
		}
		if err := a.settings.AddBackground(ctx, asset); err != nil {
			return err
		}
		fmt.Println(asset.ID)
		return nil

	case args[0] == "use" && len(args) == 2:
		return a.settings.SetCurrentBackground(ctx, args[1])
	}
	return fmt.Errorf("usage: newtab bg [add <type> <url|hex> | use <id>]")
}
