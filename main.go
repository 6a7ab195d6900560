package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"localboard/internal/config"
	"localboard/internal/engine"
	"localboard/internal/export"
	boardnet "localboard/internal/net"
	"localboard/internal/render"
	"localboard/internal/state"
	"localboard/internal/ui"
)

type flags struct {
	configPath string
	port       int
	title      string
	logLevel   string
	noAdvert   bool
	discover   bool
	export     string
	input      string
	outDir     string
}

func parseFlags() (flags, []string) {
	var f flags
	flag.StringVar(&f.configPath, "config", config.Path(), "config file")
	flag.IntVar(&f.port, "port", boardnet.DefaultPort, "port to host on")
	flag.StringVar(&f.title, "title", "", "board title, used in export file names")
	flag.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	flag.BoolVar(&f.noAdvert, "no-advertise", false, "do not announce the board over mDNS")
	flag.BoolVar(&f.discover, "discover", false, "list boards hosted on the LAN and exit")
	flag.StringVar(&f.export, "export", "", "export the board given by -in as png or pdf and exit")
	flag.StringVar(&f.input, "in", "", "saved board (JSON) for -export")
	flag.StringVar(&f.outDir, "out", "", "directory for -export (default from config)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [%shost:port]\n", os.Args[0], boardnet.Scheme)
		flag.PrintDefaults()
	}
	flag.Parse()
	return f, flag.Args()
}

// apply lets explicitly set flags override the config file.
func (f flags) apply(cfg *config.Config) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "port":
			cfg.Network.Port = f.port
		case "title":
			cfg.Title = f.title
		case "log-level":
			cfg.LogLevel = f.logLevel
		case "no-advertise":
			cfg.Network.Advertise = !f.noAdvert
		case "out":
			cfg.Export.Directory = f.outDir
		}
	})
	cfg.Validate()
}

func main() {
	f, args := parseFlags()

	cfg, err := config.Load(f.configPath)
	f.apply(cfg)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)
	if err != nil {
		logger.Warn("using default config", "path", f.configPath, "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case f.discover:
		os.Exit(runDiscover(ctx, logger))
	case f.export != "":
		os.Exit(runExport(ctx, cfg, f, logger))
	case len(args) > 0 && strings.HasPrefix(args[0], boardnet.Scheme):
		runClient(ctx, cfg, args[0], logger)
	default:
		runHost(ctx, cfg, logger)
	}
}

// session is the local replica with its engine and drawing stack.
type session struct {
	board    *state.Board
	engine   *engine.Engine
	renderer *render.Renderer
	exporter *export.Exporter
}

func newSession(cfg *config.Config, logger *slog.Logger) *session {
	board := state.NewBoard(logger)
	renderer := render.New(render.Options{Outliner: cfg.Canvas.Stroke, Logger: logger})
	return &session{
		board: board,
		engine: engine.New(board, engine.Options{
			MaxLayers:        cfg.Canvas.MaxLayers,
			MinPointDistance: cfg.Canvas.MinPointDistance,
			Outliner:         cfg.Canvas.Stroke,
			Logger:           logger,
		}),
		renderer: renderer,
		exporter: export.New(export.Options{
			Renderer:  renderer,
			Padding:   cfg.Export.Padding,
			Settle:    time.Duration(cfg.Export.Settle),
			MaxPixels: cfg.Export.MaxPixels,
			Logger:    logger,
		}),
	}
}

func (s *session) app(cfg *config.Config, link string, logger *slog.Logger) *ui.App {
	return ui.New(ui.Options{
		Title:     cfg.Title,
		ShareLink: link,
		Board:     s.board,
		Engine:    s.engine,
		Renderer:  s.renderer,
		Exporter:  s.exporter,
		Logger:    logger,
	})
}

func runHost(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := newSession(cfg, logger)
	hub := boardnet.NewHub(s.board, s.engine, logger)
	s.board.SetOnLocalOp(hub.Publish)
	s.engine.OnPresence(hub.PublishPresence)

	link := boardnet.Link(boardnet.LocalIP(), cfg.Network.Port)
	a := s.app(cfg, link, logger)

	go func() {
		if err := hub.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Network.Port)); err != nil {
			logger.Error("hosting failed", "err", err)
			a.SetStatus(fmt.Sprintf("Hosting failed: %v", err))
		}
	}()
	if cfg.Network.Advertise {
		server, err := boardnet.Advertise(cfg.Title, cfg.Network.Port, logger)
		if err != nil {
			logger.Warn("mDNS advertise failed", "err", err)
		} else {
			defer server.Shutdown()
		}
	}

	logger.Info("share this link", "link", link)
	a.Run()
}

func runClient(ctx context.Context, cfg *config.Config, link string, logger *slog.Logger) {
	addr, err := boardnet.ParseLink(link)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := newSession(cfg, logger)
	var client atomic.Pointer[boardnet.Client]
	s.board.SetOnLocalOp(func(op state.Op) {
		if c := client.Load(); c != nil {
			c.Publish(op)
		}
	})
	s.engine.OnPresence(func(p engine.Presence) {
		if c := client.Load(); c != nil {
			c.PublishPresence(p)
		}
	})

	a := s.app(cfg, "", logger)
	go func() {
		a.SetStatus("Connecting to " + addr)
		c, err := boardnet.Dial(ctx, addr, s.board, s.engine, logger)
		if err != nil {
			a.SetStatus(fmt.Sprintf("Connection failed: %v", err))
			return
		}
		client.Store(c)
		a.SetStatus(fmt.Sprintf("Connected to host as participant %d", c.Connection))
		if err := c.Run(ctx); err != nil {
			logger.Warn("left board", "err", err)
			a.SetStatus(fmt.Sprintf("Disconnected from host: %v", err))
		}
		client.Store(nil)
	}()
	a.Run()
}

func runDiscover(ctx context.Context, logger *slog.Logger) int {
	n := 0
	err := boardnet.Browse(ctx, 3*time.Second, func(f boardnet.Found) {
		n++
		title := f.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s\t%s\t%s\n", f.Link(), f.Host, title)
	})
	if err != nil {
		logger.Error("discovery failed", "err", err)
		return 1
	}
	if n == 0 {
		fmt.Fprintln(os.Stderr, "no boards found")
	}
	return 0
}

func runExport(ctx context.Context, cfg *config.Config, f flags, logger *slog.Logger) int {
	format, err := export.ParseFormat(f.export)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if f.input == "" {
		fmt.Fprintln(os.Stderr, "-export needs a saved board given with -in")
		return 2
	}
	file, err := os.Open(f.input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer file.Close()
	snap, err := state.ReadJSON(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	s := newSession(cfg, logger)
	if err := s.board.Load(snap); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	path, err := s.exporter.ToDir(ctx, cfg.Export.Directory, cfg.Title, s.board, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		return 1
	}
	fmt.Println(path)
	return 0
}
