package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nstehr/colony/agent"
	"github.com/nstehr/colony/config"
	"github.com/nstehr/colony/history"
	"github.com/nstehr/colony/ipc"
	"github.com/nstehr/colony/rules"
)

const banner = `
 ██████╗ ██████╗ ██╗      ██████╗ ███╗   ██╗██╗   ██╗
██╔════╝██╔═══██╗██║     ██╔═══██╗████╗  ██║╚██╗ ██╔╝
██║     ██║   ██║██║     ██║   ██║██╔██╗ ██║ ╚████╔╝
██║     ██║   ██║██║     ██║   ██║██║╚██╗██║  ╚██╔╝
╚██████╗╚██████╔╝███████╗╚██████╔╝██║ ╚████║   ██║
 ╚═════╝ ╚═════╝ ╚══════╝ ╚═════╝ ╚═╝  ╚═══╝   ╚═╝

Greedy Turn Planner for Ants`

func main() {
	configPath := flag.String("config", "colony.yaml", "path to YAML config")
	submission := flag.Bool("submission", false, "tournament mode: log errors only")
	transport := flag.String("transport", "", "override transport (unix|websocket)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *submission {
		cfg.Log.Submission = true
	}
	if *transport != "" {
		cfg.Transport = *transport
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogging(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if !cfg.Log.Submission {
		fmt.Println(banner)
	}
	slog.Info("starting colony", "version", cfg.Version, "transport", cfg.Transport)

	watch := rules.DefaultRules()
	if len(cfg.Watch) > 0 {
		watch = rules.FromConfig(cfg.Watch)
	}
	// Compile once up front so a bad expression fails at startup.
	if _, err := rules.NewEngine(watch); err != nil {
		slog.Error("invalid watch rules", "error", err)
		os.Exit(1)
	}

	var store *history.Store
	if cfg.History.Path != "" {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			slog.Error("failed to open history", "path", cfg.History.Path, "error", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := &server{cfg: cfg, history: store}
	switch cfg.Transport {
	case config.TransportWebSocket:
		err = s.dial(ctx)
	default:
		err = s.listen(ctx)
	}
	if err != nil {
		slog.Error("transport failed", "error", err)
		os.Exit(1)
	}
	slog.Info("shutting down")
}

func setupLogging(cfg config.LogConfig) (func(), error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	var out io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, err
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return closeFn, nil
}

type server struct {
	cfg     config.Config
	history *history.Store
	wg      sync.WaitGroup
}

func (s *server) listen(ctx context.Context) error {
	socketPath := s.cfg.SocketPath

	// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("clean up socket %s: %w", socketPath, err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer os.Remove(socketPath)

	slog.Info("listening on domain socket", "path", socketPath)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			slog.Error("failed to accept connection", "error", err)
			continue
		}
		slog.Info("new connection accepted")
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(ctx, ipc.NewStreamTransport(conn))
		}()
	}
}

func (s *server) dial(ctx context.Context) error {
	t, err := ipc.DialWebSocket(ctx, s.cfg.URL)
	if err != nil {
		return err
	}
	slog.Info("connected to engine", "url", s.cfg.URL)
	s.serve(ctx, t)
	return nil
}

// serve runs one game session to completion.
func (s *server) serve(ctx context.Context, t ipc.Transport) {
	validator, err := ipc.NewValidator()
	if err != nil {
		slog.Error("failed to build validator", "error", err)
		t.Close()
		return
	}
	watch := rules.DefaultRules()
	if len(s.cfg.Watch) > 0 {
		watch = rules.FromConfig(s.cfg.Watch)
	}
	engine, err := rules.NewEngine(watch)
	if err != nil {
		slog.Error("failed to compile watch rules", "error", err)
		t.Close()
		return
	}

	c := ipc.NewConnection(t, nil)
	c.SetValidator(validator)
	a := agent.New(ctx, agent.Options{
		Version:    s.cfg.Version,
		TurnBudget: s.cfg.TurnBudget,
		Rules:      engine,
		History:    s.history,
		Logger:     slog.Default(),
	})
	a.Register(c)
	c.ReadLoop(ctx)
}
