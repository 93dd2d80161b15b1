package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"zenwriter/composer"
	"zenwriter/config"
	"zenwriter/generator"
	"zenwriter/logger"
	"zenwriter/preview"
	"zenwriter/server"
	"zenwriter/storage"
)

var verbose bool

func main() {
	configPath := flag.String("config", "", "path to config.json (optional)")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	file := flag.String("file", "", "markdown document to open")
	cont := flag.Bool("continue", false, "stream a continuation onto the end of --file")
	improve := flag.String("improve", "", "rewrite the --select range with this instruction")
	sel := flag.String("select", "", "character range start:end")
	alternatives := flag.Bool("alternatives", false, "list alternatives for the --select range")
	flag.BoolVar(&verbose, "v", false, "enable debug logs")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{
		File:       cfg.Log.File,
		Production: cfg.Log.Production,
		Verbose:    verbose || cfg.Log.Verbose,
	})
	defer log.Sync()

	llm, err := generator.NewLLM(&generator.LLMSettings{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		SmartModel: cfg.LLM.SmartModel,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	agent, err := generator.NewAgent(llm, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Web server mode
	if *serve {
		listen := cfg.ServerAddr
		if *addr != "" {
			listen = *addr
		}
		if err := runServer(ctx, cfg, listen, agent, log); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if *file == "" {
		fmt.Fprintln(os.Stderr, "--file is required (or use --serve)")
		os.Exit(1)
	}
	opts := cliOptions{file: *file, cont: *cont, improve: *improve, selection: *sel, alternatives: *alternatives}
	if err := runCLI(ctx, cfg, opts, agent, log); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

func openBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, func(), error) {
	switch cfg.Driver {
	case "redis":
		b := storage.NewRedisBackend(cfg.RedisURL, cfg.KeyPrefix)
		if err := b.Ping(ctx); err != nil {
			b.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return b, func() { b.Close() }, nil
	case "memory":
		return storage.NewMemoryBackend(), func() {}, nil
	default:
		return storage.FileBackend{Dir: cfg.Dir}, func() {}, nil
	}
}

func runServer(ctx context.Context, cfg config.Config, listen string, agent *generator.Agent, log *zap.Logger) error {
	backend, closeBackend, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeBackend()

	srv, err := server.New(agent, backend, cfg.Editor, log)
	if err != nil {
		return err
	}
	defer srv.Close()

	httpSrv := &http.Server{Addr: listen, Handler: srv.Routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info("starting web server", zap.String("addr", listen), zap.String("provider", cfg.LLM.Provider), zap.String("storage", cfg.Storage.Driver))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type cliOptions struct {
	file         string
	cont         bool
	improve      string
	selection    string
	alternatives bool
}

func runCLI(ctx context.Context, cfg config.Config, opts cliOptions, agent *generator.Agent, log *zap.Logger) error {
	ctrl, err := composer.Open(ctx, storage.NewFileStore(opts.file), cfg.Editor.SaveWindow(),
		composer.WithGenerator(agent),
		composer.WithRewriter(agent),
		composer.WithContextChars(cfg.Editor.ContextChars),
		composer.WithLogger(log),
	)
	if err != nil {
		return err
	}
	defer func() {
		ctrl.Flush()
		ctrl.Close()
	}()

	fragment := color.New(color.FgCyan)
	ctrl.Subscribe(composer.Observer{
		OnAppended: func(frag string) { fragment.Print(frag) },
	})
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			ctrl.Abort()
		case <-done:
		}
	}()

	if opts.selection != "" {
		start, end, err := parseRange(opts.selection)
		if err != nil {
			return err
		}
		if ctrl.UpdateSelection(start, end) == nil {
			return fmt.Errorf("--select %s is empty", opts.selection)
		}
	}

	switch {
	case opts.cont:
		opCtx, cancel := context.WithTimeout(ctx, cfg.Editor.RequestTimeout())
		defer cancel()
		sess, err := ctrl.BeginContinue(opCtx)
		if err != nil {
			return err
		}
		err = sess.Wait()
		fmt.Println()
		if err != nil && !errors.Is(err, composer.ErrAborted) {
			return err
		}
		color.Green("continued with %d fragments", sess.Fragments())
	case opts.improve != "":
		opCtx, cancel := context.WithTimeout(ctx, cfg.Editor.RequestTimeout())
		defer cancel()
		sess, err := ctrl.BeginImprove(opCtx, opts.improve)
		if err != nil {
			return err
		}
		if err := sess.Wait(); err != nil {
			return err
		}
		fmt.Println(ctrl.Text())
	case opts.alternatives:
		s := ctrl.Selection()
		if s == nil {
			return composer.ErrNoSelection
		}
		opCtx, cancel := context.WithTimeout(ctx, cfg.Editor.RequestTimeout())
		defer cancel()
		alts, err := agent.Alternatives(opCtx, s.Text)
		if err != nil {
			return err
		}
		color.Yellow("alternatives for %q:", s.Text)
		for _, alt := range alts {
			fmt.Println("  " + alt)
		}
	default:
		st := preview.Count(ctrl.Text())
		fmt.Printf("%s: %d words, %d min read\n", opts.file, st.Words, st.ReadingMinutes)
	}
	return nil
}

// parseRange parses "start:end" character offsets.
func parseRange(s string) (int, int, error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("range %q must be start:end", s)
	}
	start, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("range start: %w", err)
	}
	end, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("range end: %w", err)
	}
	return start, end, nil
}
