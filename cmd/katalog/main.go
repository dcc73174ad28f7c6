package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/erazemk/katalog/internal/api"
	"github.com/erazemk/katalog/internal/catalog"
	"github.com/erazemk/katalog/internal/config"
	"github.com/erazemk/katalog/internal/telemetry"
)

const usage = `Usage: katalog [serve|init|seed] [flags]

Commands:
  serve                   run the HTTP server (default)
  init                    create the first admin account and print its password
  seed                    insert sample items into an empty catalog

Flags:
  -c, -config <path>      YAML configuration file
  -backend <sqlite|mongo> document store (default: sqlite)
  -d, -db <path>          SQLite database path (default: katalog.sqlite3)
  -mongo-uri <uri>        MongoDB connection string (or MONGODB_URI)
  -redis-url <url>        Redis URL for token revocations (or REDIS_URL)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit
`

func main() {
	args := os.Args[1:]
	command := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("katalog", flag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	fs.Usage = func() { fmt.Fprint(os.Stdout, usage) }

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	flags.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// INFO/WARN to stdout, ERROR to stderr, optionally also to a file.
	closeLog, err := setupLogger(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	switch command {
	case "serve":
		err = serve(cfg)
	case "init":
		err = initAdmin(cfg)
	case "seed":
		err = seed(cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		fs.Usage()
		os.Exit(1)
	}
	if err != nil {
		slog.Error("katalog failed", "command", command, "error", err)
		os.Exit(1)
	}
}

// withService opens the store and runs fn against a ready service.
func withService(ctx context.Context, cfg config.Config, fn func(*catalog.Service) error) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	svc, cleanup, err := newService(ctx, cfg, st)
	if err != nil {
		return err
	}
	defer cleanup()

	return fn(svc)
}

func initAdmin(cfg config.Config) error {
	return withService(context.Background(), cfg, func(svc *catalog.Service) error {
		password, created, err := svc.BootstrapAdmin(context.Background(), cfg.AdminUser)
		if err != nil {
			return err
		}
		if !created {
			fmt.Println("An admin account already exists, nothing to do.")
			return nil
		}
		printInitResult(cfg.AdminUser, password)
		return nil
	})
}

func seed(cfg config.Config) error {
	return withService(context.Background(), cfg, func(svc *catalog.Service) error {
		n, err := svc.Seed(context.Background(), cfg.AdminUser)
		if err != nil {
			return err
		}
		fmt.Printf("Inserted %d sample items.\n", n)
		return nil
	})
}

func serve(cfg config.Config) error {
	ctx := context.Background()

	tp, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	return withService(ctx, cfg, func(svc *catalog.Service) error {
		// First run: create the admin account.
		password, created, err := svc.BootstrapAdmin(ctx, cfg.AdminUser)
		if err != nil {
			return err
		}
		if created {
			printInitResult(cfg.AdminUser, password)
			fmt.Println()
		}

		if cfg.SeedOnStart {
			n, err := svc.Seed(ctx, cfg.AdminUser)
			if err != nil {
				return err
			}
			if n > 0 {
				slog.Info("sample items inserted", "items", n)
			}
		}

		handler := api.LoggingMiddleware(api.NewRouter(svc))
		if tp.Enabled() {
			handler = telemetry.Handler(handler, "katalog")
		}

		server := &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		return run(server)
	})
}

// run serves until SIGINT or SIGTERM, then shuts down gracefully.
func run(server *http.Server) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return serveUntil(server, ln, quit)
}

// serveUntil serves on ln until quit fires. It returns only after in-flight
// requests have drained, so the caller may close the store afterwards.
func serveUntil(server *http.Server, ln net.Listener, quit <-chan os.Signal) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", ln.Addr().String())
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-done
	slog.Info("server stopped, closing database")
	return nil
}

// printInitResult prints the bootstrap admin credentials to stdout.
func printInitResult(username, password string) {
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}
