package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/leengari/graphsql/internal/config"
	"github.com/leengari/graphsql/internal/infrastructure/logging"
	"github.com/leengari/graphsql/internal/network"
	"github.com/leengari/graphsql/internal/storage/dialect"
	"github.com/leengari/graphsql/internal/storage/manager"
)

const usage = `Usage: graphsql <command> [flags]

Commands:
  server    Run the REST and GraphQL API
  inspect   Print the reflected database schema
  init      Write a .env configuration template
  version   Print the version
`

// usageText lists the commands and the dialects compiled into this binary
func usageText() string {
	return usage + "\nDatabases: " + strings.Join(dialect.Names(), ", ") + "\n"
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usageText())
		return nil
	}

	switch args[0] {
	case "server":
		return serverCmd(args[1:])
	case "inspect":
		return inspectCmd(args[1:], out)
	case "init":
		return initCmd(args[1:], out)
	case "version":
		fmt.Fprintf(out, "graphsql %s\n", network.Version)
		return nil
	case "help", "-h", "--help":
		fmt.Fprint(out, usageText())
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usageText())
	}
}

// loadConfig reads the environment, then applies the flags that were set
func loadConfig(fs *flag.FlagSet, host, logLevel, databaseURL *string, port *int) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = *host
		case "port":
			cfg.Port = *port
		case "log-level":
			cfg.LogLevel = *logLevel
		case "database-url":
			cfg.DatabaseURL = *databaseURL
		}
	})
	return cfg, cfg.Validate()
}

func serverCmd(args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	host := fs.String("host", "", "Host to bind (overrides API_HOST)")
	port := fs.Int("port", 0, "Port to listen on (overrides API_PORT)")
	logLevel := fs.String("log-level", "", "Log level (overrides LOG_LEVEL)")
	databaseURL := fs.String("database-url", "", "Database URL (overrides DATABASE_URL)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(fs, host, logLevel, databaseURL, port)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	logger, closeFn := logging.SetupLogger(cfg.LogLevel, cfg.SeqURL)
	defer closeFn()
	slog.SetDefault(logger)

	if cfg.EnableAuth && cfg.JWTSecret == config.DefaultJWTSecret {
		slog.Warn("JWT_SECRET_KEY is the default value, set a secret before deploying")
	}

	mgr, err := manager.New(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer mgr.Close()

	srv, err := network.NewServer(cfg, mgr, logger)
	if err != nil {
		return err
	}

	slog.Info("Starting GraphSQL", "version", network.Version, "database", mgr.Target().Display)
	return srv.Start(context.Background())
}

func inspectCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	databaseURL := fs.String("database-url", "", "Database URL (overrides DATABASE_URL)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(fs, nil, nil, databaseURL, nil)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	logger, closeFn := logging.SetupLogger("WARNING", "")
	defer closeFn()
	slog.SetDefault(logger)

	mgr, err := manager.New(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer mgr.Close()

	catalog, err := mgr.Reload(context.Background())
	if catalog == nil {
		return err
	}
	fmt.Fprint(out, renderCatalog(mgr.Target().Display, catalog))
	if err != nil {
		fmt.Fprintln(out, warnStyle.Render(err.Error()))
	}
	return nil
}

func initCmd(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	output := fs.String("output", ".env", "File to write")
	force := fs.Bool("force", false, "Overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(*output); err == nil && !*force {
		return fmt.Errorf("%s already exists, use --force to overwrite", *output)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.WriteFile(*output, []byte(config.EnvTemplate), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *output, err)
	}
	fmt.Fprintf(out, "Created %s. Edit DATABASE_URL, then run: graphsql server\n", *output)
	return nil
}
