// Command migrate applies the embedded schema migrations: documents, the
// category and payment-method catalog, prompt overrides and the document
// status procedures.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/trackerzenith/docpipe/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

type options struct {
	dsn      string
	up       bool
	down     bool
	steps    int
	version  bool
	force    int
	forceSet bool
}

func main() {
	opts := parseFlags()

	if opts.dsn == "" {
		db, err := config.LoadDatabase()
		if err != nil {
			log.Fatalf("load database config: %v", err)
		}
		opts.dsn = db.Dsn()
	}

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.dsn, "dsn", "", "database connection string (defaults to the [database] config)")
	flag.BoolVar(&opts.up, "up", false, "apply all up migrations")
	flag.BoolVar(&opts.down, "down", false, "revert all migrations")
	flag.IntVar(&opts.steps, "steps", 0, "migrate N steps (positive=up, negative=down)")
	flag.BoolVar(&opts.version, "version", false, "print the current schema version")
	flag.IntVar(&opts.force, "force", -1, "force the schema version without migrating")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			opts.forceSet = true
		}
	})
	return opts
}

func run(opts options) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, opts.dsn)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	switch {
	case opts.version:
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("version: none")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
	case opts.forceSet:
		if err := m.Force(opts.force); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
		fmt.Printf("forced to version %d\n", opts.force)
	case opts.up:
		if err := ignoreNoChange(m.Up()); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		fmt.Println("migrations applied")
	case opts.down:
		if err := ignoreNoChange(m.Down()); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		fmt.Println("migrations reverted")
	case opts.steps != 0:
		if err := ignoreNoChange(m.Steps(opts.steps)); err != nil {
			return fmt.Errorf("migrate %d steps: %w", opts.steps, err)
		}
		fmt.Printf("applied %d migration steps\n", opts.steps)
	default:
		fmt.Fprintln(os.Stderr, "usage: migrate [-dsn <url>] -up | -down | -steps N | -version | -force N")
		flag.PrintDefaults()
	}
	return nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
