package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"

	"github.com/NordCoder/Restora/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

var dialects = map[string]struct {
	driver  string
	dialect goose.Dialect
}{
	"postgres": {"pgx", goose.DialectPostgres},
	"sqlite":   {"sqlite", goose.DialectSQLite3},
}

func main() {
	driver := flag.String("driver", env("DB_DRIVER", "postgres"), "postgres or sqlite")
	dsn := flag.String("dsn", os.Getenv("DB_DSN"), "connection string or sqlite path")
	down := flag.Bool("down", false, "roll back the latest migration")
	flag.Parse()

	if *dsn == "" {
		log.Fatal("DB_DSN is empty")
	}
	d, ok := dialects[*driver]
	if !ok {
		log.Fatalf("unknown driver %q", *driver)
	}
	fsys, err := migrations.FS(*driver)
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open(d.driver, *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	p, err := goose.NewProvider(d.dialect, db, fsys)
	if err != nil {
		log.Fatalf("goose provider: %v", err)
	}

	ctx := context.Background()
	if *down {
		res, err := p.Down(ctx)
		if err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		log.Printf("migrations: rolled back %v", res)
		return
	}
	results, err := p.Up(ctx)
	if err != nil {
		log.Fatalf("migrate up: %v", err)
	}
	log.Printf("migrations: up OK (%d applied)", len(results))
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
