package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"comercio/db"
)

func main() {
	var dirFlag string
	flag.StringVar(&dirFlag, "dir", "migrations", "migrations directory inside the embedded filesystem")
	flag.Parse()

	command := strings.TrimSpace(strings.ToLower(flag.Arg(0)))
	if command == "" {
		command = "up"
	}
	switch command {
	case "up", "down", "status":
	default:
		fmt.Fprintf(os.Stderr, "unsupported command %q (want up, down or status)\n", command)
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	conn, err := sql.Open("postgres", dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	goose.SetBaseFS(db.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set dialect: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch command {
	case "up":
		err = goose.UpContext(ctx, conn, dirFlag)
	case "down":
		err = goose.DownContext(ctx, conn, dirFlag)
	case "status":
		err = goose.StatusContext(ctx, conn, dirFlag)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s failed: %v\n", command, err)
		os.Exit(1)
	}

	fmt.Printf("migrate %s completed\n", command)
}
