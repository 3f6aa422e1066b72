package main

import (
	"context"
	"embed"
	"log"
	"os/signal"
	"syscall"

	"github.com/notecast/crosspost/cmd"
)

//go:embed migrations/*
var embeddedMigrations embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.EmbeddedMigrations = embeddedMigrations

	if err := cmd.RootCommand().ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}
