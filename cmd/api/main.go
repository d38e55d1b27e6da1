package main

import (
	"context"
	"log"
	"os"

	"user-management-api/cmd/api/app"
	"user-management-api/cmd/api/server"
)

func main() {
	if err := run(); err != nil {
		log.Printf("application exited with error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := server.WithSignal(context.Background())
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		return err
	}

	return a.Run(ctx)
}
