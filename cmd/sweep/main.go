// Command sweep removes likes and comments whose parent rows are gone.
package main

import (
	"context"
	"log"
	"time"

	"inkwell/internal/blob"
	"inkwell/internal/bootstrap"
	"inkwell/internal/config"
	"inkwell/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ServiceName: "inkwell-sweep", SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close(ctx)

	srv, err := server.NewServerWithDeps(cfg, rt.DB, nil, blob.NewLocalStore(cfg))
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	res, err := srv.Cascade().SweepOrphans(ctx)
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	log.Printf("sweep removed %d likes and %d comments", res.Likes, res.Comments)
}
