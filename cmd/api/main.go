package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aslanbek/filevault/internal/auth"
	"github.com/aslanbek/filevault/internal/config"
	"github.com/aslanbek/filevault/internal/file"
	"github.com/aslanbek/filevault/internal/quota"
	"github.com/aslanbek/filevault/internal/server"
	"github.com/aslanbek/filevault/internal/share"
	"github.com/aslanbek/filevault/internal/storage"
	"github.com/aslanbek/filevault/internal/thumbnail"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer dbPool.Close()

	objects, err := buildObjectStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("init object store: %v", err)
	}

	authRepo := auth.NewRepository(dbPool)
	authService := auth.NewService(authRepo, objects, cfg.Auth, cfg.Quota)

	fileRepo := file.NewRepository(dbPool)
	accountant := quota.NewAccountant(fileRepo, authRepo)

	var fileService *file.Service
	if cfg.Storage.Driver == "fs" {
		thumbs := thumbnail.NewGenerator(cfg.Storage.ThumbnailMaxDim)
		fileService = file.NewService(fileRepo, accountant, objects, thumbs, cfg.Upload)
	} else {
		fileService = file.NewService(fileRepo, accountant, objects, nil, cfg.Upload)
	}
	shareService := share.NewService(fileRepo, objects, cfg.Share.BaseURL, cfg.Share.DefaultTTL)

	router := server.NewRouter(server.Dependencies{
		Config:       cfg,
		DB:           dbPool,
		ObjectStore:  objects,
		AuthService:  authService,
		FileService:  fileService,
		ShareService: shareService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("FileVault API listening on %s", cfg.Server.Address())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Println("shutting down gracefully...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func buildObjectStore(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStore, error) {
	switch cfg.Driver {
	case "s3":
		client, err := storage.NewMinIOClient(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		if err := storage.EnsureBucket(ctx, client, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
			return nil, err
		}
		return storage.NewS3Store(client, cfg.MinIO.Bucket), nil
	default:
		return storage.NewFSStore(cfg.Root)
	}
}
