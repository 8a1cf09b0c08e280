package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sellerdash/internal/cache"
	"sellerdash/internal/config"
	"sellerdash/internal/httpapi"
	"sellerdash/internal/kv"
	"sellerdash/internal/service"
	"sellerdash/internal/store"
	"sellerdash/internal/store/memory"
	pgstore "sellerdash/internal/store/postgres"
	"sellerdash/internal/wbapi"
)

func main() {
	cfg := config.Load()
	if cfg.WBToken == "" {
		log.Fatal("WB_API_TOKEN must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	} else {
		repo = memory.New()
		log.Println("repository: in-memory")
	}

	var substrate kv.Store = kv.NewMemory()
	if cfg.RedisAddr != "" {
		redisKV := kv.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisKV.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using in-memory cache substrate", err)
		} else {
			substrate = redisKV
			closers = append(closers, redisKV.Close)
			log.Println("cache substrate: redis")
		}
	} else {
		log.Println("cache substrate: in-memory")
	}

	fetcher := cache.NewFetcher(cache.New(substrate))
	wb := wbapi.NewClient(cfg.WBToken)
	svc := service.New(repo, fetcher, wb, cfg.StoreID)
	api := httpapi.New(svc, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("analytics backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}
