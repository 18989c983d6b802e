package main

import (
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/terminal-bench/lcaengine/internal/catalog"
	"github.com/terminal-bench/lcaengine/internal/gateway"
	"github.com/terminal-bench/lcaengine/internal/history"
	"github.com/terminal-bench/lcaengine/internal/report"
	"github.com/terminal-bench/lcaengine/pkg/messaging"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbURL := envOr("DATABASE_URL", "postgres://localhost/lcaengine?sslmode=disable")
	natsURL := envOr("NATS_URL", "nats://localhost:4222")
	redisURL := envOr("REDIS_URL", "localhost:6379")
	influxURL := envOr("INFLUX_URL", "http://localhost:8086")
	jwtSecret := envOr("JWT_SECRET", "dev-secret")

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	msgClient, err := messaging.NewClient(messaging.Config{
		URL:           natsURL,
		Name:          "lcaengine",
		ReconnectWait: time.Second,
		MaxReconnects: 5,
	})
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer msgClient.Close()

	rdb := redis.NewClient(&redis.Options{Addr: redisURL})
	defer rdb.Close()

	recorder := history.NewRecorder(influxURL, os.Getenv("INFLUX_TOKEN"),
		envOr("INFLUX_ORG", "lcaengine"), envOr("INFLUX_BUCKET", "reports"))
	defer recorder.Close()

	store := catalog.NewStore(db, msgClient)
	reports := report.NewService(store, rdb, msgClient, recorder)
	if err := reports.Start(); err != nil {
		log.Fatalf("Failed to subscribe to catalog events: %v", err)
	}

	gw := gateway.NewGateway(gateway.Config{JWTSecret: jwtSecret}, store, reports, msgClient)

	go func() {
		if err := gw.Start(":" + port); err != nil {
			log.Fatalf("Gateway failed: %v", err)
		}
	}()
	log.Printf("lcaengine listening on :%s", port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
