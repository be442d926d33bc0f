package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/cinebook/movie-ticket-booking/internal/config"
	"github.com/cinebook/movie-ticket-booking/internal/database"
	"github.com/cinebook/movie-ticket-booking/internal/handler"
	"github.com/cinebook/movie-ticket-booking/internal/jobs"
	"github.com/cinebook/movie-ticket-booking/internal/queue"
	"github.com/cinebook/movie-ticket-booking/internal/repository"
	"github.com/cinebook/movie-ticket-booking/internal/router"
	"github.com/cinebook/movie-ticket-booking/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	migCtx, migCancel := context.WithTimeout(ctx, time.Minute)
	defer migCancel()
	if err := database.Migrate(migCtx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if cfg.SeedDemo {
		if err := database.SeedDemo(migCtx, db); err != nil {
			log.Fatalf("seed demo data: %v", err)
		}
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unreachable; rate limiting and response caching disabled")
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.AMQPURL != "" {
		events = service.NewAMQPPublisher(cfg.AMQPURL)
		consumer := queue.NewConsumer(cfg.AMQPURL, "logs/booking.log")
		go consumer.Run(ctx)
	}

	store := repository.NewStore(db)
	svc := service.NewBookingService(store, events, service.Options{
		HoldTTL:         cfg.HoldTTL,
		CashbackPercent: int64(cfg.CashbackPercent),
	})

	sweeper := jobs.NewHoldSweeper(svc, cfg.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Booking: handler.NewBookingHandler(svc),
		Seats:   handler.NewSeatHandler(svc),
		Wallet:  handler.NewWalletHandler(svc),
	}, cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
