package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Anermers95/SWE5006/internal/config"
	"github.com/Anermers95/SWE5006/internal/database"
	"github.com/Anermers95/SWE5006/internal/handler"
	"github.com/Anermers95/SWE5006/internal/middleware"
	"github.com/Anermers95/SWE5006/internal/queue"
	"github.com/Anermers95/SWE5006/internal/repository"
	"github.com/Anermers95/SWE5006/internal/router"
	"github.com/Anermers95/SWE5006/internal/service"
)

func main() {
	// .env is a development convenience; in production the variables
	// come from the environment itself.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded, using process environment")
	}

	cfg := config.Load()
	policy := config.LoadBookingPolicy()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	rooms := repository.NewRoomRepo(db)
	bookings := repository.NewBookingRepo(db)
	logs := repository.NewBookingLogRepo(db)

	publisher := &queue.Publisher{URL: queue.BrokerURL()}
	svc := service.NewBookingService(bookings, rooms, users, logs, publisher, policy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.StartExpirySweep(ctx, cfg.SweepInterval)
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}
	// Mounted before JWT auth: bucket keys are built from client IP
	// and route, never from a user id.
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterHealth(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterRooms(e, handler.NewRoomHandler(rooms, bookings), handler.NewAvailabilityHandler(svc), cfg.JWTSecret)
	router.RegisterBookings(e, handler.NewBookingHandler(svc), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
