package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/Devlipesilva17/studio-sub000/internal/config"
	"github.com/Devlipesilva17/studio-sub000/internal/database"
	"github.com/Devlipesilva17/studio-sub000/internal/gcal"
	"github.com/Devlipesilva17/studio-sub000/internal/handler"
	"github.com/Devlipesilva17/studio-sub000/internal/notify"
	"github.com/Devlipesilva17/studio-sub000/internal/queue"
	"github.com/Devlipesilva17/studio-sub000/internal/recommend"
	"github.com/Devlipesilva17/studio-sub000/internal/repository"
	"github.com/Devlipesilva17/studio-sub000/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	// Redis is optional: without it the rate limiter and the change feed are
	// disabled, everything else keeps working.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and change feed disabled")
	}
	notifier := notify.New(rdb)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	clients := repository.NewClientRepo(db)
	pools := repository.NewPoolRepo(db)
	visits := repository.NewVisitRepo(db)
	products := repository.NewProductRepo(db)
	payments := repository.NewPaymentRepo(db)
	creds := repository.NewCredentialRepo(db)

	// Calendar sync is enabled only when OAuth credentials are configured.
	var (
		calAPI    *gcal.Client
		calBridge *gcal.Bridge
	)
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		loc, err := time.LoadLocation(cfg.CalendarTZ)
		if err != nil {
			log.Fatalf("calendar: bad CALENDAR_TZ %q: %v", cfg.CalendarTZ, err)
		}
		calAPI = gcal.NewClient(gcal.Options{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
		calBridge = gcal.NewBridge(creds, visits, calAPI, loc)
	} else {
		log.Println("google oauth not configured; calendar sync disabled")
	}

	// Recommendations degrade to a placeholder answer when no generator is
	// configured; the form endpoint stays up either way.
	var gen recommend.Generator
	if cfg.GeminiAPIKey != "" {
		g, err := recommend.NewGeminiGenerator(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Printf("gemini: %v; recommendations degraded", err)
		} else {
			gen = g
		}
	} else {
		log.Println("gemini not configured; recommendations degraded")
	}

	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartVisitConsumer(cfg.AMQPURL); err != nil {
				log.Printf("rabbitmq consumer stopped: %v", err)
			}
		}()
	}

	h := router.Handlers{
		Auth:      handler.NewAuthHandler(cfg, users, tokens),
		Clients:   handler.NewClientHandler(clients, notifier),
		Pools:     handler.NewPoolHandler(pools, clients, notifier),
		Visits:    handler.NewVisitHandler(visits, pools, clients, products, notifier, cfg.AMQPURL),
		Products:  handler.NewProductHandler(products),
		Payments:  handler.NewPaymentHandler(payments, clients),
		Recommend: handler.NewRecommendHandler(recommend.NewBuilder(gen)),
		Calendar:  handler.NewCalendarHandler(calAPI, calBridge, creds, visits, pools, clients),
		Events:    handler.NewEventsHandler(notifier),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
