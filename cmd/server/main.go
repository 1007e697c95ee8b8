package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/shop_api/internal/config"
	"github.com/Skotchmaster/shop_api/internal/es"
	"github.com/Skotchmaster/shop_api/internal/handlers"
	"github.com/Skotchmaster/shop_api/internal/logging"
	"github.com/Skotchmaster/shop_api/internal/mail"
	loggingmw "github.com/Skotchmaster/shop_api/internal/middleware/logging"
	"github.com/Skotchmaster/shop_api/internal/mykafka"
	"github.com/Skotchmaster/shop_api/internal/session"
	"github.com/Skotchmaster/shop_api/internal/token"
	httpserver "github.com/Skotchmaster/shop_api/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	prod := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	smtpPort, _ := strconv.Atoi(configuration.SMTP_PORT)
	mailer := mail.NewSMTPSender(
		configuration.SMTP_HOST,
		smtpPort,
		configuration.SMTP_USER,
		configuration.SMTP_PASSWORD,
		configuration.MAIL_FROM,
	)

	tokens := &token.Service{Secret: []byte(configuration.JWT_SECRET)}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:      db,
		Session: &session.Middleware{DB: db, Tokens: tokens},
		AuthHandler: &handlers.AuthHandler{
			DB:          db,
			Tokens:      tokens,
			Producer:    prod,
			Mailer:      mailer,
			FrontendURL: configuration.FRONTEND_URL,
		},
		ItemHandler:  &handlers.ItemHandler{DB: db, Producer: prod, ES: esClient, Index: "items"},
		CartHandler:  &handlers.CartHandler{DB: db, Producer: prod},
		UserHandler:  &handlers.UserHandler{DB: db},
		OrderHandler: &handlers.OrderHandler{DB: db, Policy: configuration.ORDER_ACCESS_POLICY},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
