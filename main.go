// Package main DVD rental API.
//
// @title           DVD Rental API
// @version         1.0
// @description     DVD rental service (catalog, reservations, rentals, transactions).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"dvdrental/app/echoServer"
	authctrl "dvdrental/app/echoServer/controller/auth"
	dvdctrl "dvdrental/app/echoServer/controller/dvd"
	rentalctrl "dvdrental/app/echoServer/controller/rental"
	reservationctrl "dvdrental/app/echoServer/controller/reservation"
	"dvdrental/app/echoServer/validation"
	"dvdrental/config"
	dvdrepo "dvdrental/repository/dvd"
	rentalrepo "dvdrental/repository/rental"
	reservationrepo "dvdrental/repository/reservation"
	userrepo "dvdrental/repository/user"
	authsvc "dvdrental/service/auth"
	"dvdrental/service/availability"
	dvdsvc "dvdrental/service/dvd"
	"dvdrental/service/notify"
	rentalsvc "dvdrental/service/rental"
	reservationsvc "dvdrental/service/reservation"
	"dvdrental/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ur := userrepo.New(db)
	dr := dvdrepo.New(db)
	rr := reservationrepo.New(db)
	lr := rentalrepo.New(db)

	// services
	ledger := availability.New(dr, log)
	notifier := notify.NewWebhook(cfg.NotifyWebhookURL, log)
	as := authsvc.New(ur, cfg.JWTSecret)
	ds := dvdsvc.New(dr)
	ls := rentalsvc.New(db, lr, dr, ledger, notifier, log)
	rs := reservationsvc.New(db, rr, dr, ur, lr, ledger, log)
	sweeper := rentalsvc.NewSweeper(db, lr, log)

	// background sweep of overdue rentals
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go rentalsvc.NewScheduler(cfg.SweepInterval, sweeper, log).Run(sweepCtx)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	dvdC := &dvdctrl.Controller{Svc: ds, V: v, Log: log}
	reservationC := &reservationctrl.Controller{Svc: rs, V: v, Log: log}
	rentalC := &rentalctrl.Controller{Svc: ls, Sweeper: sweeper, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:        authC,
		Dvd:         dvdC,
		Reservation: reservationC,
		Rental:      rentalC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "chosen_port", port, "sweep_interval", cfg.SweepInterval.String())

	e.Logger.Fatal(e.Start(":" + port))
}
