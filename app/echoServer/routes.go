package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"dvdrental/app/echoServer/controller/auth"
	"dvdrental/app/echoServer/controller/dvd"
	"dvdrental/app/echoServer/controller/rental"
	"dvdrental/app/echoServer/controller/reservation"
)

type C struct {
	Auth        *auth.Controller
	Dvd         *dvd.Controller
	Reservation *reservation.Controller
	Rental      *rental.Controller

	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	// Auth
	authed := e.Group("/v1")
	authed.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),

		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	// user_id + role extraction
	authed.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			tokenObj := ctx.Get("user")
			if tokenObj == nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			claims, ok := tokenObj.(jwt.MapClaims)
			if !ok {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			sub, ok := claims["sub"].(float64)
			if !ok {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("user_id", int64(sub))
			if role, ok := claims["role"].(string); ok {
				ctx.Set("role", role)
			}
			return next(ctx)
		}
	})

	// Catalog
	authed.GET("/dvds", c.Dvd.List)
	authed.GET("/dvds/:id", c.Dvd.Detail)
	authed.POST("/dvds", c.Dvd.Create) // admin

	// Reservations
	authed.POST("/reservations", c.Reservation.Create)
	authed.GET("/reservations/my", c.Reservation.My)
	authed.POST("/reservations/:id/cancel", c.Reservation.Cancel)
	// Admin
	authed.GET("/reservations", c.Reservation.All)
	authed.POST("/reservations/:id/accept", c.Reservation.Accept)
	authed.POST("/reservations/:id/decline", c.Reservation.Decline)

	// Rentals
	authed.POST("/rentals/:id/return", c.Rental.RequestReturn)
	authed.GET("/rentals/my", c.Rental.My)
	authed.GET("/transactions/my", c.Rental.MyTransactions)
	// Admin
	authed.GET("/rentals/return-requests", c.Rental.ReturnRequests)
	authed.POST("/rentals/:id/return/accept", c.Rental.AcceptReturn)
	authed.POST("/rentals/:id/return/decline", c.Rental.DeclineReturn)
	authed.POST("/rentals/sweep", c.Rental.Sweep)
}
