package echoServer

import (
	"rentalbooking/app/echoServer/controller/reservation"

	"github.com/labstack/echo/v4"
)

type C struct {
	Reservation *reservation.Controller
}

// Register mounts the reservation API. Every route is authenticated by the
// service itself, so no auth middleware sits in front of the group.
func Register(e *echo.Echo, c C) {
	v1 := e.Group("/v1")

	r := v1.Group("/reservations")
	r.POST("", c.Reservation.Create)
	r.GET("", c.Reservation.ListMine)
	r.GET("/all", c.Reservation.ListAll) // admin
	r.GET("/:id", c.Reservation.Get)
	r.PATCH("/:id/status", c.Reservation.SetStatus)
	r.PATCH("/:id/cancel", c.Reservation.Cancel)
	r.DELETE("/:id", c.Reservation.Delete)
}
