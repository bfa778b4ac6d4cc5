// Package router wires URL paths to handlers and applies the auth
// middleware per group.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Anermers95/SWE5006/internal/handler"
	"github.com/Anermers95/SWE5006/internal/middleware"
)

// RegisterHealth registers the unauthenticated liveness endpoint.
func RegisterHealth(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the session endpoints.  Register, login,
// refresh and logout live under /v1/auth without auth middleware;
// /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout with a refresh token in the body needs no bearer.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	// Logout with a bearer and no body revokes every session of the
	// caller.
	auth.POST("/logout", a.Logout)
}

// RegisterRooms registers the room inventory endpoints.  Reads are
// available to every authenticated user, mutations to admins only.
func RegisterRooms(e *echo.Echo, r *handler.RoomHandler, av *handler.AvailabilityHandler, jwtSecret string) {
	g := e.Group(
		"/v1/rooms",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "MEMBER"),
	)
	g.GET("", r.List)
	g.GET("/:id", r.Get)
	g.GET("/:id/availability", av.Day)
	g.GET("/:id/availability/fully-booked", av.FullyBooked)

	admin := e.Group(
		"/v1/rooms",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)
	admin.POST("", r.Create)
	admin.PUT("/:id", r.Update)
	admin.PATCH("/:id", r.Update)
	admin.DELETE("/:id", r.Delete)
}

// RegisterBookings registers the booking lifecycle endpoints under
// /v1/bookings.  Ownership checks (a member may only touch their own
// bookings) are enforced in the handler; row deletion is admin only.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1/bookings",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "MEMBER"),
	)

	// Static paths before parameterized ones so "check-conflict" and
	// "logs" are not captured as :id.
	g.GET("/check-conflict", b.CheckConflict)
	g.GET("/logs", b.Logs)
	g.GET("/logs/:id", b.Logs)
	g.GET("/user/:userId", b.ListByUser)
	g.GET("/room/:roomId", b.ListByRoom)

	g.GET("", b.List)
	g.POST("", b.Create)
	g.GET("/:id", b.Get)
	g.PUT("/:id", b.Update)
	g.PATCH("/:id/cancel", b.Cancel)
	g.DELETE("/:id", b.Delete, middleware.RequireRole("ADMIN"))
}
