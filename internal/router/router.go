// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-table-reservation/internal/config"
	"github.com/iliyamo/restaurant-table-reservation/internal/handler"
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware"
)

// RegisterRoutes registers the infrastructure routes on the provided
// Echo instance.  Currently it exposes only a health check used by
// load balancers and monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterReservations registers the reservation lifecycle endpoints
// under /api/reservations.  The rate limiter is applied to the whole
// group; the Redis response cache is applied only to the read
// endpoints so booking writes are never served from cache.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, rdb *redis.Client) {
	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	g := e.Group("/api/reservations")
	g.Use(rl)

	g.POST("", h.CreateReservation)
	g.GET("", h.ListReservations, cache)
	g.GET("/:id", h.GetReservation, cache)
	g.GET("/date/:date", h.ListReservationsByDate, cache)
	g.GET("/user/:userId", h.ListReservationsByUser, cache)
	g.GET("/status/:status", h.ListReservationsByStatus, cache)
	g.PUT("/:id", h.UpdateReservation)
	g.PUT("/:id/cancel", h.CancelReservation)
	g.PUT("/:id/complete", h.CompleteReservation)
	g.DELETE("/:id", h.DeleteReservation)
}

// RegisterTables registers the administrative table registry
// endpoints under /api/tables.  The static routes are registered
// before the parameterised ones so /available and /capacity/:n are
// not swallowed by /:id.
func RegisterTables(e *echo.Echo, h *handler.TableHandler, rdb *redis.Client) {
	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	g := e.Group("/api/tables")
	g.Use(rl)

	g.POST("", h.CreateTable)
	g.GET("", h.ListTables, cache)
	g.GET("/available", h.ListAvailableTables, cache)
	g.GET("/capacity/:n", h.ListTablesByCapacity, cache)
	g.GET("/:id", h.GetTable, cache)
	g.PUT("/:id", h.UpdateTable)
	g.DELETE("/:id", h.DeleteTable)
}
