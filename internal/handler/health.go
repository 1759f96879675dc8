package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

// Closer reports whether a connection is gone; *amqp.Connection satisfies it.
type Closer interface {
	IsClosed() bool
}

// BreakerState reports the backend circuit breaker state.
type BreakerState func() gobreaker.State

type HealthHandler struct {
	redisClient *redis.Client
	amqpConn    Closer
	breaker     BreakerState
}

// NewHealthHandler accepts a nil amqpConn when order events are disabled.
func NewHealthHandler(redisClient *redis.Client, amqpConn Closer, breaker BreakerState) *HealthHandler {
	return &HealthHandler{redisClient: redisClient, amqpConn: amqpConn, breaker: breaker}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz fails on a lost Redis or RabbitMQ connection. An open backend
// breaker is reported but does not fail readiness: sessions and the catalog
// cache still work.
func (h *HealthHandler) Readyz(c *gin.Context) {
	if err := h.redisClient.Ping(c.Request.Context()).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "redis": "unavailable"})
		return
	}
	if h.amqpConn != nil && h.amqpConn.IsClosed() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "rabbitmq": "unavailable"})
		return
	}

	rabbit := "disabled"
	if h.amqpConn != nil {
		rabbit = "connected"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"redis":    "connected",
		"rabbitmq": rabbit,
		"backend":  h.breaker().String(),
	})
}
