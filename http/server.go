// Package http exposes the facilitator over HTTP: verify, settle and
// supported-kinds endpoints plus request validation for the wire shapes.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	xrp402 "github.com/ScavieFae/xrp402"
)

// DefaultSettlementTTL bounds how long a settled result answers retries of
// the same signed instruction.
const DefaultSettlementTTL = 10 * time.Minute

// Server wires the facilitator into a gin router. Settle requests are
// deduplicated through the settlement cache so a retried request never
// causes a second ledger submission of the same signed blob.
type Server struct {
	facilitator *xrp402.Facilitator
	settlements *xrp402.SettlementCache
	log         *zap.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the request logger.
func WithServerLogger(log *zap.Logger) ServerOption {
	return func(s *Server) { s.log = log }
}

// WithSettlementCache overrides the default settlement cache.
func WithSettlementCache(cache *xrp402.SettlementCache) ServerOption {
	return func(s *Server) { s.settlements = cache }
}

// NewServer creates a server around a configured facilitator.
func NewServer(facilitator *xrp402.Facilitator, opts ...ServerOption) *Server {
	s := &Server{
		facilitator: facilitator,
		settlements: xrp402.NewSettlementCache(DefaultSettlementTTL),
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.POST("/verify", s.handleVerify)
	router.POST("/settle", s.handleSettle)
	router.GET("/supported", s.handleSupported)
	router.GET("/healthz", s.handleHealth)

	return router
}

// requestLogger tags each request with an id and logs its outcome.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.Header("X-Request-Id", requestID)

		start := time.Now()
		c.Next()

		s.log.Info("request",
			zap.String("requestId", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

func (s *Server) handleVerify(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	req, err := ValidateVerifyRequest(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := s.facilitator.Verify(c.Request.Context(), req.PaymentPayload, req.PaymentRequirements)
	if err != nil {
		s.log.Error("verify failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

func (s *Server) handleSettle(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	req, err := ValidateSettleRequest(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := xrp402.GenerateSettlementKey(body)
	status, cached, done := s.settlements.CheckAndMark(key)
	switch status {
	case xrp402.StatusCached:
		s.log.Info("settle request served from cache", zap.String("key", key))
		c.JSON(http.StatusOK, cached)
		return

	case xrp402.StatusInFlight:
		result, err := s.settlements.WaitForResult(c.Request.Context(), key, done)
		if err != nil {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "settlement still in progress"})
			return
		}
		if result == nil {
			// The original attempt never reached the ledger; report that
			// rather than submitting again on its behalf.
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "settlement attempt failed, retry"})
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	response, err := s.facilitator.Settle(c.Request.Context(), req.PaymentPayload, req.PaymentRequirements)
	if err != nil {
		s.settlements.Fail(key, done)
		s.log.Error("settle failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if response.Transaction != "" {
		// The blob reached the ledger; retries must coalesce, success or
		// not.
		s.settlements.Complete(key, response, done)
	} else {
		s.settlements.Fail(key, done)
	}

	c.JSON(http.StatusOK, response)
}

func (s *Server) handleSupported(c *gin.Context) {
	c.JSON(http.StatusOK, s.facilitator.GetSupported())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
