package payment

import (
	"context"
	"net/http"
	"time"

	"craftlink/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CallbackServer is the local listener the hosted payment page redirects
// back to after the customer completes (or abandons) the gateway flow. It
// recovers the payment reference from the return URL and runs verification.
type CallbackServer struct {
	flow   *FlowController
	logger *zap.Logger
	srv    *http.Server

	// OnResult, when set, observes each verification outcome.
	OnResult func(result *models.VerifyResult, err error)
}

// NewCallbackServer builds the listener around a flow controller.
func NewCallbackServer(flow *FlowController, logger *zap.Logger) *CallbackServer {
	return &CallbackServer{flow: flow, logger: logger}
}

// Start begins serving on addr in the background.
func (s *CallbackServer) Start(addr string) error {
	if !gin.IsDebugging() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/payments/callback", s.handleCallback)

	s.srv = &http.Server{Addr: addr, Handler: router}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("payment callback listener failed", zap.Error(err))
		}
	}()
	s.logger.Info("payment callback listener started", zap.String("addr", addr))
	return nil
}

// Shutdown stops the listener gracefully.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// handleCallback verifies the payment named by the return redirect. Gateways
// send the reference as either "reference" or "trxref".
func (s *CallbackServer) handleCallback(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		reference = c.Query("trxref")
	}
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing payment reference"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 90*time.Second)
	defer cancel()

	result, err := s.flow.VerifyAndResolve(ctx, reference)
	if s.OnResult != nil {
		s.OnResult(result, err)
	}
	if err != nil {
		s.logger.Warn("payment verification failed",
			zap.String("reference", reference), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "payment verification failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
