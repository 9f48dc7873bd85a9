package restapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crypto_tracker/internal/app/service"
	"crypto_tracker/internal/domain/entity"
)

// SessionRunner is the part of service.Session the handlers need.
type SessionRunner interface {
	View() *service.View
	Do(ctx context.Context, fn func(*service.Session) error) error
}

// SessionHandler exposes the session to an external UI.
type SessionHandler struct {
	session SessionRunner
	logger  *zap.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(session SessionRunner, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{session: session, logger: logger.Named("restapi")}
}

type addCoinRequest struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
	APIID  string `json:"apiId" binding:"required"`
}

type holdingsRequest struct {
	Amount   *float64 `json:"amount" binding:"required"`
	BuyPrice *float64 `json:"buyPrice" binding:"required"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type editingRequest struct {
	Editing bool `json:"editing"`
}

// GetView returns the last published view.
func (h *SessionHandler) GetView(c *gin.Context) {
	c.JSON(http.StatusOK, newViewResponse(h.session.View()))
}

// GetSummary returns the portfolio valuation.
func (h *SessionHandler) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, newSummaryResponse(h.session.View().Summary))
}

// GetCatalog lists the tracked coins.
func (h *SessionHandler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"coins": h.session.View().Coins})
}

// SelectOverview switches to the overview and refetches prices.
func (h *SessionHandler) SelectOverview(c *gin.Context) {
	h.run(c, http.StatusAccepted, func(s *service.Session) (any, error) {
		s.SelectOverview()
		return gin.H{"kind": service.ViewOverview}, nil
	})
}

// SelectCoin switches to a coin's detail view and fetches it.
func (h *SessionHandler) SelectCoin(c *gin.Context) {
	id := c.Param("id")
	h.run(c, http.StatusAccepted, func(s *service.Session) (any, error) {
		if err := s.SelectCoin(id); err != nil {
			return nil, err
		}
		return gin.H{"kind": service.ViewCoin, "selectedId": id}, nil
	})
}

// Refresh refetches the active view.
func (h *SessionHandler) Refresh(c *gin.Context) {
	h.run(c, http.StatusAccepted, func(s *service.Session) (any, error) {
		return gin.H{"started": s.Refresh()}, nil
	})
}

// Search starts a coin search. Results appear in the view.
func (h *SessionHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.run(c, http.StatusAccepted, func(s *service.Session) (any, error) {
		return gin.H{"started": s.Search(req.Query)}, nil
	})
}

// AddCoin adds a coin to the catalog.
func (h *SessionHandler) AddCoin(c *gin.Context) {
	var req addCoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	def := entity.CoinDefinition{Name: req.Name, Ticker: req.Ticker, APIID: req.APIID}
	h.run(c, http.StatusCreated, func(s *service.Session) (any, error) {
		return s.AddCoin(def)
	})
}

// RemoveCoin drops a coin and its holdings.
func (h *SessionHandler) RemoveCoin(c *gin.Context) {
	id := c.Param("id")
	err := h.session.Do(c.Request.Context(), func(s *service.Session) error {
		return s.RemoveCoin(id)
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetHoldings commits the holding of a coin.
func (h *SessionHandler) SetHoldings(c *gin.Context) {
	var req holdingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount and buyPrice are required"})
		return
	}
	id := c.Param("id")
	h.run(c, http.StatusOK, func(s *service.Session) (any, error) {
		return s.SetHoldings(id, *req.Amount, *req.BuyPrice)
	})
}

// SetEditing marks the start or the end of a holdings edit.
func (h *SessionHandler) SetEditing(c *gin.Context) {
	var req editingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.run(c, http.StatusOK, func(s *service.Session) (any, error) {
		s.SetEditing(req.Editing)
		return gin.H{"editing": req.Editing}, nil
	})
}

// run executes fn on the session loop and writes its result with status.
func (h *SessionHandler) run(c *gin.Context, status int, fn func(*service.Session) (any, error)) {
	var result any
	err := h.session.Do(c.Request.Context(), func(s *service.Session) error {
		var err error
		result, err = fn(s)
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, result)
}

func (h *SessionHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrCoinNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrCoinExists):
		status = http.StatusConflict
	case errors.Is(err, entity.ErrInvalidCoin):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrSessionClosed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Session command failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": strings.TrimSpace(err.Error())})
}
