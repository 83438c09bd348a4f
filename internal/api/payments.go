package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// paymentRequest carries the amount in minor currency units
type paymentRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) processPayment(c *gin.Context) {
	var req paymentRequest
	if !bindJSON(c, &req) {
		return
	}

	secret, err := h.payments.ProcessPayment(c.Request.Context(), req.Amount)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"client_secret": secret,
	})
}

func (h *Handler) stripeAPIKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stripeApiKey": h.payments.PublishableKey()})
}
