package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/matheusmosca/twopc-order-coordinator/internal/logging"
)

func registerRoutes(r gin.IRouter, uc *PaymentUseCase) {
	api := r.Group("/api/payment")
	api.POST("", HandleCharge(uc))
	api.POST("/commit", HandleCommit(uc))
	api.POST("/reverse", HandleReverse(uc))
	api.GET("/:id", HandleGetCharge(uc))
}

// HandleCharge handler para a fase PREPARE
func HandleCharge(uc *PaymentUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChargeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		charge, err := uc.Charge(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"reservation_id": charge.ReservationID})
	}
}

// HandleCommit handler para a fase COMMIT
func HandleCommit(uc *PaymentUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReservationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		ack, err := uc.Commit(c.Request.Context(), req.ReservationID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": ack.Status, "message": ack.Message})
	}
}

// HandleReverse handler para a fase ROLLBACK
func HandleReverse(uc *PaymentUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReservationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		ack, err := uc.Reverse(c.Request.Context(), req.ReservationID)
		if err != nil {
			respondError(c, err)
			return
		}

		if ack.Charge == nil {
			c.JSON(http.StatusOK, gin.H{"message": ack.Message})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"reservation_id": ack.Charge.ReservationID,
			"account":        ack.Charge.Account,
			"amount":         ack.Charge.Amount,
			"message":        ack.Message,
		})
	}
}

func HandleGetCharge(uc *PaymentUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		charge, err := uc.GetCharge(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, charge)
	}
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrChargeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("route", c.FullPath()).Msg("❌ payment operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
