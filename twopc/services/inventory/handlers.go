package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/matheusmosca/twopc-order-coordinator/internal/logging"
)

func registerRoutes(r gin.IRouter, uc *InventoryUseCase) {
	api := r.Group("/api/inventory")
	api.POST("/reserve", HandleReserve(uc))
	api.POST("/commit", HandleCommit(uc))
	api.POST("/rollback", HandleRollback(uc))
	api.PUT("/refill", HandleRefill(uc))
	api.GET("/:product_id", HandleGetStock(uc))
}

// HandleReserve handler para a fase PREPARE
func HandleReserve(uc *InventoryUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReserveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		reservation, err := uc.Reserve(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"reservation_id": reservation.ReservationID})
	}
}

// HandleCommit handler para a fase COMMIT
func HandleCommit(uc *InventoryUseCase) gin.HandlerFunc {
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

		c.JSON(http.StatusOK, ack)
	}
}

// HandleRollback handler para a fase ROLLBACK
func HandleRollback(uc *InventoryUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReservationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		ack, err := uc.Rollback(c.Request.Context(), req.ReservationID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, ack)
	}
}

// HandleRefill handler administrativo de reposição
func HandleRefill(uc *InventoryUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefillRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		view, err := uc.Refill(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"product_id": view.ProductID,
			"available":  view.Available,
			"message":    fmt.Sprintf("Added %d items of %s", req.Quantity, req.ProductID),
		})
	}
}

func HandleGetStock(uc *InventoryUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := uc.GetStock(c.Request.Context(), c.Param("product_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("route", c.FullPath()).Msg("❌ inventory operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
