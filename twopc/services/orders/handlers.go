package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/matheusmosca/twopc-order-coordinator/internal/logging"
)

func registerRoutes(r gin.IRouter, coordinator *Coordinator) {
	r.POST("/api/orders", HandleCreateOrder(coordinator))
	r.GET("/api/orders/:id", HandleGetOrder(coordinator))
}

// HandleCreateOrder executa o 2PC e responde com o resultado final
func HandleCreateOrder(coordinator *Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		order, err := coordinator.PlaceOrder(c.Request.Context(), req)
		if err != nil {
			if errors.Is(err, ErrInvalidOrder) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			logging.Ctx(c.Request.Context()).Error().Err(err).Msg("❌ failed to place order")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, NewOrderResponse(order))
	}
}

// HandleGetOrder retorna o registro de auditoria do pedido
func HandleGetOrder(coordinator *Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := coordinator.GetOrder(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, ErrOrderNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
