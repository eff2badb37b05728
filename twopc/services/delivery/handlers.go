package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/matheusmosca/twopc-order-coordinator/internal/logging"
)

func registerRoutes(r gin.IRouter, uc *DeliveryUseCase) {
	api := r.Group("/api/delivery")
	api.POST("/schedule", HandleSchedule(uc))
	api.POST("/confirm", HandleConfirm(uc))
	api.POST("/rollback", HandleRollback(uc))
	api.GET("/:id", HandleGetDelivery(uc))
}

// HandleSchedule handler para a fase PREPARE
func HandleSchedule(uc *DeliveryUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ScheduleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		delivery, err := uc.Schedule(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, deliveryBody(delivery))
	}
}

// HandleConfirm handler para a fase COMMIT
func HandleConfirm(uc *DeliveryUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReservationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		delivery, err := uc.Confirm(c.Request.Context(), req.ReservationID)
		if errors.Is(err, ErrUnknownReservation) {
			c.JSON(http.StatusOK, Ack{Status: AckIgnored, Message: fmt.Sprintf("Delivery %s not registered. Command ignored!", req.ReservationID)})
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, deliveryBody(delivery))
	}
}

// HandleRollback handler para a fase ROLLBACK
func HandleRollback(uc *DeliveryUseCase) gin.HandlerFunc {
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

func HandleGetDelivery(uc *DeliveryUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		delivery, err := uc.GetDelivery(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, delivery)
	}
}

func deliveryBody(delivery *Delivery) gin.H {
	return gin.H{
		"reservation_id": delivery.ReservationID,
		"address":        delivery.Address,
		"eta":            delivery.ETA,
	}
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNoDeliverySlots):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUnknownReservation):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("route", c.FullPath()).Msg("❌ delivery operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
