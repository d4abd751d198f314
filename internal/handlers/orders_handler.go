package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/merch-order-admin/internal/orders"
	"github.com/imrishuroy/merch-order-admin/internal/validation"
)

// RegisterOrdersRoutes registers routes for the order API.
func RegisterOrdersRoutes(r gin.IRouter, cfg HandlerConfig, v *validatorv10.Validate) {
	svc := cfg.Orders

	r.GET("/orders", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			fail(c, http.StatusInternalServerError, "Failed to fetch orders")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"orders":  list,
			"total":   len(list),
		})
	})

	r.PATCH("/orders/:orderId", func(c *gin.Context) {
		orderID := strings.TrimSpace(c.Param("orderId"))

		var req validation.UpdateStatusRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		change, err := svc.SetStatus(c.Request.Context(), orderID, orders.Status(req.Status))
		if err != nil {
			switch {
			case errors.Is(err, orders.ErrInvalidArgument):
				fail(c, http.StatusBadRequest, req.ValidationMessage())
			case errors.Is(err, orders.ErrNotFound):
				fail(c, http.StatusNotFound, "Order not found")
			case errors.Is(err, orders.ErrConflict):
				fail(c, http.StatusConflict, "Order was modified by another request, reload and retry")
			default:
				failWithError(c, http.StatusInternalServerError, "Failed to update order", err)
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"message":     fmt.Sprintf("Order status updated to %s", req.Status),
			"order":       change.Order,
			"emailSent":   change.EmailSent,
			"emailStatus": change.EmailStatus,
			"emailError":  change.EmailError,
		})
	})
}
