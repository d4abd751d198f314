package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/merch-order-admin/internal/idempotency"
	"github.com/imrishuroy/merch-order-admin/internal/logging"
	"github.com/imrishuroy/merch-order-admin/internal/orders"
	"github.com/imrishuroy/merch-order-admin/internal/validation"
)

const idempotencyHeader = "Idempotency-Key"

// RegisterEmailRoutes registers the confirmation email resend routes.
func RegisterEmailRoutes(r gin.IRouter, cfg HandlerConfig, v *validatorv10.Validate) {
	svc := cfg.Orders

	r.POST("/email/resend", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.ResendRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		orderID := strings.TrimSpace(req.OrderID)

		idempKey := strings.TrimSpace(c.GetHeader(idempotencyHeader))
		if idempKey == "" || cfg.Idempotency == nil {
			status, body := resend(c, svc, orderID)
			c.JSON(status, body)
			return
		}

		proceed, err := claimIdempotencyKey(c, cfg.Idempotency, idempKey, orderID)
		if err != nil {
			failWithError(c, http.StatusInternalServerError, "Failed to process resend request", err)
			return
		}
		if !proceed {
			return
		}

		status, body := resend(c, svc, orderID)
		payload, err := json.Marshal(body)
		if err != nil {
			failWithError(c, http.StatusInternalServerError, "Failed to process resend request", err)
			return
		}

		if status >= http.StatusInternalServerError {
			err = cfg.Idempotency.MarkFailed(ctx, idempKey, fmt.Sprintf("status %d", status))
		} else {
			err = cfg.Idempotency.MarkDone(ctx, idempKey, string(payload), status)
		}
		if err != nil {
			logging.WithContext(ctx, cfg.Logger).Warn("idempotency record update failed",
				zap.String("idempotency_key", idempKey), zap.Error(err))
		}
		c.Data(status, "application/json; charset=utf-8", payload)
	})

	r.GET("/email/resend", func(c *gin.Context) {
		orderID := strings.TrimSpace(c.Query("orderId"))
		if orderID == "" {
			fail(c, http.StatusBadRequest, "Order ID is required")
			return
		}

		state, err := svc.EmailStatus(c.Request.Context(), orderID)
		if err != nil {
			if errors.Is(err, orders.ErrNotFound) {
				fail(c, http.StatusNotFound, "Order not found")
				return
			}
			fail(c, http.StatusInternalServerError, "Failed to check email status")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"orderId":     state.OrderID,
			"orderStatus": state.OrderStatus,
			"email":       state.Email,
			"canResend":   state.CanResend,
			"maxAttempts": state.MaxAttempts,
		})
	})
}

// resend runs one resend and renders the response body.
func resend(c *gin.Context, svc *orders.Service, orderID string) (int, gin.H) {
	res, err := svc.Resend(c.Request.Context(), orderID)
	if err != nil {
		var exhausted *orders.RetryExhaustedError
		switch {
		case errors.As(err, &exhausted):
			return http.StatusTooManyRequests, gin.H{
				"success":  false,
				"message":  fmt.Sprintf("Maximum retry attempts (%d) reached for this order", exhausted.MaxAttempts),
				"attempts": exhausted.Attempts,
			}
		case errors.Is(err, orders.ErrNotFound):
			return http.StatusNotFound, gin.H{"success": false, "message": "Order not found"}
		case errors.Is(err, orders.ErrInvalidState):
			return http.StatusBadRequest, gin.H{"success": false, "message": "Can only resend emails for accepted orders"}
		case errors.Is(err, orders.ErrMissingContact):
			return http.StatusBadRequest, gin.H{"success": false, "message": "Customer email is missing"}
		case errors.Is(err, orders.ErrConflict):
			return http.StatusConflict, gin.H{"success": false, "message": "Order was modified by another request, reload and retry"}
		default:
			return http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Failed to process resend request",
				"error":   err.Error(),
			}
		}
	}

	if res.EmailStatus == orders.EmailSent {
		return http.StatusOK, gin.H{
			"success":     true,
			"message":     fmt.Sprintf("Email resent successfully to %s", res.Order.Customer.Email),
			"emailStatus": res.EmailStatus,
			"attempts":    res.Attempts,
		}
	}
	return http.StatusOK, gin.H{
		"success":           false,
		"message":           "Failed to resend email",
		"emailStatus":       res.EmailStatus,
		"error":             res.Error,
		"attempts":          res.Attempts,
		"remainingAttempts": res.RemainingAttempts,
	}
}

// claimIdempotencyKey reports whether this request should run. When it
// should not, the replayed or in-progress response has already been written.
func claimIdempotencyKey(c *gin.Context, store *idempotency.Store, key, orderID string) (bool, error) {
	ctx := c.Request.Context()

	created, err := store.CreateIfNotExists(ctx, key, orderID)
	if err != nil {
		return false, err
	}
	if created {
		return true, nil
	}

	rec, err := store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if rec == nil {
		// expired between the two calls; the next retry will claim it
		c.JSON(http.StatusAccepted, gin.H{"success": false, "message": "Request already in progress", "orderId": orderID})
		return false, nil
	}
	if rec.OrderID != orderID {
		fail(c, http.StatusUnprocessableEntity, "Idempotency-Key was already used for a different order")
		return false, nil
	}

	switch rec.Status {
	case idempotency.StatusDone:
		c.Header("Idempotent-Replayed", "true")
		c.Data(rec.ResponseStatus, "application/json; charset=utf-8", []byte(rec.ResponseBody))
		return false, nil
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"success": false, "message": "Request already in progress", "orderId": rec.OrderID})
		return false, nil
	case idempotency.StatusFailed:
		// let client retry
		reopened, err := store.Reopen(ctx, key)
		if err != nil {
			return false, err
		}
		if !reopened {
			c.JSON(http.StatusAccepted, gin.H{"success": false, "message": "Request already in progress", "orderId": rec.OrderID})
		}
		return reopened, nil
	default:
		return false, fmt.Errorf("unknown idempotency status %q", rec.Status)
	}
}
