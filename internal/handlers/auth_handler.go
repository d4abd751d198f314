package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/merch-order-admin/internal/auth"
	"github.com/imrishuroy/merch-order-admin/internal/validation"
)

// RegisterAuthRoutes registers the admin login route.
func RegisterAuthRoutes(r gin.IRouter, a *auth.Authenticator, v *validatorv10.Validate) {
	r.POST("/auth/login", func(c *gin.Context) {
		var req validation.LoginRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		token, exp, err := a.Login(req.Email, req.Password)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			fail(c, http.StatusUnauthorized, "Invalid credentials")
			return
		case errors.Is(err, auth.ErrNotConfigured):
			fail(c, http.StatusInternalServerError, "Admin credentials not configured")
			return
		case err != nil:
			fail(c, http.StatusInternalServerError, "Failed to sign in")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"token":     token,
			"expiresAt": exp.UTC().Format(time.RFC3339),
		})
	})
}
