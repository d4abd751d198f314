package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/merch-order-admin/internal/orders"
	"github.com/imrishuroy/merch-order-admin/internal/referrals"
	"github.com/imrishuroy/merch-order-admin/internal/validation"
)

// RegisterReferralRoutes registers referral, coupon and leaderboard routes.
func RegisterReferralRoutes(r gin.IRouter, cfg HandlerConfig, v *validatorv10.Validate) {
	svc := cfg.Referrals

	issue := func(kind referrals.Kind, okMessage, failMessage string) gin.HandlerFunc {
		return func(c *gin.Context) {
			var req validation.IssueCodeRequest
			if err := validation.BindAndValidate(c, &req, v); err != nil {
				return
			}

			var discount *referrals.Discount
			if req.DiscountValue != nil {
				discount = &referrals.Discount{Value: *req.DiscountValue, Type: req.DiscountType}
			}
			rec, err := svc.Issue(c.Request.Context(), kind, orders.Referrer{
				Name:  strings.TrimSpace(req.Name),
				Dept:  strings.TrimSpace(req.Dept),
				Phone: strings.TrimSpace(req.Phone),
			}, discount)
			if err != nil {
				fail(c, http.StatusInternalServerError, failMessage)
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"code":    rec.Code,
				"message": okMessage,
			})
		}
	}

	list := func(kind referrals.Kind, field, failMessage string) gin.HandlerFunc {
		return func(c *gin.Context) {
			recs, err := svc.List(c.Request.Context(), kind)
			if err != nil {
				fail(c, http.StatusInternalServerError, failMessage)
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, field: recs})
		}
	}

	r.POST("/referrals", issue(referrals.KindReferral, "Referral code generated successfully", "Failed to create referral code"))
	r.GET("/referrals", list(referrals.KindReferral, "referrals", "Failed to fetch referrals"))
	r.POST("/coupons/create", issue(referrals.KindCoupon, "Coupon generated successfully", "Failed to create coupon code"))
	r.GET("/coupons", list(referrals.KindCoupon, "coupons", "Failed to fetch coupons"))

	r.GET("/leaderboard", func(c *gin.Context) {
		entries, err := svc.Leaderboard(c.Request.Context())
		if err != nil {
			fail(c, http.StatusInternalServerError, "Failed to build leaderboard")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "entries": entries})
	})
}
