package validation

// UpdateStatusRequest is the payload for PATCH /orders/:orderId
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending accepted rejected"`
}

func (UpdateStatusRequest) ValidationMessage() string {
	return "Invalid status. Must be 'pending', 'accepted', or 'rejected'"
}

// ResendRequest is the payload for POST /email/resend
type ResendRequest struct {
	OrderID string `json:"orderId" validate:"required,notblank"`
}

func (ResendRequest) ValidationMessage() string { return "Order ID is required" }

// IssueCodeRequest is the payload for POST /referrals and POST /coupons/create
type IssueCodeRequest struct {
	Name          string   `json:"name" validate:"required,notblank"`
	Dept          string   `json:"dept" validate:"required,notblank"`
	Phone         string   `json:"phone" validate:"required,notblank"`
	DiscountValue *float64 `json:"discountValue,omitempty" validate:"omitempty,gt=0"`
	DiscountType  string   `json:"discountType,omitempty" validate:"omitempty,oneof=percentage fixed"`
}

func (IssueCodeRequest) ValidationMessage() string {
	return "Name, Department, and Phone are required"
}

// LoginRequest is the payload for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (LoginRequest) ValidationMessage() string { return "Email and password are required" }
