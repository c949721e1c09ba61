package profile

import "time"

type ProfileResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// UpdateProfileRequest is a partial update. Nil fields are left untouched.
type UpdateProfileRequest struct {
	Name *string `json:"name" binding:"omitempty,min=1,max=100"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}
