package domain

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	ResourceProfiles   = "profiles"
	ResourceAttendance = "attendance"
	ResourceUsers      = "users"
)

const (
	ActionRead       = "read"
	ActionReadAll    = "read_all"
	ActionUpdate     = "update"
	ActionUpdateRole = "update_role"
	ActionCheck      = "check"
	ActionDelete     = "delete"
)

type EnforceRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	CompanyID string `json:"company_id" binding:"required"`
	Resource  string `json:"resource" binding:"required"`
	Action    string `json:"action" binding:"required"`
}

type EnforceResponse struct {
	Allowed bool   `json:"allowed"`
	Role    string `json:"role"`
}
