// Package rolegate answers authorization questions from the current session
// view. Nothing is cached: every call reads a fresh View.
package rolegate

import (
	"the-work-standard/internal/client/session"
)

type Requirement int

const (
	RequireNone Requirement = iota
	RequireAuthenticated
	RequireAdmin
)

// Capability names an admin action checked before any request is sent.
type Capability string

const (
	CapViewAdminSettings    Capability = "view_admin_settings"
	CapManageUsers          Capability = "manage_users"
	CapEditUserRole         Capability = "edit_user_role"
	CapViewAttendanceReport Capability = "view_attendance_report"
)

type ViewSource interface {
	View() session.View
}

type Gate struct {
	views ViewSource
}

func New(views ViewSource) *Gate {
	return &Gate{views: views}
}

func (g *Gate) IsAdmin() bool {
	return IsAdmin(g.views.View())
}

func (g *Gate) CanAccess(req Requirement) bool {
	return CanAccess(g.views.View(), req)
}

func (g *Gate) Allows(c Capability) bool {
	return Allows(g.views.View(), c)
}

func (g *Gate) VisibleMenu(items []MenuItem) []MenuItem {
	return VisibleMenu(g.views.View(), items)
}

func IsAdmin(v session.View) bool {
	return v.Role() == session.RoleAdmin
}

func CanAccess(v session.View, req Requirement) bool {
	switch req {
	case RequireNone:
		return true
	case RequireAuthenticated:
		return v.IsAuthenticated()
	case RequireAdmin:
		return v.IsAuthenticated() && IsAdmin(v)
	default:
		return false
	}
}

// Allows reports whether the current identity may perform c. Every
// capability defined today is admin only.
func Allows(v session.View, c Capability) bool {
	switch c {
	case CapViewAdminSettings, CapManageUsers, CapEditUserRole, CapViewAttendanceReport:
		return CanAccess(v, RequireAdmin)
	default:
		return false
	}
}
