package rolegate

import (
	"slices"

	"the-work-standard/internal/client/session"
)

// MenuItem is one navigation entry. An empty Roles list means any viewer.
type MenuItem struct {
	Title    string
	Path     string
	Roles    []session.Role
	Children []MenuItem
}

func (m MenuItem) allows(role session.Role) bool {
	return len(m.Roles) == 0 || slices.Contains(m.Roles, role)
}

// VisibleMenu keeps the items the current role may see. A parent whose
// children are all filtered out is dropped with them; a leaf with its own
// path stays.
func VisibleMenu(v session.View, items []MenuItem) []MenuItem {
	return filterMenu(v.Role(), items)
}

func filterMenu(role session.Role, items []MenuItem) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, item := range items {
		if !item.allows(role) {
			continue
		}
		if len(item.Children) > 0 {
			children := filterMenu(role, item.Children)
			if len(children) == 0 {
				continue
			}
			item.Children = children
		}
		out = append(out, item)
	}
	return out
}

var (
	everyone   = []session.Role{session.RoleUser, session.RoleAdmin}
	adminsOnly = []session.Role{session.RoleAdmin}
)

// DefaultMenu is the dashboard navigation tree.
func DefaultMenu() []MenuItem {
	return []MenuItem{
		{Title: "대시보드", Path: "/", Roles: everyone},
		{
			Title: "근태관리",
			Path:  "/attendance",
			Roles: everyone,
			Children: []MenuItem{
				{Title: "출퇴근 체크", Path: "/attendance/check", Roles: everyone},
				{Title: "근태 현황", Path: "/attendance/status", Roles: everyone},
				{Title: "휴가 신청", Path: "/attendance/leave", Roles: everyone},
				{Title: "근태 리포트", Path: "/attendance/report", Roles: adminsOnly},
			},
		},
		{
			Title: "재고관리",
			Path:  "/inventory",
			Roles: adminsOnly,
			Children: []MenuItem{
				{Title: "재고 현황", Path: "/inventory/status", Roles: adminsOnly},
				{Title: "입출고 관리", Path: "/inventory/inout", Roles: adminsOnly},
				{Title: "발주 관리", Path: "/inventory/order", Roles: adminsOnly},
				{Title: "재고 리포트", Path: "/inventory/report", Roles: adminsOnly},
			},
		},
		{Title: "리포트", Path: "/reports", Roles: adminsOnly},
		{
			Title: "설정",
			Path:  "/settings",
			Roles: adminsOnly,
			Children: []MenuItem{
				{Title: "회사 정보", Path: "/settings/company", Roles: adminsOnly},
				{Title: "사용자 관리", Path: "/settings/users", Roles: adminsOnly},
				{Title: "시스템 설정", Path: "/settings/system", Roles: adminsOnly},
			},
		},
	}
}

// Titles flattens items depth first.
func Titles(items []MenuItem) []string {
	var out []string
	for _, item := range items {
		out = append(out, item.Title)
		out = append(out, Titles(item.Children)...)
	}
	return out
}
