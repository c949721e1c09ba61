package infra

import (
	"the-work-standard/internal/domain"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const modelText = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// DefaultPolicy is the role matrix. Admins inherit every user permission.
var DefaultPolicy = [][]string{
	{domain.RoleUser, domain.ResourceProfiles, domain.ActionRead},
	{domain.RoleUser, domain.ResourceProfiles, domain.ActionUpdate},
	{domain.RoleUser, domain.ResourceAttendance, domain.ActionRead},
	{domain.RoleUser, domain.ResourceAttendance, domain.ActionCheck},
	{domain.RoleAdmin, domain.ResourceProfiles, domain.ActionReadAll},
	{domain.RoleAdmin, domain.ResourceProfiles, domain.ActionUpdateRole},
	{domain.RoleAdmin, domain.ResourceAttendance, domain.ActionReadAll},
	{domain.RoleAdmin, domain.ResourceUsers, domain.ActionDelete},
}

func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	if _, err := e.AddPolicies(DefaultPolicy); err != nil {
		return nil, err
	}
	if _, err := e.AddGroupingPolicy(domain.RoleAdmin, domain.RoleUser); err != nil {
		return nil, err
	}
	return e, nil
}
