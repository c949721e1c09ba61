// Package directory is the admin view of the company's users.
package directory

import (
	"context"
	"strings"
	"sync"

	"the-work-standard/internal/client/rolegate"
	"the-work-standard/internal/client/session"
	"the-work-standard/internal/shared/result"

	"go.uber.org/zap"
)

// Sessions is the part of session.Manager the directory needs.
type Sessions interface {
	View() session.View
	RefreshProfile(ctx context.Context) result.Result
}

type Directory struct {
	profiles session.ProfileStore
	sessions Sessions
	gate     *rolegate.Gate
	logger   *zap.Logger

	mu        sync.Mutex
	companyID string
	cache     []session.Profile
	loaded    bool
}

func New(profiles session.ProfileStore, sessions Sessions, logger ...*zap.Logger) *Directory {
	l := zap.L().Named("directory")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("directory")
	}
	return &Directory{
		profiles: profiles,
		sessions: sessions,
		gate:     rolegate.New(sessions),
		logger:   l,
	}
}

// Fetch returns the company's users newest first, from cache when it was
// loaded for the same company.
func (d *Directory) Fetch(ctx context.Context) ([]session.Profile, result.Result) {
	companyID, res := d.authorize(rolegate.CapManageUsers)
	if !res.OK() {
		return nil, res
	}

	d.mu.Lock()
	if d.loaded && d.companyID == companyID {
		out := append([]session.Profile(nil), d.cache...)
		d.mu.Unlock()
		return out, result.Success("")
	}
	d.mu.Unlock()

	return d.load(ctx, companyID)
}

// Refresh always goes to the store.
func (d *Directory) Refresh(ctx context.Context) ([]session.Profile, result.Result) {
	companyID, res := d.authorize(rolegate.CapManageUsers)
	if !res.OK() {
		return nil, res
	}
	return d.load(ctx, companyID)
}

func (d *Directory) load(ctx context.Context, companyID string) ([]session.Profile, result.Result) {
	list, err := d.profiles.ListProfiles(ctx, companyID)
	if err != nil {
		d.logger.Warn("list profiles failed", zap.String("company_id", companyID), zap.Error(err))
		return nil, result.FromError(err)
	}

	d.mu.Lock()
	d.companyID = companyID
	d.cache = append([]session.Profile(nil), list...)
	d.loaded = true
	d.mu.Unlock()

	return list, result.Success("")
}

// UpdateRole changes userID's role. Changing one's own role reloads the
// session profile so the gate sees it at once.
func (d *Directory) UpdateRole(ctx context.Context, userID string, role session.Role) result.Result {
	if _, res := d.authorize(rolegate.CapEditUserRole); !res.OK() {
		return res
	}
	if !role.Valid() {
		return result.Fail(result.ReasonInvalidInput, "")
	}

	updated, err := d.profiles.UpdateRole(ctx, userID, role)
	if err != nil {
		d.logger.Warn("update role failed", zap.String("user_id", userID), zap.Error(err))
		return result.FromError(err)
	}

	d.mu.Lock()
	for i := range d.cache {
		if d.cache[i].ID == updated.ID {
			d.cache[i] = updated
		}
	}
	d.mu.Unlock()

	if userID == d.sessions.View().UserID() {
		if res := d.sessions.RefreshProfile(ctx); !res.OK() {
			d.logger.Warn("refresh own profile after role change failed", zap.String("reason", string(res.Reason)))
		}
	}
	return result.Success("권한이 변경되었습니다.")
}

// Search filters the cached list on name or email, ignoring case. An empty
// query returns everything.
func (d *Directory) Search(query string) []session.Profile {
	q := strings.ToLower(strings.TrimSpace(query))

	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]session.Profile, 0, len(d.cache))
	for _, p := range d.cache {
		if q == "" || strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Email), q) {
			out = append(out, p)
		}
	}
	return out
}

// Clear forgets the cached list.
func (d *Directory) Clear() {
	d.mu.Lock()
	d.cache = nil
	d.companyID = ""
	d.loaded = false
	d.mu.Unlock()
}

func (d *Directory) authorize(c rolegate.Capability) (string, result.Result) {
	if !d.gate.CanAccess(rolegate.RequireAuthenticated) {
		return "", result.Fail(result.ReasonUnauthenticated, "")
	}
	if !d.gate.Allows(c) {
		return "", result.Fail(result.ReasonForbidden, "")
	}
	return d.sessions.View().CompanyID(), result.Success("")
}
