package remote

import (
	"context"
	"net/http"
	"net/url"

	"the-work-standard/internal/client/session"
	"the-work-standard/internal/profile"
)

// ProfileStore is the session.ProfileStore backed by the profiles API.
type ProfileStore struct {
	client *Client
}

func NewProfileStore(client *Client) *ProfileStore {
	return &ProfileStore{client: client}
}

func (s *ProfileStore) GetProfile(ctx context.Context, userID string) (*session.Profile, error) {
	var out profile.ProfileResponse
	err := s.client.do(ctx, http.MethodGet, "/profiles/"+url.PathEscape(userID), nil, &out)
	if isStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p := profileFrom(out)
	return &p, nil
}

func (s *ProfileStore) UpdateProfile(ctx context.Context, userID string, fields session.ProfileUpdate) (session.Profile, error) {
	var out profile.ProfileResponse
	err := s.client.do(ctx, http.MethodPatch, "/profiles/"+url.PathEscape(userID),
		profile.UpdateProfileRequest{Name: fields.Name}, &out)
	if err != nil {
		return session.Profile{}, err
	}
	return profileFrom(out), nil
}

// ListProfiles returns the caller's company. The API scopes the list by the
// token, so rows from any other company are dropped.
func (s *ProfileStore) ListProfiles(ctx context.Context, companyID string) ([]session.Profile, error) {
	var out []profile.ProfileResponse
	if err := s.client.do(ctx, http.MethodGet, "/profiles", nil, &out); err != nil {
		return nil, err
	}

	profiles := make([]session.Profile, 0, len(out))
	for _, p := range out {
		if p.CompanyID != companyID {
			continue
		}
		profiles = append(profiles, profileFrom(p))
	}
	return profiles, nil
}

func (s *ProfileStore) UpdateRole(ctx context.Context, userID string, role session.Role) (session.Profile, error) {
	var out profile.ProfileResponse
	err := s.client.do(ctx, http.MethodPatch, "/profiles/"+url.PathEscape(userID)+"/role",
		profile.UpdateRoleRequest{Role: string(role)}, &out)
	if err != nil {
		return session.Profile{}, err
	}
	return profileFrom(out), nil
}

func profileFrom(p profile.ProfileResponse) session.Profile {
	return session.Profile{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		CompanyID:   p.CompanyID,
		CompanyName: p.CompanyName,
		Role:        session.Role(p.Role),
		CreatedAt:   p.CreatedAt,
	}
}
