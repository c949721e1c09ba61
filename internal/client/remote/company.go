package remote

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"the-work-standard/internal/company"
	companyerrors "the-work-standard/internal/company/errors"
	"the-work-standard/internal/shared/apperror"
)

// VerifyCompanyCode resolves a company code to its id, as used at sign-up.
// An unknown code is an INVALID_COMPANY_CODE error.
func (c *Client) VerifyCompanyCode(ctx context.Context, code string) (company.VerifyCodeResponse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return company.VerifyCodeResponse{}, apperror.RequiredField("code")
	}

	var out company.VerifyCodeResponse
	path := "/companies/verify?" + url.Values{"code": {code}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &out, anonymous()); err != nil {
		return company.VerifyCodeResponse{}, err
	}
	if !out.IsValid {
		return out, companyerrors.ErrInvalidCompanyCode
	}
	return out, nil
}
