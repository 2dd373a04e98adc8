package suap

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/allyfhpontes/reutilizaif/internal/auth/provider"
	"github.com/allyfhpontes/reutilizaif/internal/logger"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// accessTokenFields are the accepted names of the access token in a token
// pair response, by priority.
var accessTokenFields = []string{"access", "token", "access_token"}

// ExchangeCredentials trades a matricula/password pair for a SUAP token
// pair, then loads and normalizes the caller's profile.
//
// Each token endpoint is tried with a JSON body first and, unless SUAP
// answered 2xx or 401, once more with a form-encoded body. A 401 ends the
// exchange immediately.
func (p *Provider) ExchangeCredentials(
	ctx context.Context,
	matricula string,
	password string,
) provider.Result {

	matricula = strings.TrimSpace(matricula)
	password = strings.TrimSpace(password)
	if matricula == "" || password == "" {
		return &provider.Failure{
			Reason: provider.InvalidCredentials,
			Detail: "empty matricula or password",
		}
	}

	var last *provider.Failure
	for _, endpoint := range p.tokenURLs {
		body, fail := p.requestTokenPair(ctx, endpoint, matricula, password)
		if fail == nil {
			return p.completeExchange(ctx, matricula, body)
		}

		logger.Warn("suap token exchange failed", map[string]any{
			"endpoint":    endpoint,
			"matricula":   matricula,
			"reason":      string(fail.Reason),
			"http_status": fail.HTTPStatus,
			"detail":      fail.Detail,
		})

		if fail.Reason == provider.InvalidCredentials {
			return fail
		}
		last = fail
	}

	return last
}

func (p *Provider) requestTokenPair(
	ctx context.Context,
	endpoint string,
	matricula string,
	password string,
) ([]byte, *provider.Failure) {

	payload, err := json.Marshal(map[string]string{
		"username": matricula,
		"password": password,
	})
	if err != nil {
		return nil, &provider.Failure{Reason: provider.MalformedResponse, Detail: err.Error()}
	}

	status, body, err := p.post(ctx, endpoint, contentTypeJSON, bytes.NewReader(payload))
	if err != nil {
		return nil, transportFailure(err)
	}
	switch {
	case isSuccess(status):
		return body, nil
	case status == http.StatusUnauthorized:
		return nil, invalidCredentials(body)
	}

	logger.Info("suap rejected json token request, retrying form-encoded", map[string]any{
		"endpoint":    endpoint,
		"http_status": status,
	})

	form := url.Values{
		"username": {matricula},
		"password": {password},
	}
	status, body, err = p.post(ctx, endpoint, contentTypeForm, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, transportFailure(err)
	}
	switch {
	case isSuccess(status):
		return body, nil
	case status == http.StatusUnauthorized:
		return nil, invalidCredentials(body)
	default:
		return nil, &provider.Failure{
			Reason:     provider.UpstreamError,
			HTTPStatus: status,
			Detail:     upstreamDetail(body),
		}
	}
}

func (p *Provider) completeExchange(ctx context.Context, matricula string, body []byte) provider.Result {
	var pair map[string]any
	if err := json.Unmarshal(body, &pair); err != nil || pair == nil {
		detail := "token response is not a JSON object"
		if err != nil {
			detail = err.Error()
		}
		return &provider.Failure{Reason: provider.MalformedResponse, Detail: detail}
	}

	access := firstString(pair, accessTokenFields...)
	if access == "" {
		return &provider.Failure{
			Reason: provider.TokenMissing,
			Detail: "no access token field in token response",
		}
	}
	refresh := firstString(pair, "refresh")

	profile := p.FetchProfile(ctx, access)
	if profile == nil {
		return &provider.Failure{
			Reason: provider.ProfileUnavailable,
			Detail: "no profile endpoint returned data",
		}
	}

	eligible, basis := Eligibility(profile, p.failOpen)
	if basis == BasisInconclusive {
		logger.Warn("suap eligibility inconclusive, applying fail-open policy", map[string]any{
			"matricula": matricula,
			"fail_open": p.failOpen,
		})
	}

	return &provider.Success{
		AccessToken:      access,
		RefreshToken:     refresh,
		Expiry:           tokenExpiry(access),
		Profile:          profile,
		Summary:          Summarize(profile),
		Eligible:         eligible,
		EligibilityBasis: basis,
	}
}

func (p *Provider) post(
	ctx context.Context,
	endpoint string,
	contentType string,
	body io.Reader,
) (int, []byte, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentTypeJSON)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func invalidCredentials(body []byte) *provider.Failure {
	return &provider.Failure{
		Reason:     provider.InvalidCredentials,
		HTTPStatus: http.StatusUnauthorized,
		Detail:     upstreamDetail(body),
	}
}

// upstreamDetail extracts SUAP's error description for logs.
func upstreamDetail(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := firstString(payload, "detail", "message", "error"); msg != "" {
			return msg
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return "empty response"
	}
	if len(text) > 500 {
		text = text[:500]
	}
	return text
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := str(m, k); s != "" {
			return s
		}
	}
	return ""
}

func str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, ok := m[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}
