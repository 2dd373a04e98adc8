package suap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
	"github.com/allyfhpontes/reutilizaif/internal/logger"
)

// FetchProfile tries each profile endpoint once, in order, and returns the
// first 2xx JSON object normalized. It returns nil when every endpoint
// fails.
func (p *Provider) FetchProfile(ctx context.Context, token string) auth.Profile {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	client := p.bearerClient(token)

	var lastErr error
	for _, endpoint := range p.profileURLs {
		profile, err := getProfile(ctx, client, endpoint)
		if err != nil {
			logger.Debug("suap profile endpoint failed", map[string]any{
				"endpoint": endpoint,
				"error":    err.Error(),
			})
			lastErr = err
			continue
		}

		logger.Debug("suap profile loaded", map[string]any{
			"endpoint": endpoint,
		})
		return Normalize(profile, p.baseURL)
	}

	fields := map[string]any{"endpoints": len(p.profileURLs)}
	if lastErr != nil {
		fields["last_error"] = lastErr.Error()
	}
	logger.Warn("suap profile unavailable", fields)
	return nil
}

// bearerClient shares the provider's transport, timeout and redirect
// policy, adding the Authorization header on every request.
func (p *Provider) bearerClient(token string) *http.Client {
	return &http.Client{
		Timeout:       p.client.Timeout,
		CheckRedirect: p.client.CheckRedirect,
		Transport: &oauth2.Transport{
			Base: p.client.Transport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: token,
				TokenType:   "Bearer",
			}),
		},
	}
}

func getProfile(ctx context.Context, client *http.Client, endpoint string) (auth.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", contentTypeJSON)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.StatusCode) {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, upstreamDetail(body))
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var profile auth.Profile
	if err := dec.Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if len(profile) == 0 {
		return nil, fmt.Errorf("empty profile")
	}
	return profile, nil
}
