// Package suap adapts the SUAP institutional API (IFRN) to the
// CredentialProvider port: token pair exchange, profile lookup and
// profile normalization.
package suap

import (
	"crypto/tls"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/allyfhpontes/reutilizaif/internal/auth/provider"
)

const (
	providerName = "suap"

	DefaultBaseURL = "https://suap.ifrn.edu.br"
	DefaultTimeout = 15 * time.Second

	maxBodyBytes = 1 << 20
)

var _ provider.CredentialProvider = (*Provider)(nil)

type Config struct {
	BaseURL string
	// TokenEndpoints and ProfileEndpoints are paths relative to BaseURL,
	// tried in order.
	TokenEndpoints   []string
	ProfileEndpoints []string
	// Timeout bounds every single HTTP attempt.
	Timeout time.Duration
	// FailOpen admits users whose eligibility cannot be determined from
	// the profile. Product policy, pending sign-off.
	FailOpen bool
	// Transport overrides the default TLS-verifying transport. Tests only.
	Transport http.RoundTripper
}

// Provider talks to SUAP. It keeps no per-user state and is safe for
// concurrent use.
type Provider struct {
	baseURL     string
	tokenURLs   []string
	profileURLs []string
	failOpen    bool
	client      *http.Client
}

func New(cfg Config) (*Provider, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if len(cfg.TokenEndpoints) == 0 {
		return nil, errors.New("suap config missing token endpoints")
	}
	if len(cfg.ProfileEndpoints) == 0 {
		return nil, errors.New("suap config missing profile endpoints")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := cfg.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		transport = t
	}

	return &Provider{
		baseURL:     base,
		tokenURLs:   joinAll(base, cfg.TokenEndpoints),
		profileURLs: joinAll(base, cfg.ProfileEndpoints),
		failOpen:    cfg.FailOpen,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

func joinAll(base string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
			out = append(out, path)
			continue
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		out = append(out, base+path)
	}
	return out
}
