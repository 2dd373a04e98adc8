package credentials

import (
	"context"
	"errors"
	"strings"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
	"github.com/allyfhpontes/reutilizaif/internal/auth/provider"
	"github.com/allyfhpontes/reutilizaif/internal/auth/resolver"
	"github.com/allyfhpontes/reutilizaif/internal/logger"
)

// Service runs the login, registration and password flows on top of the
// credential provider and the account store.
type Service struct {
	provider provider.CredentialProvider
	accounts resolver.Resolver
	hasher   *Hasher
}

func NewService(
	p provider.CredentialProvider,
	accounts resolver.Resolver,
	hasher *Hasher,
) *Service {
	return &Service{
		provider: p,
		accounts: accounts,
		hasher:   hasher,
	}
}

// IsBootstrapped reports whether matricula has completed registration.
func (s *Service) IsBootstrapped(ctx context.Context, matricula string) (bool, error) {
	acc, err := s.accounts.Lookup(ctx, strings.TrimSpace(matricula))
	if errors.Is(err, resolver.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return acc.Bootstrapped(), nil
}

// Login authenticates a matricula/password pair.
//
// Registered accounts are verified against the local hash only; SUAP is
// never contacted for them. Anyone else is checked against SUAP and, if
// eligible, handed back as a Pending registration.
func (s *Service) Login(ctx context.Context, matricula, password string) (LoginResult, error) {
	matricula = strings.TrimSpace(matricula)
	password = strings.TrimSpace(password)
	if matricula == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	acc, err := s.accounts.Lookup(ctx, matricula)
	if err != nil && !errors.Is(err, resolver.ErrNotFound) {
		return LoginResult{}, err
	}

	if acc.Bootstrapped() {
		if err := s.hasher.Verify(acc.PasswordHash, password); err != nil {
			logger.Info("local login rejected", map[string]any{
				"matricula": matricula,
			})
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{Account: acc}, nil
	}

	success, err := s.exchange(ctx, matricula, password)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		Pending: &Pending{
			Matricula: matricula,
			Token:     success.AccessToken,
			Profile:   success.Summary,
		},
	}, nil
}

// Register completes a pending registration: the password is hashed and
// stored together with the cached token and profile in one transaction.
func (s *Service) Register(
	ctx context.Context,
	pending Pending,
	password string,
	confirm string,
) (*auth.Account, error) {

	password = strings.TrimSpace(password)
	confirm = strings.TrimSpace(confirm)
	if err := CheckNewPassword(password, confirm); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	acc, err := s.accounts.Resolve(ctx, pending.Matricula, func(a *auth.Account) error {
		if a.Bootstrapped() {
			return ErrAlreadyRegistered
		}
		a.PasswordHash = hash
		a.CachedToken = pending.Token
		a.ApplyProfile(pending.Profile)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("account registered", map[string]any{
		"matricula": acc.Matricula,
	})
	return acc, nil
}

// ResetPassword replaces the local password of a registered account after
// re-authenticating the caller against SUAP.
func (s *Service) ResetPassword(
	ctx context.Context,
	matricula string,
	suapPassword string,
	newPassword string,
	confirm string,
) (*auth.Account, error) {

	matricula = strings.TrimSpace(matricula)
	newPassword = strings.TrimSpace(newPassword)
	confirm = strings.TrimSpace(confirm)
	if err := CheckNewPassword(newPassword, confirm); err != nil {
		return nil, err
	}

	registered, err := s.IsBootstrapped(ctx, matricula)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, ErrNotRegistered
	}

	success, err := s.exchange(ctx, matricula, strings.TrimSpace(suapPassword))
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}

	acc, err := s.accounts.Update(ctx, matricula, func(a *auth.Account) error {
		a.PasswordHash = hash
		a.CachedToken = success.AccessToken
		a.ApplyProfile(success.Summary)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("password reset", map[string]any{
		"matricula": matricula,
	})
	return acc, nil
}

// RefreshProfile reloads the profile from SUAP with token (or the cached
// token when empty) and stores the canonical fields on the account.
func (s *Service) RefreshProfile(ctx context.Context, matricula, token string) (*auth.Account, error) {
	acc, err := s.accounts.Lookup(ctx, matricula)
	if err != nil {
		return nil, err
	}

	if token == "" {
		token = acc.CachedToken
	}
	if token == "" {
		return nil, ErrNoCachedToken
	}

	profile := s.provider.FetchProfile(ctx, token)
	if profile == nil {
		return nil, &ExchangeError{Failure: &provider.Failure{
			Reason: provider.ProfileUnavailable,
			Detail: "profile refresh failed",
		}}
	}
	summary := s.provider.Summarize(profile)

	return s.accounts.Update(ctx, matricula, func(a *auth.Account) error {
		a.ApplyProfile(summary)
		return nil
	})
}

func (s *Service) exchange(ctx context.Context, matricula, password string) (*provider.Success, error) {
	switch res := s.provider.ExchangeCredentials(ctx, matricula, password).(type) {
	case *provider.Success:
		if !res.Eligible {
			logger.Info("login refused, not an active student", map[string]any{
				"matricula": matricula,
				"basis":     res.EligibilityBasis,
			})
			return nil, ErrNotEligible
		}
		return res, nil
	case *provider.Failure:
		return nil, &ExchangeError{Failure: res}
	default:
		return nil, errors.New("credential provider returned no result")
	}
}
