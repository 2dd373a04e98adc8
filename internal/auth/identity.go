package auth

import "time"

// Profile is the loosely-typed profile document returned by the
// institutional API. Field names are the upstream ones.
type Profile map[string]any

// ProfileSummary is the canonical subset of a Profile that is cached in
// sessions and persisted on the local account.
type ProfileSummary struct {
	DisplayName       string `json:"display_name"`
	Course            string `json:"course,omitempty"`
	Campus            string `json:"campus,omitempty"`
	PhotoURL          string `json:"photo_url,omitempty"`
	AffiliationStatus string `json:"affiliation_status,omitempty"`
}

// Account is the local identity record, keyed by matricula.
// A non-empty PasswordHash means onboarding is complete and logins are
// verified locally.
type Account struct {
	Matricula    string
	PasswordHash string
	CachedToken  string
	DisplayName  string
	Course       string
	Campus       string
	PhotoURL     string
	Phone        string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a *Account) Bootstrapped() bool {
	return a != nil && a.PasswordHash != ""
}

// ApplyProfile copies the non-empty summary fields onto the account.
func (a *Account) ApplyProfile(p ProfileSummary) {
	if p.DisplayName != "" {
		a.DisplayName = p.DisplayName
	}
	if p.Course != "" {
		a.Course = p.Course
	}
	if p.Campus != "" {
		a.Campus = p.Campus
	}
	if p.PhotoURL != "" {
		a.PhotoURL = p.PhotoURL
	}
}

// CurrentUser is the authenticated caller, resolved once per request by
// the auth middleware and passed explicitly to handlers and services.
type CurrentUser struct {
	Matricula string
	Token     string
	Profile   ProfileSummary
	IsAdmin   bool
}

// DisplayName falls back to the matricula when the profile has no name.
func (u CurrentUser) DisplayName() string {
	if u.Profile.DisplayName != "" {
		return u.Profile.DisplayName
	}
	return u.Matricula
}
