package suap

import (
	"strings"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
)

// displayNameFields are the name fields SUAP may send, by priority.
var displayNameFields = []string{"nome_usual", "nome_social", "nome", "nome_registro"}

// photoFields are the photo fields SUAP may send, by priority.
var photoFields = []string{"foto", "url_foto", "foto_150x200", "url_foto_150x200"}

// Normalize rewrites a SUAP profile in place so downstream code can rely on
// a single field per concept:
//
//   - nome_usual and nome hold the canonical display name
//   - foto holds an absolute photo URL
//   - vinculos is always a list, and each entry exposes curso_nome and
//     campus_nome next to the nested curso and campus objects
//
// Normalize is idempotent. host is used to absolutize relative photo paths.
func Normalize(p auth.Profile, host string) auth.Profile {
	if p == nil {
		return nil
	}

	if name := canonicalName(p); name != "" {
		p["nome_usual"] = name
		p["nome"] = name
	}

	if photo := canonicalPhoto(p, host); photo != "" {
		p["foto"] = photo
	}

	affiliations := affiliationList(p)
	if len(affiliations) > 0 {
		p["vinculos"] = affiliations
		for _, entry := range affiliations {
			if m, ok := entry.(map[string]any); ok {
				liftName(m, "curso")
				liftName(m, "campus")
			}
		}
	} else {
		liftName(p, "curso")
		liftName(p, "campus")
	}

	return p
}

func canonicalName(p auth.Profile) string {
	if name := firstString(p, displayNameFields...); name != "" {
		return name
	}
	return strings.TrimSpace(str(p, "primeiro_nome") + " " + str(p, "ultimo_nome"))
}

func canonicalPhoto(p auth.Profile, host string) string {
	photo := firstString(p, photoFields...)
	if photo == "" || strings.HasPrefix(photo, "http") {
		return photo
	}
	if !strings.HasPrefix(photo, "/") {
		photo = "/" + photo
	}
	return strings.TrimRight(host, "/") + photo
}

// affiliationList accepts vinculos as a list, or vinculo as a single
// object or a list.
func affiliationList(p auth.Profile) []any {
	if list, ok := p["vinculos"].([]any); ok && len(list) > 0 {
		return list
	}

	switch v := p["vinculo"].(type) {
	case map[string]any:
		return []any{v}
	case []any:
		return v
	}
	return nil
}

// liftName copies m[key]["nome"] into m[key+"_nome"].
func liftName(m map[string]any, key string) {
	nested, ok := m[key].(map[string]any)
	if !ok {
		return
	}
	if name := str(nested, "nome"); name != "" {
		m[key+"_nome"] = name
	}
}

// primaryAffiliation is vinculo when it is an object, otherwise the first
// object in vinculos.
func primaryAffiliation(p auth.Profile) map[string]any {
	if m, ok := p["vinculo"].(map[string]any); ok {
		return m
	}
	for _, entry := range affiliationList(p) {
		if m, ok := entry.(map[string]any); ok {
			return m
		}
	}
	return nil
}

// Summarize extracts the canonical subset of a normalized profile.
func Summarize(p auth.Profile) auth.ProfileSummary {
	aff := primaryAffiliation(p)

	return auth.ProfileSummary{
		DisplayName:       firstString(p, "nome_usual", "nome"),
		Course:            nestedName(aff, p, "curso"),
		Campus:            nestedName(aff, p, "campus"),
		PhotoURL:          str(p, "foto"),
		AffiliationStatus: str(aff, "situacao"),
	}
}

// Summarize satisfies provider.CredentialProvider.
func (p *Provider) Summarize(profile auth.Profile) auth.ProfileSummary {
	return Summarize(profile)
}

// nestedName looks for key_nome, then a plain string under key, first on
// the affiliation and then on the profile itself.
func nestedName(aff map[string]any, p auth.Profile, key string) string {
	for _, m := range []map[string]any{aff, p} {
		if name := firstString(m, key+"_nome", key); name != "" {
			return name
		}
	}
	return ""
}
