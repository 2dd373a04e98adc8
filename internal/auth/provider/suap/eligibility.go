package suap

import (
	"strings"

	"github.com/allyfhpontes/reutilizaif/internal/auth"
)

// Eligibility bases, recorded on every successful exchange.
const (
	BasisStudentActive      = "student_active"
	BasisStudentInactive    = "student_inactive"
	BasisEnrollmentActive   = "enrollment_active"
	BasisEnrollmentInactive = "enrollment_inactive"
	BasisInconclusive       = "inconclusive"
)

var (
	studentMarkers  = []string{"aluno", "estudante", "student"}
	inactiveMarkers = []string{"inativo", "cancelado", "trancado", "desligado", "concluído", "concluido"}
)

// Eligibility decides whether a normalized profile belongs to an active
// student.
//
// A student-like tipo_vinculo decides on its own, as does an affiliation
// carrying a course or campus. In both cases the affiliation's situacao
// must not contain an inactive marker; a missing situacao counts as
// active. Anything else is inconclusive and resolves to failOpen.
func Eligibility(p auth.Profile, failOpen bool) (bool, string) {
	aff := primaryAffiliation(p)
	inactive := containsAny(strings.ToLower(str(aff, "situacao")), inactiveMarkers)

	if containsAny(strings.ToLower(str(p, "tipo_vinculo")), studentMarkers) {
		if inactive {
			return false, BasisStudentInactive
		}
		return true, BasisStudentActive
	}

	if aff != nil && (present(aff["curso"]) || present(aff["campus"])) {
		if inactive {
			return false, BasisEnrollmentInactive
		}
		return true, BasisEnrollmentActive
	}

	return failOpen, BasisInconclusive
}

func containsAny(s string, markers []string) bool {
	if s == "" {
		return false
	}
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
