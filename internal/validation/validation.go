// Package validation registers the custom binding rules used by request
// structs.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	matriculaPattern = regexp.MustCompile(`^[0-9A-Za-z]{4,20}$`)

	once    sync.Once
	onceErr error
)

// Register installs the custom rules on gin's validator. It is safe to
// call more than once.
func Register() error {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			onceErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		onceErr = v.RegisterValidation("matricula", matricula)
	})
	return onceErr
}

// matricula accepts SUAP registration numbers: 4 to 20 letters or digits,
// surrounding whitespace allowed.
func matricula(fl validator.FieldLevel) bool {
	return IsMatricula(fl.Field().String())
}

func IsMatricula(s string) bool {
	return matriculaPattern.MatchString(strings.TrimSpace(s))
}
