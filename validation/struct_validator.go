package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/streamkit/errors"
)

var structs = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Name fields by their config key so messages match config.yml.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return snake(f.Name)
		}
		return name
	})
	return v
})

// tagMessages renders the validator tags streamkit uses. %s is the tag
// parameter.
var tagMessages = map[string]string{
	"required":    "is required",
	"required_if": "is required",
	"gte":         "must be at least %s",
	"lte":         "must be at most %s",
	"oneof":       "must be one of [%s]",
}

// Validate checks s against its `validate` struct tags. Problems are named
// by their dotted config key, e.g. "codec.flush".
func Validate(s any) error {
	err := structs().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return errors.Validation("validation failed").WithCause(err)
	}

	problems := make(Problems, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, FieldError{Field: configKey(fe.Namespace()), Message: describe(fe)})
	}
	return problems.Err()
}

// configKey drops the root type from a namespace: "Config.codec.flush"
// becomes "codec.flush".
func configKey(namespace string) string {
	_, key, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return key
}

func describe(fe validator.FieldError) string {
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return "is invalid"
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return msg
}

func snake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
