package validator

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	playground "github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *playground.Validate
)

func get() *playground.Validate {
	once.Do(func() {
		instance = playground.New(playground.WithRequiredStructEnabled())
	})
	return instance
}

// Struct validates v against its `validate` tags. Failures are reported as
// a single error listing field_rule tokens, e.g. "content_max".
func Struct(v any) error {
	err := get().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	tokens := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		tokens = append(tokens, token(fe))
	}
	return fmt.Errorf("%s", strings.Join(tokens, ","))
}

func token(fe playground.FieldError) string {
	field := strings.ToLower(fe.Namespace())
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	field = strings.NewReplacer(".", "_", "[", "_", "]", "").Replace(field)
	return fmt.Sprintf("%s_%s", field, fe.Tag())
}
