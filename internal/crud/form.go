package crud

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/garyjia/expense-admin/internal/domain/entity"
	"github.com/garyjia/expense-admin/internal/registry"
)

// FormError lists one message per rejected field
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, e.Fields[name])
	}
	return strings.Join(msgs, "; ")
}

// normalizeForm checks values against the form fields and returns the
// payload: numbers as JSON numbers, dropdowns as the chosen option's value,
// everything else as trimmed text. Keys that are not form fields are dropped.
func normalizeForm(v *validator.Validate, fields []registry.FormField, values map[string]any) (map[string]any, *FormError) {
	payload := make(map[string]any, len(fields))
	problems := make(map[string]string)

	for _, f := range fields {
		raw := strings.TrimSpace(entity.ScalarString(values[f.Name]))
		if err := v.Var(raw, "required"); err != nil {
			problems[f.Name] = fmt.Sprintf("please enter %s", f.Label)
			continue
		}

		switch f.EffectiveType() {
		case registry.FieldNumber:
			if err := v.Var(raw, "numeric"); err != nil {
				problems[f.Name] = fmt.Sprintf("%s must be a number", f.Label)
				continue
			}
			payload[f.Name] = json.Number(strings.TrimPrefix(raw, "+"))
		case registry.FieldDate:
			if err := v.Var(raw, "datetime="+entity.DateLayout); err != nil {
				problems[f.Name] = fmt.Sprintf("%s must be a date (YYYY-MM-DD)", f.Label)
				continue
			}
			payload[f.Name] = raw
		case registry.FieldDropdown:
			opt, ok := matchOption(f.Options, raw)
			if !ok {
				problems[f.Name] = fmt.Sprintf("%s must be one of the listed options", f.Label)
				continue
			}
			payload[f.Name] = opt.Value
		default:
			payload[f.Name] = raw
		}
	}

	if len(problems) > 0 {
		return nil, &FormError{Fields: problems}
	}
	return payload, nil
}

func matchOption(options []entity.Option, raw string) (entity.Option, bool) {
	for _, o := range options {
		if entity.ScalarString(o.Value) == raw {
			return o, true
		}
	}
	return entity.Option{}, false
}
