package parse

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"hotel-desk-backend/internal/domain"
)

// Bool is a form boolean that also accepts the HTML checkbox spellings.
type Bool bool

// UnmarshalParam implements binding.BindUnmarshaler.
func (b *Bool) UnmarshalParam(param string) error {
	v, err := ParseBool(param)
	if err != nil {
		return err
	}
	*b = Bool(v)
	return nil
}

// Time is a form timestamp. Values without a zone offset (datetime-local
// inputs, bare dates) are wall-clock readings resolved with In.
type Time struct {
	t        time.Time
	floating bool
}

// UnmarshalParam implements binding.BindUnmarshaler. An empty value leaves t zero.
func (t *Time) UnmarshalParam(param string) error {
	param = strings.TrimSpace(param)
	if param == "" {
		*t = Time{}
		return nil
	}
	if v, err := time.Parse(time.RFC3339, param); err == nil {
		*t = Time{t: v}
		return nil
	}
	v, err := parseLocal(param, time.UTC)
	if err != nil {
		return err
	}
	*t = Time{t: v, floating: true}
	return nil
}

// IsZero reports whether no value was bound.
func (t Time) IsZero() bool { return t.t.IsZero() }

// In returns the instant, reading floating values as wall-clock time in loc.
func (t Time) In(loc *time.Location) time.Time {
	if t.t.IsZero() || !t.floating {
		return t.t
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(t.t.Year(), t.t.Month(), t.t.Day(), t.t.Hour(), t.t.Minute(), t.t.Second(), t.t.Nanosecond(), loc)
}

// ParseBool accepts the usual HTML form spellings of a boolean.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "on", "yes", "y":
		return true, nil
	case "false", "0", "off", "no", "n", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

var timeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses RFC3339, or a datetime-local / date value interpreted in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	var t Time
	if err := t.UnmarshalParam(s); err != nil {
		return time.Time{}, err
	}
	if t.IsZero() {
		return time.Time{}, errors.New("empty time")
	}
	return t.In(loc), nil
}

func parseLocal(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse time: %q", s)
}

var registerOnce sync.Once

// RegisterValidators adds the "boolish" tag to gin's validator and makes
// validation errors name fields by their form key. Safe to call repeatedly.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator is not go-playground/validator")
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		err = v.RegisterValidation("boolish", func(fl validator.FieldLevel) bool {
			_, perr := ParseBool(fl.Field().String())
			return perr == nil
		})
	})
	return err
}

// BindError turns a gin binding error into a domain.ValidationError naming
// the first offending field, indexed for repeated fields (e.g. adults[1]).
func BindError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domain.ValidationError{Field: fe.Field(), Msg: fieldMessage(fe), Err: err}
	}
	return domain.ValidationError{Field: "form", Msg: err.Error(), Err: err}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "boolish":
		return fmt.Sprintf("not a boolean: %q", fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "min":
		return fmt.Sprintf("needs at least %s value(s)", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "max":
		return fmt.Sprintf("takes at most %s value(s)", fe.Param())
	case "email":
		return "not an email address"
	}
	return fmt.Sprintf("failed %s check", fe.Tag())
}
