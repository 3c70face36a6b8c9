package config

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// structValidator returns a shared validator that reports yaml field names.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidationError lists the invalid fields of a Config.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid config: " + strings.Join(parts, ", ")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Service.Timeout != "" {
		if err := c.checkTimeout(); err != nil {
			return &ValidationError{Fields: map[string]string{"service.timeout": err.Error()}}
		}
	}

	err := structValidator().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		// Namespace is "Config.service.base_url"; drop the root type.
		name := fe.Namespace()
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		fields[name] = describe(fe)
	}
	return &ValidationError{Fields: fields}
}

func (c *Config) checkTimeout() error {
	if strings.TrimSpace(c.Service.Timeout) != c.Service.Timeout {
		return errors.New("must not contain spaces")
	}
	d, err := time.ParseDuration(c.Service.Timeout)
	if err != nil {
		return errors.New("must be a duration like 30s")
	}
	if d < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "url":
		return "must be an absolute URL"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gte":
		return "must be at least " + fe.Param()
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
