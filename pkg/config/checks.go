package config

import (
	"errors"
	"fmt"
)

// checker collects cross-field validation errors that struct tags cannot
// express, rather than failing on the first one.
type checker struct {
	errors []error
}

// Custom applies a custom validation function.
func (c *checker) Custom(field string, fn func() error) *checker {
	if err := fn(); err != nil {
		c.errors = append(c.errors, fmt.Errorf("%s: %w", field, err))
	}
	return c
}

// When conditionally applies validations if the condition is true.
func (c *checker) When(condition bool, validations func(*checker)) *checker {
	if condition {
		validations(c)
	}
	return c
}

// Err joins all collected errors, or returns nil.
func (c *checker) Err() error {
	return errors.Join(c.errors...)
}

// DefaultOrInt returns the value if it's positive, otherwise returns the default.
func DefaultOrInt(value, defaultValue int) int {
	if value <= 0 {
		return defaultValue
	}
	return value
}

// DefaultOr returns the value if it's non-zero, otherwise returns the default.
func DefaultOr[T comparable](value, defaultValue T) T {
	var zero T
	if value == zero {
		return defaultValue
	}
	return value
}
