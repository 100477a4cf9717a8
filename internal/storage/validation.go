// Package storage provides the data persistence layer for costcalc.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidName   = errors.New("invalid repo or table name")
	ErrUnknownCodec  = errors.New("unknown codec")
	ErrSchemaVersion = errors.New("unexpected schema version")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateName ensures a repo or table name is a plain identifier.
func validateName(name, paramName string) error {
	if err := validateString(name, paramName); err != nil {
		return err
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
		default:
			return fmt.Errorf("%w: %s %q contains %q", ErrInvalidName, paramName, name, r)
		}
	}
	return nil
}

// validateKey validates a (repo, table) pair.
func validateKey(repo, table string) error {
	if err := validateName(repo, "repo"); err != nil {
		return err
	}
	return validateName(table, "table")
}
