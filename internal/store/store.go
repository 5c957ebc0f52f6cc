// Package store is the portal's access layer to the entity store.
//
// Every table is read into an explicit struct and every write is validated
// against the struct's `validate` tags before it reaches the database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid record")
)

// ValidationError lists every field that failed validation. It matches
// ErrInvalid under errors.Is.
type ValidationError struct {
	errs *multierror.Error
}

func (e *ValidationError) Error() string {
	return e.errs.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.errs
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Fields returns one error per failed field.
func (e *ValidationError) Fields() []error {
	return e.errs.WrappedErrors()
}

// Store reads and writes portal entities.
type Store struct {
	db       *sqlx.DB
	validate *validator.Validate
	now      func() time.Time
}

func New(db *sqlx.DB) *Store {
	return &Store{
		db:       db,
		validate: newValidator(),
		now:      time.Now,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks v against its validate tags.
func Validate(v *validator.Validate, record interface{}) error {
	err := v.Struct(record)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var result *multierror.Error
	for _, fe := range fieldErrs {
		result = multierror.Append(result, fmt.Errorf("%s: failed %q check", fe.Field(), fe.Tag()))
	}
	return &ValidationError{errs: result}
}

func (s *Store) check(record interface{}) error {
	return Validate(s.validate, record)
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// queryIn expands a query holding an IN (?) clause and selects into dest.
func (s *Store) queryIn(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	q, qargs, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	return sqlx.SelectContext(ctx, s.db, dest, s.db.Rebind(q), qargs...)
}
