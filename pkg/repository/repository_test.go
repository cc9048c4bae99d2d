package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/mimic/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

func TestMapError(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), errNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, errDuplicate},
		{"other pg error", &pgconn.PgError{Code: "42P01"}, nil},
		{"other", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.MapError(tt.err, errNotFound, errDuplicate)
			if tt.want == nil && tt.err != nil {
				if got != tt.err {
					t.Errorf("MapError() = %v, want passthrough", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("MapError() = %v, want %v", got, tt.want)
			}
		})
	}
}

// fakeRows yields a fixed set of integers.
type fakeRows struct {
	values []int
	pos    int
	err    error
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.values)
}

func (r *fakeRows) Err() error { return r.err }

func (r *fakeRows) Scan(dest ...any) error {
	*dest[0].(*int) = r.values[r.pos-1]
	return nil
}

func scanInt(s repository.Scanner) (int, error) {
	var v int
	err := s.Scan(&v)
	return v, err
}

func TestCollect(t *testing.T) {
	t.Run("scans every row", func(t *testing.T) {
		got, err := repository.Collect(&fakeRows{values: []int{3, 1, 2}}, scanInt)
		if err != nil {
			t.Fatalf("Collect() error = %v", err)
		}
		if len(got) != 3 || got[0] != 3 || got[2] != 2 {
			t.Errorf("Collect() = %v", got)
		}
	})

	t.Run("empty result is non-nil", func(t *testing.T) {
		got, err := repository.Collect(&fakeRows{}, scanInt)
		if err != nil || got == nil || len(got) != 0 {
			t.Errorf("Collect() = %v, %v; want empty slice", got, err)
		}
	})

	t.Run("propagates iteration error", func(t *testing.T) {
		boom := errors.New("boom")
		if _, err := repository.Collect(&fakeRows{err: boom}, scanInt); !errors.Is(err, boom) {
			t.Errorf("Collect() error = %v, want boom", err)
		}
	})
}
