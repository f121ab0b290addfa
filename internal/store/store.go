// Package store is the record store: gorm repositories over the users, ngos,
// ngo_documents, projects and donations tables. Lookups are equality matches
// on single columns; ordering is left to the callers.
package store

import (
	"errors"
	"fmt"

	"ngo_tracker/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store bundles the repositories over one connection
type Store struct {
	Users     *Users
	NGOs      *NGOs
	Projects  *Projects
	Donations *Donations
}

// New builds every repository over db
func New(db *gorm.DB) *Store {
	return &Store{
		Users:     &Users{db: db},
		NGOs:      &NGOs{db: db},
		Projects:  &Projects{db: db},
		Donations: &Donations{db: db},
	}
}

func newID() string {
	return uuid.NewString()
}

// translate maps gorm errors onto the domain taxonomy
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.Invalid(what, "already exists")
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
