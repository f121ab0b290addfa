package store

import (
	"context"
	"fmt"

	"ngo_tracker/internal/domain"

	"gorm.io/gorm"
)

// Users stores account projections
type Users struct {
	db *gorm.DB
}

// Create inserts a user, assigning an id when missing
func (r *Users) Create(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	return translate(r.db.WithContext(ctx).Create(u).Error, "user "+u.Email)
}

// FindByEmail returns the user with the given email
func (r *Users) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err, "user "+email)
	}
	return &u, nil
}

// MarkEmailVerified sets the verified flag
func (r *Users) MarkEmailVerified(ctx context.Context, email string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Update("email_verified", true)
	if res.Error != nil {
		return translate(res.Error, "verify user "+email)
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByEmail(ctx, email); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePassword replaces the stored password hash
func (r *Users) UpdatePassword(ctx context.Context, email, hash string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Update("password", hash)
	if res.Error != nil {
		return translate(res.Error, "reset password "+email)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
	}
	return nil
}
