package store

import (
	"context"
	"errors"

	"ngo_tracker/internal/domain"

	"gorm.io/gorm"
)

// NGOs stores NGO registrations and their documents
type NGOs struct {
	db *gorm.DB
}

// Create inserts an NGO registration
func (r *NGOs) Create(ctx context.Context, n *domain.NGO) error {
	if n.ID == "" {
		n.ID = newID()
	}
	return translate(r.db.WithContext(ctx).Create(n).Error, "create ngo "+n.Email)
}

// FindByID returns the NGO with the given document id
func (r *NGOs) FindByID(ctx context.Context, id string) (*domain.NGO, error) {
	return r.findOne(ctx, "id = ?", id, "ngo "+id)
}

// FindByEmail returns the NGO owned by the given account
func (r *NGOs) FindByEmail(ctx context.Context, email string) (*domain.NGO, error) {
	return r.findOne(ctx, "email = ?", email, "ngo "+email)
}

// FindByCode returns the NGO holding a verification code, matched exactly
func (r *NGOs) FindByCode(ctx context.Context, code string) (*domain.NGO, error) {
	return r.findOne(ctx, "code = ?", code, "ngo with code")
}

// CodeExists reports whether any NGO already holds code
func (r *NGOs) CodeExists(ctx context.Context, code string) (bool, error) {
	_, err := r.FindByCode(ctx, code)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (r *NGOs) findOne(ctx context.Context, where string, arg any, what string) (*domain.NGO, error) {
	var n domain.NGO
	if err := r.db.WithContext(ctx).Where(where, arg).First(&n).Error; err != nil {
		return nil, translate(err, what)
	}
	return &n, nil
}

// Approve flips the approval flag only if it is still false. It reports false
// when another request approved the NGO first.
func (r *NGOs) Approve(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.NGO{}).
		Where("id = ? AND is_approved = ?", id, false).
		Update("is_approved", true)
	if res.Error != nil {
		return false, translate(res.Error, "approve ngo "+id)
	}
	return res.RowsAffected == 1, nil
}

// UpdateWallet replaces the receiving wallet address
func (r *NGOs) UpdateWallet(ctx context.Context, id, address string) error {
	res := r.db.WithContext(ctx).Model(&domain.NGO{}).Where("id = ?", id).Update("wallet_address", address)
	return translate(res.Error, "update wallet of ngo "+id)
}

// ListApproved returns every verified NGO
func (r *NGOs) ListApproved(ctx context.Context) ([]domain.NGO, error) {
	var ngos []domain.NGO
	err := r.db.WithContext(ctx).Where("is_approved = ?", true).Find(&ngos).Error
	return ngos, translate(err, "list approved ngos")
}

// ListAll returns every NGO registration
func (r *NGOs) ListAll(ctx context.Context) ([]domain.NGO, error) {
	var ngos []domain.NGO
	err := r.db.WithContext(ctx).Find(&ngos).Error
	return ngos, translate(err, "list ngos")
}

// CreateDocument stores an uploaded registration document
func (r *NGOs) CreateDocument(ctx context.Context, d *domain.NGODocument) error {
	if d.ID == "" {
		d.ID = newID()
	}
	return translate(r.db.WithContext(ctx).Create(d).Error, "store document of "+d.NGOEmail)
}

// FindDocument returns a stored document by id
func (r *NGOs) FindDocument(ctx context.Context, id string) (*domain.NGODocument, error) {
	var d domain.NGODocument
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, translate(err, "document "+id)
	}
	return &d, nil
}
