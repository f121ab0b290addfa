package store

import (
	"context"
	"errors"
	"fmt"

	"ngo_tracker/internal/domain"

	"gorm.io/gorm"
)

// evidenceColumns are the only columns written after a donation is created
var evidenceColumns = []string{"evidence_images", "evidence_description", "status", "last_updated"}

// Donations stores donation records
type Donations struct {
	db *gorm.DB
}

// Create inserts a donation. A second record for the same transaction is
// rejected with ErrAlreadyRecorded.
func (r *Donations) Create(ctx context.Context, d *domain.Donation) error {
	if d.TransactionHash != "" {
		existing, err := r.FindByTransaction(ctx, d.TransactionHash)
		if err == nil {
			return fmt.Errorf("transaction %s as donation %s: %w", d.TransactionHash, existing.ID, domain.ErrAlreadyRecorded)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	if d.ID == "" {
		d.ID = newID()
	}
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("transaction %s: %w", d.TransactionHash, domain.ErrAlreadyRecorded)
		}
		return translate(err, "create donation")
	}
	return nil
}

// FindByID returns a donation by id
func (r *Donations) FindByID(ctx context.Context, id string) (*domain.Donation, error) {
	var d domain.Donation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, translate(err, "donation "+id)
	}
	return &d, nil
}

// FindByTransaction returns the donation recorded for a transaction id
func (r *Donations) FindByTransaction(ctx context.Context, txHash string) (*domain.Donation, error) {
	var d domain.Donation
	if err := r.db.WithContext(ctx).Where("transaction_hash = ?", txHash).First(&d).Error; err != nil {
		return nil, translate(err, "donation for transaction "+txHash)
	}
	return &d, nil
}

// ListByDonor returns donations sent from an address, unordered
func (r *Donations) ListByDonor(ctx context.Context, address string) ([]domain.Donation, error) {
	var donations []domain.Donation
	err := r.db.WithContext(ctx).Where("donor_address = ?", address).Find(&donations).Error
	return donations, translate(err, "list donations of donor "+address)
}

// ListByNGO returns donations received by an NGO, unordered
func (r *Donations) ListByNGO(ctx context.Context, email string) ([]domain.Donation, error) {
	var donations []domain.Donation
	err := r.db.WithContext(ctx).Where("ngo_email = ?", email).Find(&donations).Error
	return donations, translate(err, "list donations of ngo "+email)
}

// UpdateEvidence reads a donation, lets mutate change it and writes back the
// evidence columns only. Donor, amount and transaction stay untouched.
func (r *Donations) UpdateEvidence(ctx context.Context, id string, mutate func(*domain.Donation) error) (*domain.Donation, error) {
	var out domain.Donation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&out).Error; err != nil {
			return translate(err, "donation "+id)
		}
		if err := mutate(&out); err != nil {
			return err
		}
		return tx.Model(&domain.Donation{ID: out.ID}).Select(evidenceColumns).Updates(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
