package store

import (
	"context"

	"ngo_tracker/internal/domain"

	"gorm.io/gorm"
)

// Projects stores NGO projects
type Projects struct {
	db *gorm.DB
}

// Create inserts a project
func (r *Projects) Create(ctx context.Context, p *domain.Project) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return translate(r.db.WithContext(ctx).Create(p).Error, "create project")
}

// FindByID returns a project by id
func (r *Projects) FindByID(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err, "project "+id)
	}
	return &p, nil
}

// ListByNGO returns the projects owned by an NGO
func (r *Projects) ListByNGO(ctx context.Context, email string) ([]domain.Project, error) {
	var projects []domain.Project
	err := r.db.WithContext(ctx).Where("ngo_email = ?", email).Find(&projects).Error
	return projects, translate(err, "list projects of "+email)
}

// ListApproved returns the projects donors may fund
func (r *Projects) ListApproved(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	err := r.db.WithContext(ctx).Where("is_approved = ?", true).Find(&projects).Error
	return projects, translate(err, "list approved projects")
}

// ListAll returns every project
func (r *Projects) ListAll(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	err := r.db.WithContext(ctx).Find(&projects).Error
	return projects, translate(err, "list projects")
}

// Approve marks a project approved
func (r *Projects) Approve(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&domain.Project{}).Where("id = ?", id).Update("is_approved", true)
	if res.Error != nil {
		return translate(res.Error, "approve project "+id)
	}
	if res.RowsAffected == 0 {
		_, err := r.FindByID(ctx, id)
		return err
	}
	return nil
}

// Delete removes a project; administrative only
func (r *Projects) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Project{})
	if res.Error != nil {
		return translate(res.Error, "delete project "+id)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "project "+id)
	}
	return nil
}
