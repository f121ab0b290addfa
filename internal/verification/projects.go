package verification

import (
	"context"
	"fmt"
	"strings"

	"ngo_tracker/internal/domain"
	"ngo_tracker/internal/events"

	"github.com/sirupsen/logrus"
)

// CreateProject publishes a project for the NGO owned by email. Projects
// start unapproved; only an authorizer can approve them.
func (s *Service) CreateProject(ctx context.Context, email, title, description string) (*domain.Project, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return nil, domain.Invalid("title", "is required")
	}
	if description == "" {
		return nil, domain.Invalid("description", "is required")
	}
	ngo, err := s.ngos.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !CanCreateProjects(ngo) {
		return nil, fmt.Errorf("ngo %s is not verified yet: %w", ngo.Name, domain.ErrForbidden)
	}
	p := &domain.Project{
		NGOEmail:    ngo.Email,
		NGOName:     ngo.Name,
		Title:       title,
		Description: description,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"project_id": p.ID, "ngo": ngo.Email}).Info("Project created")
	return p, nil
}

// ListProjectsByNGO returns the projects of one NGO
func (s *Service) ListProjectsByNGO(ctx context.Context, email string) ([]domain.Project, error) {
	return s.projects.ListByNGO(ctx, email)
}

// ListApprovedProjects returns the projects donors may fund
func (s *Service) ListApprovedProjects(ctx context.Context) ([]domain.Project, error) {
	return s.projects.ListApproved(ctx)
}

// ListAllProjects returns every project, for authorizers
func (s *Service) ListAllProjects(ctx context.Context) ([]domain.Project, error) {
	return s.projects.ListAll(ctx)
}

func (s *Service) ApproveProject(ctx context.Context, id string) error {
	if err := s.projects.Approve(ctx, id); err != nil {
		return err
	}
	events.Emit(ctx, s.publisher, events.New(events.ProjectApproved, id, nil))
	logrus.WithField("project_id", id).Info("Project approved")
	return nil
}

func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.projects.Delete(ctx, id); err != nil {
		return err
	}
	logrus.WithField("project_id", id).Warn("Project deleted")
	return nil
}
