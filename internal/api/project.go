package api

import (
	"net/http" // HTTP status codes

	"ngo_tracker/internal/domain"       // Importing domain models
	"ngo_tracker/internal/middleware"   // Context keys
	"ngo_tracker/internal/utils"        // Cache keys
	"ngo_tracker/internal/verification" // NGO workflow

	"github.com/gin-gonic/gin" // Gin web framework
)

// ProjectRequest is the project creation form
type ProjectRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// CreateProjectHandler publishes a project for the caller's verified NGO
func CreateProjectHandler(svc *verification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		p, err := svc.CreateProject(c.Request.Context(), c.GetString(middleware.EmailKey), req.Title, req.Description)
		if err != nil {
			respondError(c, err, "Failed to create project")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Project created, awaiting approval", "project": p})
	}
}

// OwnProjectsHandler lists the caller's projects, approved or not
func OwnProjectsHandler(svc *verification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, err := svc.ListProjectsByNGO(c.Request.Context(), c.GetString(middleware.EmailKey))
		if err != nil {
			respondError(c, err, "Failed to fetch projects")
			return
		}
		c.JSON(http.StatusOK, gin.H{"projects": orEmpty(projects)})
	}
}

// ApprovedProjectsHandler lists the projects open for donations
func ApprovedProjectsHandler(svc *verification.Service, cache Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, cached, err := load(c.Request.Context(), cache, utils.ApprovedProjectsKey, func() ([]domain.Project, error) {
			return svc.ListApprovedProjects(c.Request.Context())
		})
		if err != nil {
			respondError(c, err, "Failed to fetch projects")
			return
		}
		c.JSON(http.StatusOK, gin.H{"projects": orEmpty(projects), "cached": cached})
	}
}

// ApprovedNGOsHandler lists verified NGOs without their verification codes
func ApprovedNGOsHandler(svc *verification.Service, cache Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ngos, cached, err := load(c.Request.Context(), cache, utils.ApprovedNGOsKey, func() ([]domain.NGO, error) {
			ngos, err := svc.ListApproved(c.Request.Context())
			if err != nil {
				return nil, err
			}
			public := make([]domain.NGO, len(ngos))
			for i, n := range ngos {
				public[i] = n.Public()
			}
			return public, nil
		})
		if err != nil {
			respondError(c, err, "Failed to fetch NGOs")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ngos": orEmpty(ngos), "cached": cached})
	}
}
