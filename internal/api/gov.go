package api

import (
	"encoding/json" // Number type for amounts
	"net/http"      // HTTP status codes

	"ngo_tracker/internal/donation"     // Donation lifecycle
	"ngo_tracker/internal/funding"      // Funding breakdowns
	"ngo_tracker/internal/middleware"   // Context keys
	"ngo_tracker/internal/utils"        // Cache keys
	"ngo_tracker/internal/verification" // NGO workflow

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
)

// VerifyRequest carries the code an NGO shared with the authorizer
type VerifyRequest struct {
	Code string `json:"code" binding:"required"`
}

// VerifyNGOHandler redeems a verification code
func VerifyNGOHandler(svc *verification.Service, cache Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		r, err := svc.RedeemCode(c.Request.Context(), req.Code)
		if err != nil {
			respondError(c, err, "Failed to verify NGO")
			return
		}
		logrus.WithFields(logrus.Fields{
			"ngo_id":     r.NGOID,
			"authorizer": c.GetString(middleware.EmailKey),
		}).Info("NGO verified by authorizer")
		cache.invalidate(c.Request.Context(), utils.ApprovedNGOsKey)
		c.JSON(http.StatusOK, gin.H{"message": "NGO verified", "ngoId": r.NGOID, "ngoName": r.NGOName})
	}
}

// ListNGOsHandler lists every registration, approved or not
func ListNGOsHandler(svc *verification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ngos, err := svc.ListAll(c.Request.Context())
		if err != nil {
			respondError(c, err, "Failed to fetch NGOs")
			return
		}
		for i := range ngos {
			ngos[i].Code = "" // Codes are only redeemed, never read back
		}
		c.JSON(http.StatusOK, gin.H{"ngos": orEmpty(ngos)})
	}
}

// NGODetailHandler returns an NGO with its registration document
func NGODetailHandler(svc *verification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ngo, err := svc.DetailForAuthorizer(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, "Failed to fetch NGO")
			return
		}
		ngo.Code = ""
		c.JSON(http.StatusOK, gin.H{"ngo": ngo})
	}
}

// FundingHandler returns the government and public funding breakdown of an NGO
func FundingHandler(ngos *verification.Service, svc *funding.Service, cache Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ngo, err := ngos.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, "Failed to fetch NGO")
			return
		}
		b, cached, err := load(c.Request.Context(), cache, utils.FundingKey(ngo.Email), func() (*funding.Breakdown, error) {
			return svc.Breakdown(c.Request.Context(), ngo.Email)
		})
		if err != nil {
			respondError(c, err, "Failed to compute funding")
			return
		}
		c.JSON(http.StatusOK, gin.H{"funding": b, "ngoName": ngo.Name, "cached": cached})
	}
}

// GrantRequest funds an NGO directly
type GrantRequest struct {
	Amount json.Number `json:"amount" binding:"required"`
}

// GrantHandler transfers a government grant to an NGO
func GrantHandler(ngos *verification.Service, svc *donation.Service, cache Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GrantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		ngo, err := ngos.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, "Failed to fetch NGO")
			return
		}
		d, err := svc.RecordGrant(c.Request.Context(), ngo.Email, req.Amount.String())
		respondRecorded(c, cache, d, err)
	}
}

// GrantRecordRequest saves an already confirmed grant transfer
type GrantRecordRequest struct {
	Amount          json.Number `json:"amount" binding:"required"`
	DonorAddress    string      `json:"donorAddress" binding:"required"`
	TransactionHash string      `json:"transactionHash" binding:"required"`
	TrackingID      string      `json:"evidenceTrackingId"`
}

// RecordGrantHandler saves a confirmed grant; retrying is safe
func RecordGrantHandler(ngos *verification.Service, svc *donation.Service, cache Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GrantRecordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		ngo, err := ngos.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, "Failed to fetch NGO")
			return
		}
		d, err := svc.SaveRecord(c.Request.Context(), donation.Request{
			NGOEmail:     ngo.Email,
			Amount:       req.Amount.String(),
			DonorAddress: req.DonorAddress,
			TxID:         req.TransactionHash,
			IsDirect:     true,
			IsGovFunding: true,

			EvidenceTrackingID: req.TrackingID,
		})
		respondRecorded(c, cache, d, err)
	}
}

// AllProjectsHandler lists every project for review
func AllProjectsHandler(svc *verification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, err := svc.ListAllProjects(c.Request.Context())
		if err != nil {
			respondError(c, err, "Failed to fetch projects")
			return
		}
		c.JSON(http.StatusOK, gin.H{"projects": orEmpty(projects)})
	}
}

// ApproveProjectHandler opens a project for donations
func ApproveProjectHandler(svc *verification.Service, cache Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.ApproveProject(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err, "Failed to approve project")
			return
		}
		cache.invalidate(c.Request.Context(), utils.ApprovedProjectsKey)
		c.JSON(http.StatusOK, gin.H{"message": "Project approved"})
	}
}

// DeleteProjectHandler removes a project
func DeleteProjectHandler(svc *verification.Service, cache Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err, "Failed to delete project")
			return
		}
		cache.invalidate(c.Request.Context(), utils.ApprovedProjectsKey)
		c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
	}
}

// RejectRequest explains a rejection
type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectDonationHandler marks a donation rejected
func RejectDonationHandler(svc *donation.Service, cache Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RejectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		d, err := svc.Reject(c.Request.Context(), c.Param("id"), req.Reason)
		if err != nil {
			respondError(c, err, "Failed to reject donation")
			return
		}
		invalidateDonation(c.Request.Context(), cache, d)
		c.JSON(http.StatusOK, gin.H{"message": "Donation rejected", "donation": d})
	}
}

// DonationHandler returns one donation
func DonationHandler(svc *donation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, "Failed to fetch donation")
			return
		}
		c.JSON(http.StatusOK, gin.H{"donation": d})
	}
}
