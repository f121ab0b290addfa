package api

import (
	"net/http" // HTTP status codes

	"ngo_tracker/internal/domain"       // Importing domain models
	"ngo_tracker/internal/donation"     // Donation lifecycle
	"ngo_tracker/internal/middleware"   // Context keys
	"ngo_tracker/internal/utils"        // Cache keys
	"ngo_tracker/internal/verification" // NGO workflow

	"github.com/gin-gonic/gin" // Gin web framework
)

// RegisterNGORequest is the NGO registration form
type RegisterNGORequest struct {
	Name          string                 `json:"name" binding:"required"`
	Description   string                 `json:"description" binding:"required"`
	Website       string                 `json:"website"`
	ContactPhone  string                 `json:"contactPhone"`
	Address       string                 `json:"address"`
	WalletAddress string                 `json:"walletAddress"`
	Document      *verification.Document `json:"document"` // Optional registration paperwork
}

// RegisterNGOHandler registers the caller's NGO and returns its verification code
func RegisterNGOHandler(svc *verification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterNGORequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		ngo, err := svc.Register(c.Request.Context(), verification.Profile{
			Email:         c.GetString(middleware.EmailKey),
			Name:          req.Name,
			Description:   req.Description,
			Website:       req.Website,
			ContactPhone:  req.ContactPhone,
			Address:       req.Address,
			WalletAddress: req.WalletAddress,
			Document:      req.Document,
		})
		if err != nil {
			respondError(c, err, "Failed to register NGO")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "NGO registered, share the code with an authorizer", "ngo": ngo})
	}
}

// GetNGOHandler returns the caller's own NGO, code included
func GetNGOHandler(svc *verification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ngo, err := svc.GetByEmail(c.Request.Context(), c.GetString(middleware.EmailKey))
		if err != nil {
			respondError(c, err, "Failed to fetch NGO")
			return
		}
		c.JSON(http.StatusOK, gin.H{"ngo": ngo, "canCreateProjects": verification.CanCreateProjects(ngo)})
	}
}

// UpdateWalletRequest sets the receiving wallet
type UpdateWalletRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
}

// UpdateWalletHandler changes the caller's receiving wallet
func UpdateWalletHandler(svc *verification.Service, cache Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateWalletRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		ngo, err := svc.UpdateWallet(c.Request.Context(), c.GetString(middleware.EmailKey), req.WalletAddress)
		if err != nil {
			respondError(c, err, "Failed to update wallet")
			return
		}
		cache.invalidate(c.Request.Context(), utils.ApprovedNGOsKey) // Public list shows wallets
		c.JSON(http.StatusOK, gin.H{"message": "Wallet updated", "ngo": ngo})
	}
}

// NGODonationsHandler lists the donations received by the caller's NGO, newest first
func NGODonationsHandler(svc *donation.Service, cache Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(middleware.EmailKey)
		donations, cached, err := load(c.Request.Context(), cache, utils.NGODonationsKey(email), func() ([]domain.Donation, error) {
			return svc.ListByNGO(c.Request.Context(), email)
		})
		if err != nil {
			respondError(c, err, "Failed to fetch donations")
			return
		}
		c.JSON(http.StatusOK, gin.H{"donations": orEmpty(donations), "cached": cached})
	}
}

// EvidenceRequest carries new evidence for a donation
type EvidenceRequest struct {
	Images      []string `json:"images"`      // Image data URIs, appended to existing ones
	Description string   `json:"description"` // Replaces the previous description
}

// AttachEvidenceHandler appends evidence to a donation the caller's NGO received
func AttachEvidenceHandler(svc *donation.Service, cache Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req EvidenceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		d, err := svc.AttachEvidence(c.Request.Context(), c.GetString(middleware.EmailKey), c.Param("id"), req.Images, req.Description)
		if err != nil {
			respondError(c, err, "Failed to attach evidence")
			return
		}
		// Invalidate both listings the donation appears in
		cache.invalidate(c.Request.Context(), utils.NGODonationsKey(d.NGOEmail), utils.DonorDonationsKey(d.DonorAddress))
		c.JSON(http.StatusOK, gin.H{"message": "Evidence attached", "donation": d})
	}
}

// orEmpty keeps empty lists as [] rather than null in responses
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
