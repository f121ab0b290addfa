package api

import (
	"context"       // Context for cache invalidation
	"encoding/json" // Number type for amounts
	"net/http"      // HTTP status codes

	"ngo_tracker/internal/domain"   // Importing domain models
	"ngo_tracker/internal/donation" // Donation lifecycle
	"ngo_tracker/internal/utils"    // Cache keys

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
)

// DonateRequest sends funds to a project
type DonateRequest struct {
	ProjectID string      `json:"projectId" binding:"required"` // Target project
	Amount    json.Number `json:"amount" binding:"required"`    // Decimal amount in display units
	DonorName string      `json:"donorName"`                    // Optional display name
	IsDirect  *bool       `json:"isDirect"`                     // Defaults to true
}

// RecordRequest saves an already confirmed transfer
type RecordRequest struct {
	ProjectID       string      `json:"projectId" binding:"required"`
	Amount          json.Number `json:"amount" binding:"required"`
	DonorAddress    string      `json:"donorAddress" binding:"required"`
	DonorName       string      `json:"donorName"`
	TransactionHash string      `json:"transactionHash" binding:"required"`
	IsDirect        bool        `json:"isDirect"`
	TrackingID      string      `json:"evidenceTrackingId"` // From a degraded response, kept on retry
}

// invalidateDonation drops every cached view a new or changed donation appears in
func invalidateDonation(ctx context.Context, cache Cache, d *domain.Donation) {
	cache.invalidate(ctx,
		utils.DonorDonationsKey(d.DonorAddress),
		utils.NGODonationsKey(d.NGOEmail),
		utils.FundingKey(d.NGOEmail),
	)
}

// respondRecorded writes the outcome of a transfer. A confirmed transfer
// whose record was not saved is reported as accepted with its transaction id,
// so the client retries the record and never the transfer.
func respondRecorded(c *gin.Context, cache Cache, d *domain.Donation, err error) {
	if txID, degraded := donation.IsDegraded(err); degraded {
		logrus.WithFields(logrus.Fields{"tx": txID, "error": err.Error()}).Warn("Returning degraded donation response")
		c.JSON(http.StatusAccepted, gin.H{
			"error":           "Funds moved, record not saved. Retry saving the record with this transaction hash.",
			"transactionHash": txID,
			"donation":        d,
		})
		return
	}
	if err != nil {
		respondError(c, err, "Failed to record donation")
		return
	}
	invalidateDonation(c.Request.Context(), cache, d)
	c.JSON(http.StatusCreated, gin.H{"message": "Donation recorded", "donation": d})
}

// DonateHandler transfers funds to a project's NGO and records the donation
func DonateHandler(svc *donation.Service, cache Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DonateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		direct := true
		if req.IsDirect != nil {
			direct = *req.IsDirect
		}
		d, err := svc.RecordDonation(c.Request.Context(), donation.Request{
			ProjectID: req.ProjectID,
			Amount:    req.Amount.String(),
			DonorName: req.DonorName,
			IsDirect:  direct,
		})
		respondRecorded(c, cache, d, err)
	}
}

// RecordDonationHandler saves a confirmed transfer; retrying is safe
func RecordDonationHandler(svc *donation.Service, cache Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RecordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		d, err := svc.SaveRecord(c.Request.Context(), donation.Request{
			ProjectID:    req.ProjectID,
			Amount:       req.Amount.String(),
			DonorAddress: req.DonorAddress,
			DonorName:    req.DonorName,
			TxID:         req.TransactionHash,
			IsDirect:     req.IsDirect,

			EvidenceTrackingID: req.TrackingID,
		})
		respondRecorded(c, cache, d, err)
	}
}

// DonorDonationsHandler lists donations sent from an address, newest first
func DonorDonationsHandler(svc *donation.Service, cache Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.Query("address")
		if address == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
			return
		}
		donations, cached, err := load(c.Request.Context(), cache, utils.DonorDonationsKey(address), func() ([]domain.Donation, error) {
			return svc.ListByDonor(c.Request.Context(), address)
		})
		if err != nil {
			respondError(c, err, "Failed to fetch donations")
			return
		}
		c.JSON(http.StatusOK, gin.H{"donations": orEmpty(donations), "cached": cached})
	}
}
