package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"ngo_tracker/internal/domain"   // Sentinel errors
	"ngo_tracker/internal/identity" // Credential errors

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
)

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyVerified), errors.Is(err, domain.ErrAlreadyRecorded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNGOWalletMissing):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrTransferFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Unexpected errors are
// logged and replaced by fallback so internals do not leak.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path":  c.FullPath(),
			"error": err.Error(),
		}).Error(fallback)
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	var terr *domain.TransferError
	if errors.As(err, &terr) {
		// The transfer may still land; the client checks this id before sending again
		c.JSON(status, gin.H{"error": err.Error(), "transactionHash": terr.TxID})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
