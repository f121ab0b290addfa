// Package donation moves funds to NGOs through the wallet bridge and keeps
// the record of every confirmed transfer, including the evidence NGOs attach.
package donation

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"ngo_tracker/internal/domain"
	"ngo_tracker/internal/events"
	"ngo_tracker/internal/metrics"
	"ngo_tracker/internal/store"
	"ngo_tracker/internal/utils"
	"ngo_tracker/internal/wallet"

	"github.com/sirupsen/logrus"
)

const (
	trackingAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O or 1/I
	trackingLength   = 8
)

// Records is the part of the record store the lifecycle writes to
type Records interface {
	Create(ctx context.Context, d *domain.Donation) error
	FindByID(ctx context.Context, id string) (*domain.Donation, error)
	FindByTransaction(ctx context.Context, txHash string) (*domain.Donation, error)
	ListByDonor(ctx context.Context, address string) ([]domain.Donation, error)
	ListByNGO(ctx context.Context, email string) ([]domain.Donation, error)
	UpdateEvidence(ctx context.Context, id string, mutate func(*domain.Donation) error) (*domain.Donation, error)
}

// Request describes a donation or grant. ProjectID targets a project for
// donor donations; NGOEmail targets an NGO directly for grants. TxID and
// EvidenceTrackingID are only read by SaveRecord.
type Request struct {
	DonorAddress string `json:"donorAddress"`
	DonorName    string `json:"donorName"`
	ProjectID    string `json:"projectId"`
	NGOEmail     string `json:"ngoEmail"`
	Amount       string `json:"amount"`
	IsDirect     bool   `json:"isDirect"`
	IsGovFunding bool   `json:"isGovFunding"`
	TxID         string `json:"transactionHash"`

	EvidenceTrackingID string `json:"evidenceTrackingId,omitempty"` // Kept from a degraded response
}

// Service runs the donation lifecycle
type Service struct {
	records   Records
	ngos      *store.NGOs
	projects  *store.Projects
	bridge    wallet.Bridge
	publisher events.Publisher
	metrics   *metrics.Metrics
	currency  string
	decimals  int32

	now           func() time.Time
	newTrackingID func() (string, error)
}

func NewService(s *store.Store, bridge wallet.Bridge, publisher events.Publisher, m *metrics.Metrics, currency string) *Service {
	return &Service{
		records:       s.Donations,
		ngos:          s.NGOs,
		projects:      s.Projects,
		bridge:        bridge,
		publisher:     publisher,
		metrics:       m,
		currency:      currency,
		decimals:      wallet.SOLDecimals,
		now:           time.Now,
		newTrackingID: NewTrackingID,
	}
}

// NewTrackingID draws an evidence tracking id
func NewTrackingID() (string, error) {
	return utils.RandomString(trackingAlphabet, trackingLength)
}

// ValidTrackingID reports whether id could have been drawn by NewTrackingID
func ValidTrackingID(id string) bool {
	if len(id) != trackingLength {
		return false
	}
	for _, r := range id {
		if !strings.ContainsRune(trackingAlphabet, r) {
			return false
		}
	}
	return true
}

// DisplayName picks the name shown for a donor: the trimmed name, else a
// shortened address, else AnonymousDonor.
func DisplayName(name, address string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	address = strings.TrimSpace(address)
	switch {
	case address == "":
		return domain.AnonymousDonor
	case len(address) > 10:
		return address[:6] + "..." + address[len(address)-4:]
	default:
		return address
	}
}

// target is the resolved recipient of a request
type target struct {
	ngo          *domain.NGO
	projectID    string
	projectTitle string
}

func (s *Service) resolve(ctx context.Context, req Request) (*target, error) {
	if req.IsGovFunding {
		if strings.TrimSpace(req.NGOEmail) == "" {
			return nil, domain.Invalid("ngoEmail", "is required for grants")
		}
		ngo, err := s.ngos.FindByEmail(ctx, req.NGOEmail)
		if err != nil {
			return nil, err
		}
		return &target{ngo: ngo, projectTitle: domain.GrantProjectTitle}, nil
	}
	if strings.TrimSpace(req.ProjectID) == "" {
		return nil, domain.Invalid("projectId", "is required")
	}
	project, err := s.projects.FindByID(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	ngo, err := s.ngos.FindByEmail(ctx, project.NGOEmail)
	if err != nil {
		return nil, err
	}
	return &target{ngo: ngo, projectID: project.ID, projectTitle: project.Title}, nil
}

func (s *Service) build(req Request, t *target, donorAddress, txID string) (*domain.Donation, error) {
	trackingID := req.EvidenceTrackingID
	if trackingID == "" {
		var err error
		if trackingID, err = s.newTrackingID(); err != nil {
			return nil, fmt.Errorf("generate tracking id: %w", err)
		}
	}
	donorName := DisplayName(req.DonorName, donorAddress)
	if req.IsGovFunding {
		donorName = domain.GrantDonorName
	}
	now := s.now().UnixMilli()
	return &domain.Donation{
		DonorAddress:       donorAddress,
		DonorName:          donorName,
		NGOEmail:           t.ngo.Email,
		NGOName:            t.ngo.Name,
		ProjectID:          t.projectID,
		ProjectTitle:       t.projectTitle,
		Amount:             strings.TrimSpace(req.Amount),
		Currency:           s.currency,
		Timestamp:          now,
		TransactionHash:    txID,
		IsDirect:           req.IsDirect,
		IsGovFunding:       req.IsGovFunding,
		EvidenceTrackingID: trackingID,
		EvidenceImages:     domain.NoEvidence(),
		Status:             domain.StatusPending,
		LastUpdated:        now,
	}, nil
}

func source(req Request) string {
	if req.IsGovFunding {
		return metrics.SourceGrant
	}
	return metrics.SourceDonor
}

// RecordDonation validates the request, transfers the amount to the NGO
// wallet, waits for confirmation and records the donation. Every check runs
// before the transfer. If the record cannot be written after a confirmed
// transfer, the unsaved donation is returned with a *domain.PersistenceError
// and the transfer must not be repeated; SaveRecord retries the write.
func (s *Service) RecordDonation(ctx context.Context, req Request) (*domain.Donation, error) {
	req.EvidenceTrackingID = "" // Fresh transfers always get a fresh id
	units, err := wallet.ToSmallestUnit(strings.TrimSpace(req.Amount), s.decimals)
	if err != nil {
		return nil, domain.Invalid("amount", err.Error())
	}
	t, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(t.ngo.WalletAddress) == "" {
		return nil, fmt.Errorf("ngo %s: %w", t.ngo.Name, domain.ErrNGOWalletMissing)
	}

	from, err := s.bridge.Address(ctx)
	if err != nil {
		s.metrics.IncTransferFailure()
		return nil, fmt.Errorf("%w: signing wallet unavailable: %v", domain.ErrTransferFailed, err)
	}

	start := time.Now()
	txID, err := s.bridge.SendValue(ctx, t.ngo.WalletAddress, units)
	if err != nil {
		s.metrics.IncTransferFailure()
		logrus.WithFields(logrus.Fields{
			"ngo":    t.ngo.Email,
			"amount": req.Amount,
			"error":  err.Error(),
		}).Error("Transfer failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}
	if _, err := s.bridge.AwaitConfirmation(ctx, txID); err != nil {
		s.metrics.IncTransferFailure()
		logrus.WithFields(logrus.Fields{
			"ngo":   t.ngo.Email,
			"tx":    txID,
			"error": err.Error(),
		}).Error("Transfer not confirmed")
		return nil, &domain.TransferError{TxID: txID, Err: err}
	}
	s.metrics.ObserveTransfer(start)

	d, err := s.build(req, t, from, txID)
	if err != nil {
		return nil, &domain.PersistenceError{TxID: txID, Err: err}
	}
	if err := s.records.Create(ctx, d); err != nil {
		s.metrics.IncPersistenceFailure()
		logrus.WithFields(logrus.Fields{
			"ngo":    t.ngo.Email,
			"tx":     txID,
			"amount": d.Amount,
			"error":  err.Error(),
		}).Error("Transfer confirmed but donation not saved")
		return d, &domain.PersistenceError{TxID: txID, Err: err}
	}
	s.recorded(ctx, d, source(req))
	return d, nil
}

// RecordGrant transfers government funding straight to an NGO
func (s *Service) RecordGrant(ctx context.Context, ngoEmail, amount string) (*domain.Donation, error) {
	return s.RecordDonation(ctx, Request{
		NGOEmail:     ngoEmail,
		Amount:       amount,
		IsDirect:     true,
		IsGovFunding: true,
	})
}

// SaveRecord writes the record of a transfer that is already confirmed,
// either signed elsewhere or left unsaved by RecordDonation. The bridge must
// report the transaction confirmed before anything is written. Saving the
// same transaction twice returns ErrAlreadyRecorded. A tracking id handed
// out with a degraded response is kept when passed back.
func (s *Service) SaveRecord(ctx context.Context, req Request) (*domain.Donation, error) {
	if _, err := wallet.ParseAmount(strings.TrimSpace(req.Amount)); err != nil {
		return nil, domain.Invalid("amount", err.Error())
	}
	txID := strings.TrimSpace(req.TxID)
	if txID == "" {
		return nil, domain.Invalid("transactionHash", "is required")
	}
	donor := strings.TrimSpace(req.DonorAddress)
	if donor == "" {
		return nil, domain.Invalid("donorAddress", "is required")
	}
	req.EvidenceTrackingID = strings.ToUpper(strings.TrimSpace(req.EvidenceTrackingID))
	if req.EvidenceTrackingID != "" && !ValidTrackingID(req.EvidenceTrackingID) {
		return nil, domain.Invalid("evidenceTrackingId", "is not a tracking id")
	}
	t, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if existing, err := s.records.FindByTransaction(ctx, txID); err == nil {
		return nil, fmt.Errorf("transaction %s as donation %s: %w", txID, existing.ID, domain.ErrAlreadyRecorded)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if _, err := s.bridge.AwaitConfirmation(ctx, txID); err != nil {
		s.metrics.IncTransferFailure()
		logrus.WithFields(logrus.Fields{
			"tx":    txID,
			"donor": donor,
			"error": err.Error(),
		}).Warn("Refusing to record unconfirmed transaction")
		return nil, &domain.TransferError{TxID: txID, Err: err}
	}
	d, err := s.build(req, t, donor, txID)
	if err != nil {
		return nil, err
	}
	if err := s.records.Create(ctx, d); err != nil {
		return nil, err
	}
	s.recorded(ctx, d, metrics.SourceRetry)
	return d, nil
}

func (s *Service) recorded(ctx context.Context, d *domain.Donation, src string) {
	s.metrics.IncDonationRecorded(src)
	events.Emit(ctx, s.publisher, events.New(events.DonationRecorded, d.ID, map[string]string{
		"ngo":    d.NGOEmail,
		"amount": d.Amount,
		"tx":     d.TransactionHash,
		"grant":  fmt.Sprint(d.IsGovFunding),
	}))
	logrus.WithFields(logrus.Fields{
		"donation_id": d.ID,
		"ngo":         d.NGOEmail,
		"amount":      d.Amount,
		"currency":    d.Currency,
		"tx":          d.TransactionHash,
		"grant":       d.IsGovFunding,
	}).Info("Donation recorded")
}

// ValidateImages checks that every image is an image data URI
func ValidateImages(images []string) error {
	for i, img := range images {
		if !strings.HasPrefix(img, "data:image/") || !strings.Contains(img, ",") {
			return domain.Invalid(fmt.Sprintf("images[%d]", i), "must be an image data URI")
		}
	}
	return nil
}

// AttachEvidence appends images to a donation received by ngoEmail, replaces
// its description and marks it completed.
func (s *Service) AttachEvidence(ctx context.Context, ngoEmail, donationID string, images []string, description string) (*domain.Donation, error) {
	if err := ValidateImages(images); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if len(images) == 0 && description == "" {
		return nil, domain.Invalid("evidence", "images or a description are required")
	}
	d, err := s.records.UpdateEvidence(ctx, donationID, func(d *domain.Donation) error {
		if d.NGOEmail != ngoEmail {
			return fmt.Errorf("donation %s belongs to another ngo: %w", d.ID, domain.ErrForbidden)
		}
		if d.Status == domain.StatusRejected {
			return domain.Invalid("status", "donation was rejected")
		}
		d.EvidenceImages = d.EvidenceImages.Append(images...)
		d.EvidenceDescription = description
		d.Status = domain.StatusCompleted
		d.LastUpdated = s.now().UnixMilli()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncEvidenceAttached()
	events.Emit(ctx, s.publisher, events.New(events.EvidenceAttached, d.ID, map[string]string{"ngo": d.NGOEmail}))
	logrus.WithFields(logrus.Fields{
		"donation_id": d.ID,
		"ngo":         d.NGOEmail,
		"images":      len(images),
	}).Info("Evidence attached")
	return d, nil
}

// Reject marks a donation rejected. It is reserved for authorizers and is the
// only way a donation reaches that status.
func (s *Service) Reject(ctx context.Context, donationID, reason string) (*domain.Donation, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.Invalid("reason", "is required")
	}
	d, err := s.records.UpdateEvidence(ctx, donationID, func(d *domain.Donation) error {
		d.Status = domain.StatusRejected
		d.LastUpdated = s.now().UnixMilli()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncDonationRejected()
	events.Emit(ctx, s.publisher, events.New(events.DonationRejected, d.ID, map[string]string{"reason": reason}))
	logrus.WithFields(logrus.Fields{"donation_id": d.ID, "reason": reason}).Warn("Donation rejected")
	return d, nil
}

// Get returns one donation
func (s *Service) Get(ctx context.Context, id string) (*domain.Donation, error) {
	return s.records.FindByID(ctx, id)
}

// ListByDonor returns the donations sent from address, newest first
func (s *Service) ListByDonor(ctx context.Context, address string) ([]domain.Donation, error) {
	if strings.TrimSpace(address) == "" {
		return nil, domain.Invalid("address", "is required")
	}
	donations, err := s.records.ListByDonor(ctx, address)
	if err != nil {
		return nil, err
	}
	return SortNewestFirst(donations), nil
}

// ListByNGO returns the donations received by an NGO, newest first
func (s *Service) ListByNGO(ctx context.Context, email string) ([]domain.Donation, error) {
	donations, err := s.records.ListByNGO(ctx, email)
	if err != nil {
		return nil, err
	}
	return SortNewestFirst(donations), nil
}

// SortNewestFirst orders donations by timestamp, descending. Ties keep their
// input order.
func SortNewestFirst(donations []domain.Donation) []domain.Donation {
	slices.SortStableFunc(donations, func(a, b domain.Donation) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
	return donations
}

// IsDegraded reports whether err means the funds moved but the record was not saved
func IsDegraded(err error) (string, bool) {
	var perr *domain.PersistenceError
	if errors.As(err, &perr) {
		return perr.TxID, true
	}
	return "", false
}
