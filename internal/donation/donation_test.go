package donation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ngo_tracker/internal/domain"
	"ngo_tracker/internal/events"
	"ngo_tracker/internal/store"
	"ngo_tracker/internal/store/storetest"
	"ngo_tracker/internal/wallet"
	"ngo_tracker/internal/wallet/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const (
	ngoWallet   = "NgoWa11et1111111111111111111111111111111111"
	donorWallet = "0x1234567890abcdef"
)

type failingCreate struct {
	Records
	err error
}

func (f failingCreate) Create(context.Context, *domain.Donation) error { return f.err }

type DonationSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	bridge    *mocks.MockBridge
	store     *store.Store
	publisher *events.Recorder
	svc       *Service
	clock     time.Time

	ngo     *domain.NGO
	project *domain.Project
}

func TestDonationSuite(t *testing.T) {
	suite.Run(t, new(DonationSuite))
}

func (s *DonationSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.bridge = mocks.NewMockBridge(s.ctrl)
	s.store = storetest.New(s.T())
	s.publisher = &events.Recorder{}
	s.svc = NewService(s.store, s.bridge, s.publisher, nil, "SOL")
	s.clock = time.UnixMilli(1_700_000_000_000)
	s.svc.now = func() time.Time {
		s.clock = s.clock.Add(time.Second)
		return s.clock
	}

	s.ngo = &domain.NGO{
		Email: "relief@example.com", Name: "Relief Corp", Description: "relief",
		Code: "CODE01", IsApproved: true, WalletAddress: ngoWallet,
	}
	s.Require().NoError(s.store.NGOs.Create(s.ctx, s.ngo))
	s.project = &domain.Project{NGOEmail: s.ngo.Email, NGOName: s.ngo.Name, Title: "Clean Water", Description: "wells", IsApproved: true}
	s.Require().NoError(s.store.Projects.Create(s.ctx, s.project))
}

func (s *DonationSuite) expectTransfer(units uint64, txID string) {
	s.bridge.EXPECT().Address(gomock.Any()).Return(donorWallet, nil)
	s.bridge.EXPECT().SendValue(gomock.Any(), ngoWallet, units).Return(txID, nil)
	s.bridge.EXPECT().AwaitConfirmation(gomock.Any(), txID).Return(&wallet.Receipt{TxID: txID, Slot: 7}, nil)
}

func (s *DonationSuite) TestRecordDonation() {
	s.expectTransfer(500_000_000, "0xdeadbeef")

	d, err := s.svc.RecordDonation(s.ctx, Request{ProjectID: s.project.ID, Amount: "0.5", IsDirect: true})
	s.Require().NoError(err)
	s.Equal(domain.StatusPending, d.Status)
	s.Equal("0xdeadbeef", d.TransactionHash)
	s.Equal("Clean Water", d.ProjectTitle)
	s.Equal("Relief Corp", d.NGOName)
	s.Equal(donorWallet, d.DonorAddress)
	s.Equal("0x1234...cdef", d.DonorName)
	s.Equal("SOL", d.Currency)
	s.True(d.IsDirect)
	s.False(d.IsGovFunding)
	s.False(d.EvidenceImages.Present())
	s.Empty(d.EvidenceDescription)
	s.Len(d.EvidenceTrackingID, trackingLength)

	older := domain.Donation{DonorAddress: donorWallet, NGOEmail: s.ngo.Email, Amount: "1", TransactionHash: "0xolder", Timestamp: 1, Status: domain.StatusPending}
	s.Require().NoError(s.store.Donations.Create(s.ctx, &older))

	listed, err := s.svc.ListByDonor(s.ctx, donorWallet)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal("0xdeadbeef", listed[0].TransactionHash, "newest first")

	byNGO, err := s.svc.ListByNGO(s.ctx, s.ngo.Email)
	s.Require().NoError(err)
	s.Equal("0xdeadbeef", byNGO[0].TransactionHash)

	s.Equal([]string{events.DonationRecorded}, s.publisher.Types())
}

func (s *DonationSuite) TestValidationHappensBeforeTransfer() {
	// No bridge expectations: any call fails the test
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"zero amount", Request{ProjectID: s.project.ID, Amount: "0"}, domain.ErrValidation},
		{"negative amount", Request{ProjectID: s.project.ID, Amount: "-1"}, domain.ErrValidation},
		{"not a number", Request{ProjectID: s.project.ID, Amount: "lots"}, domain.ErrValidation},
		{"missing project", Request{Amount: "1"}, domain.ErrValidation},
		{"unknown project", Request{ProjectID: "missing", Amount: "1"}, domain.ErrNotFound},
		{"unknown grant ngo", Request{NGOEmail: "ghost@example.com", Amount: "1", IsGovFunding: true}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.svc.RecordDonation(s.ctx, tt.req)
			s.ErrorIs(err, tt.want)
		})
	}
}

func (s *DonationSuite) TestWalletMissing() {
	bare := &domain.NGO{Email: "bare@example.com", Name: "Bare", Description: "x", Code: "CODE02", IsApproved: true}
	s.Require().NoError(s.store.NGOs.Create(s.ctx, bare))
	p := &domain.Project{NGOEmail: bare.Email, NGOName: bare.Name, Title: "T", Description: "D"}
	s.Require().NoError(s.store.Projects.Create(s.ctx, p))

	_, err := s.svc.RecordDonation(s.ctx, Request{ProjectID: p.ID, Amount: "1"})
	s.ErrorIs(err, domain.ErrNGOWalletMissing)
}

func (s *DonationSuite) TestTransferFailurePersistsNothing() {
	s.Run("send fails", func() {
		s.bridge.EXPECT().Address(gomock.Any()).Return(donorWallet, nil)
		s.bridge.EXPECT().SendValue(gomock.Any(), ngoWallet, uint64(1_000_000_000)).Return("", errors.New("insufficient funds"))

		_, err := s.svc.RecordDonation(s.ctx, Request{ProjectID: s.project.ID, Amount: "1"})
		s.ErrorIs(err, domain.ErrTransferFailed)
	})

	s.Run("confirmation fails", func() {
		s.bridge.EXPECT().Address(gomock.Any()).Return(donorWallet, nil)
		s.bridge.EXPECT().SendValue(gomock.Any(), ngoWallet, uint64(1_000_000_000)).Return("0xfailed", nil)
		s.bridge.EXPECT().AwaitConfirmation(gomock.Any(), "0xfailed").Return(nil, context.DeadlineExceeded)

		_, err := s.svc.RecordDonation(s.ctx, Request{ProjectID: s.project.ID, Amount: "1"})
		s.ErrorIs(err, domain.ErrTransferFailed)
		var terr *domain.TransferError
		s.Require().ErrorAs(err, &terr)
		s.Equal("0xfailed", terr.TxID, "broadcast id is reported so the client can look it up")
	})

	all, err := s.store.Donations.ListByNGO(s.ctx, s.ngo.Email)
	s.Require().NoError(err)
	s.Empty(all)
	s.Empty(s.publisher.Types())
}

func (s *DonationSuite) TestPersistenceFailureThenRetry() {
	s.expectTransfer(250_000_000, "0xabc123")
	storeErr := errors.New("connection reset")
	s.svc.records = failingCreate{Records: s.store.Donations, err: storeErr}

	d, err := s.svc.RecordDonation(s.ctx, Request{ProjectID: s.project.ID, Amount: "0.25", DonorName: "Dana"})
	s.ErrorIs(err, domain.ErrPersistenceFailed)
	s.ErrorIs(err, storeErr)
	txID, degraded := IsDegraded(err)
	s.True(degraded)
	s.Equal("0xabc123", txID)
	s.Require().NotNil(d)
	s.Equal("Dana", d.DonorName)

	// Retry only the write, with the store back
	s.svc.records = s.store.Donations
	s.bridge.EXPECT().AwaitConfirmation(gomock.Any(), txID).Return(&wallet.Receipt{TxID: txID, Slot: 7}, nil)
	retry := Request{
		ProjectID: s.project.ID, Amount: "0.25", DonorName: "Dana", DonorAddress: d.DonorAddress, TxID: txID,
		EvidenceTrackingID: strings.ToLower(d.EvidenceTrackingID),
	}
	saved, err := s.svc.SaveRecord(s.ctx, retry)
	s.Require().NoError(err)
	s.Equal("0xabc123", saved.TransactionHash)
	s.Equal(d.EvidenceTrackingID, saved.EvidenceTrackingID)

	_, err = s.svc.SaveRecord(s.ctx, retry)
	s.ErrorIs(err, domain.ErrAlreadyRecorded)

	all, err := s.store.Donations.ListByNGO(s.ctx, s.ngo.Email)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *DonationSuite) TestSaveRecordValidation() {
	_, err := s.svc.SaveRecord(s.ctx, Request{ProjectID: s.project.ID, Amount: "1", DonorAddress: donorWallet})
	s.ErrorIs(err, domain.ErrValidation, "transaction id required")
	_, err = s.svc.SaveRecord(s.ctx, Request{ProjectID: s.project.ID, Amount: "1", TxID: "0x1"})
	s.ErrorIs(err, domain.ErrValidation, "donor address required")
	_, err = s.svc.SaveRecord(s.ctx, Request{ProjectID: s.project.ID, Amount: "0", TxID: "0x1", DonorAddress: donorWallet})
	s.ErrorIs(err, domain.ErrValidation)
	_, err = s.svc.SaveRecord(s.ctx, Request{
		ProjectID: s.project.ID, Amount: "1", TxID: "0x1", DonorAddress: donorWallet, EvidenceTrackingID: "ABC",
	})
	s.ErrorIs(err, domain.ErrValidation, "tracking id must come from the tracking alphabet")
}

func (s *DonationSuite) TestSaveRecordRequiresConfirmedTransfer() {
	s.bridge.EXPECT().AwaitConfirmation(gomock.Any(), "never-broadcast-hash").
		Return(nil, errors.New("signature not found"))

	_, err := s.svc.SaveRecord(s.ctx, Request{
		ProjectID: s.project.ID, Amount: "1000000", DonorAddress: "0xattacker", TxID: "never-broadcast-hash",
	})
	s.ErrorIs(err, domain.ErrTransferFailed)

	all, err := s.store.Donations.ListByNGO(s.ctx, s.ngo.Email)
	s.Require().NoError(err)
	s.Empty(all)
	s.Empty(s.publisher.Types())
}

func TestValidTrackingID(t *testing.T) {
	id, err := NewTrackingID()
	assert.NoError(t, err)
	assert.True(t, ValidTrackingID(id))
	assert.False(t, ValidTrackingID("ABCDEFG"))
	assert.False(t, ValidTrackingID("ABCDEFG0"), "0 is not in the alphabet")
}

func (s *DonationSuite) TestRecordGrant() {
	s.expectTransfer(2_000_000_000, "0xgrant")

	d, err := s.svc.RecordGrant(s.ctx, s.ngo.Email, "2.0")
	s.Require().NoError(err)
	s.True(d.IsGovFunding)
	s.True(d.IsDirect)
	s.Equal(domain.GrantProjectTitle, d.ProjectTitle)
	s.Equal(domain.GrantDonorName, d.DonorName)
	s.Empty(d.ProjectID)
	s.Equal("2.0", d.Amount)
}

func (s *DonationSuite) TestAttachEvidence() {
	s.expectTransfer(500_000_000, "0xdeadbeef")
	d, err := s.svc.RecordDonation(s.ctx, Request{ProjectID: s.project.ID, Amount: "0.5"})
	s.Require().NoError(err)

	s.Run("only the receiving ngo", func() {
		_, err := s.svc.AttachEvidence(s.ctx, "other@example.com", d.ID, []string{"data:image/png;base64,AAA"}, "x")
		s.ErrorIs(err, domain.ErrForbidden)
	})

	s.Run("images must be data uris", func() {
		_, err := s.svc.AttachEvidence(s.ctx, s.ngo.Email, d.ID, []string{"https://example.com/a.png"}, "x")
		s.ErrorIs(err, domain.ErrValidation)
	})

	s.Run("missing donation", func() {
		_, err := s.svc.AttachEvidence(s.ctx, s.ngo.Email, "missing", []string{"data:image/png;base64,AAA"}, "x")
		s.ErrorIs(err, domain.ErrNotFound)
	})

	first, err := s.svc.AttachEvidence(s.ctx, s.ngo.Email, d.ID, []string{"data:image/png;base64,A1", "data:image/png;base64,A2"}, "first visit")
	s.Require().NoError(err)
	s.Equal(domain.StatusCompleted, first.Status)
	s.NotZero(first.LastUpdated)

	second, err := s.svc.AttachEvidence(s.ctx, s.ngo.Email, d.ID, []string{"data:image/jpeg;base64,B1"}, "second visit")
	s.Require().NoError(err)
	s.Equal([]string{"data:image/png;base64,A1", "data:image/png;base64,A2", "data:image/jpeg;base64,B1"}, second.EvidenceImages.Images)
	s.Equal("second visit", second.EvidenceDescription)
	s.Greater(second.LastUpdated, first.LastUpdated)

	stored, err := s.svc.Get(s.ctx, d.ID)
	s.Require().NoError(err)
	s.Equal("0.5", stored.Amount)
	s.Equal("0xdeadbeef", stored.TransactionHash)
	s.Equal(second.EvidenceImages, stored.EvidenceImages)
}

func (s *DonationSuite) TestReject() {
	s.expectTransfer(500_000_000, "0xdeadbeef")
	d, err := s.svc.RecordDonation(s.ctx, Request{ProjectID: s.project.ID, Amount: "0.5"})
	s.Require().NoError(err)

	_, err = s.svc.Reject(s.ctx, d.ID, " ")
	s.ErrorIs(err, domain.ErrValidation)

	rejected, err := s.svc.Reject(s.ctx, d.ID, "fraudulent project")
	s.Require().NoError(err)
	s.Equal(domain.StatusRejected, rejected.Status)

	_, err = s.svc.AttachEvidence(s.ctx, s.ngo.Email, d.ID, []string{"data:image/png;base64,A"}, "x")
	s.ErrorIs(err, domain.ErrValidation)

	_, err = s.svc.Reject(s.ctx, "missing", "x")
	s.ErrorIs(err, domain.ErrNotFound)
	s.Equal([]string{events.DonationRecorded, events.DonationRejected}, s.publisher.Types())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Dana", DisplayName("  Dana ", "0x1234567890abcdef"))
	assert.Equal(t, "0x1234...cdef", DisplayName("", "0x1234567890abcdef"))
	assert.Equal(t, "0xabc", DisplayName(" ", "0xabc"))
	assert.Equal(t, domain.AnonymousDonor, DisplayName("", ""))
}

func TestTrackingID(t *testing.T) {
	for i := 0; i < 50; i++ {
		id, err := NewTrackingID()
		assert.NoError(t, err)
		assert.Len(t, id, trackingLength)
		for _, r := range id {
			assert.Contains(t, trackingAlphabet, string(r))
		}
	}
}

func TestSortNewestFirst(t *testing.T) {
	in := []domain.Donation{{ID: "a", Timestamp: 1}, {ID: "b", Timestamp: 3}, {ID: "c", Timestamp: 2}, {ID: "d", Timestamp: 3}}
	out := SortNewestFirst(in)
	ids := make([]string, len(out))
	for i, d := range out {
		ids[i] = d.ID
	}
	assert.Equal(t, []string{"b", "d", "c", "a"}, ids)
	assert.Empty(t, SortNewestFirst(nil))
}
