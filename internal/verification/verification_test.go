package verification

import (
	"context"
	"strings"
	"testing"

	"ngo_tracker/internal/domain"
	"ngo_tracker/internal/events"
	"ngo_tracker/internal/store"
	"ngo_tracker/internal/store/storetest"

	"github.com/stretchr/testify/suite"
)

type VerificationSuite struct {
	suite.Suite
	ctx       context.Context
	store     *store.Store
	publisher *events.Recorder
	svc       *Service
}

func TestVerificationSuite(t *testing.T) {
	suite.Run(t, new(VerificationSuite))
}

func (s *VerificationSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = storetest.New(s.T())
	s.publisher = &events.Recorder{}
	s.svc = NewService(s.store, s.publisher, nil)
}

func (s *VerificationSuite) seedNGO(email, name, code string) *domain.NGO {
	ngo := &domain.NGO{Email: email, Name: name, Description: "relief work", Code: code}
	s.Require().NoError(s.store.NGOs.Create(s.ctx, ngo))
	return ngo
}

func (s *VerificationSuite) TestRegister() {
	s.Run("stores an unapproved ngo with a code", func() {
		ngo, err := s.svc.Register(s.ctx, Profile{
			Email: "relief@example.com", Name: " Relief Corp ", Description: "disaster relief",
			Document: &Document{FileName: "reg.pdf", FileType: "application/pdf", Content: "data:application/pdf;base64,AAAA"},
		})
		s.Require().NoError(err)
		s.Equal("Relief Corp", ngo.Name)
		s.False(ngo.IsApproved)
		s.Len(ngo.Code, codeLength)
		s.Equal(strings.ToUpper(ngo.Code), ngo.Code)
		s.NotEmpty(ngo.DocumentRef)
		s.Equal([]string{events.NGORegistered}, s.publisher.Types())
	})

	s.Run("one ngo per account", func() {
		_, err := s.svc.Register(s.ctx, Profile{Email: "relief@example.com", Name: "Again", Description: "x"})
		s.ErrorIs(err, domain.ErrValidation)
	})

	s.Run("required fields", func() {
		_, err := s.svc.Register(s.ctx, Profile{Email: "a@example.com", Name: "  ", Description: "x"})
		s.ErrorIs(err, domain.ErrValidation)
		_, err = s.svc.Register(s.ctx, Profile{Email: "a@example.com", Name: "A", Description: ""})
		s.ErrorIs(err, domain.ErrValidation)
	})

	s.Run("document must be a data uri", func() {
		_, err := s.svc.Register(s.ctx, Profile{
			Email: "b@example.com", Name: "B", Description: "x",
			Document: &Document{FileName: "reg.pdf", Content: "https://example.com/reg.pdf"},
		})
		s.ErrorIs(err, domain.ErrValidation)
	})
}

func (s *VerificationSuite) TestRegisterRegeneratesCollidingCode() {
	s.seedNGO("first@example.com", "First", "AAAAAA")

	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	s.svc.newCode = func() (string, error) {
		c := codes[0]
		codes = codes[1:]
		return c, nil
	}

	ngo, err := s.svc.Register(s.ctx, Profile{Email: "second@example.com", Name: "Second", Description: "x"})
	s.Require().NoError(err)
	s.Equal("BBBBBB", ngo.Code)
	s.Empty(codes)
}

func (s *VerificationSuite) TestRegisterGivesUpWhenEveryCodeIsTaken() {
	s.seedNGO("first@example.com", "First", "AAAAAA")
	s.svc.newCode = func() (string, error) { return "AAAAAA", nil }

	_, err := s.svc.Register(s.ctx, Profile{Email: "second@example.com", Name: "Second", Description: "x"})
	s.ErrorIs(err, ErrCodeSpaceExhausted)
}

func (s *VerificationSuite) TestRedeemCode() {
	ngo := s.seedNGO("relief@example.com", "Relief Corp", "X7K2M9AB")

	s.Run("lowercase code with spaces approves", func() {
		r, err := s.svc.RedeemCode(s.ctx, "  x7k2m9ab ")
		s.Require().NoError(err)
		s.Equal(Redemption{NGOID: ngo.ID, NGOName: "Relief Corp"}, *r)

		found, err := s.store.NGOs.FindByID(s.ctx, ngo.ID)
		s.Require().NoError(err)
		s.True(found.IsApproved)
	})

	s.Run("second redemption is already verified", func() {
		_, err := s.svc.RedeemCode(s.ctx, "X7K2M9AB")
		s.ErrorIs(err, domain.ErrAlreadyVerified)

		found, err := s.store.NGOs.FindByID(s.ctx, ngo.ID)
		s.Require().NoError(err)
		s.True(found.IsApproved)
	})

	s.Run("unknown code", func() {
		_, err := s.svc.RedeemCode(s.ctx, "ZZZZZZ")
		s.ErrorIs(err, domain.ErrNotFound)
	})

	s.Run("malformed code", func() {
		_, err := s.svc.RedeemCode(s.ctx, "   ")
		s.ErrorIs(err, domain.ErrValidation)
		_, err = s.svc.RedeemCode(s.ctx, "AB-12")
		s.ErrorIs(err, domain.ErrValidation)
	})

	s.Equal([]string{events.NGOApproved}, s.publisher.Types())
}

func (s *VerificationSuite) TestUpdateWalletAndDetail() {
	ngo := s.seedNGO("relief@example.com", "Relief Corp", "CODE01")

	_, err := s.svc.UpdateWallet(s.ctx, "relief@example.com", " ")
	s.ErrorIs(err, domain.ErrValidation)

	updated, err := s.svc.UpdateWallet(s.ctx, "relief@example.com", "So1anaWa11et")
	s.Require().NoError(err)
	s.Equal("So1anaWa11et", updated.WalletAddress)

	_, err = s.svc.UpdateWallet(s.ctx, "ghost@example.com", "x")
	s.ErrorIs(err, domain.ErrNotFound)

	detail, err := s.svc.DetailForAuthorizer(s.ctx, ngo.ID)
	s.Require().NoError(err)
	s.Nil(detail.Document)
	s.Equal("So1anaWa11et", detail.WalletAddress)

	_, err = s.svc.DetailForAuthorizer(s.ctx, "missing")
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *VerificationSuite) TestDetailInlinesDocument() {
	ngo, err := s.svc.Register(s.ctx, Profile{
		Email: "doc@example.com", Name: "Doc NGO", Description: "x",
		Document: &Document{FileName: "reg.pdf", FileType: "application/pdf", Content: "data:application/pdf;base64,AAAA"},
	})
	s.Require().NoError(err)

	detail, err := s.svc.DetailForAuthorizer(s.ctx, ngo.ID)
	s.Require().NoError(err)
	s.Require().NotNil(detail.Document)
	s.Equal("reg.pdf", detail.Document.FileName)
	s.Equal("data:application/pdf;base64,AAAA", detail.Document.Content)
}

func (s *VerificationSuite) TestListApproved() {
	s.seedNGO("a@example.com", "A", "AAAAA1")
	s.seedNGO("b@example.com", "B", "BBBBB1")
	_, err := s.svc.RedeemCode(s.ctx, "aaaaa1")
	s.Require().NoError(err)

	approved, err := s.svc.ListApproved(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(approved, 1)
	s.Equal("A", approved[0].Name)

	all, err := s.svc.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *VerificationSuite) TestProjects() {
	s.seedNGO("relief@example.com", "Relief Corp", "CODE01")

	s.Run("unverified ngo cannot create projects", func() {
		_, err := s.svc.CreateProject(s.ctx, "relief@example.com", "Clean Water", "wells")
		s.ErrorIs(err, domain.ErrForbidden)
	})

	_, err := s.svc.RedeemCode(s.ctx, "CODE01")
	s.Require().NoError(err)

	s.Run("missing title", func() {
		_, err := s.svc.CreateProject(s.ctx, "relief@example.com", " ", "wells")
		s.ErrorIs(err, domain.ErrValidation)
	})

	s.Run("no ngo for account", func() {
		_, err := s.svc.CreateProject(s.ctx, "ghost@example.com", "T", "D")
		s.ErrorIs(err, domain.ErrNotFound)
	})

	p, err := s.svc.CreateProject(s.ctx, "relief@example.com", "Clean Water", "wells")
	s.Require().NoError(err)
	s.False(p.IsApproved)
	s.Equal("Relief Corp", p.NGOName)

	approved, err := s.svc.ListApprovedProjects(s.ctx)
	s.Require().NoError(err)
	s.Empty(approved)

	s.Require().NoError(s.svc.ApproveProject(s.ctx, p.ID))
	approved, err = s.svc.ListApprovedProjects(s.ctx)
	s.Require().NoError(err)
	s.Len(approved, 1)

	mine, err := s.svc.ListProjectsByNGO(s.ctx, "relief@example.com")
	s.Require().NoError(err)
	s.Len(mine, 1)

	s.ErrorIs(s.svc.ApproveProject(s.ctx, "missing"), domain.ErrNotFound)
	s.Require().NoError(s.svc.DeleteProject(s.ctx, p.ID))
	s.ErrorIs(s.svc.DeleteProject(s.ctx, p.ID), domain.ErrNotFound)

	all, err := s.svc.ListAllProjects(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}
