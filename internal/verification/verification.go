// Package verification registers NGOs, redeems their one-time verification
// codes and manages the projects an approved NGO may publish.
package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ngo_tracker/internal/domain"
	"ngo_tracker/internal/events"
	"ngo_tracker/internal/metrics"
	"ngo_tracker/internal/store"
	"ngo_tracker/internal/utils"

	"github.com/sirupsen/logrus"
)

const (
	codeAlphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeLength       = 6
	maxCodeAttempts  = 10
	maxDocumentBytes = 5 << 20
)

// ErrCodeSpaceExhausted is returned when no free code was found
var ErrCodeSpaceExhausted = errors.New("could not generate an unused verification code")

// Service runs the NGO verification workflow
type Service struct {
	ngos      *store.NGOs
	projects  *store.Projects
	publisher events.Publisher
	metrics   *metrics.Metrics

	newCode func() (string, error)
}

func NewService(s *store.Store, publisher events.Publisher, m *metrics.Metrics) *Service {
	return &Service{
		ngos:      s.NGOs,
		projects:  s.Projects,
		publisher: publisher,
		metrics:   m,
		newCode:   generateCode,
	}
}

func generateCode() (string, error) {
	return utils.RandomString(codeAlphabet, codeLength)
}

// Document is an uploaded registration document, content as a data URI
type Document struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	Content  string `json:"fileContent"`
}

// Profile is the registration input of an NGO
type Profile struct {
	Email         string
	Name          string
	Description   string
	Website       string
	ContactPhone  string
	Address       string
	WalletAddress string
	Document      *Document
}

// Redemption identifies the NGO approved by a code
type Redemption struct {
	NGOID   string `json:"ngoId"`
	NGOName string `json:"ngoName"`
}

// Register stores a new, unapproved NGO with a fresh verification code
func (s *Service) Register(ctx context.Context, p Profile) (*domain.NGO, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	switch {
	case p.Email == "":
		return nil, domain.Invalid("email", "is required")
	case p.Name == "":
		return nil, domain.Invalid("name", "is required")
	case p.Description == "":
		return nil, domain.Invalid("description", "is required")
	}
	if p.Document != nil {
		if err := validateDocument(p.Document); err != nil {
			return nil, err
		}
	}

	if _, err := s.ngos.FindByEmail(ctx, p.Email); err == nil {
		return nil, domain.Invalid("email", "an NGO is already registered for this account")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	code, err := s.freeCode(ctx)
	if err != nil {
		return nil, err
	}

	ngo := &domain.NGO{
		Email:         p.Email,
		Name:          p.Name,
		Description:   p.Description,
		Website:       strings.TrimSpace(p.Website),
		ContactPhone:  strings.TrimSpace(p.ContactPhone),
		Address:       strings.TrimSpace(p.Address),
		WalletAddress: strings.TrimSpace(p.WalletAddress),
		Code:          code,
	}
	if p.Document != nil {
		doc := &domain.NGODocument{
			NGOEmail: p.Email,
			FileName: p.Document.FileName,
			FileType: p.Document.FileType,
			Content:  p.Document.Content,
		}
		if err := s.ngos.CreateDocument(ctx, doc); err != nil {
			return nil, err
		}
		ngo.DocumentRef = doc.ID
	}
	if err := s.ngos.Create(ctx, ngo); err != nil {
		return nil, err
	}

	s.metrics.IncNGORegistered()
	events.Emit(ctx, s.publisher, events.New(events.NGORegistered, ngo.ID, map[string]string{"email": ngo.Email}))
	logrus.WithFields(logrus.Fields{"ngo_id": ngo.ID, "email": ngo.Email}).Info("NGO registered")
	return ngo, nil
}

// freeCode draws codes until one is not held by any NGO
func (s *Service) freeCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", fmt.Errorf("generate verification code: %w", err)
		}
		taken, err := s.ngos.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
		logrus.WithField("attempt", attempt+1).Warn("Verification code collision, regenerating")
	}
	return "", ErrCodeSpaceExhausted
}

func validateDocument(d *Document) error {
	switch {
	case strings.TrimSpace(d.FileName) == "":
		return domain.Invalid("document.fileName", "is required")
	case !strings.HasPrefix(d.Content, "data:"):
		return domain.Invalid("document.fileContent", "must be a data URI")
	case len(d.Content) > maxDocumentBytes:
		return domain.Invalid("document.fileContent", "is too large")
	}
	return nil
}

// NormalizeCode trims and uppercases a code and checks it is alphanumeric
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", domain.Invalid("code", "is required")
	}
	for _, r := range code {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') {
			return "", domain.Invalid("code", "must contain only letters and digits")
		}
	}
	return code, nil
}

// RedeemCode approves the NGO holding code. Approval happens at most once:
// a second redemption, concurrent or not, gets ErrAlreadyVerified.
func (s *Service) RedeemCode(ctx context.Context, code string) (*Redemption, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	ngo, err := s.ngos.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if ngo.IsApproved {
		return nil, fmt.Errorf("ngo %s: %w", ngo.Name, domain.ErrAlreadyVerified)
	}
	approved, err := s.ngos.Approve(ctx, ngo.ID)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, fmt.Errorf("ngo %s: %w", ngo.Name, domain.ErrAlreadyVerified)
	}

	s.metrics.IncNGOApproved()
	events.Emit(ctx, s.publisher, events.New(events.NGOApproved, ngo.ID, map[string]string{"email": ngo.Email}))
	logrus.WithFields(logrus.Fields{"ngo_id": ngo.ID, "name": ngo.Name}).Info("NGO verified")
	return &Redemption{NGOID: ngo.ID, NGOName: ngo.Name}, nil
}

// UpdateWallet sets the receiving wallet of the NGO owned by email
func (s *Service) UpdateWallet(ctx context.Context, email, address string) (*domain.NGO, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, domain.Invalid("walletAddress", "is required")
	}
	ngo, err := s.ngos.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.ngos.UpdateWallet(ctx, ngo.ID, address); err != nil {
		return nil, err
	}
	ngo.WalletAddress = address
	logrus.WithFields(logrus.Fields{"ngo_id": ngo.ID, "wallet": address}).Info("NGO wallet updated")
	return ngo, nil
}

// GetByEmail returns the NGO owned by an account
func (s *Service) GetByEmail(ctx context.Context, email string) (*domain.NGO, error) {
	return s.ngos.FindByEmail(ctx, email)
}

// GetByID returns an NGO without its document
func (s *Service) GetByID(ctx context.Context, id string) (*domain.NGO, error) {
	return s.ngos.FindByID(ctx, id)
}

// ListApproved returns the NGOs donors may see
func (s *Service) ListApproved(ctx context.Context) ([]domain.NGO, error) {
	return s.ngos.ListApproved(ctx)
}

// ListAll returns every registration, for authorizers
func (s *Service) ListAll(ctx context.Context) ([]domain.NGO, error) {
	return s.ngos.ListAll(ctx)
}

// DetailForAuthorizer returns an NGO with its registration document inlined
func (s *Service) DetailForAuthorizer(ctx context.Context, id string) (*domain.NGO, error) {
	ngo, err := s.ngos.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ngo.DocumentRef == "" {
		return ngo, nil
	}
	doc, err := s.ngos.FindDocument(ctx, ngo.DocumentRef)
	switch {
	case err == nil:
		ngo.Document = doc
	case errors.Is(err, domain.ErrNotFound):
		logrus.WithFields(logrus.Fields{"ngo_id": id, "document": ngo.DocumentRef}).Warn("NGO document missing")
	default:
		return nil, err
	}
	return ngo, nil
}

// CanCreateProjects reports whether the NGO may publish projects
func CanCreateProjects(ngo *domain.NGO) bool {
	return ngo.CanCreateProjects()
}
