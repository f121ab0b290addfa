// Package funding sums the donations an NGO received into government and
// public totals.
package funding

import (
	"context"
	"math"
	"strconv"
	"strings"

	"ngo_tracker/internal/domain"
)

// Totals of one NGO, in display units of the native currency
type Totals struct {
	Total       float64 `json:"total"`
	GovFunds    float64 `json:"govFunds"`
	PublicFunds float64 `json:"publicFunds"`
}

// Aggregate sums donation amounts by origin. Amounts that do not parse as
// numbers are skipped. Float addition is good enough for display; the
// records keep the exact decimal strings.
func Aggregate(donations []domain.Donation) Totals {
	var t Totals
	for _, d := range donations {
		amount, err := strconv.ParseFloat(strings.TrimSpace(d.Amount), 64)
		if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
			continue
		}
		if d.IsGovFunding {
			t.GovFunds += amount
		} else {
			t.PublicFunds += amount
		}
	}
	t.Total = t.GovFunds + t.PublicFunds
	return t
}

// Percentages returns the share of government and public funds, 0 and 0 when
// nothing was received.
func Percentages(t Totals) (gov, public float64) {
	if t.Total == 0 {
		return 0, 0
	}
	return t.GovFunds / t.Total * 100, t.PublicFunds / t.Total * 100
}

// Breakdown is the funding overview shown to authorizers
type Breakdown struct {
	NGOEmail string `json:"ngoEmail"`
	Totals
	GovPercent    float64 `json:"govPercent"`
	PublicPercent float64 `json:"publicPercent"`
	Donations     int     `json:"donations"`
}

// Source lists the donations of an NGO
type Source interface {
	ListByNGO(ctx context.Context, email string) ([]domain.Donation, error)
}

// Service computes breakdowns from the record store
type Service struct {
	donations Source
}

func NewService(donations Source) *Service {
	return &Service{donations: donations}
}

// Breakdown loads the donations of an NGO and aggregates them
func (s *Service) Breakdown(ctx context.Context, ngoEmail string) (*Breakdown, error) {
	donations, err := s.donations.ListByNGO(ctx, ngoEmail)
	if err != nil {
		return nil, err
	}
	totals := Aggregate(donations)
	gov, public := Percentages(totals)
	return &Breakdown{
		NGOEmail:      ngoEmail,
		Totals:        totals,
		GovPercent:    gov,
		PublicPercent: public,
		Donations:     len(donations),
	}, nil
}
