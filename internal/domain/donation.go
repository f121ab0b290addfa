package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Status of a donation record
type Status string

const (
	StatusPending   Status = "pending"   // Transfer recorded, no evidence yet
	StatusCompleted Status = "completed" // Evidence attached by the NGO
	StatusRejected  Status = "rejected"  // Set only through the administrative reject path
)

const (
	GrantDonorName    = "Government Grant"         // Donor display name on grants
	GrantProjectTitle = "Government Grant Funding" // Project title on grants, which have no project
	AnonymousDonor    = "Anonymous Donor"          // Fallback when no name or address is usable
)

// Donation Model, the record of one confirmed transfer
type Donation struct {
	ID                  string         `gorm:"primaryKey;size:36" json:"id"`
	DonorAddress        string         `gorm:"index;size:128;not null" json:"donorAddress"`          // Sender wallet address
	DonorName           string         `json:"donorName,omitempty"`                                  // Display name
	NGOEmail            string         `gorm:"index;size:191;not null" json:"ngoEmail"`              // Receiving NGO
	NGOName             string         `json:"ngoName"`                                              // Receiving NGO name
	ProjectID           string         `gorm:"size:36" json:"projectId"`                             // Empty for grants
	ProjectTitle        string         `json:"projectTitle"`                                         // Grant marker title for grants
	Amount              string         `gorm:"size:64;not null" json:"amount"`                       // Decimal string in display units
	Currency            string         `gorm:"size:16" json:"currency"`                              // Native currency symbol
	Timestamp           int64          `gorm:"index" json:"timestamp"`                               // Unix milliseconds
	TransactionHash     string         `gorm:"uniqueIndex;size:128;not null" json:"transactionHash"` // From the wallet bridge
	IsDirect            bool           `json:"isDirect"`                                             // Bypassed any intermediary contract
	IsGovFunding        bool           `gorm:"index" json:"isGovFunding"`                            // Grant rather than public donation
	EvidenceTrackingID  string         `gorm:"size:8" json:"evidenceTrackingId"`
	EvidenceDescription string         `gorm:"type:text" json:"evidenceDescription"`
	EvidenceImages      EvidenceImages `gorm:"type:longtext" json:"evidenceImages"`
	Status              Status         `gorm:"size:16;not null;default:pending" json:"status"`
	LastUpdated         int64          `json:"lastUpdated,omitempty"` // Unix milliseconds of the last evidence or status change
}

// EvidenceKind tags the three shapes evidence images can take
type EvidenceKind int

const (
	EvidenceNone          EvidenceKind = iota // No evidence images
	EvidenceLegacyPresent                     // Evidence flagged present, images not in the expected shape
	EvidenceImageList                         // Ordered list of image data URIs
)

// EvidenceImages replaces the bool-or-array field of older records with an explicit variant.
// It still encodes to and decodes from false, true and [...] so existing rows keep working.
type EvidenceImages struct {
	Kind   EvidenceKind
	Images []string
}

// NoEvidence is the initial value of every new donation
func NoEvidence() EvidenceImages {
	return EvidenceImages{Kind: EvidenceNone}
}

// ImagesOf wraps an image list; an empty list is treated as no evidence
func ImagesOf(images ...string) EvidenceImages {
	if len(images) == 0 {
		return NoEvidence()
	}
	return EvidenceImages{Kind: EvidenceImageList, Images: images}
}

// Present reports whether any evidence images exist
func (e EvidenceImages) Present() bool {
	return e.Kind != EvidenceNone
}

// Append returns the cumulative image list. Legacy evidence carries no usable
// images, so only the new ones survive.
func (e EvidenceImages) Append(images ...string) EvidenceImages {
	if len(images) == 0 {
		return e
	}
	var merged []string
	if e.Kind == EvidenceImageList {
		merged = append(merged, e.Images...)
	}
	merged = append(merged, images...)
	return EvidenceImages{Kind: EvidenceImageList, Images: merged}
}

// MarshalJSON keeps the legacy wire shape
func (e EvidenceImages) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EvidenceLegacyPresent:
		return []byte("true"), nil
	case EvidenceImageList:
		return json.Marshal(e.Images)
	default:
		return []byte("false"), nil
	}
}

// UnmarshalJSON accepts false, true, null or a list of strings
func (e *EvidenceImages) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*e = NoEvidence()
		return nil
	case bytes.Equal(data, []byte("true")):
		*e = EvidenceImages{Kind: EvidenceLegacyPresent}
		return nil
	}
	var images []string
	if err := json.Unmarshal(data, &images); err != nil {
		// Present but not a list of strings: the degraded legacy state
		*e = EvidenceImages{Kind: EvidenceLegacyPresent}
		return nil
	}
	*e = ImagesOf(images...)
	return nil
}

// Value stores the variant as its JSON encoding
func (e EvidenceImages) Value() (driver.Value, error) {
	b, err := e.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads the JSON encoding back
func (e *EvidenceImages) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*e = NoEvidence()
		return nil
	case string:
		return e.UnmarshalJSON([]byte(v))
	case []byte:
		return e.UnmarshalJSON(v)
	default:
		return fmt.Errorf("unsupported evidence images column type %T", src)
	}
}
