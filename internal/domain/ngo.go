package domain

// NGO Model, one per NGO account email
type NGO struct {
	ID            string `gorm:"primaryKey;size:36" json:"id"`                       // Primary key (uuid)
	Email         string `gorm:"uniqueIndex;size:191;not null" json:"email"`         // Owning account email
	Name          string `gorm:"not null" json:"name"`                               // NGO name
	Description   string `gorm:"type:text;not null" json:"description"`              // What the NGO does
	Website       string `json:"website,omitempty"`                                  // Optional website
	ContactPhone  string `json:"contactPhone,omitempty"`                             // Optional phone
	Address       string `json:"address,omitempty"`                                  // Optional postal address
	Code          string `gorm:"uniqueIndex;size:16;not null" json:"code,omitempty"` // Verification code shared with an authorizer
	IsApproved    bool   `gorm:"index;not null;default:false" json:"isApproved"`     // Flips once when the code is redeemed
	WalletAddress string `gorm:"size:128" json:"walletAddress,omitempty"`            // Receiving wallet, may be updated
	DocumentRef   string `gorm:"size:36" json:"documentRef,omitempty"`               // ID of an uploaded NGODocument
	CreatedAt     int64  `gorm:"autoCreateTime:milli" json:"createdAt"`              // Timestamp of creation in milliseconds

	Document *NGODocument `gorm:"-" json:"document,omitempty"` // Inlined for the authorizer view only
}

// TableName keeps the collection name used by the rest of the system
func (NGO) TableName() string {
	return "ngos"
}

// CanCreateProjects reports whether the NGO has been verified by an authorizer
func (n *NGO) CanCreateProjects() bool {
	return n != nil && n.IsApproved
}

// NGODocument Model, registration paperwork stored inline as a data URI
type NGODocument struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	NGOEmail   string `gorm:"index;size:191;not null" json:"ngoEmail"`
	FileName   string `json:"fileName"`
	FileType   string `json:"fileType"`
	Content    string `gorm:"type:longtext" json:"fileContent"`
	UploadedAt int64  `gorm:"autoCreateTime:milli" json:"uploadedAt"`
}

// Project Model, owned by exactly one NGO
type Project struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	NGOEmail    string `gorm:"index;size:191;not null" json:"ngoEmail"`
	NGOName     string `json:"ngoName"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	IsApproved  bool   `gorm:"index;not null;default:false" json:"isApproved"` // Set only by an authorizer
	CreatedAt   int64  `gorm:"autoCreateTime:milli" json:"createdAt"`
}

// Public returns a copy safe to show to other accounts, without the
// verification code.
func (n NGO) Public() NGO {
	n.Code = ""
	n.Document = nil
	return n
}
