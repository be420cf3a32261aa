package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ScopeType string

const (
	ScopeProduct        ScopeType = "product"
	ScopeProductVersion ScopeType = "product_version"
	ScopeProductStream  ScopeType = "product_stream"
	ScopeProductVariant ScopeType = "product_variant"
)

func (s ScopeType) Valid() bool {
	switch s {
	case ScopeProduct, ScopeProductVersion, ScopeProductStream, ScopeProductVariant:
		return true
	}
	return false
}

// Scope addresses one taxonomy node by its external URI.
type Scope struct {
	Type                   ScopeType
	Ofuri                  string
	IncludeInactiveStreams bool
}

func (s Scope) Validate() error {
	if !s.Type.Valid() {
		return fmt.Errorf("unsupported scope type %q", s.Type)
	}
	if s.Ofuri == "" {
		return fmt.Errorf("scope ofuri must not be empty")
	}
	return nil
}

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Ofuri       string    `gorm:"uniqueIndex;not null;column:ofuri" json:"ofuri"`
	Name        string    `gorm:"not null;column:name" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Product) TableName() string {
	return "product"
}

type ProductVersion struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Ofuri     string    `gorm:"uniqueIndex;not null;column:ofuri" json:"ofuri"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	ProductID uuid.UUID `gorm:"type:uuid;index;column:product_id" json:"product_id"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ProductVersion) TableName() string {
	return "product_version"
}

type ProductStream struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Ofuri            string    `gorm:"uniqueIndex;not null;column:ofuri" json:"ofuri"`
	Name             string    `gorm:"not null;column:name" json:"name"`
	Active           bool      `gorm:"not null;default:true;column:active" json:"active"`
	ProductVersionID uuid.UUID `gorm:"type:uuid;index;column:product_version_id" json:"product_version_id"`
	CreatedAt        time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ProductStream) TableName() string {
	return "product_stream"
}

type ProductVariant struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Ofuri           string    `gorm:"uniqueIndex;not null;column:ofuri" json:"ofuri"`
	Name            string    `gorm:"not null;column:name" json:"name"`
	ProductStreamID uuid.UUID `gorm:"type:uuid;index;column:product_stream_id" json:"product_stream_id"`
	CreatedAt       time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ProductVariant) TableName() string {
	return "product_variant"
}
