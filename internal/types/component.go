package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Namespace string

const (
	NamespaceRedhat   Namespace = "REDHAT"
	NamespaceUpstream Namespace = "UPSTREAM"
)

func (n Namespace) Valid() bool {
	return n == NamespaceRedhat || n == NamespaceUpstream
}

type ComponentType string

const (
	ComponentTypeRPM     ComponentType = "RPM"
	ComponentTypeRPMMOD  ComponentType = "RPMMOD"
	ComponentTypeOCI     ComponentType = "OCI"
	ComponentTypeGithub  ComponentType = "GITHUB"
	ComponentTypeMaven   ComponentType = "MAVEN"
	ComponentTypeNPM     ComponentType = "NPM"
	ComponentTypePypi    ComponentType = "PYPI"
	ComponentTypeGolang  ComponentType = "GOLANG"
	ComponentTypeGeneric ComponentType = "GENERIC"
)

// Component is one ingested build artifact. Ingestion collectors write these
// rows; this service only reads them.
type Component struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Namespace Namespace      `gorm:"not null;column:namespace;index:idx_component_identity,priority:1" json:"namespace"`
	Name      string         `gorm:"not null;column:name;index:idx_component_identity,priority:2" json:"name"`
	Type      ComponentType  `gorm:"not null;column:type;index:idx_component_identity,priority:3" json:"type"`
	Arch      string         `gorm:"not null;default:'';column:arch;index:idx_component_identity,priority:4" json:"arch"`
	Epoch     int            `gorm:"not null;default:0;column:epoch" json:"epoch"`
	Version   string         `gorm:"not null;default:'';column:version" json:"version"`
	Release   string         `gorm:"not null;default:'';column:release" json:"release"`
	Meta      datatypes.JSON `gorm:"column:meta_attr" json:"meta_attr,omitempty"`

	Products        []*Product        `gorm:"many2many:component_products" json:"-"`
	ProductVersions []*ProductVersion `gorm:"many2many:component_product_versions" json:"-"`
	ProductStreams  []*ProductStream  `gorm:"many2many:component_product_streams" json:"-"`
	ProductVariants []*ProductVariant `gorm:"many2many:component_product_variants" json:"-"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Component) TableName() string {
	return "component"
}

// NEVRA renders the full ordered identity, mainly for log lines.
func (c *Component) NEVRA() string {
	return fmt.Sprintf("%s-%d:%s-%s.%s", c.Name, c.Epoch, c.Version, c.Release, c.Arch)
}

// ComponentIdentity selects one exact identity family: all rows sharing it
// differ only by epoch/version/release and scope membership.
type ComponentIdentity struct {
	Namespace Namespace
	Name      string
	Type      ComponentType
	Arch      string
}

func (ci ComponentIdentity) Validate() error {
	if !ci.Namespace.Valid() {
		return fmt.Errorf("unknown namespace %q", ci.Namespace)
	}
	if ci.Name == "" {
		return fmt.Errorf("component name must not be empty")
	}
	if ci.Type == "" {
		return fmt.Errorf("component type must not be empty")
	}
	if ci.Arch == "" {
		return fmt.Errorf("component arch must not be empty")
	}
	return nil
}

// IsRootComponent reports whether an identity is eligible for latest-version
// resolution: source RPMs, content modules, index container images, and
// Red Hat upstream modules hosted on GitHub. Fixed policy, not caller tunable.
func IsRootComponent(ns Namespace, ctype ComponentType, arch string) bool {
	switch ctype {
	case ComponentTypeRPM:
		return arch == "src"
	case ComponentTypeRPMMOD:
		return true
	case ComponentTypeOCI:
		return arch == "noarch"
	case ComponentTypeGithub:
		return arch == "noarch" && ns == NamespaceRedhat
	default:
		return false
	}
}

// LatestCandidate is the projection the resolver folds over.
type LatestCandidate struct {
	ID      uuid.UUID `gorm:"column:id"`
	Epoch   int       `gorm:"column:epoch"`
	Version string    `gorm:"column:version"`
	Release string    `gorm:"column:release"`
}
