package repos

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/buildgrid/catalog-backend/internal/pkg/logger"
	"github.com/buildgrid/catalog-backend/internal/types"
)

// The production schema uses postgres defaults (uuid_generate_v4, now), so
// the sqlite fixture creates its tables by hand with the column names the
// queries touch.
var fixtureDDL = []string{
	`CREATE TABLE component (
		id TEXT PRIMARY KEY,
		namespace TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		arch TEXT NOT NULL DEFAULT '',
		epoch INTEGER NOT NULL DEFAULT 0,
		version TEXT NOT NULL DEFAULT '',
		"release" TEXT NOT NULL DEFAULT '',
		meta_attr TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE product (id TEXT PRIMARY KEY, ofuri TEXT NOT NULL, name TEXT NOT NULL, description TEXT, created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE product_version (id TEXT PRIMARY KEY, ofuri TEXT NOT NULL, name TEXT NOT NULL, product_id TEXT, created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE product_stream (id TEXT PRIMARY KEY, ofuri TEXT NOT NULL, name TEXT NOT NULL, active BOOLEAN NOT NULL DEFAULT 1, product_version_id TEXT, created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE product_variant (id TEXT PRIMARY KEY, ofuri TEXT NOT NULL, name TEXT NOT NULL, product_stream_id TEXT, created_at DATETIME, updated_at DATETIME)`,
	`CREATE TABLE component_products (component_id TEXT, product_id TEXT)`,
	`CREATE TABLE component_product_versions (component_id TEXT, product_version_id TEXT)`,
	`CREATE TABLE component_product_streams (component_id TEXT, product_stream_id TEXT)`,
	`CREATE TABLE component_product_variants (component_id TEXT, product_variant_id TEXT)`,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range fixtureDDL {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("fixture DDL: %v", err)
		}
	}
	return db
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

type fixture struct {
	db *gorm.DB
	t  *testing.T
}

func (f *fixture) addStream(ofuri string, active bool) uuid.UUID {
	id := uuid.New()
	if err := f.db.Exec(
		`INSERT INTO product_stream (id, ofuri, name, active) VALUES (?, ?, ?, ?)`,
		id, ofuri, ofuri, active,
	).Error; err != nil {
		f.t.Fatalf("insert stream: %v", err)
	}
	return id
}

func (f *fixture) addProduct(ofuri string) uuid.UUID {
	id := uuid.New()
	if err := f.db.Exec(
		`INSERT INTO product (id, ofuri, name) VALUES (?, ?, ?)`,
		id, ofuri, ofuri,
	).Error; err != nil {
		f.t.Fatalf("insert product: %v", err)
	}
	return id
}

func (f *fixture) addComponent(ns types.Namespace, name string, ctype types.ComponentType, arch string, epoch int, version, release string) uuid.UUID {
	id := uuid.New()
	if err := f.db.Exec(
		`INSERT INTO component (id, namespace, name, type, arch, epoch, version, "release") VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ns, name, ctype, arch, epoch, version, release,
	).Error; err != nil {
		f.t.Fatalf("insert component: %v", err)
	}
	return id
}

func (f *fixture) linkStream(componentID, streamID uuid.UUID) {
	if err := f.db.Exec(
		`INSERT INTO component_product_streams (component_id, product_stream_id) VALUES (?, ?)`,
		componentID, streamID,
	).Error; err != nil {
		f.t.Fatalf("link stream: %v", err)
	}
}

func (f *fixture) linkProduct(componentID, productID uuid.UUID) {
	if err := f.db.Exec(
		`INSERT INTO component_products (component_id, product_id) VALUES (?, ?)`,
		componentID, productID,
	).Error; err != nil {
		f.t.Fatalf("link product: %v", err)
	}
}

func srpmIdentity(name string) types.ComponentIdentity {
	return types.ComponentIdentity{
		Namespace: types.NamespaceRedhat,
		Name:      name,
		Type:      types.ComponentTypeRPM,
		Arch:      "src",
	}
}

func TestFetchLatestCandidatesScopedToStream(t *testing.T) {
	db := newTestDB(t)
	f := &fixture{db: db, t: t}
	repo := NewComponentRepo(db, newTestLogger(t))

	stream := f.addStream("o:redhat:rhel:8.6.z", true)
	otherStream := f.addStream("o:redhat:rhel:9.0.z", true)

	a := f.addComponent(types.NamespaceRedhat, "curl", types.ComponentTypeRPM, "src", 0, "7.61.1", "22.el8")
	b := f.addComponent(types.NamespaceRedhat, "curl", types.ComponentTypeRPM, "src", 0, "7.61.1", "25.el8")
	binary := f.addComponent(types.NamespaceRedhat, "curl", types.ComponentTypeRPM, "x86_64", 0, "7.61.1", "25.el8")
	elsewhere := f.addComponent(types.NamespaceRedhat, "curl", types.ComponentTypeRPM, "src", 0, "7.76.1", "14.el9")
	f.linkStream(a, stream)
	f.linkStream(b, stream)
	f.linkStream(binary, stream)
	f.linkStream(elsewhere, otherStream)

	got, err := repo.FetchLatestCandidates(context.Background(), nil, srpmIdentity("curl"), types.Scope{
		Type:  types.ScopeProductStream,
		Ofuri: "o:redhat:rhel:8.6.z",
	})
	if err != nil {
		t.Fatalf("FetchLatestCandidates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}
	seen := map[uuid.UUID]bool{}
	for _, c := range got {
		seen[c.ID] = true
	}
	if !seen[a] || !seen[b] {
		t.Fatalf("expected candidates %s and %s, got %+v", a, b, got)
	}
}

func TestFetchLatestCandidatesInactiveStream(t *testing.T) {
	db := newTestDB(t)
	f := &fixture{db: db, t: t}
	repo := NewComponentRepo(db, newTestLogger(t))

	stream := f.addStream("o:redhat:openshift-enterprise:3.11.z", false)
	c := f.addComponent(types.NamespaceRedhat, "ansible-runner", types.ComponentTypeRPM, "src", 0, "1.4.6", "1.el7")
	f.linkStream(c, stream)

	scope := types.Scope{Type: types.ScopeProductStream, Ofuri: "o:redhat:openshift-enterprise:3.11.z"}

	got, err := repo.FetchLatestCandidates(context.Background(), nil, srpmIdentity("ansible-runner"), scope)
	if err != nil {
		t.Fatalf("FetchLatestCandidates: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("inactive stream should hide candidates, got %+v", got)
	}

	scope.IncludeInactiveStreams = true
	got, err = repo.FetchLatestCandidates(context.Background(), nil, srpmIdentity("ansible-runner"), scope)
	if err != nil {
		t.Fatalf("FetchLatestCandidates: %v", err)
	}
	if len(got) != 1 || got[0].ID != c {
		t.Fatalf("expected the one candidate with inactive streams included, got %+v", got)
	}
}

func TestFetchLatestCandidatesProductScope(t *testing.T) {
	db := newTestDB(t)
	f := &fixture{db: db, t: t}
	repo := NewComponentRepo(db, newTestLogger(t))

	product := f.addProduct("o:redhat:rhel")
	c := f.addComponent(types.NamespaceRedhat, "kernel", types.ComponentTypeRPMMOD, "x86_64", 0, "4.18.0", "372.9.1.el8")
	f.linkProduct(c, product)

	got, err := repo.FetchLatestCandidates(context.Background(), nil, types.ComponentIdentity{
		Namespace: types.NamespaceRedhat,
		Name:      "kernel",
		Type:      types.ComponentTypeRPMMOD,
		Arch:      "x86_64",
	}, types.Scope{Type: types.ScopeProduct, Ofuri: "o:redhat:rhel"})
	if err != nil {
		t.Fatalf("FetchLatestCandidates: %v", err)
	}
	if len(got) != 1 || got[0].ID != c {
		t.Fatalf("expected the module candidate under product scope, got %+v", got)
	}
}

func TestFetchLatestCandidatesRootPredicate(t *testing.T) {
	db := newTestDB(t)
	f := &fixture{db: db, t: t}
	repo := NewComponentRepo(db, newTestLogger(t))

	stream := f.addStream("o:redhat:rhel:8.6.z", true)

	// Upstream GitHub modules are only roots in the REDHAT namespace.
	upstream := f.addComponent(types.NamespaceUpstream, "operator-sdk", types.ComponentTypeGithub, "noarch", 0, "1.22.0", "")
	f.linkStream(upstream, stream)

	got, err := repo.FetchLatestCandidates(context.Background(), nil, types.ComponentIdentity{
		Namespace: types.NamespaceUpstream,
		Name:      "operator-sdk",
		Type:      types.ComponentTypeGithub,
		Arch:      "noarch",
	}, types.Scope{Type: types.ScopeProductStream, Ofuri: "o:redhat:rhel:8.6.z"})
	if err != nil {
		t.Fatalf("FetchLatestCandidates: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("upstream github module must not be a root component, got %+v", got)
	}
}

func TestFetchLatestCandidatesUnsupportedScope(t *testing.T) {
	db := newTestDB(t)
	repo := NewComponentRepo(db, newTestLogger(t))

	_, err := repo.FetchLatestCandidates(context.Background(), nil, srpmIdentity("curl"), types.Scope{
		Type:  "product_galaxy",
		Ofuri: "o:redhat:rhel",
	})
	if err == nil {
		t.Fatal("expected an unsupported scope type error")
	}
}

func TestScopeExistsAndStreamLookup(t *testing.T) {
	db := newTestDB(t)
	f := &fixture{db: db, t: t}
	repo := NewTaxonomyRepo(db, newTestLogger(t))

	f.addStream("o:redhat:rhel:8.6.z", true)

	exists, err := repo.ScopeExists(context.Background(), nil, types.Scope{Type: types.ScopeProductStream, Ofuri: "o:redhat:rhel:8.6.z"})
	if err != nil {
		t.Fatalf("ScopeExists: %v", err)
	}
	if !exists {
		t.Fatal("expected scope to exist")
	}

	exists, err = repo.ScopeExists(context.Background(), nil, types.Scope{Type: types.ScopeProductStream, Ofuri: "o:redhat:rhel:42"})
	if err != nil {
		t.Fatalf("ScopeExists: %v", err)
	}
	if exists {
		t.Fatal("expected scope to be absent")
	}

	stream, err := repo.GetStreamByOfuri(context.Background(), nil, "o:redhat:rhel:8.6.z")
	if err != nil {
		t.Fatalf("GetStreamByOfuri: %v", err)
	}
	if !stream.Active {
		t.Fatal("expected the fixture stream to be active")
	}
}
