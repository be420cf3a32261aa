package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/buildgrid/catalog-backend/internal/pkg/logger"
	"github.com/buildgrid/catalog-backend/internal/types"
	"github.com/buildgrid/catalog-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "catalog", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("Failed to enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Product{},
		&types.ProductVersion{},
		&types.ProductStream{},
		&types.ProductVariant{},
		&types.Component{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		stmt string
	}{
		{
			name: "fk_product_version_product_id",
			stmt: `ALTER TABLE "product_version"
				ADD CONSTRAINT "fk_product_version_product_id"
				FOREIGN KEY ("product_id") REFERENCES "product"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_product_stream_product_version_id",
			stmt: `ALTER TABLE "product_stream"
				ADD CONSTRAINT "fk_product_stream_product_version_id"
				FOREIGN KEY ("product_version_id") REFERENCES "product_version"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_product_variant_product_stream_id",
			stmt: `ALTER TABLE "product_variant"
				ADD CONSTRAINT "fk_product_variant_product_stream_id"
				FOREIGN KEY ("product_stream_id") REFERENCES "product_stream"("id")
				ON DELETE CASCADE`,
		},
	}
	for _, c := range constraints {
		if err := s.db.Exec(c.stmt).Error; err != nil {
			if isDuplicateObject(err) {
				continue
			}
			return fmt.Errorf("Failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

// isDuplicateObject matches the postgres error raised when the constraint
// already exists from a previous migration run.
func isDuplicateObject(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42710"
}
