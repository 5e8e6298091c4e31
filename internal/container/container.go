package container

import (
	"context"
	"fmt"
	"log"

	"crminsight/adapters/excel"
	"crminsight/adapters/postgres"
	"crminsight/app"
	"crminsight/internal/classifier"
	"crminsight/internal/config"
	internaldataset "crminsight/internal/dataset"
	"crminsight/internal/migration"
	"crminsight/internal/session"
	"crminsight/internal/training"
	"crminsight/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	RunRepo ports.TrainingRunRepository

	// Pipeline components
	Exporter *session.ArtifactExporter
	Pipeline *app.PipelineService
	Session  *session.Session
}

// New creates a new dependency injection container without a ledger
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:  cfg,
		Session: session.New(),
	}
	if err := c.initPipeline(); err != nil {
		return nil, err
	}
	return c, nil
}

// InitWithDatabase runs migrations and attaches the training run ledger
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	c.DB = db
	c.RunRepo = postgres.NewTrainingRunRepository(db)
	if err := c.initPipeline(); err != nil {
		return err
	}

	log.Printf("Container initialized successfully with database connection")
	return nil
}

// initPipeline wires the exporter and pipeline service from the current repositories
func (c *Container) initPipeline() error {
	exporter, err := session.NewArtifactExporter(c.Config.Pipeline.ArtifactPath, c.RunRepo)
	if err != nil {
		return fmt.Errorf("failed to initialize artifact exporter: %w", err)
	}
	c.Exporter = exporter
	parser := internaldataset.NewParserWithConfig(excel.ExcelConfig{SheetName: c.Config.Pipeline.ExcelSheet})
	trainer := training.NewTrainerWithConfig(classifier.Config{
		MaxIterations: c.Config.Pipeline.MaxIterations,
		L2:            classifier.DefaultL2,
	})
	c.Pipeline = app.NewPipelineService(parser, trainer, exporter)
	return nil
}

// Shutdown releases held resources
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
