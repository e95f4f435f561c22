// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dbstore implements the "gorm" run-history data source: one
// PipelineRunRecord row per run, persisted through GORM to SQLite or
// Postgres.
package dbstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/oceanrun/oceanrun/internal/config"
	"github.com/oceanrun/oceanrun/internal/datasource"
)

// StageList is a []string persisted as a JSON column, the way the teacher's
// models.ExecHistory persists a string slice through database/sql/driver.
type StageList []string

// Value implements driver.Valuer.
func (s StageList) Value() (interface{}, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *StageList) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("dbstore: cannot scan StageList from %T", value)
	}
}

// ResultPayload is a map[string]any persisted as a JSON column.
type ResultPayload map[string]any

func (p ResultPayload) Value() (interface{}, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func (p *ResultPayload) Scan(value any) error {
	if value == nil {
		*p = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			*p = nil
			return nil
		}
		return json.Unmarshal(v, p)
	case string:
		if v == "" {
			*p = nil
			return nil
		}
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("dbstore: cannot scan ResultPayload from %T", value)
	}
}

// PipelineRunRecord is the GORM model for one persisted run.
type PipelineRunRecord struct {
	RunID              string        `gorm:"primaryKey;type:text" json:"run_id"`
	Success            bool          `gorm:"not null" json:"success"`
	StagesCompleted    StageList     `gorm:"type:text" json:"stages_completed"`
	ErrorMessage       string        `gorm:"type:text" json:"error_message,omitempty"`
	PostprocessResult  ResultPayload `gorm:"type:text" json:"postprocess_result,omitempty"`
	StartedAt          time.Time     `gorm:"type:timestamp" json:"started_at"`
	FinishedAt         time.Time     `gorm:"type:timestamp" json:"finished_at"`
}

func (PipelineRunRecord) TableName() string { return "pipeline_run_records" }

// DataSource is the "gorm" run-history data source variant.
type DataSource struct {
	db *gorm.DB
}

// New opens a GORM connection per cfg and runs AutoMigrate, mirroring the
// teacher's NewGormDB/AutoMigrate split.
func New(cfg config.SQLDatasourceConfig) (*DataSource, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.GetDSN())
	case "postgres":
		dialector = postgres.Open(cfg.GetDSN())
	default:
		return nil, fmt.Errorf("dbstore data source: unsupported sql driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("dbstore data source: connect: %w", err)
	}

	if err := db.AutoMigrate(&PipelineRunRecord{}); err != nil {
		return nil, fmt.Errorf("dbstore data source: migrate: %w", err)
	}

	return &DataSource{db: db}, nil
}

func (*DataSource) DataSourceType() string { return "gorm" }

// SaveRun upserts record's row, keyed by run_id.
func (d *DataSource) SaveRun(ctx context.Context, record datasource.RunRecord) error {
	row := PipelineRunRecord{
		RunID:             record.RunID,
		Success:           record.Success,
		StagesCompleted:   StageList(record.StagesCompleted),
		ErrorMessage:      record.Error,
		PostprocessResult: ResultPayload(record.PostprocessResult),
		StartedAt:         record.StartedAt,
		FinishedAt:        record.FinishedAt,
	}
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}},
			UpdateAll: true,
		}).
		Create(&row).Error
}

// GetRun looks up a run by ID. Not found returns (nil, nil).
func (d *DataSource) GetRun(ctx context.Context, runID string) (*datasource.RunRecord, error) {
	var row PipelineRunRecord
	err := d.db.WithContext(ctx).First(&row, "run_id = ?", runID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("dbstore data source: get run %s: %w", runID, err)
	}
	return &datasource.RunRecord{
		RunID:             row.RunID,
		Success:           row.Success,
		StagesCompleted:   []string(row.StagesCompleted),
		Error:             row.ErrorMessage,
		PostprocessResult: map[string]any(row.PostprocessResult),
		StartedAt:         row.StartedAt,
		FinishedAt:        row.FinishedAt,
	}, nil
}

// Close releases the underlying SQL connection.
func (d *DataSource) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
