package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Session is the GORM model for a shard's persisted session.
type Session struct {
	ShardNumber int       `gorm:"primaryKey"`
	SessionID   string    `gorm:"column:session_id;type:varchar(64);not null"`
	Sequence    uint64    `gorm:"not null;default:0"`
	ResumeURL   string    `gorm:"column:resume_url;type:varchar(255);not null;default:''"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (Session) TableName() string {
	return "gateway_sessions"
}

// Postgres persists session records in PostgreSQL with GORM. It is the
// store of record for multi-host deployments.
type Postgres struct {
	db *gorm.DB
}

// NewPostgres connects to the database and auto-migrates the sessions
// table.
func NewPostgres(databaseURL string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Session{}); err != nil {
		return nil, err
	}

	return &Postgres{db: db}, nil
}

// Load implements SessionStore.
func (s *Postgres) Load(ctx context.Context, shard int) (Record, bool, error) {
	var row Session
	err := s.db.WithContext(ctx).First(&row, "shard_number = ?", shard).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	return Record{SessionID: row.SessionID, Sequence: row.Sequence, ResumeURL: row.ResumeURL}, true, nil
}

// Save implements SessionStore.
func (s *Postgres) Save(ctx context.Context, shard int, rec Record) error {
	row := Session{
		ShardNumber: shard,
		SessionID:   rec.SessionID,
		Sequence:    rec.Sequence,
		ResumeURL:   rec.ResumeURL,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shard_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"session_id", "sequence", "resume_url", "updated_at"}),
	}).Create(&row).Error
}

// Delete implements SessionStore.
func (s *Postgres) Delete(ctx context.Context, shard int) error {
	return s.db.WithContext(ctx).Delete(&Session{}, "shard_number = ?", shard).Error
}
