package audit

import (
	"encoding/json"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/openlock/agent/internal/logger"
	"github.com/openlock/agent/internal/model"
	"github.com/openlock/agent/internal/security/gmcipher"
)

// diskRecord is the physical row shape. Whatever the logical record
// looks like, at rest it is only ever an SM4-encrypted JSON blob.
type diskRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Data      []byte `gorm:"type:blob"`
	CreatedAt int64  `gorm:"autoCreateTime"`
}

func (diskRecord) TableName() string { return "audit_records" }

// Store is a memory-first ring of audit records that spills to an
// SM4-encrypted SQLite table once the ring fills.
type Store struct {
	db     *gorm.DB
	engine *gmcipher.SM4Engine

	memStore []model.AuditRecord
	memLimit int
	mu       sync.RWMutex
}

func NewStore(db *gorm.DB, engine *gmcipher.SM4Engine, memLimit int) (*Store, error) {
	if !db.Migrator().HasTable(&diskRecord{}) {
		if err := db.AutoMigrate(&diskRecord{}); err != nil {
			return nil, fmt.Errorf("audit: create table: %w", err)
		}
	}
	return &Store{
		db:       db,
		engine:   engine,
		memStore: make([]model.AuditRecord, 0, memLimit),
		memLimit: memLimit,
	}, nil
}

// Push appends one record, spilling to disk once the memory ring is
// full rather than growing it unbounded.
func (s *Store) Push(rec model.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.memStore) < s.memLimit {
		s.memStore = append(s.memStore, rec)
		return nil
	}
	return s.persistToDisk([]model.AuditRecord{rec})
}

// Drain returns every record held in memory and on disk, then clears
// both. Intended for an end-of-session export, not periodic polling.
func (s *Store) Drain() ([]model.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.AuditRecord
	if len(s.memStore) > 0 {
		result = append(result, s.memStore...)
		s.memStore = make([]model.AuditRecord, 0, s.memLimit)
	}

	var rows []diskRecord
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("audit: read disk: %w", err)
	}

	if len(rows) > 0 {
		for _, row := range rows {
			rec, err := s.decodeAndDecrypt(row.Data)
			if err != nil {
				logger.Error("audit record decrypt failed, skipping", "id", row.ID, "error", err)
				continue
			}
			result = append(result, *rec)
		}
		if err := s.db.Unscoped().Where("1 = 1").Delete(&diskRecord{}).Error; err != nil {
			return nil, fmt.Errorf("audit: clear disk: %w", err)
		}
	}

	return result, nil
}

// Flush forces every in-memory record to disk. Called on shutdown so
// nothing is lost between the last Push and process exit.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.memStore) == 0 {
		return nil
	}
	if err := s.persistToDisk(s.memStore); err != nil {
		return err
	}
	count := len(s.memStore)
	s.memStore = make([]model.AuditRecord, 0, s.memLimit)
	logger.Info("audit trail flushed to disk", "count", count)
	return nil
}

func (s *Store) persistToDisk(items []model.AuditRecord) error {
	rows := make([]diskRecord, 0, len(items))
	for _, item := range items {
		plain, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("audit: marshal: %w", err)
		}
		cipherBytes, err := s.engine.Encrypt(plain)
		if err != nil {
			return fmt.Errorf("audit: encrypt: %w", err)
		}
		rows = append(rows, diskRecord{Data: cipherBytes})
	}
	return s.db.CreateInBatches(rows, 100).Error
}

func (s *Store) decodeAndDecrypt(cipherData []byte) (*model.AuditRecord, error) {
	plain, err := s.engine.Decrypt(cipherData)
	if err != nil {
		return nil, err
	}
	var rec model.AuditRecord
	if err := json.Unmarshal(plain, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
