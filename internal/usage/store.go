package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Record is one AI invocation. Rows are append-only.
type Record struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ActorID      string    `gorm:"size:64;index" json:"actor_id"`
	ActionKind   string    `gorm:"size:64;index" json:"action_kind"`
	Provider     string    `gorm:"size:32" json:"provider"`
	Model        string    `gorm:"size:128" json:"model"`
	InputTokens  int       `gorm:"not null;default:0" json:"input_tokens"`
	OutputTokens int       `gorm:"not null;default:0" json:"output_tokens"`
	LatencyMS    int64     `gorm:"not null;default:0" json:"latency_ms"`
	Success      bool      `gorm:"not null" json:"success"`
	ErrorText    string    `gorm:"type:text" json:"error_text,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (Record) TableName() string {
	return "ai_usage_records"
}

// Filter narrows List. Zero values mean no restriction.
type Filter struct {
	ActorID    string
	ActionKind string
	Since      time.Time
	Limit      int
}

// Summary aggregates records for analytics.
type Summary struct {
	Calls        int64   `json:"calls"`
	Failures     int64   `json:"failures"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

// Store persists usage records. It deliberately exposes no update or delete.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Record{})
}

func (s *Store) Insert(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("usage record is required")
	}
	if rec.ID != 0 {
		return fmt.Errorf("usage record %d already stored", rec.ID)
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}
	return nil
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Record, error) {
	q := s.filtered(ctx, f).Order("created_at DESC, id DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var records []Record
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list usage records: %w", err)
	}
	return records, nil
}

func (s *Store) Summary(ctx context.Context, f Filter) (Summary, error) {
	var row struct {
		Calls        int64
		Failures     int64
		InputTokens  int64
		OutputTokens int64
		AvgLatency   float64
	}

	err := s.filtered(ctx, f).
		Select(`COUNT(*) AS calls,
			COALESCE(SUM(CASE WHEN success THEN 0 ELSE 1 END), 0) AS failures,
			COALESCE(SUM(input_tokens), 0) AS input_tokens,
			COALESCE(SUM(output_tokens), 0) AS output_tokens,
			COALESCE(AVG(latency_ms), 0) AS avg_latency`).
		Scan(&row).Error
	if err != nil {
		return Summary{}, fmt.Errorf("summarize usage: %w", err)
	}

	return Summary{
		Calls:        row.Calls,
		Failures:     row.Failures,
		InputTokens:  row.InputTokens,
		OutputTokens: row.OutputTokens,
		AvgLatencyMS: row.AvgLatency,
	}, nil
}

func (s *Store) filtered(ctx context.Context, f Filter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&Record{})
	if f.ActorID != "" {
		q = q.Where("actor_id = ?", f.ActorID)
	}
	if f.ActionKind != "" {
		q = q.Where("action_kind = ?", f.ActionKind)
	}
	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}
	return q
}
