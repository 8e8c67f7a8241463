package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	recentLimit      = 10
	defaultListLimit = 50
	maxListLimit     = 200
)

var ErrNotFound = errors.New("notification not found")

type ListFilter struct {
	UnreadOnly bool
	Kind       Kind
	Limit      int
	Offset     int
}

// Store persists notifications. Read and emailed flags only move from false
// to true.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Notification{}); err != nil {
		return fmt.Errorf("migrate notifications: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, n *Notification) error {
	if n.RecipientID == "" {
		return errors.New("notification recipient is required")
	}
	if !n.Kind.Valid() {
		return fmt.Errorf("unknown notification kind %q", n.Kind)
	}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id uint) (*Notification, error) {
	var n Notification
	err := s.db.WithContext(ctx).First(&n, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get notification %d: %w", id, err)
	}
	return &n, nil
}

// List returns the recipient's notifications, newest first.
func (s *Store) List(ctx context.Context, recipient string, f ListFilter) ([]Notification, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	q := s.db.WithContext(ctx).Where("recipient_id = ?", recipient)
	if f.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var out []Notification
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// Recent is the dropdown view: the last unread notifications.
func (s *Store) Recent(ctx context.Context, recipient string) ([]Notification, error) {
	return s.List(ctx, recipient, ListFilter{UnreadOnly: true, Limit: recentLimit})
}

func (s *Store) UnreadCount(ctx context.Context, recipient string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipient, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one of the recipient's notifications as read. Marking an
// already read notification keeps the first read_at.
func (s *Store) MarkRead(ctx context.Context, id uint, recipient string, at time.Time) (*Notification, error) {
	res := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND recipient_id = ? AND is_read = ?", id, recipient, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	if res.Error != nil {
		return nil, fmt.Errorf("mark notification %d read: %w", id, res.Error)
	}

	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.RecipientID != recipient {
		return nil, ErrNotFound
	}
	return n, nil
}

func (s *Store) MarkAllRead(ctx context.Context, recipient string, at time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipient, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	if res.Error != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// MarkEmailed flips is_emailed once. It reports whether this call did the
// transition.
func (s *Store) MarkEmailed(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND is_emailed = ?", id, false).
		Updates(map[string]any{"is_emailed": true, "email_sent_at": at})
	if res.Error != nil {
		return false, fmt.Errorf("mark notification %d emailed: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Claim reserves an unemailed notification for one sender. A claim older
// than ttl counts as abandoned and can be taken over. It reports whether this
// call holds the claim.
func (s *Store) Claim(ctx context.Context, id uint, at time.Time, ttl time.Duration) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND is_emailed = ?", id, false).
		Where("(claimed_at IS NULL OR claimed_at < ?)", at.Add(-ttl)).
		Update("claimed_at", at)
	if res.Error != nil {
		return false, fmt.Errorf("claim notification %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Release drops the claim of a notification that is still unemailed.
func (s *Store) Release(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND is_emailed = ?", id, false).
		Update("claimed_at", nil).Error
	if err != nil {
		return fmt.Errorf("release notification %d: %w", id, err)
	}
	return nil
}

// Pending returns notifications that were never emailed, oldest first. When
// kinds are given only those kinds are returned.
func (s *Store) Pending(ctx context.Context, limit int, kinds ...Kind) ([]Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	q := s.db.WithContext(ctx).Where("is_emailed = ?", false)
	if len(kinds) > 0 {
		q = q.Where("kind IN ?", kinds)
	}

	var out []Notification
	err := q.
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	return out, nil
}
