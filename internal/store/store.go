// Package store runs every confession and comment query the API needs.
// A Store wraps one *gorm.DB and is safe for concurrent use.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sujalbistaa/blushbox/internal/models"
)

var (
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidMood     = errors.New("invalid mood")
	ErrInvalidReaction = errors.New("invalid reaction type")
	ErrParentNotFound  = errors.New("parent comment not found")
	ErrNestedReply     = errors.New("replies can only be made to top-level comments")
)

// DailyWindow is how far back the daily pick looks.
const DailyWindow = 24 * time.Hour

// Sort selects the feed ordering.
type Sort string

const (
	SortRecent   Sort = "recent"
	SortTrending Sort = "trending"
)

// FeedQuery filters and orders the feed. An empty Mood means every mood.
type FeedQuery struct {
	Mood models.Mood
	Sort Sort
}

// Store is the confession storage component.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for the daily window.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store over db. The schema must already be migrated.
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

const reactionSum = "(c.reaction_love + c.reaction_relate + c.reaction_shocked + c.reaction_funny)"

// withCommentCount selects confessions joined to their comment count.
func (s *Store) withCommentCount(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("confessions AS c").
		Select("c.*, COUNT(cm.id) AS comment_count").
		Joins("LEFT JOIN comments AS cm ON cm.confession_id = c.id").
		Group("c.id")
}

// ListConfessions returns the whole feed, filtered and ordered by q.
func (s *Store) ListConfessions(ctx context.Context, q FeedQuery) ([]models.Confession, error) {
	tx := s.withCommentCount(ctx)
	if q.Mood != "" {
		if _, ok := models.ParseMood(string(q.Mood)); !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidMood, q.Mood)
		}
		tx = tx.Where("c.mood = ?", q.Mood)
	}

	switch q.Sort {
	case SortTrending:
		tx = tx.Order(reactionSum + " + COUNT(cm.id) DESC, c.created_at DESC, c.id DESC")
	default:
		tx = tx.Order("c.created_at DESC, c.id DESC")
	}

	confessions := []models.Confession{}
	if err := tx.Find(&confessions).Error; err != nil {
		return nil, fmt.Errorf("list confessions: %w", err)
	}
	return confessions, nil
}

// DailyPick returns the confession from the last DailyWindow with the most
// reactions, or nil when none qualifies. Ties go to the newer confession.
func (s *Store) DailyPick(ctx context.Context) (*models.Confession, error) {
	since := s.now().Add(-DailyWindow)

	var picks []models.Confession
	err := s.withCommentCount(ctx).
		Where("c.created_at >= ?", since).
		Order(reactionSum + " DESC, c.created_at DESC, c.id DESC").
		Limit(1).
		Find(&picks).Error
	if err != nil {
		return nil, fmt.Errorf("daily pick: %w", err)
	}
	if len(picks) == 0 {
		return nil, nil
	}
	return &picks[0], nil
}

// RandomPick returns a uniformly random confession, or nil on an empty table.
func (s *Store) RandomPick(ctx context.Context) (*models.Confession, error) {
	var picks []models.Confession
	err := s.withCommentCount(ctx).
		Order("RANDOM()").
		Limit(1).
		Find(&picks).Error
	if err != nil {
		return nil, fmt.Errorf("random pick: %w", err)
	}
	if len(picks) == 0 {
		return nil, nil
	}
	return &picks[0], nil
}

// CreateConfession inserts c with zeroed counters and sets c.ID.
func (s *Store) CreateConfession(ctx context.Context, c *models.Confession) error {
	required := []struct{ name, value string }{
		{"content", c.Content},
		{"category", c.Category},
		{"color", c.Color},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	if _, ok := models.ParseMood(string(c.Mood)); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidMood, c.Mood)
	}
	c.ID = 0
	c.ReactionLove, c.ReactionRelate, c.ReactionShocked, c.ReactionFunny = 0, 0, 0, 0
	c.ReportCount = 0
	c.CommentCount = 0
	c.CreatedAt = s.now()

	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create confession: %w", err)
	}
	return nil
}

// reactionIncrement maps a reaction to its counter column and the
// statement that bumps it.
func reactionIncrement(r models.Reaction) (string, clause.Expr, error) {
	switch r {
	case models.ReactionLove:
		return "reaction_love", gorm.Expr("reaction_love + 1"), nil
	case models.ReactionRelate:
		return "reaction_relate", gorm.Expr("reaction_relate + 1"), nil
	case models.ReactionShocked:
		return "reaction_shocked", gorm.Expr("reaction_shocked + 1"), nil
	case models.ReactionFunny:
		return "reaction_funny", gorm.Expr("reaction_funny + 1"), nil
	default:
		return "", clause.Expr{}, fmt.Errorf("%w: %q", ErrInvalidReaction, r)
	}
}

// React increments one reaction counter. An unknown id updates nothing and
// is not an error.
func (s *Store) React(ctx context.Context, id uint, r models.Reaction) error {
	column, expr, err := reactionIncrement(r)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).
		Model(&models.Confession{}).
		Where("id = ?", id).
		UpdateColumn(column, expr).Error
	if err != nil {
		return fmt.Errorf("react %s: %w", r, err)
	}
	return nil
}

// Report increments the report counter. An unknown id updates nothing and
// is not an error.
func (s *Store) Report(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).
		Model(&models.Confession{}).
		Where("id = ?", id).
		UpdateColumn("report_count", gorm.Expr("report_count + 1")).Error
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// Reported lists confessions with at least minReports reports, most
// reported first.
func (s *Store) Reported(ctx context.Context, minReports int) ([]models.Confession, error) {
	confessions := []models.Confession{}
	err := s.withCommentCount(ctx).
		Where("c.report_count >= ?", minReports).
		Order("c.report_count DESC, c.id DESC").
		Find(&confessions).Error
	if err != nil {
		return nil, fmt.Errorf("list reported: %w", err)
	}
	return confessions, nil
}

// ListComments returns a confession's comments oldest first.
func (s *Store) ListComments(ctx context.Context, confessionID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := s.db.WithContext(ctx).
		Where("confession_id = ?", confessionID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// CreateComment inserts c and sets c.ID. A reply must point at an existing
// top-level comment on the same confession.
func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	if strings.TrimSpace(c.Content) == "" {
		return fmt.Errorf("%w: content", ErrMissingField)
	}
	if c.ParentID != nil {
		var parent models.Comment
		err := s.db.WithContext(ctx).First(&parent, *c.ParentID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %d", ErrParentNotFound, *c.ParentID)
		}
		if err != nil {
			return fmt.Errorf("load parent comment: %w", err)
		}
		if parent.ConfessionID != c.ConfessionID {
			return fmt.Errorf("%w: %d is on another confession", ErrParentNotFound, *c.ParentID)
		}
		if parent.IsReply() {
			return ErrNestedReply
		}
	}

	c.ID = 0
	c.CreatedAt = s.now()
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}
