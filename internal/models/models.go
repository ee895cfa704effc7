package models

import (
	"time"
)

// Mood is the emotional tag a confession is filed under.
type Mood string

const (
	MoodLove   Mood = "Love"
	MoodSad    Mood = "Sad"
	MoodSecret Mood = "Secret"
	MoodFunny  Mood = "Funny"
	MoodRant   Mood = "Rant"
)

// Moods lists every accepted mood in display order.
var Moods = []Mood{MoodLove, MoodSad, MoodSecret, MoodFunny, MoodRant}

// ParseMood returns the Mood matching s exactly.
func ParseMood(s string) (Mood, bool) {
	for _, m := range Moods {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Reaction is one of the four emoji counters on a confession.
type Reaction string

const (
	ReactionLove    Reaction = "love"
	ReactionRelate  Reaction = "relate"
	ReactionShocked Reaction = "shocked"
	ReactionFunny   Reaction = "funny"
)

// Reactions lists every accepted reaction type.
var Reactions = []Reaction{ReactionLove, ReactionRelate, ReactionShocked, ReactionFunny}

// ParseReaction returns the Reaction matching s exactly.
func ParseReaction(s string) (Reaction, bool) {
	for _, r := range Reactions {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Confession represents a single anonymous post.
type Confession struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	Content         string    `gorm:"not null" json:"content"`
	Category        string    `gorm:"not null" json:"category"`
	Color           string    `gorm:"not null" json:"color"`
	Mood            Mood      `gorm:"not null;default:Secret" json:"mood"`
	ReactionLove    int       `gorm:"default:0" json:"reaction_love"`
	ReactionRelate  int       `gorm:"default:0" json:"reaction_relate"`
	ReactionShocked int       `gorm:"default:0" json:"reaction_shocked"`
	ReactionFunny   int       `gorm:"default:0" json:"reaction_funny"`
	ReportCount     int       `gorm:"default:0" json:"report_count"`
	CreatedAt       time.Time `json:"created_at"`

	// Filled by feed queries from a join on comments; never stored.
	CommentCount int64 `gorm:"->;-:migration" json:"comment_count"`
}

// ReactionTotal is the sum of the four reaction counters.
func (c *Confession) ReactionTotal() int {
	return c.ReactionLove + c.ReactionRelate + c.ReactionShocked + c.ReactionFunny
}

// TrendingScore is ReactionTotal plus the comment count.
func (c *Confession) TrendingScore() int64 {
	return int64(c.ReactionTotal()) + c.CommentCount
}

// Comment is attached to a confession, optionally as a reply to another comment.
type Comment struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	ConfessionID uint      `gorm:"not null;index" json:"confession_id"`
	ParentID     *uint     `json:"parent_id"`
	Content      string    `gorm:"not null" json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsReply reports whether the comment has a parent.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// CommentThread is a top-level comment with its direct replies.
type CommentThread struct {
	Comment
	Replies []Comment `json:"replies"`
}

// ThreadComments partitions a chronologically ordered flat list into
// top-level comments and their replies. Replies whose parent is not a
// top-level comment in the list are left out, matching what the feed renders.
func ThreadComments(comments []Comment) []CommentThread {
	threads := make([]CommentThread, 0, len(comments))
	index := make(map[uint]int)
	for _, c := range comments {
		if c.IsReply() {
			continue
		}
		index[c.ID] = len(threads)
		threads = append(threads, CommentThread{Comment: c, Replies: []Comment{}})
	}
	for _, c := range comments {
		if !c.IsReply() {
			continue
		}
		if i, ok := index[*c.ParentID]; ok {
			threads[i].Replies = append(threads[i].Replies, c)
		}
	}
	return threads
}
