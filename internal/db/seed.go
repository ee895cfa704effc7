package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/sujalbistaa/blushbox/internal/models"
)

type seedConfession struct {
	content  string
	category string
	color    string
	mood     models.Mood
	love     int
	relate   int
	shocked  int
	funny    int
	age      time.Duration
}

var demoConfessions = []seedConfession{
	{
		content: "I've been leaving anonymous love notes in my best friend's locker for months. She thinks she has a secret admirer, but it's just me being too scared to confess.",
		category: "Romance", color: "bg-pink-100", mood: models.MoodLove,
		love: 120, relate: 45, shocked: 10, funny: 5,
		age: 24 * time.Hour,
	},
	{
		content: "I pretended not to know how to use the printer so the cute IT guy would come over. He came over, fixed it in 2 seconds, and called me 'ma'am'. I'm 24. 💀",
		category: "Funny", color: "bg-yellow-100", mood: models.MoodFunny,
		love: 50, relate: 200, shocked: 30, funny: 400,
		age: 8 * time.Hour,
	},
	{
		content: "I bought a gym membership in January. The only thing I've exercised is my bank account's recurring payment feature.",
		category: "Misc", color: "bg-gray-100", mood: models.MoodSad,
		love: 10, relate: 350, shocked: 5, funny: 120,
		age: 12 * time.Hour,
	},
	{
		content: "I still watch cartoons every Saturday morning with a bowl of cereal. I'm 32 years old and a corporate lawyer.",
		category: "Dark Secrets", color: "bg-purple-100", mood: models.MoodSecret,
		love: 80, relate: 150, shocked: 40, funny: 20,
		age: 4 * time.Hour,
	},
	{
		content: "My mom thinks I'm a vegetarian. I eat burgers in my car before family dinners so I'm not hungry. The guilt adds flavor.",
		category: "Family", color: "bg-green-100", mood: models.MoodSecret,
		love: 20, relate: 80, shocked: 150, funny: 300,
		age: 48 * time.Hour,
	},
	{
		content: "Sometimes I feel like everyone else got a manual for life that I never received.",
		category: "Deep", color: "bg-blue-100", mood: models.MoodSad,
		love: 300, relate: 890, shocked: 10, funny: 5,
		age: time.Hour,
	},
}

// Seed fills an empty confessions table with demo posts dated relative to
// now. It returns the number of rows inserted; a non-empty table is left
// alone.
func Seed(ctx context.Context, db *gorm.DB, now time.Time) (int, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Confession{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count confessions: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	rows := make([]models.Confession, 0, len(demoConfessions))
	for _, s := range demoConfessions {
		rows = append(rows, models.Confession{
			Content:         s.content,
			Category:        s.category,
			Color:           s.color,
			Mood:            s.mood,
			ReactionLove:    s.love,
			ReactionRelate:  s.relate,
			ReactionShocked: s.shocked,
			ReactionFunny:   s.funny,
			CreatedAt:       now.Add(-s.age).UTC(),
		})
	}
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		return 0, fmt.Errorf("insert demo confessions: %w", err)
	}

	slog.Info("seeded demo confessions", "count", len(rows))
	return len(rows), nil
}
