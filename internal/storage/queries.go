package storage

import (
	"anonmatch/backend/internal/config"
	"anonmatch/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// profileUpdateColumns оновлюються при повторній анкеті. Преміум і created_at сюди не входять.
var profileUpdateColumns = []string{
	"username", "display_name", "gender", "age",
	"favorite_game", "favorite_movie", "favorite_music",
	"language_code", "is_active", "last_active",
}

func profileUpsertClause() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(profileUpdateColumns),
	}
}

// activeSessionUsers вибирає одну колонку учасника з активних сесій.
func activeSessionUsers(db *gorm.DB, column string) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&models.ChatSession{}).
		Select(column).
		Where("is_active = ?", true)
}

// candidatesQuery будує вибірку кандидатів для ListMatchCandidates.
func candidatesQuery(db *gorm.DB, requesterID int64, gender string) *gorm.DB {
	// 1. Активні профілі, крім самого користувача
	q := db.Model(&models.Profile{}).
		Where("user_id <> ? AND is_active = ?", requesterID, true)

	// 2. Виключаємо всіх, хто вже в активній сесії (обидві колонки)
	q = q.Where("user_id NOT IN (?)", activeSessionUsers(db, "user1_id")).
		Where("user_id NOT IN (?)", activeSessionUsers(db, "user2_id"))

	// 3. Фільтр за статтю, якщо політика його вимагає
	if gender != "" {
		q = q.Where("gender = ?", gender)
	}
	return q.Order("RANDOM()").Limit(config.CandidateSampleSize)
}

// busySessionsQuery знаходить активні сесії, де вже є a або b.
func busySessionsQuery(db *gorm.DB, a, b int64) *gorm.DB {
	ids := []int64{a, b}
	return db.Model(&models.ChatSession{}).
		Where("is_active = ?", true).
		Where("(user1_id IN ? OR user2_id IN ?)", ids, ids)
}

// activePairQuery знаходить активну сесію саме між a і b, у будь-якому порядку.
func activePairQuery(db *gorm.DB, a, b int64) *gorm.DB {
	return db.Model(&models.ChatSession{}).
		Where("is_active = ?", true).
		Where("((user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?))", a, b, b, a)
}
