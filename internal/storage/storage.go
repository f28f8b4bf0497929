package storage

import (
	"context"
	"errors"
	"time"

	"anonmatch/backend/internal/config"
	"anonmatch/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Storage описує збережений стан бота. Service є єдиним записувачем.
type Storage interface {
	// Профілі
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	UpsertProfile(ctx context.Context, userID int64, fields models.ProfileFields) (*models.Profile, error)
	IsPremiumActive(ctx context.Context, userID int64) (bool, error)
	ActivatePremium(ctx context.Context, userID int64, duration time.Duration) (time.Time, error)
	SetProfileActive(ctx context.Context, userID int64, active bool) error
	ListActiveProfileIDs(ctx context.Context) ([]int64, error)
	ListMatchCandidates(ctx context.Context, requesterID int64, gender string) ([]models.Profile, error)

	// Сесії та повідомлення
	CreateSession(ctx context.Context, user1ID, user2ID int64) (*models.ChatSession, error)
	EndSession(ctx context.Context, sessionID uint) error
	GetActiveSessionForUser(ctx context.Context, userID int64) (*models.ChatSession, error)
	ListActiveSessions(ctx context.Context) ([]models.ChatSession, error)
	AppendMessage(ctx context.Context, senderID, receiverID int64, text string) (bool, error)

	// Тарифні плани
	SeedPlans(ctx context.Context) error
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	GetPlan(ctx context.Context, planID uint) (*models.SubscriptionPlan, error)

	GetStats(ctx context.Context) (*models.Stats, error)

	// Чернетки анкети (redis)
	SaveDraft(ctx context.Context, userID int64, draft *models.ProfileDraft) error
	GetDraft(ctx context.Context, userID int64) (*models.ProfileDraft, error)
	ClearDraft(ctx context.Context, userID int64) error

	// Події сесій (redis pub/sub)
	PublishEvent(ctx context.Context, event models.SessionEvent) error
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	now   func() time.Time
}

// NewStorageService Constructor. rdb може бути nil для утиліт, яким потрібен лише PostgreSQL.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		now:   time.Now,
	}
}

// AutoMigrate створює або оновлює всі таблиці бота.
func (s *Service) AutoMigrate() error {
	return s.DB.AutoMigrate(
		&models.Profile{},
		&models.ChatSession{},
		&models.Message{},
		&models.SubscriptionPlan{},
	)
}

// GetProfile повертає ErrNotFound, якщо користувач ще не заповнив анкету.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	var p models.Profile
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return &p, nil
}

// UpsertProfile перезаписує всі поля анкети та робить профіль активним.
// Преміум і created_at при повторній анкеті не змінюються.
func (s *Service) UpsertProfile(ctx context.Context, userID int64, f models.ProfileFields) (*models.Profile, error) {
	now := s.now()
	p := models.Profile{
		UserID:        userID,
		Username:      f.Username,
		DisplayName:   f.DisplayName,
		Gender:        f.Gender,
		Age:           f.Age,
		FavoriteGame:  f.FavoriteGame,
		FavoriteMovie: f.FavoriteMovie,
		FavoriteMusic: f.FavoriteMusic,
		LanguageCode:  f.LanguageCode,
		IsActive:      true,
		CreatedAt:     now,
		LastActive:    now,
	}

	if err := s.DB.WithContext(ctx).Clauses(profileUpsertClause()).Create(&p).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return s.GetProfile(ctx, userID)
}

// IsPremiumActive повертає false для невідомих користувачів.
func (s *Service) IsPremiumActive(ctx context.Context, userID int64) (bool, error) {
	p, err := s.GetProfile(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.PremiumActive(s.now()), nil
}

// ActivatePremium встановлює термін дії now+duration. Повторна покупка
// рахується від поточного моменту, залишок не додається.
func (s *Service) ActivatePremium(ctx context.Context, userID int64, duration time.Duration) (time.Time, error) {
	expiresAt := s.now().Add(duration)
	res := s.DB.WithContext(ctx).Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"is_premium":         true,
			"premium_expires_at": expiresAt,
		})
	if res.Error != nil {
		return time.Time{}, WrapDBError(res.Error)
	}
	if res.RowsAffected == 0 {
		return time.Time{}, ErrNotFound
	}
	return expiresAt, nil
}

// SetProfileActive перемикає прапорець м'якого видалення.
func (s *Service) SetProfileActive(ctx context.Context, userID int64, active bool) error {
	res := s.DB.WithContext(ctx).Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("is_active", active)
	if res.Error != nil {
		return WrapDBError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListActiveProfileIDs повертає всіх отримувачів розсилки.
func (s *Service) ListActiveProfileIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.DB.WithContext(ctx).Model(&models.Profile{}).
		Where("is_active = ?", true).
		Order("user_id").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return ids, nil
}

// ListMatchCandidates повертає випадкову вибірку активних профілів, крім
// самого користувача, які не беруть участі в активній сесії. Непорожній
// gender обмежує вибірку саме цим значенням.
func (s *Service) ListMatchCandidates(ctx context.Context, requesterID int64, gender string) ([]models.Profile, error) {
	var candidates []models.Profile
	if err := candidatesQuery(s.DB.WithContext(ctx), requesterID, gender).Find(&candidates).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return candidates, nil
}

// CreateSession додає активну сесію. Повертає ErrConflict, якщо хтось
// із двох користувачів уже є в активній сесії.
func (s *Service) CreateSession(ctx context.Context, user1ID, user2ID int64) (*models.ChatSession, error) {
	session := &models.ChatSession{
		User1ID:   user1ID,
		User2ID:   user2ID,
		StartedAt: s.now(),
		IsActive:  true,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var busy int64
		if err := busySessionsQuery(tx, user1ID, user2ID).Count(&busy).Error; err != nil {
			return err
		}
		if busy > 0 {
			return ErrConflict
		}
		return tx.Create(session).Error
	})
	if err != nil {
		return nil, WrapDBError(err)
	}
	return session, nil
}

// EndSession закриває сесію, встановлюючи IsActive = false та EndedAt.
// Повторне закриття нічого не змінює.
func (s *Service) EndSession(ctx context.Context, sessionID uint) error {
	err := s.DB.WithContext(ctx).Model(&models.ChatSession{}).
		Where("session_id = ? AND is_active = ?", sessionID, true).
		Updates(map[string]interface{}{
			"is_active": false,
			"ended_at":  s.now(),
		}).Error
	return WrapDBError(err)
}

// GetActiveSessionForUser знаходить активну сесію, в якій бере участь користувач.
// Повертає ErrNotFound, якщо такої немає.
func (s *Service) GetActiveSessionForUser(ctx context.Context, userID int64) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Where("(user1_id = ? OR user2_id = ?)", userID, userID). // користувач є User1ID АБО User2ID
		Order("session_id DESC").
		First(&session).Error
	if err != nil {
		return nil, WrapDBError(err)
	}
	return &session, nil
}

// ListActiveSessions повертає активні сесії, найстаріші першими.
func (s *Service) ListActiveSessions(ctx context.Context) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	if err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("session_id ASC").
		Find(&sessions).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return sessions, nil
}

// AppendMessage зберігає повідомлення в активній сесії між sender і receiver
// (у будь-якому порядку). Якщо активної сесії немає, повертає false і нічого не пише.
func (s *Service) AppendMessage(ctx context.Context, senderID, receiverID int64, text string) (bool, error) {
	var session models.ChatSession
	err := activePairQuery(s.DB.WithContext(ctx), senderID, receiverID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil // Не знайдено, пара вже не спілкується
	}
	if err != nil {
		return false, WrapDBError(err)
	}

	msg := &models.Message{
		SessionID:   session.SessionID,
		SenderID:    senderID,
		MessageText: text,
		SentAt:      s.now(),
	}
	if err := s.DB.WithContext(ctx).Create(msg).Error; err != nil {
		return false, WrapDBError(err)
	}
	return true, nil
}

// SeedPlans додає статичний прайс-лист. Наявні рядки не змінюються.
func (s *Service) SeedPlans(ctx context.Context) error {
	for _, seed := range config.SubscriptionPlans {
		plan := models.SubscriptionPlan{
			ID:           seed.ID,
			Name:         seed.Name,
			DurationDays: seed.DurationDays,
			Price:        seed.Price,
			Description:  seed.Description,
			Benefits:     config.PremiumBenefits,
		}
		var row models.SubscriptionPlan
		if err := s.DB.WithContext(ctx).
			Where(models.SubscriptionPlan{ID: seed.ID}).
			Attrs(plan).
			FirstOrCreate(&row).Error; err != nil {
			return WrapDBError(err)
		}
	}
	return nil
}

func (s *Service) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	if err := s.DB.WithContext(ctx).Order("id ASC").Find(&plans).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return plans, nil
}

func (s *Service) GetPlan(ctx context.Context, planID uint) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := s.DB.WithContext(ctx).Where("id = ?", planID).First(&plan).Error; err != nil {
		return nil, WrapDBError(err)
	}
	return &plan, nil
}

// GetStats рахує користувачів, сесії та повідомлення. PendingMatches заповнює
// викликач, бо черга очікування живе в пам'яті.
func (s *Service) GetStats(ctx context.Context) (*models.Stats, error) {
	db := s.DB.WithContext(ctx)
	stats := &models.Stats{}

	counts := []struct {
		dst   *int64
		model interface{}
		where []interface{}
	}{
		{&stats.TotalUsers, &models.Profile{}, nil},
		{&stats.MaleUsers, &models.Profile{}, []interface{}{"gender = ?", models.GenderMale}},
		{&stats.FemaleUsers, &models.Profile{}, []interface{}{"gender = ?", models.GenderFemale}},
		{&stats.PremiumUsers, &models.Profile{}, []interface{}{"is_premium = ? AND premium_expires_at > ?", true, s.now()}},
		{&stats.ActiveSessions, &models.ChatSession{}, []interface{}{"is_active = ?", true}},
		{&stats.TotalMessages, &models.Message{}, nil},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if len(c.where) > 0 {
			q = q.Where(c.where[0], c.where[1:]...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, WrapDBError(err)
		}
	}

	if stats.TotalUsers > 0 {
		stats.PremiumRate = float64(stats.PremiumUsers) / float64(stats.TotalUsers) * 100
	}
	return stats, nil
}
