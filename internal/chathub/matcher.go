package chathub

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"anonmatch/backend/internal/config"
	"anonmatch/backend/internal/models"
	"anonmatch/backend/internal/storage"

	"go.uber.org/zap"
)

// MatchPolicy is the set of candidates a requester may be paired with.
type MatchPolicy int

const (
	// PolicyNone never yields a candidate.
	PolicyNone MatchPolicy = iota
	// PolicyMaleOnly restricts candidates to gender exactly "Male".
	PolicyMaleOnly
	// PolicyAny accepts every eligible candidate.
	PolicyAny
)

// PolicyFor applies the premium gate: premium users match anyone, free users
// with gender "Male" match only "Male", every other free user matches nobody.
func PolicyFor(requester *models.Profile, now time.Time) MatchPolicy {
	switch {
	case requester.PremiumActive(now):
		return PolicyAny
	case requester.Gender == models.GenderMale:
		return PolicyMaleOnly
	default:
		return PolicyNone
	}
}

// Allows reports whether candidate passes the policy's gender filter.
func (p MatchPolicy) Allows(candidate models.Profile) bool {
	switch p {
	case PolicyAny:
		return true
	case PolicyMaleOnly:
		return candidate.Gender == models.GenderMale
	default:
		return false
	}
}

// MatchResult is the outcome of a search request.
type MatchResult struct {
	Paired    bool
	PartnerID int64
	Session   *models.ChatSession
}

// MatcherService підбирає партнерів для запитів на пошук.
type MatcherService struct {
	Hub     *ManagerService
	Storage storage.Storage

	log  *zap.SugaredLogger
	now  func() time.Time
	pick func(n int) int
}

// NewMatcherService створює матчер і реєструє його як Searcher хабу.
func NewMatcherService(hub *ManagerService, s storage.Storage, log *zap.SugaredLogger) *MatcherService {
	if log == nil {
		log = zap.S()
	}
	m := &MatcherService{
		Hub:     hub,
		Storage: s,
		log:     log,
		now:     time.Now,
		pick:    rand.IntN,
	}
	hub.SetSearcher(m)
	return m
}

// FindCandidate повертає одного рівномірно обраного партнера для requester.
// ok == false (без помилки), якщо зараз нікого підходящого немає.
func (m *MatcherService) FindCandidate(ctx context.Context, requester *models.Profile) (candidateID int64, ok bool, err error) {
	policy := PolicyFor(requester, m.now())
	if policy == PolicyNone {
		return 0, false, nil
	}

	gender := ""
	if policy == PolicyMaleOnly {
		gender = models.GenderMale
	}
	candidates, err := m.Storage.ListMatchCandidates(ctx, requester.UserID, gender)
	if err != nil {
		return 0, false, err
	}

	eligible := make([]models.Profile, 0, len(candidates))
	for _, c := range candidates {
		if c.UserID != requester.UserID && c.IsActive && policy.Allows(c) {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return 0, false, nil
	}
	return eligible[m.pick(len(eligible))].UserID, true, nil
}

// RequestMatch з'єднує userID з підходящим кандидатом або ставить його в
// чергу очікування, якщо кандидатів немає. Якщо кандидата перехопив
// паралельний запит, пошук повторюється обмежену кількість разів.
func (m *MatcherService) RequestMatch(ctx context.Context, userID int64) (*MatchResult, error) {
	// 1. Анкета обов'язкова для пошуку
	profile, err := m.Storage.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	if m.Hub.IsPaired(userID) {
		return nil, ErrAlreadyPaired
	}

	// 2. Пошук кандидата з повторами при гонці
	for attempt := 0; attempt < config.MatchRaceRetries; attempt++ {
		candidateID, ok, err := m.FindCandidate(ctx, profile)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		session, err := m.Hub.StartSession(ctx, userID, candidateID)
		if err == nil {
			return &MatchResult{Paired: true, PartnerID: candidateID, Session: session}, nil
		}
		if !errors.Is(err, ErrAlreadyPaired) {
			return nil, err
		}
		// Можливо, нас самих уже обрав хтось інший.
		if partnerID, paired := m.Hub.PartnerOf(userID); paired {
			return &MatchResult{Paired: true, PartnerID: partnerID}, nil
		}
		m.log.Debugf("candidate %d for %d was taken, retrying", candidateID, userID)
	}

	// 3. Кандидатів немає, чекаємо в черзі
	if err := m.Hub.Park(ctx, userID); err != nil {
		if partnerID, paired := m.Hub.PartnerOf(userID); paired {
			return &MatchResult{Paired: true, PartnerID: partnerID}, nil
		}
		return nil, err
	}
	return &MatchResult{}, nil
}
