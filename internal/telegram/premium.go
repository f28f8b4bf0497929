package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"anonmatch/backend/internal/chathub"
	"anonmatch/backend/internal/localization"
	"anonmatch/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	premiumCallbackPrefix = "premium_"
	expiryLayout          = "2006-01-02 15:04"
)

// handlePremium shows the current premium status, or the plan list as
// inline buttons when premium is not active.
func (s *BotService) handlePremium(ctx context.Context, log *zap.SugaredLogger, userID int64, lang string) {
	active, err := s.Storage.IsPremiumActive(ctx, userID)
	if err != nil {
		s.fail(ctx, log, userID, lang, err)
		return
	}

	if active {
		p, err := s.Storage.GetProfile(ctx, userID)
		if err != nil {
			s.fail(ctx, log, userID, lang, err)
			return
		}
		text := s.Localizer.Format(lang, localization.KeyPremiumActive, p.PremiumExpiresAt.Format(expiryLayout))
		s.send(ctx, log, userID, text, nil)
		return
	}

	plans, err := s.Storage.ListPlans(ctx)
	if err != nil {
		s.fail(ctx, log, userID, lang, err)
		return
	}
	keyboard := make([][]chathub.Button, 0, len(plans))
	for _, plan := range plans {
		keyboard = append(keyboard, []chathub.Button{{
			Label:   s.Localizer.Format(lang, localization.KeyPremiumPlanButton, plan.Name, plan.Price),
			Payload: planPayload(plan.ID),
		}})
	}
	s.send(ctx, log, userID, s.Localizer.GetString(lang, localization.KeyPremiumOffer), keyboard)
}

func (s *BotService) handleCallbackQuery(ctx context.Context, log *zap.SugaredLogger, query *tgbotapi.CallbackQuery) {
	// Respond to the callback query to remove the "loading" state
	if _, err := s.BotAPI.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Warnf("failed to send callback response: %v", err)
	}

	if strings.HasPrefix(query.Data, premiumCallbackPrefix) {
		s.handlePremiumPurchase(ctx, log, query)
		return
	}
	log.Debugf("ignoring unknown callback payload %q", query.Data)
}

// handlePremiumPurchase activates the selected plan. Payment is simulated.
func (s *BotService) handlePremiumPurchase(ctx context.Context, log *zap.SugaredLogger, query *tgbotapi.CallbackQuery) {
	userID := query.From.ID
	lang := query.From.LanguageCode

	planID, err := strconv.ParseUint(strings.TrimPrefix(query.Data, premiumCallbackPrefix), 10, 64)
	if err != nil {
		s.answerQuery(ctx, log, query, s.Localizer.GetString(lang, localization.KeyPremiumInvalidPlan))
		return
	}

	plan, err := s.Storage.GetPlan(ctx, uint(planID))
	if errors.Is(err, storage.ErrNotFound) {
		s.answerQuery(ctx, log, query, s.Localizer.GetString(lang, localization.KeyPremiumInvalidPlan))
		return
	}
	if err != nil {
		s.fail(ctx, log, userID, lang, err)
		return
	}

	expiresAt, err := s.Storage.ActivatePremium(ctx, userID, plan.Duration())
	if errors.Is(err, storage.ErrNotFound) {
		s.reply(ctx, log, userID, lang, localization.KeySearchNeedProfile)
		return
	}
	if err != nil {
		s.fail(ctx, log, userID, lang, err)
		return
	}

	log.Infof("Premium plan %d activated for %d until %s", plan.ID, userID, expiresAt.Format(expiryLayout))
	s.answerQuery(ctx, log, query, s.Localizer.Format(lang, localization.KeyPremiumPurchased,
		plan.Name, plan.Price, plan.DurationDays))
}

// answerQuery replies to the user who pressed the button.
func (s *BotService) answerQuery(ctx context.Context, log *zap.SugaredLogger, query *tgbotapi.CallbackQuery, text string) {
	s.send(ctx, log, query.From.ID, text, nil)
}

// planPayload is the callback data of a plan button.
func planPayload(planID uint) string {
	return fmt.Sprintf("%s%d", premiumCallbackPrefix, planID)
}
