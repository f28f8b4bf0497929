package telegram

import (
	"context"
	"errors"

	"anonmatch/backend/internal/localization"
	"anonmatch/backend/internal/models"
	"anonmatch/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// handleCreateProfile starts (or restarts) the six step onboarding flow.
func (s *BotService) handleCreateProfile(ctx context.Context, log *zap.SugaredLogger, userID int64, lang string) {
	draft := &models.ProfileDraft{Step: models.OnboardingSteps[0], Answers: map[string]string{}}
	if err := s.Storage.SaveDraft(ctx, userID, draft); err != nil {
		s.fail(ctx, log, userID, lang, err)
		return
	}
	s.reply(ctx, log, userID, lang, localization.KeyProfileIntro)
}

// handleProfileStep records one onboarding answer. Text from users who are
// not onboarding is ignored.
func (s *BotService) handleProfileStep(ctx context.Context, log *zap.SugaredLogger, msg *tgbotapi.Message) {
	userID := msg.From.ID
	lang := msg.From.LanguageCode

	draft, err := s.Storage.GetDraft(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		log.Debugf("ignoring text from %d: not chatting and not onboarding", userID)
		return
	}
	if err != nil {
		s.fail(ctx, log, userID, lang, err)
		return
	}
	if draft.Answers == nil {
		draft.Answers = map[string]string{}
	}

	value, ok := normalizeStep(draft.Step, msg.Text)
	if !ok {
		s.reply(ctx, log, userID, lang, localization.RepromptKey(draft.Step))
		return
	}
	draft.Answers[draft.Step] = value.String()

	next := models.NextStep(draft.Step)
	if next == "" {
		s.finalizeProfile(ctx, log, msg.From, draft)
		return
	}

	draft.Step = next
	if err := s.Storage.SaveDraft(ctx, userID, draft); err != nil {
		s.fail(ctx, log, userID, lang, err)
		return
	}
	s.reply(ctx, log, userID, lang, localization.StepKey(next))
}

// normalizeStep applies the field rule of step. ok is false when the answer
// must be asked again.
func normalizeStep(step, input string) (models.FieldValue, bool) {
	switch step {
	case models.StepName:
		return models.NormalizeName(input), true
	case models.StepGender:
		return models.NormalizeGender(input), true
	case models.StepAge:
		return models.NormalizeAge(input), true
	default:
		return models.NormalizeFavorite(input)
	}
}

func (s *BotService) finalizeProfile(ctx context.Context, log *zap.SugaredLogger, from *tgbotapi.User, draft *models.ProfileDraft) {
	fields := draft.Fields()
	fields.Username = from.UserName
	fields.LanguageCode = from.LanguageCode

	if _, err := s.Storage.UpsertProfile(ctx, from.ID, fields); err != nil {
		s.fail(ctx, log, from.ID, from.LanguageCode, err)
		return
	}
	if err := s.Storage.ClearDraft(ctx, from.ID); err != nil {
		log.Warnf("failed to clear profile draft of %d: %v", from.ID, err)
	}

	log.Infof("Profile saved for user %d", from.ID)
	s.reply(ctx, log, from.ID, from.LanguageCode, localization.KeyProfileCreated)
	s.reply(ctx, log, from.ID, from.LanguageCode, localization.KeyMenu)
}

func (s *BotService) handleShowProfile(ctx context.Context, log *zap.SugaredLogger, userID int64, lang string) {
	p, err := s.Storage.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		s.reply(ctx, log, userID, lang, localization.KeyProfileMissing)
		return
	}
	if err != nil {
		s.fail(ctx, log, userID, lang, err)
		return
	}

	notSet := s.Localizer.GetString(lang, localization.KeyProfileNotSet)
	orNotSet := func(v string) string {
		if v == "" {
			return notSet
		}
		return v
	}

	status := s.Localizer.GetString(lang, localization.KeyStatusFree)
	if p.PremiumActive(s.now()) {
		status = s.Localizer.GetString(lang, localization.KeyStatusPremium)
	}

	text := s.Localizer.Format(lang, localization.KeyProfileView,
		orNotSet(p.DisplayName),
		orNotSet(p.Gender),
		orNotSet(p.Age),
		orNotSet(p.FavoriteGame),
		orNotSet(p.FavoriteMovie),
		orNotSet(p.FavoriteMusic),
		status,
		p.CreatedAt.Format(dateLayout),
	)
	s.send(ctx, log, userID, text, nil)
}
