package telegram

import (
	"context"
	"strings"

	"anonmatch/backend/internal/localization"

	"go.uber.org/zap"
)

// requireAdmin replies with a refusal and returns false for non-admins.
func (s *BotService) requireAdmin(ctx context.Context, log *zap.SugaredLogger, userID int64, lang string) bool {
	if s.Admin.IsAdmin(userID) {
		return true
	}
	log.Infof("admin command refused for %d", userID)
	s.reply(ctx, log, userID, lang, localization.KeyAdminDenied)
	return false
}

func (s *BotService) handleAdmin(ctx context.Context, log *zap.SugaredLogger, userID int64, lang string) {
	if !s.requireAdmin(ctx, log, userID, lang) {
		return
	}
	s.reply(ctx, log, userID, lang, localization.KeyAdminPanel)
}

func (s *BotService) handleStats(ctx context.Context, log *zap.SugaredLogger, userID int64, lang string) {
	if !s.requireAdmin(ctx, log, userID, lang) {
		return
	}

	stats, err := s.Hub.Stats(ctx)
	if err != nil {
		s.fail(ctx, log, userID, lang, err)
		return
	}
	text := s.Localizer.Format(lang, localization.KeyAdminStats,
		stats.TotalUsers,
		stats.MaleUsers,
		stats.FemaleUsers,
		stats.PremiumUsers,
		stats.ActiveSessions,
		stats.TotalMessages,
		stats.PendingMatches,
		stats.PremiumRate,
	)
	s.send(ctx, log, userID, text, nil)
}

func (s *BotService) handleBroadcast(ctx context.Context, log *zap.SugaredLogger, userID int64, lang, args string) {
	if !s.requireAdmin(ctx, log, userID, lang) {
		return
	}

	text := strings.TrimSpace(args)
	if text == "" {
		s.reply(ctx, log, userID, lang, localization.KeyBroadcastUsage)
		return
	}

	report, err := s.Broadcaster.Run(ctx, text)
	if err != nil {
		s.fail(ctx, log, userID, lang, err)
		return
	}
	s.send(ctx, log, userID, s.Localizer.Format(lang, localization.KeyBroadcastDone, report.Sent, report.Failed), nil)
}
