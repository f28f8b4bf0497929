// Package telegram handles the integration with the Telegram Bot API.
// It is responsible for receiving updates from Telegram, processing them,
// and communicating with the central chat hub.
package telegram

import (
	"context"
	"errors"
	"sync"
	"time"

	"anonmatch/backend/internal/broadcast"
	"anonmatch/backend/internal/chathub"
	"anonmatch/backend/internal/config"
	"anonmatch/backend/internal/localization"
	"anonmatch/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Broadcaster runs an admin announcement.
type Broadcaster interface {
	Run(ctx context.Context, text string) (*broadcast.Report, error)
}

// BotService is responsible for receiving Telegram updates and routing them to the hub.
type BotService struct {
	BotAPI      API
	Sender      chathub.Sender
	Hub         *chathub.ManagerService
	Matcher     *chathub.MatcherService
	Storage     storage.Storage
	Localizer   *localization.Localizer
	Broadcaster Broadcaster
	Admin       config.AdminConfig

	log *zap.SugaredLogger
	now func() time.Time
	wg  sync.WaitGroup
}

// NewBotService creates a new BotService instance.
func NewBotService(
	api API,
	sender chathub.Sender,
	hub *chathub.ManagerService,
	matcher *chathub.MatcherService,
	s storage.Storage,
	localizer *localization.Localizer,
	broadcaster Broadcaster,
	admin config.AdminConfig,
	log *zap.SugaredLogger,
) *BotService {
	if log == nil {
		log = zap.S()
	}
	return &BotService{
		BotAPI:      api,
		Sender:      sender,
		Hub:         hub,
		Matcher:     matcher,
		Storage:     s,
		Localizer:   localizer,
		Broadcaster: broadcaster,
		Admin:       admin,
		log:         log,
		now:         time.Now,
	}
}

// HubNotices builds the hub's notices from the default language.
func HubNotices(l *localization.Localizer) chathub.Notices {
	lang := localization.DefaultLanguage
	return chathub.Notices{
		MatchFound:         l.GetString(lang, localization.KeyMatchFound),
		PartnerLeft:        l.GetString(lang, localization.KeyPartnerLeft),
		PartnerUnavailable: l.GetString(lang, localization.KeyPartnerUnavailable),
		Searching:          l.GetString(lang, localization.KeySearching),
	}
}

// Run is the main loop for receiving Telegram updates. Every update is
// handled in its own goroutine; Run returns once ctx is done or updates is
// closed and all in-flight handlers have finished.
func (s *BotService) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer s.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer s.wg.Done()
				s.HandleUpdate(ctx, u)
			}(update)
		}
	}
}

// HandleUpdate dispatches one update.
func (s *BotService) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	log := s.log.With("update_id", update.UpdateID, "correlation_id", uuid.NewString())
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("ERROR: panic while handling update: %v", r)
		}
	}()

	switch {
	case update.Message != nil && update.Message.From != nil:
		if update.Message.IsCommand() {
			s.handleCommand(ctx, log, update.Message)
			return
		}
		if update.Message.Text != "" {
			s.handleText(ctx, log, update.Message)
		}
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		s.handleCallbackQuery(ctx, log, update.CallbackQuery)
	}
}

func (s *BotService) handleCommand(ctx context.Context, log *zap.SugaredLogger, msg *tgbotapi.Message) {
	userID := msg.From.ID
	lang := msg.From.LanguageCode

	switch msg.Command() {
	case "start":
		s.handleStart(ctx, log, userID, lang)
	case "menu":
		s.reply(ctx, log, userID, lang, localization.KeyMenu)
	case "help":
		s.reply(ctx, log, userID, lang, localization.KeyHelp)
	case "createprofile":
		s.handleCreateProfile(ctx, log, userID, lang)
	case "profile":
		s.handleShowProfile(ctx, log, userID, lang)
	case "search", "findmatch":
		s.handleSearch(ctx, log, userID, lang)
	case "activechat":
		s.handleActiveChat(ctx, log, userID, lang)
	case "stopchat":
		s.handleStopChat(ctx, log, userID, lang)
	case "premium":
		s.handlePremium(ctx, log, userID, lang)
	case "admin":
		s.handleAdmin(ctx, log, userID, lang)
	case "stats":
		s.handleStats(ctx, log, userID, lang)
	case "broadcast":
		s.handleBroadcast(ctx, log, userID, lang, msg.CommandArguments())
	default:
		s.reply(ctx, log, userID, lang, localization.KeyUnknownCommand)
	}
}

func (s *BotService) handleStart(ctx context.Context, log *zap.SugaredLogger, userID int64, lang string) {
	_, err := s.Storage.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.reply(ctx, log, userID, lang, localization.KeyWelcome)
	case err != nil:
		s.fail(ctx, log, userID, lang, err)
	default:
		s.reply(ctx, log, userID, lang, localization.KeyMenu)
	}
}

// handleText relays text while paired; otherwise it feeds the onboarding flow.
func (s *BotService) handleText(ctx context.Context, log *zap.SugaredLogger, msg *tgbotapi.Message) {
	userID := msg.From.ID
	lang := msg.From.LanguageCode

	if s.Hub.IsPaired(userID) {
		err := s.Hub.Relay(ctx, userID, msg.Text)
		switch {
		case err == nil, errors.Is(err, chathub.ErrRecipientUnreachable):
			return
		case errors.Is(err, chathub.ErrNotPaired):
			// Session ended concurrently; treat the text as unpaired input.
		default:
			s.fail(ctx, log, userID, lang, err)
			return
		}
	}

	s.handleProfileStep(ctx, log, msg)
}

func (s *BotService) handleSearch(ctx context.Context, log *zap.SugaredLogger, userID int64, lang string) {
	_, err := s.Matcher.RequestMatch(ctx, userID)
	switch {
	case err == nil:
		// The hub already told the user whether they are paired or waiting.
	case errors.Is(err, chathub.ErrProfileNotFound):
		s.reply(ctx, log, userID, lang, localization.KeySearchNeedProfile)
	case errors.Is(err, chathub.ErrAlreadyPaired):
		s.reply(ctx, log, userID, lang, localization.KeySearchAlreadyChatting)
	default:
		s.fail(ctx, log, userID, lang, err)
	}
}

// handleActiveChat reports the in-memory pairing. The start time comes from
// the persisted session and is left out when the row does not match.
func (s *BotService) handleActiveChat(ctx context.Context, log *zap.SugaredLogger, userID int64, lang string) {
	partnerID, paired := s.Hub.PartnerOf(userID)
	if !paired {
		s.reply(ctx, log, userID, lang, localization.KeyNoActiveChat)
		return
	}

	text := s.Localizer.GetString(lang, localization.KeyActiveChat)
	session, err := s.Storage.GetActiveSessionForUser(ctx, userID)
	switch {
	case err != nil:
		log.Warnf("no persisted session for paired user %d: %v", userID, err)
	case session.PartnerOf(userID) != partnerID:
		log.Warnf("persisted session %d of %d does not match partner %d", session.SessionID, userID, partnerID)
	default:
		text += "\n\n" + s.Localizer.Format(lang, localization.KeyActiveChatSince, session.StartedAt.Format(expiryLayout))
	}
	s.send(ctx, log, userID, text, nil)
}

func (s *BotService) handleStopChat(ctx context.Context, log *zap.SugaredLogger, userID int64, lang string) {
	err := s.Hub.EndSession(ctx, userID)
	switch {
	case err == nil:
		s.reply(ctx, log, userID, lang, localization.KeyChatEnded)
	case errors.Is(err, chathub.ErrNotPaired):
		s.reply(ctx, log, userID, lang, localization.KeyNotInChat)
	default:
		s.fail(ctx, log, userID, lang, err)
	}
}

// reply sends a localized text to userID.
func (s *BotService) reply(ctx context.Context, log *zap.SugaredLogger, userID int64, lang, key string) {
	s.send(ctx, log, userID, s.Localizer.GetString(lang, key), nil)
}

func (s *BotService) send(ctx context.Context, log *zap.SugaredLogger, userID int64, text string, keyboard [][]chathub.Button) {
	if err := s.Sender.Send(ctx, userID, text, keyboard); err != nil {
		log.Warnf("failed to send reply to %d: %v", userID, err)
	}
}

// fail logs an operational error and shows the user a short notice.
func (s *BotService) fail(ctx context.Context, log *zap.SugaredLogger, userID int64, lang string, err error) {
	if errors.Is(err, storage.ErrStorage) {
		log.Errorf("ERROR: storage failure for user %d: %v", userID, err)
	} else {
		log.Warnf("request from %d failed: %v", userID, err)
	}
	s.reply(ctx, log, userID, lang, localization.KeyGenericError)
}
