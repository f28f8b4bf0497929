package telegram

import (
	"context"
	"testing"
	"time"

	"anonmatch/backend/internal/broadcast"
	"anonmatch/backend/internal/chathub"
	"anonmatch/backend/internal/config"
	"anonmatch/backend/internal/localization"
	"anonmatch/backend/internal/mocks"
	"anonmatch/backend/internal/models"
	"anonmatch/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	adminID int64 = 1
	userA   int64 = 100
	userB   int64 = 200
)

type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) Run(ctx context.Context, text string) (*broadcast.Report, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*broadcast.Report), args.Error(1)
}

type testBot struct {
	*BotService
	storage     *mocks.MockStorage
	sender      *mocks.MockSender
	api         *MockAPI
	broadcaster *MockBroadcaster
	loc         *localization.Localizer
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()
	loc, err := localization.NewLocalizer()
	require.NoError(t, err)

	storageMock := new(mocks.MockStorage)
	senderMock := new(mocks.MockSender)
	apiMock := new(MockAPI)
	broadcasterMock := new(MockBroadcaster)
	storageMock.On("PublishEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	senderMock.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	apiMock.On("Request", mock.Anything).Return(nil).Maybe()

	log := zap.NewNop().Sugar()
	hub := chathub.NewManagerService(storageMock, senderMock, HubNotices(loc), log)
	matcher := chathub.NewMatcherService(hub, storageMock, log)
	admin := config.AdminConfig{IDs: []int64{adminID}}

	bot := NewBotService(apiMock, senderMock, hub, matcher, storageMock, loc, broadcasterMock, admin, log)
	return &testBot{BotService: bot, storage: storageMock, sender: senderMock, api: apiMock, broadcaster: broadcasterMock, loc: loc}
}

func (b *testBot) text(key string) string {
	return b.loc.GetString("en", key)
}

func command(from int64, text string) tgbotapi.Update {
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text:     text,
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
			From:     &tgbotapi.User{ID: from, LanguageCode: "en", UserName: "tester"},
			Chat:     tgbotapi.Chat{ID: from},
		},
	}
}

func textMessage(from int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: text,
			From: &tgbotapi.User{ID: from, LanguageCode: "en", UserName: "tester"},
			Chat: tgbotapi.Chat{ID: from},
		},
	}
}

func (b *testBot) pair(t *testing.T, a, c int64, sessionID uint) {
	t.Helper()
	b.storage.On("CreateSession", mock.Anything, a, c).
		Return(&models.ChatSession{SessionID: sessionID, User1ID: a, User2ID: c, IsActive: true}, nil).Once()
	_, err := b.Hub.StartSession(context.Background(), a, c)
	require.NoError(t, err)
}

func TestStart_NewUserGetsWelcome(t *testing.T) {
	// Arrange
	bot := newTestBot(t)
	bot.storage.On("GetProfile", mock.Anything, userA).Return(nil, storage.ErrNotFound)

	// Act
	bot.HandleUpdate(context.Background(), command(userA, "/start"))

	// Assert
	assert.Equal(t, []string{bot.text(localization.KeyWelcome)}, bot.sender.SentTo(userA))
}

func TestStart_ExistingUserGetsMenu(t *testing.T) {
	bot := newTestBot(t)
	bot.storage.On("GetProfile", mock.Anything, userA).Return(&models.Profile{UserID: userA}, nil)

	bot.HandleUpdate(context.Background(), command(userA, "/start"))

	assert.Equal(t, []string{bot.text(localization.KeyMenu)}, bot.sender.SentTo(userA))
}

func TestFindMatch_WithoutProfile(t *testing.T) {
	bot := newTestBot(t)
	bot.storage.On("GetProfile", mock.Anything, userA).Return(nil, storage.ErrNotFound)

	bot.HandleUpdate(context.Background(), command(userA, "/findmatch"))

	assert.Equal(t, []string{bot.text(localization.KeySearchNeedProfile)}, bot.sender.SentTo(userA))
}

func TestSearch_FreeFemaleIsParked(t *testing.T) {
	bot := newTestBot(t)
	bot.storage.On("GetProfile", mock.Anything, userA).
		Return(&models.Profile{UserID: userA, Gender: models.GenderFemale, IsActive: true}, nil)

	bot.HandleUpdate(context.Background(), command(userA, "/search"))

	assert.True(t, bot.Hub.IsWaiting(userA))
	assert.Equal(t, []string{bot.text(localization.KeySearching)}, bot.sender.SentTo(userA))
}

func TestText_WhilePairedIsRelayed(t *testing.T) {
	// Arrange
	bot := newTestBot(t)
	bot.pair(t, userA, userB, 1)
	bot.storage.On("AppendMessage", mock.Anything, userA, userB, "hey there").Return(true, nil).Once()

	// Act
	bot.HandleUpdate(context.Background(), textMessage(userA, "hey there"))

	// Assert
	assert.Contains(t, bot.sender.SentTo(userB), config.RelayMessagePrefix+"hey there")
	bot.storage.AssertExpectations(t)
	bot.storage.AssertNotCalled(t, "GetDraft", mock.Anything, mock.Anything)
}

func TestText_IdleWithoutDraftIsIgnored(t *testing.T) {
	bot := newTestBot(t)
	bot.storage.On("GetDraft", mock.Anything, userA).Return(nil, storage.ErrNotFound)

	bot.HandleUpdate(context.Background(), textMessage(userA, "hello?"))

	assert.Empty(t, bot.sender.SentTo(userA))
}

func TestCreateProfile_StartsDraft(t *testing.T) {
	bot := newTestBot(t)
	bot.storage.On("SaveDraft", mock.Anything, userA, mock.MatchedBy(func(d *models.ProfileDraft) bool {
		return d.Step == models.StepName && len(d.Answers) == 0
	})).Return(nil).Once()

	bot.HandleUpdate(context.Background(), command(userA, "/createprofile"))

	assert.Equal(t, []string{bot.text(localization.KeyProfileIntro)}, bot.sender.SentTo(userA))
	bot.storage.AssertExpectations(t)
}

func TestProfileStep_NormalizesGenderAndAdvances(t *testing.T) {
	// Arrange
	bot := newTestBot(t)
	draft := &models.ProfileDraft{Step: models.StepGender, Answers: map[string]string{models.StepName: "Sam"}}
	bot.storage.On("GetDraft", mock.Anything, userA).Return(draft, nil)
	bot.storage.On("SaveDraft", mock.Anything, userA, mock.MatchedBy(func(d *models.ProfileDraft) bool {
		return d.Step == models.StepAge && d.Answers[models.StepGender] == models.GenderMale
	})).Return(nil).Once()

	// Act
	bot.HandleUpdate(context.Background(), textMessage(userA, " M "))

	// Assert
	assert.Equal(t, []string{bot.text(localization.StepKey(models.StepAge))}, bot.sender.SentTo(userA))
	bot.storage.AssertExpectations(t)
}

func TestProfileStep_BlankFavoriteIsAskedAgain(t *testing.T) {
	bot := newTestBot(t)
	draft := &models.ProfileDraft{Step: models.StepFavoriteMovie, Answers: map[string]string{}}
	bot.storage.On("GetDraft", mock.Anything, userA).Return(draft, nil)

	bot.HandleUpdate(context.Background(), textMessage(userA, "   "))

	assert.Equal(t, []string{bot.text(localization.RepromptKey(models.StepFavoriteMovie))}, bot.sender.SentTo(userA))
	bot.storage.AssertNotCalled(t, "SaveDraft", mock.Anything, mock.Anything, mock.Anything)
}

func TestProfileStep_LastAnswerSavesProfile(t *testing.T) {
	// Arrange
	bot := newTestBot(t)
	draft := &models.ProfileDraft{Step: models.StepFavoriteMusic, Answers: map[string]string{
		models.StepName:          "Anonymous",
		models.StepGender:        models.GenderFemale,
		models.StepAge:           "27",
		models.StepFavoriteGame:  "Chess",
		models.StepFavoriteMovie: models.NotSpecified,
	}}
	bot.storage.On("GetDraft", mock.Anything, userA).Return(draft, nil)
	want := models.ProfileFields{
		Username:      "tester",
		DisplayName:   "Anonymous",
		Gender:        models.GenderFemale,
		Age:           "27",
		FavoriteGame:  "Chess",
		FavoriteMovie: models.NotSpecified,
		FavoriteMusic: "Jazz",
		LanguageCode:  "en",
	}
	bot.storage.On("UpsertProfile", mock.Anything, userA, want).Return(&models.Profile{UserID: userA}, nil).Once()
	bot.storage.On("ClearDraft", mock.Anything, userA).Return(nil).Once()

	// Act
	bot.HandleUpdate(context.Background(), textMessage(userA, "Jazz"))

	// Assert
	bot.storage.AssertExpectations(t)
	assert.Equal(t, []string{bot.text(localization.KeyProfileCreated), bot.text(localization.KeyMenu)}, bot.sender.SentTo(userA))
}

func TestShowProfile(t *testing.T) {
	bot := newTestBot(t)
	expires := time.Now().Add(time.Hour)
	bot.storage.On("GetProfile", mock.Anything, userA).Return(&models.Profile{
		UserID:           userA,
		DisplayName:      "Sam",
		Gender:           models.GenderMale,
		Age:              "30",
		IsPremium:        true,
		PremiumExpiresAt: &expires,
		CreatedAt:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil)

	bot.HandleUpdate(context.Background(), command(userA, "/profile"))

	sent := bot.sender.SentTo(userA)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Name: Sam")
	assert.Contains(t, sent[0], "Favorite Game: "+bot.text(localization.KeyProfileNotSet))
	assert.Contains(t, sent[0], bot.text(localization.KeyStatusPremium))
	assert.Contains(t, sent[0], "Member since: 2026-01-02")
}

func TestStopChat(t *testing.T) {
	bot := newTestBot(t)

	bot.HandleUpdate(context.Background(), command(userA, "/stopchat"))
	assert.Equal(t, []string{bot.text(localization.KeyNotInChat)}, bot.sender.SentTo(userA))

	bot.pair(t, userA, userB, 4)
	bot.storage.On("EndSession", mock.Anything, uint(4)).Return(nil).Once()

	bot.HandleUpdate(context.Background(), command(userA, "/stopchat"))

	assert.False(t, bot.Hub.IsPaired(userA))
	assert.Contains(t, bot.sender.SentTo(userA), bot.text(localization.KeyChatEnded))
	assert.Contains(t, bot.sender.SentTo(userB), bot.text(localization.KeyPartnerLeft))
}

func TestActiveChat(t *testing.T) {
	bot := newTestBot(t)
	bot.pair(t, userA, userB, 1)
	started := time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)
	bot.storage.On("GetActiveSessionForUser", mock.Anything, userA).
		Return(&models.ChatSession{SessionID: 1, User1ID: userA, User2ID: userB, StartedAt: started, IsActive: true}, nil)

	bot.HandleUpdate(context.Background(), command(userA, "/activechat"))
	bot.HandleUpdate(context.Background(), command(adminID, "/activechat"))

	want := bot.text(localization.KeyActiveChat) + "\n\n" +
		bot.loc.Format("en", localization.KeyActiveChatSince, "2024-03-01 18:30")
	assert.Contains(t, bot.sender.SentTo(userA), want)
	assert.Equal(t, []string{bot.text(localization.KeyNoActiveChat)}, bot.sender.SentTo(adminID))
	bot.storage.AssertNotCalled(t, "GetActiveSessionForUser", mock.Anything, adminID)
}

func TestActiveChat_PersistedSessionMismatch(t *testing.T) {
	tests := []struct {
		name    string
		session *models.ChatSession
		err     error
	}{
		{"missing row", nil, storage.ErrNotFound},
		{"other partner", &models.ChatSession{SessionID: 9, User1ID: userA, User2ID: 999, IsActive: true}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := newTestBot(t)
			bot.pair(t, userA, userB, 1)
			bot.storage.On("GetActiveSessionForUser", mock.Anything, userA).Return(tt.session, tt.err)

			bot.HandleUpdate(context.Background(), command(userA, "/activechat"))

			assert.Contains(t, bot.sender.SentTo(userA), bot.text(localization.KeyActiveChat))
		})
	}
}

func TestPremium_OfferListsPlans(t *testing.T) {
	bot := newTestBot(t)
	bot.storage.On("IsPremiumActive", mock.Anything, userA).Return(false, nil)
	bot.storage.On("ListPlans", mock.Anything).Return([]models.SubscriptionPlan{
		{ID: 1, Name: "Weekly Premium", DurationDays: 7, Price: 4.99},
		{ID: 2, Name: "Monthly Premium", DurationDays: 30, Price: 14.99},
	}, nil)

	bot.HandleUpdate(context.Background(), command(userA, "/premium"))

	sent := bot.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, bot.text(localization.KeyPremiumOffer), sent[0].Text)
	require.Len(t, sent[0].Keyboard, 2)
	assert.Equal(t, chathub.Button{Label: "Weekly Premium - $4.99", Payload: "premium_1"}, sent[0].Keyboard[0][0])
}

func TestPremiumCallback_ActivatesPlan(t *testing.T) {
	// Arrange
	bot := newTestBot(t)
	bot.storage.On("GetPlan", mock.Anything, uint(1)).
		Return(&models.SubscriptionPlan{ID: 1, Name: "Weekly Premium", DurationDays: 7, Price: 4.99}, nil)
	bot.storage.On("ActivatePremium", mock.Anything, userA, 7*24*time.Hour).
		Return(time.Now().Add(7*24*time.Hour), nil).Once()
	update := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: userA, LanguageCode: "en"},
		Data: "premium_1",
	}}

	// Act
	bot.HandleUpdate(context.Background(), update)

	// Assert
	bot.storage.AssertExpectations(t)
	bot.api.AssertCalled(t, "Request", mock.Anything)
	sent := bot.sender.SentTo(userA)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Plan: Weekly Premium")
	assert.Contains(t, sent[0], "Duration: 7 days")
}

func TestPremiumCallback_UnknownPlan(t *testing.T) {
	bot := newTestBot(t)
	bot.storage.On("GetPlan", mock.Anything, uint(9)).Return(nil, storage.ErrNotFound)
	update := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-2",
		From: &tgbotapi.User{ID: userA, LanguageCode: "en"},
		Data: "premium_9",
	}}

	bot.HandleUpdate(context.Background(), update)

	assert.Equal(t, []string{bot.text(localization.KeyPremiumInvalidPlan)}, bot.sender.SentTo(userA))
	bot.storage.AssertNotCalled(t, "ActivatePremium", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminCommands_RequireAdmin(t *testing.T) {
	bot := newTestBot(t)

	bot.HandleUpdate(context.Background(), command(userA, "/stats"))
	bot.HandleUpdate(context.Background(), command(userA, "/broadcast hello"))

	denied := bot.text(localization.KeyAdminDenied)
	assert.Equal(t, []string{denied, denied}, bot.sender.SentTo(userA))
	bot.broadcaster.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestBroadcast_ReportsTally(t *testing.T) {
	bot := newTestBot(t)
	bot.broadcaster.On("Run", mock.Anything, "Welcome to our new features!").
		Return(&broadcast.Report{Sent: 10, Failed: 2}, nil).Once()

	bot.HandleUpdate(context.Background(), command(adminID, "/broadcast Welcome to our new features!"))

	sent := bot.sender.SentTo(adminID)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Sent to: 10 users")
	assert.Contains(t, sent[0], "Failed: 2 users")
}

func TestBroadcast_WithoutText(t *testing.T) {
	bot := newTestBot(t)

	bot.HandleUpdate(context.Background(), command(adminID, "/broadcast"))

	assert.Equal(t, []string{bot.text(localization.KeyBroadcastUsage)}, bot.sender.SentTo(adminID))
}

func TestStats_IncludesPendingMatches(t *testing.T) {
	bot := newTestBot(t)
	bot.storage.On("GetStats", mock.Anything).Return(&models.Stats{
		TotalUsers: 4, MaleUsers: 2, FemaleUsers: 2, PremiumUsers: 1, PremiumRate: 25,
	}, nil)
	require.NoError(t, bot.Hub.Park(context.Background(), userB))

	bot.HandleUpdate(context.Background(), command(adminID, "/stats"))

	sent := bot.sender.SentTo(adminID)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Total Users: 4")
	assert.Contains(t, sent[0], "Pending Matches: 1")
	assert.Contains(t, sent[0], "Premium Rate: 25.0%")
}

func TestRun_StopsWhenUpdatesClosed(t *testing.T) {
	bot := newTestBot(t)
	bot.storage.On("GetProfile", mock.Anything, userA).Return(nil, storage.ErrNotFound)

	updates := make(chan tgbotapi.Update, 1)
	updates <- command(userA, "/start")
	close(updates)

	done := make(chan struct{})
	go func() {
		bot.Run(context.Background(), updates)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the updates channel closed")
	}
	assert.Equal(t, []string{bot.text(localization.KeyWelcome)}, bot.sender.SentTo(userA))
}
