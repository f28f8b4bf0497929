// Package localization provides functionality for internationalization (i18n).
// It loads translation strings from JSON files and provides a simple way to get
// localized strings for different languages.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
)

// DefaultLanguage is used when a user's language has no translation.
const DefaultLanguage = "en"

//go:embed locales/*.json
var embedded embed.FS

// Translation keys.
const (
	KeyWelcome        = "welcome"
	KeyMenu           = "menu"
	KeyHelp           = "help"
	KeyUnknownCommand = "unknown_command"
	KeyGenericError   = "generic_error"

	KeyProfileIntro   = "profile_intro"
	KeyProfileCreated = "profile_created"
	KeyProfileMissing = "profile_missing"
	KeyProfileView    = "profile_view"
	KeyProfileNotSet  = "profile_not_set"
	KeyStatusPremium  = "status_premium"
	KeyStatusFree     = "status_free"

	KeySearchNeedProfile     = "search_need_profile"
	KeySearchAlreadyChatting = "search_already_chatting"
	KeySearching             = "searching"
	KeyMatchFound            = "match_found"
	KeyPartnerLeft           = "partner_left"
	KeyPartnerUnavailable    = "partner_unavailable"
	KeyChatEnded             = "chat_ended"
	KeyNotInChat             = "not_in_chat"
	KeyActiveChat            = "active_chat"
	KeyNoActiveChat          = "no_active_chat"
	KeyActiveChatSince       = "active_chat_since"
	KeyPremiumActive         = "premium_active"
	KeyPremiumOffer          = "premium_offer"
	KeyPremiumPlanButton     = "premium_plan_button"
	KeyPremiumInvalidPlan    = "premium_invalid_plan"
	KeyPremiumPurchased      = "premium_purchased"
	KeyAdminDenied           = "admin_denied"
	KeyAdminPanel            = "admin_panel"
	KeyAdminStats            = "admin_stats"
	KeyBroadcastUsage        = "broadcast_usage"
	KeyBroadcastDone         = "broadcast_done"
	keyProfileStepPrefix     = "profile_step_"
	keyProfileRepromptPrefix = "profile_reprompt_"
)

// StepKey is the prompt shown when the onboarding flow reaches step.
func StepKey(step string) string { return keyProfileStepPrefix + step }

// RepromptKey is the prompt repeated when step got an empty answer.
func RepromptKey(step string) string { return keyProfileRepromptPrefix + step }

// Localizer manages the translations for the application.
// It holds a map of languages, each with its own map of translation keys and values.
type Localizer struct {
	translations map[string]map[string]string
	mu           sync.RWMutex
}

// NewLocalizer loads the translations compiled into the binary.
func NewLocalizer() (*Localizer, error) {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		return nil, err
	}
	return NewLocalizerFS(sub)
}

// NewLocalizerFS loads every "<lang>.json" file at the root of fsys.
func NewLocalizerFS(fsys fs.FS) (*Localizer, error) {
	l := &Localizer{
		translations: make(map[string]map[string]string),
	}

	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read localization directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		lang := strings.TrimSuffix(file.Name(), ".json")
		data, err := fs.ReadFile(fsys, path.Join(".", file.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read localization file %s: %w", file.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse localization file %s: %w", file.Name(), err)
		}

		l.translations[lang] = translations
	}

	return l, nil
}

// GetString returns the localized string for a given key and language.
// If the language or the key is not found, it returns the key itself as a fallback.
func (l *Localizer) GetString(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if langTranslations, ok := l.translations[lang]; ok {
		if value, ok := langTranslations[key]; ok {
			return value
		}
	}

	if lang != DefaultLanguage {
		if defTranslations, ok := l.translations[DefaultLanguage]; ok {
			if value, ok := defTranslations[key]; ok {
				return value
			}
		}
	}

	return key
}

// Format looks up key and fills its fmt verbs with args.
func (l *Localizer) Format(lang, key string, args ...interface{}) string {
	return fmt.Sprintf(l.GetString(lang, key), args...)
}
