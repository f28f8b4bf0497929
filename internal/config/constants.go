package config

import "time"

const (
	// Matching
	CandidateSampleSize   = 20
	MatchRaceRetries      = 3
	RelayMessagePrefix    = "💬 Anonymous: "
	BroadcastMessageTitle = "📢 Admin Announcement\n\n"

	// Onboarding
	ProfileDraftTTL = time.Hour

	// Redis keys
	ProfileDraftKeyPrefix = "profile_draft:"
	EventsChannel         = "anonmatch:events"

	// Admin tokens
	AdminTokenIssuer = "anonmatch-admin"
	AdminRole        = "admin"
)

// PlanSeed is one row of the static subscription price list.
type PlanSeed struct {
	ID           uint
	Name         string
	DurationDays int
	Price        float64
	Description  string
}

// SubscriptionPlans is seeded into the database once at startup.
var SubscriptionPlans = []PlanSeed{
	{ID: 1, Name: "Weekly Premium", DurationDays: 7, Price: 4.99, Description: "Chat with all users for 1 week"},
	{ID: 2, Name: "Monthly Premium", DurationDays: 30, Price: 14.99, Description: "Chat with all users for 1 month"},
	{ID: 3, Name: "Yearly Premium", DurationDays: 365, Price: 99.99, Description: "Chat with all users for 1 year"},
}

// PremiumBenefits is stored on every seeded plan.
var PremiumBenefits = []string{
	"Chat with all users",
	"Unlimited matches",
	"Priority matching",
}
