package models

// Onboarding steps, in prompt order.
const (
	StepName          = "name"
	StepGender        = "gender"
	StepAge           = "age"
	StepFavoriteGame  = "favorite_game"
	StepFavoriteMovie = "favorite_movie"
	StepFavoriteMusic = "favorite_music"
)

// OnboardingSteps lists the steps of /createprofile in order.
var OnboardingSteps = []string{
	StepName,
	StepGender,
	StepAge,
	StepFavoriteGame,
	StepFavoriteMovie,
	StepFavoriteMusic,
}

// NextStep returns the step after current, or "" when current is the last one.
func NextStep(current string) string {
	for i, s := range OnboardingSteps {
		if s == current && i+1 < len(OnboardingSteps) {
			return OnboardingSteps[i+1]
		}
	}
	return ""
}

// ProfileDraft holds the answers collected so far during /createprofile.
// Answers is keyed by step name.
type ProfileDraft struct {
	Step    string
	Answers map[string]string
}

// Fields converts a finished draft into profile fields.
func (d *ProfileDraft) Fields() ProfileFields {
	return ProfileFields{
		DisplayName:   d.Answers[StepName],
		Gender:        d.Answers[StepGender],
		Age:           d.Answers[StepAge],
		FavoriteGame:  d.Answers[StepFavoriteGame],
		FavoriteMovie: d.Answers[StepFavoriteMovie],
		FavoriteMusic: d.Answers[StepFavoriteMusic],
	}
}
