package models

import (
	"strconv"
	"strings"
)

// FieldKind tags how a free-text answer was interpreted.
type FieldKind int

const (
	// FieldSkipped means the user typed "skip" (or nothing) and the default applies.
	FieldSkipped FieldKind = iota
	// FieldRecognized means the answer matched a known variant and was canonicalised.
	FieldRecognized
	// FieldFreeform means the answer is stored as typed (trimmed).
	FieldFreeform
)

const (
	GenderMale   = "Male"
	GenderFemale = "Female"

	NotSpecified  = "Not specified"
	AnonymousName = "Anonymous"

	skipKeyword = "skip"
)

// FieldValue is the normalized answer to one onboarding prompt.
type FieldValue struct {
	Kind  FieldKind
	Value string
}

// String returns the text to persist.
func (v FieldValue) String() string { return v.Value }

func isSkip(s string) bool {
	return s == "" || strings.EqualFold(s, skipKeyword)
}

// NormalizeName accepts any text; "skip" or blank becomes Anonymous.
func NormalizeName(input string) FieldValue {
	s := strings.TrimSpace(input)
	if isSkip(s) {
		return FieldValue{Kind: FieldSkipped, Value: AnonymousName}
	}
	return FieldValue{Kind: FieldFreeform, Value: s}
}

// NormalizeGender maps m/male and f/female (any case) to the canonical values
// the match rules compare against. Anything else is kept as typed.
func NormalizeGender(input string) FieldValue {
	s := strings.TrimSpace(input)
	if isSkip(s) {
		return FieldValue{Kind: FieldSkipped, Value: NotSpecified}
	}
	switch strings.ToLower(s) {
	case "m", "male":
		return FieldValue{Kind: FieldRecognized, Value: GenderMale}
	case "f", "female":
		return FieldValue{Kind: FieldRecognized, Value: GenderFemale}
	}
	return FieldValue{Kind: FieldFreeform, Value: s}
}

// NormalizeAge keeps integers in canonical form and any other text verbatim.
func NormalizeAge(input string) FieldValue {
	s := strings.TrimSpace(input)
	if isSkip(s) {
		return FieldValue{Kind: FieldSkipped, Value: NotSpecified}
	}
	if n, err := strconv.Atoi(s); err == nil {
		return FieldValue{Kind: FieldRecognized, Value: strconv.Itoa(n)}
	}
	return FieldValue{Kind: FieldFreeform, Value: s}
}

// NormalizeFavorite is used for game, movie and music. Blank input is not
// accepted (ok == false) and the caller re-prompts.
func NormalizeFavorite(input string) (v FieldValue, ok bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return FieldValue{}, false
	}
	if strings.EqualFold(s, skipKeyword) {
		return FieldValue{Kind: FieldSkipped, Value: NotSpecified}, true
	}
	return FieldValue{Kind: FieldFreeform, Value: s}, true
}
