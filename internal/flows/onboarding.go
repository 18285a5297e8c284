package flows

import (
	"regexp"

	"github.com/pulseward/pulseward/internal/intake"
)

// fullNameRe requires at least two whitespace-separated words.
var fullNameRe = regexp.MustCompile(`^\S+(\s+\S+)+$`)

// Onboarding collects the participant's profile on day one: identity,
// contact details, and basic anthropometrics.
func Onboarding() *intake.Graph {
	return &intake.Graph{
		Type:     TypeOnboarding,
		Title:    "Welcome questionnaire",
		Advisory: true,
		Summary:  "Welcome questionnaire",
		DoneText: "Profile saved. Welcome to the program!",
		Steps: []intake.Step{
			{ID: "full_name", Prompt: "Your full name (first and last):",
				Check: intake.Pattern(fullNameRe, "Please enter your full name, first and last.")},
			{ID: "phone", Prompt: "Contact phone number (e.g. +49 151 1234567):",
				Check: intake.Phone()},
			{ID: "contact_handle", Prompt: "Your messenger handle (without @):",
				Check: intake.FreeText(2)},
			{ID: "age", Prompt: "Age (full years):",
				Check: intake.IntRange(12, 120)},
			{ID: "gender", Prompt: "Gender:",
				Options: []string{"Female", "Male"},
				Check:   intake.OneOf("Female", "Male")},
			{ID: "height", Prompt: "Height (in cm, 120-250):",
				Check: intake.IntRange(120, 250)},
			{ID: "weight", Prompt: "Weight (in kg, 30-300):",
				Check: intake.IntRange(30, 300)},
		},
	}
}
