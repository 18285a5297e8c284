package flows

import "github.com/pulseward/pulseward/internal/intake"

// HealthStatus asks about chronic conditions, regular medication, and
// persistent pain. Each "No" skips the matching detail question.
func HealthStatus() *intake.Graph {
	return &intake.Graph{
		Type:     TypeHealthStatus,
		Title:    "Subjective health questionnaire",
		Advisory: true,
		Summary:  "Subjective health questionnaire",
		DoneText: "Health questionnaire saved.",
		Steps: []intake.Step{
			{ID: "chronic_diseases", Prompt: "Do you have any chronic conditions?",
				Options: yesNo, Check: intake.OneOf(yesNo...),
				Branch: skipUnlessYes("chronic_diseases", "diseases_details", "medication")},
			{ID: "diseases_details", Prompt: "Which chronic conditions do you have?",
				Check: intake.FreeText(1), Next: "medication"},
			{ID: "medication", Prompt: "Do you take any medication on a regular basis?",
				Options: yesNo, Check: intake.OneOf(yesNo...),
				Branch: skipUnlessYes("medication", "medication_details", "chronic_pain")},
			{ID: "medication_details", Prompt: "Which medications do you take?",
				Check: intake.FreeText(1), Next: "chronic_pain"},
			{ID: "chronic_pain", Prompt: "Do you have persistent pain (for example back, neck, joints)?",
				Options: yesNo, Check: intake.OneOf(yesNo...),
				Branch: skipUnlessYes("chronic_pain", "pain_details", intake.StepComplete)},
			{ID: "pain_details", Prompt: "Where exactly does it hurt?",
				Check: intake.FreeText(1), Next: intake.StepComplete},
		},
	}
}

// Supplements asks whether the participant takes vitamins or supplements,
// with a detail follow-up on "Yes".
func Supplements() *intake.Graph {
	return &intake.Graph{
		Type:     TypeSupplements,
		Title:    "Supplements and vitamins questionnaire",
		Advisory: true,
		Summary:  "Supplements and vitamins questionnaire",
		DoneText: "Supplement details saved.",
		Steps: []intake.Step{
			{ID: "taking_supplements", Prompt: "Do you take vitamins or supplements regularly?",
				Options: yesNo, Check: intake.OneOf(yesNo...),
				Branch: skipUnlessYes("taking_supplements", "supplements_details", intake.StepComplete)},
			{ID: "supplements_details", Prompt: "What exactly do you take? (List names and doses.)",
				Check: intake.FreeText(3), Next: intake.StepComplete},
		},
	}
}

// Mindfulness asks about meditation practice. Non-practitioners finish
// after the first question.
func Mindfulness() *intake.Graph {
	frequency := []string{"Every day", "A few times a week", "Once a week", "Less often"}
	return &intake.Graph{
		Type:     TypeMindfulness,
		Title:    "Mindfulness questionnaire",
		Advisory: true,
		Summary:  "Mindfulness questionnaire",
		DoneText: "Mindfulness questionnaire saved.",
		Steps: []intake.Step{
			{ID: "has_practice", Prompt: "1. Do you practice any form of meditation?",
				Options: yesNo, Check: intake.OneOf(yesNo...),
				Branch: skipUnlessYes("has_practice", "practice_frequency", intake.StepComplete)},
			{ID: "practice_frequency", Prompt: "2. How often do you practice?",
				Options: frequency, Check: intake.OneOf(frequency...)},
			{ID: "focus_object", Prompt: "3. What do you focus on during practice?",
				Options: []string{"Breath", "Body", "Sounds", "Other"},
				Check:   intake.FreeText(1)},
			{ID: "concentration_difficulty", Prompt: "4. How easy is it to bring your attention back when your mind wanders?",
				Options: []string{"Very hard", "Hard", "Easy"},
				Check:   intake.OneOf("Very hard", "Hard", "Easy")},
			{ID: "positive_changes", Prompt: "5. What positive changes have you noticed thanks to meditation? (Free form, at least a sentence.)",
				Check: intake.FreeText(10)},
		},
	}
}

// skipUnlessYes branches to onYes when the step's own answer is "Yes" and
// to onNo otherwise.
func skipUnlessYes(stepID, onYes, onNo string) func(map[string]string) string {
	return func(answers map[string]string) string {
		if answers[stepID] == "Yes" {
			return onYes
		}
		return onNo
	}
}
