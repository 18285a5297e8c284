package flows

import "github.com/pulseward/pulseward/internal/intake"

// Nutrition reviews the last three days of meals plus water intake.
func Nutrition() *intake.Graph {
	return &intake.Graph{
		Type:     TypeNutrition,
		Title:    "Nutrition questionnaire",
		Advisory: true,
		Summary:  "Three-day nutrition questionnaire",
		DoneText: "Nutrition questionnaire saved.",
		Steps: []intake.Step{
			{ID: "breakfast", Prompt: "List what you had for breakfast over the last 3 days (for example: 'day 1: oatmeal, tea; day 2: omelette, coffee; day 3: cottage cheese with fruit'):",
				Check: intake.FreeText(10)},
			{ID: "lunch", Prompt: "List what you had for lunch over the last 3 days (for example: 'day 1: chicken with buckwheat; day 2: soup, salad; day 3: fish with vegetables'):",
				Check: intake.FreeText(10)},
			{ID: "dinner", Prompt: "List what you had for dinner over the last 3 days (for example: 'day 1: cottage cheese; day 2: chicken with vegetables; day 3: omelette'):",
				Check: intake.FreeText(10)},
			{ID: "snacks", Prompt: "List your snacks over the last three days (for example: 'day 1: apple, yogurt; day 2: nuts; day 3: banana'):",
				Check: intake.FreeText(5)},
			{ID: "water", Prompt: "How much water do you drink per day on average? (In litres, for example 1.5.)",
				Check: intake.NumRange(0.1, 10)},
		},
	}
}

// BodyMeasurements collects waist, hip, and chest circumference in cm.
func BodyMeasurements() *intake.Graph {
	cm := intake.NumRange(50, 200)
	return &intake.Graph{
		Type:     TypeBodyMeasurements,
		Title:    "Body measurements",
		Advisory: true,
		Summary:  "Body measurements",
		DoneText: "Body measurements saved.",
		Steps: []intake.Step{
			{ID: "waist", Prompt: "Waist circumference (in cm):", Check: cm},
			{ID: "hips", Prompt: "Hip circumference (in cm):", Check: cm},
			{ID: "chest", Prompt: "Chest circumference (in cm):", Check: cm},
		},
	}
}

// SafetySupport is a short questionnaire on perceived support and safety.
func SafetySupport() *intake.Graph {
	counts := []string{"Nobody", "1-2 people", "3-5 people", "More than 6 people"}
	return &intake.Graph{
		Type:     TypeSafetySupport,
		Title:    "Safety and support questionnaire",
		Advisory: true,
		Summary:  "Safety and support questionnaire",
		DoneText: "Safety and support questionnaire saved.",
		Steps: []intake.Step{
			{ID: "has_support", Prompt: "1. Do you feel supported by the people around you?",
				Options: yesNo, Check: intake.OneOf(yesNo...)},
			{ID: "support_count", Prompt: "2. How many people support you emotionally?",
				Options: counts, Check: intake.OneOf(counts...)},
			{ID: "feels_safe", Prompt: "3. Do you feel safe among the people around you?",
				Options: yesNo, Check: intake.OneOf(yesNo...)},
		},
	}
}

// CloseCircle is a mini-questionnaire about the participant's inner circle.
func CloseCircle() *intake.Graph {
	frequency := []string{"Every day", "A few times a week", "Once a week", "Less often"}
	return &intake.Graph{
		Type:     TypeCloseCircle,
		Title:    "Close circle mini-questionnaire",
		Advisory: true,
		Summary:  "Close circle questionnaire",
		DoneText: "Close circle questionnaire saved.",
		Steps: []intake.Step{
			{ID: "relationships", Prompt: "Who is in your close circle? (Name the relationships, for example: 'mother, father, sister, best friend Alex'.)",
				Check: intake.FreeText(5)},
			{ID: "relationship_quality", Prompt: "How would you rate your relationships with them on a scale of 0 to 10?\n0 - very poor, 10 - excellent",
				Check: intake.IntRange(0, 10)},
			{ID: "communication_frequency", Prompt: "How often do you talk to members of your close circle?",
				Options: frequency, Check: intake.OneOf(frequency...)},
		},
	}
}
