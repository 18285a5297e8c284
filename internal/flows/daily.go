package flows

import (
	"strconv"

	"github.com/pulseward/pulseward/internal/intake"
)

// fatigueScale is the 0-10 keyboard with named endpoints.
func fatigueScale() []string {
	opts := []string{"Not tired at all"}
	for i := 1; i <= 10; i++ {
		opts = append(opts, strconv.Itoa(i))
	}
	return append(opts, "Extremely tired")
}

// DailyCheckin is the everyday questionnaire: sleep, stress, mood, energy,
// activity. Workout answers branch into pain follow-ups; participants who
// did not train or had no pain never see them.
func DailyCheckin() *intake.Graph {
	workoutOptions := []string{"No", "Yes, light", "Yes, moderate", "Yes, heavy"}
	fatigue := fatigueScale()

	return &intake.Graph{
		Type:     TypeDailyCheckin,
		Title:    "Daily check-in",
		Daily:    true,
		Advisory: true,
		Summary:  "Daily check-in",
		DoneText: "Check-in saved. Thank you for taking part!",
		Steps: []intake.Step{
			{ID: "sleep_time", Prompt: "1. What time did you go to bed yesterday?",
				Options: []string{"Before 22:00", "22:00-00:00", "After 00:00"},
				Check:   intake.OneOf("Before 22:00", "22:00-00:00", "After 00:00")},
			{ID: "sleep_onset", Prompt: "2. How did you fall asleep?",
				Options: []string{"Easily", "Took a long time", "Other"},
				Check:   intake.OneOf("Easily", "Took a long time", "Other")},
			{ID: "night_wakeups", Prompt: "3. Did you wake up during the night?",
				Options: yesNo, Check: intake.OneOf(yesNo...)},
			{ID: "morning_feeling", Prompt: "4. How did you wake up this morning?",
				Options: []string{"Easily", "Had to force myself up"},
				Check:   intake.OneOf("Easily", "Had to force myself up")},
			{ID: "day_sleepiness", Prompt: "5. Did sleepiness bother you during the day?",
				Options: yesNo, Check: intake.OneOf(yesNo...)},
			{ID: "sleep_rating", Prompt: "6. How would you rate your sleep quality today?",
				Options: []string{"Good", "Average", "Poor"},
				Check:   intake.OneOf("Good", "Average", "Poor")},
			{ID: "stress_level", Prompt: "7. Rate your stress level over the past day (1-10).",
				Check: intake.IntRange(1, 10)},
			{ID: "stress_source", Prompt: "8. What was the main source of stress over the past day? (Write a few words.)",
				Check: intake.FreeText(1)},
			{ID: "mood", Prompt: "9. What was your mood like yesterday?",
				Options: []string{"Excellent", "Good", "Neutral", "Bad", "Very bad"},
				Check:   intake.OneOf("Excellent", "Good", "Neutral", "Bad", "Very bad")},
			{ID: "joy", Prompt: "10. Did you feel joy yesterday?",
				Options: yesNo, Check: intake.OneOf(yesNo...)},
			{ID: "energy_level", Prompt: "11. Rate your energy level over the past day (1-10).",
				Check: intake.IntRange(1, 10)},
			{ID: "fatigue_frequency", Prompt: "12. Did you feel tired during the past day?",
				Options: []string{"Not once", "A couple of times", "Often"},
				Check:   intake.OneOf("Not once", "A couple of times", "Often")},
			{ID: "anxiety_frequency", Prompt: "13. How often did you feel anxious yesterday?",
				Options: []string{"Not once", "Once", "A couple of times", "All day"},
				Check:   intake.OneOf("Not once", "Once", "A couple of times", "All day")},
			{ID: "motivation_level", Prompt: "14. Rate your motivation over the past day (1-10).",
				Check: intake.IntRange(1, 10)},
			{ID: "steps_count", Prompt: "15. Roughly how many steps did you walk yesterday? (Enter a number.)",
				Check: intake.IntRange(0, 200000)},
			{ID: "workout_intensity", Prompt: "16. Did you work out yesterday?",
				Options: workoutOptions,
				Check:   intake.OneOf(workoutOptions...),
				Branch: func(answers map[string]string) string {
					if answers["workout_intensity"] == "No" {
						return "fatigue_level"
					}
					return "workout_pain"
				}},
			{ID: "workout_pain", Prompt: "17. Is any pain bothering you after the workout?",
				Options: yesNo, Check: intake.OneOf(yesNo...),
				Branch: func(answers map[string]string) string {
					if answers["workout_pain"] == "Yes" {
						return "workout_pain_location"
					}
					return "fatigue_level"
				}},
			{ID: "workout_pain_location", Prompt: "Where exactly does it hurt? (Write a few words.)",
				Check: intake.FreeText(1)},
			{ID: "fatigue_level", Prompt: "18. Rate your level of fatigue (0-10).",
				Options: fatigue, Check: intake.OneOf(fatigue...)},
			{ID: "after_work_feeling", Prompt: "19. How did you feel yesterday after finishing work?",
				Options: []string{"Very good", "Good", "Satisfactory", "Bad", "Very bad"},
				Check:   intake.OneOf("Very good", "Good", "Satisfactory", "Bad", "Very bad")},
		},
	}
}
