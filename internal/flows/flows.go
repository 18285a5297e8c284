// Package flows holds the questionnaire and capture-task catalogue: every
// dialogue the intake engine can run, defined as data.
package flows

import "github.com/pulseward/pulseward/internal/intake"

// Flow type tags. These are also the session slots and the submission
// type column, so they must stay stable once data exists.
const (
	TypeDailyCheckin     = "daily_checkin"
	TypeOnboarding       = "onboarding"
	TypeHealthStatus     = "health_status"
	TypeNutrition        = "nutrition"
	TypeBodyMeasurements = "body_measurements"
	TypeSupplements      = "supplements"
	TypeMindfulness      = "mindfulness"
	TypeSafetySupport    = "safety_support"
	TypeCloseCircle      = "close_circle"
	TypeFullBodyPhotos   = "fullbody_photos"
	TypeHandsPhotos      = "hands_photos"
	TypeFacePhoto        = "face_photo"
	TypeTonguePhoto      = "tongue_photo"
	TypeBalanceVideo     = "balance_video"
)

var (
	yesNo = []string{"Yes", "No"}
)

// Registry builds the validated flow registry. It fails only on a
// malformed graph definition, which is a programming error.
func Registry() (intake.Registry, error) {
	return intake.NewRegistry(
		DailyCheckin(),
		Onboarding(),
		HealthStatus(),
		Nutrition(),
		BodyMeasurements(),
		Supplements(),
		Mindfulness(),
		SafetySupport(),
		CloseCircle(),
		FullBodyPhotos(),
		HandsPhotos(),
		FacePhoto(),
		TonguePhoto(),
		BalanceVideo(),
	)
}

// MustRegistry is Registry for wiring paths where a malformed catalogue
// should stop the process.
func MustRegistry() intake.Registry {
	r, err := Registry()
	if err != nil {
		panic(err)
	}
	return r
}
