package flows

import "github.com/pulseward/pulseward/internal/intake"

// Capture tasks: single-step flows that collect photos or a video instead
// of typed answers. Multi-part sets must arrive together as one album.

// FullBodyPhotos collects four full-height photos, one per side.
func FullBodyPhotos() *intake.Graph {
	return &intake.Graph{
		Type:     TypeFullBodyPhotos,
		Title:    "Full-height photos",
		Summary:  "Full-height photos",
		DoneText: "All four photos received. Thank you!",
		Steps: []intake.Step{
			{ID: "fullbody",
				Prompt: "Send 4 full-height photos as one album, in this order: front, back, right side, left side. Neutral pose, even lighting.",
				Kind:   intake.KindPhoto, Arity: 4,
				PartLabels: []string{"front", "back", "right", "left"}},
		},
	}
}

// HandsPhotos collects two photos of the hands.
func HandsPhotos() *intake.Graph {
	return &intake.Graph{
		Type:     TypeHandsPhotos,
		Title:    "Hand photos",
		Summary:  "Hand photos",
		DoneText: "Both photos received. Thank you!",
		Steps: []intake.Step{
			{ID: "hands",
				Prompt: "Send 2 photos of your hands as one album: palms up first, then backs of the hands.",
				Kind:   intake.KindPhoto, Arity: 2,
				PartLabels: []string{"palms", "backs"}},
		},
	}
}

// FacePhoto collects a single face photo.
func FacePhoto() *intake.Graph {
	return &intake.Graph{
		Type:     TypeFacePhoto,
		Title:    "Face photo",
		Summary:  "Face photo",
		DoneText: "Photo received. Thank you!",
		Steps: []intake.Step{
			{ID: "face",
				Prompt: "Send one photo of your face, looking straight at the camera in daylight, no filters.",
				Kind:   intake.KindPhoto},
		},
	}
}

// TonguePhoto collects a single photo of the tongue.
func TonguePhoto() *intake.Graph {
	return &intake.Graph{
		Type:     TypeTonguePhoto,
		Title:    "Tongue photo",
		Summary:  "Tongue photo",
		DoneText: "Photo received. Thank you!",
		Steps: []intake.Step{
			{ID: "tongue",
				Prompt: "Send one clear photo of your tongue, taken in daylight before eating or brushing.",
				Kind:   intake.KindPhoto},
		},
	}
}

// BalanceVideo collects a short single-leg balance video.
func BalanceVideo() *intake.Graph {
	return &intake.Graph{
		Type:     TypeBalanceVideo,
		Title:    "Balance test video",
		Summary:  "Balance test video",
		DoneText: "Video received. Thank you!",
		Steps: []intake.Step{
			{ID: "balance",
				Prompt: "Record a short video standing on one leg with your eyes closed, up to 30 seconds, and send it here.",
				Kind:   intake.KindVideo},
		},
	}
}
