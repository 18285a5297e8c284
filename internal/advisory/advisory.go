// Package advisory turns completed submissions into short personalized
// recommendations using a Gemini model. Advice is best-effort: a failure
// here never blocks saving or acknowledging the submission itself.
package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/pulseward/pulseward/internal/models"
	"github.com/pulseward/pulseward/internal/store"
	"gorm.io/gorm"
)

// defaultHistoryLimit is how many prior submissions are fed into the prompt
// as context.
const defaultHistoryLimit = 7

// Generator produces model output for a prompt. Satisfied by Gemini in
// production and by stubs in tests.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Adviser builds prompts from submissions, queries the model, and records
// every exchange as an AdvisoryNote.
type Adviser struct {
	db           *gorm.DB
	gen          Generator
	historyLimit int
}

// Opts holds parameters for creating an Adviser.
type Opts struct {
	DB           *gorm.DB
	Generator    Generator
	HistoryLimit int // prior submissions included as context (default 7)
}

// New creates an Adviser.
func New(opts Opts) (*Adviser, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("advisory: db is required")
	}
	if opts.Generator == nil {
		return nil, fmt.Errorf("advisory: generator is required")
	}
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &Adviser{db: opts.DB, gen: opts.Generator, historyLimit: limit}, nil
}

// Advise produces a recommendation for one freshly completed submission.
// The exchange is recorded as a daily AdvisoryNote; a failed audit write is
// logged but does not discard the advice.
func (a *Adviser) Advise(ctx context.Context, p models.Participant, sub *models.Submission) (string, error) {
	history, err := store.RecentSubmissions(a.db, p.ID, a.historyLimit)
	if err != nil {
		log.Printf("advisory: load history for participant %d: %v", p.ID, err)
		history = nil
	}

	prompt := buildAdvicePrompt(p, sub, history)
	advice, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("advisory: generate: %w", err)
	}
	advice = strings.TrimSpace(advice)
	if advice == "" {
		return "", fmt.Errorf("advisory: model returned empty advice")
	}

	note := &models.AdvisoryNote{
		ParticipantID: p.ID,
		SubmissionID:  sub.ID,
		Kind:          "daily",
		Prompt:        prompt,
		Response:      advice,
	}
	if err := store.SaveAdvisoryNote(a.db, note); err != nil {
		log.Printf("advisory: save note for participant %d: %v", p.ID, err)
	}
	return advice, nil
}

// Digest summarizes the participant's last seven days of submissions into a
// weekly progress message. Returns an empty string when there is nothing to
// summarize.
func (a *Adviser) Digest(ctx context.Context, p models.Participant, day int) (string, error) {
	now := time.Now()
	subs, err := store.SubmissionsBetween(a.db, p.ID, now.AddDate(0, 0, -7), now)
	if err != nil {
		return "", fmt.Errorf("advisory: load week for participant %d: %w", p.ID, err)
	}
	if len(subs) == 0 {
		return "", nil
	}

	prompt := buildDigestPrompt(p, day, subs)
	digest, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("advisory: generate digest: %w", err)
	}
	digest = strings.TrimSpace(digest)
	if digest == "" {
		return "", fmt.Errorf("advisory: model returned empty digest")
	}

	note := &models.AdvisoryNote{
		ParticipantID: p.ID,
		Kind:          "weekly",
		Prompt:        prompt,
		Response:      digest,
	}
	if err := store.SaveAdvisoryNote(a.db, note); err != nil {
		log.Printf("advisory: save weekly note for participant %d: %v", p.ID, err)
	}
	return digest, nil
}

// buildAdvicePrompt renders the submission and recent history as a prompt.
func buildAdvicePrompt(p models.Participant, sub *models.Submission, history []models.Submission) string {
	var b strings.Builder
	b.WriteString("You are a supportive health coach in a month-long personal health tracking program.\n")
	b.WriteString("Based on the participant's latest answers, write 2-4 short, concrete, encouraging recommendations.\n")
	b.WriteString("Plain text, no headings, no medical diagnoses. Suggest seeing a professional for anything concerning.\n\n")

	fmt.Fprintf(&b, "Participant: %s\n\n", participantLabel(p))
	fmt.Fprintf(&b, "Latest submission (%s):\n%s\n", sub.Type, formatPayload(sub.Payload))
	if keys := formatMediaKeys(sub.MediaKeys); keys != "" {
		fmt.Fprintf(&b, "Attached media: %s\n", keys)
	}

	if len(history) > 0 {
		b.WriteString("\nEarlier submissions, newest first:\n")
		for _, h := range history {
			if h.ID == sub.ID {
				continue
			}
			fmt.Fprintf(&b, "- %s on %s:\n%s\n",
				h.Type, h.CreatedAt.Format("2006-01-02"), indent(formatPayload(h.Payload)))
		}
	}
	return b.String()
}

// buildDigestPrompt renders a week of submissions as a prompt.
func buildDigestPrompt(p models.Participant, day int, subs []models.Submission) string {
	var b strings.Builder
	b.WriteString("You are a supportive health coach in a month-long personal health tracking program.\n")
	fmt.Fprintf(&b, "The participant has reached day %d. Summarize their past week in 3-5 sentences:\n", day)
	b.WriteString("notable trends, one thing going well, one thing to focus on next week. Plain text, warm tone.\n\n")

	fmt.Fprintf(&b, "Participant: %s\n\n", participantLabel(p))
	b.WriteString("Submissions this week, oldest first:\n")
	for _, s := range subs {
		fmt.Fprintf(&b, "- %s on %s:\n%s\n",
			s.Type, s.CreatedAt.Format("2006-01-02"), indent(formatPayload(s.Payload)))
	}
	return b.String()
}

func participantLabel(p models.Participant) string {
	if p.FullName != "" {
		return p.FullName
	}
	if p.UserName != "" {
		return p.UserName
	}
	return fmt.Sprintf("participant %d", p.ID)
}

// formatPayload flattens the answer JSON into stable "key: value" lines.
func formatPayload(payload string) string {
	var answers map[string]string
	if err := json.Unmarshal([]byte(payload), &answers); err != nil || len(answers) == 0 {
		return "  (no answers)"
	}
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  %s: %s", k, answers[k])
	}
	return b.String()
}

// formatMediaKeys flattens the media key JSON into one comma-separated
// line, or "" when the submission carries none.
func formatMediaKeys(mediaKeys string) string {
	var keys []string
	if err := json.Unmarshal([]byte(mediaKeys), &keys); err != nil || len(keys) == 0 {
		return ""
	}
	return strings.Join(keys, ", ")
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
