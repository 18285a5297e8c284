// Package intake drives branching, validated, possibly multi-part data
// collection dialogues: one generic interpreter over data-defined flow
// graphs instead of one handler per questionnaire topic.
package intake

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/pulseward/pulseward/internal/models"
	"github.com/pulseward/pulseward/internal/store"
	"gorm.io/gorm"
)

// Engine turns inbound participant messages into re-prompts, state
// transitions, or completed submissions.
type Engine struct {
	db       *gorm.DB
	sessions *SessionStore
	flows    Registry
	batches  *BatchCollector
	sink     func(participantID uint, out Outcome)
}

// EngineOpts holds parameters for creating an Engine.
type EngineOpts struct {
	DB            *gorm.DB
	Flows         Registry
	BatchDebounce time.Duration
	// Sink receives outcomes produced asynchronously when a batch debounce
	// window closes. Required if any flow has a multi-part step.
	Sink func(participantID uint, out Outcome)
}

// NewEngine creates an Engine.
func NewEngine(opts EngineOpts) (*Engine, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("intake: engine: db is required")
	}
	if len(opts.Flows) == 0 {
		return nil, fmt.Errorf("intake: engine: flows are required")
	}
	debounce := opts.BatchDebounce
	if debounce <= 0 {
		debounce = 3 * time.Second
	}
	e := &Engine{
		db:       opts.DB,
		sessions: NewSessionStore(opts.DB),
		flows:    opts.Flows,
		sink:     opts.Sink,
	}
	e.batches = NewBatchCollector(debounce, e.finishBatch)
	return e, nil
}

// Batches exposes the collector, for tests that force finalization.
func (e *Engine) Batches() *BatchCollector { return e.batches }

// Flows returns the registered flow graphs.
func (e *Engine) Flows() Registry { return e.flows }

// Start opens a session for the given questionnaire type and returns the
// first prompt. With restart false, a live session for the same slot fails
// with ErrAlreadyActive; campaign-triggered starts pass restart true.
func (e *Engine) Start(p *models.Participant, flowType string, restart bool) (Outcome, error) {
	g, ok := e.flows[flowType]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownFlow, flowType)
	}

	first := g.First()
	if _, err := e.sessions.Start(p.ID, g.Type, first.ID, restart); err != nil {
		return Outcome{}, err
	}

	prompt := first.Prompt
	if g.Title != "" {
		prompt = g.Title + "\n\n" + prompt
	}
	return Outcome{Kind: OutcomeAdvance, Message: prompt, Options: first.Options}, nil
}

// Cancel discards the participant's live session, if any.
func (e *Engine) Cancel(participantID uint) error {
	return e.sessions.Cancel(participantID)
}

// ActiveSlot returns the questionnaire type of the participant's live
// session, or "" if none.
func (e *Engine) ActiveSlot(participantID uint) string {
	sess, err := e.sessions.Active(participantID)
	if err != nil {
		return ""
	}
	return sess.Slot
}

// SubmitAnswer handles a typed reply against the participant's live
// session. Validation failures return a Reprompt outcome with the session
// unchanged; malformed input is a normal outcome, never an error.
func (e *Engine) SubmitAnswer(p *models.Participant, raw string) (Outcome, error) {
	sess, err := e.sessions.Active(p.ID)
	if err != nil {
		return Outcome{}, err
	}
	g, step, err := e.resolve(sess)
	if err != nil {
		return Outcome{}, err
	}

	if step.Kind != KindText {
		return Outcome{Kind: OutcomeReprompt, Message: mediaExpectedMessage(step)}, nil
	}

	value, reason := step.Check(raw)
	if reason != "" {
		return Outcome{Kind: OutcomeReprompt, Message: reason, Options: step.Options}, nil
	}

	answers, err := sessionAnswers(sess)
	if err != nil {
		return Outcome{}, err
	}
	mediaKeys, err := sessionMediaKeys(sess)
	if err != nil {
		return Outcome{}, err
	}
	answers[step.ID] = value

	return e.advance(p, sess, g, step, answers, mediaKeys)
}

// SubmitMediaPart handles an inbound photo or video identified by its
// object-store key. batchID is the transport's grouping key for media sent
// together; it is empty for a lone item. mediaKind is "photo" or "video"
// as reported by the transport; a kind the current step does not accept is
// a reprompt, not a saved answer.
func (e *Engine) SubmitMediaPart(p *models.Participant, batchID, mediaKey, mediaKind string) (Outcome, error) {
	sess, err := e.sessions.Active(p.ID)
	if err != nil {
		return Outcome{}, err
	}
	g, step, err := e.resolve(sess)
	if err != nil {
		return Outcome{}, err
	}

	if step.Kind == KindText {
		return Outcome{Kind: OutcomeReprompt,
			Message: "Please answer the question with text first.", Options: step.Options}, nil
	}
	if !kindAccepts(step.Kind, mediaKind) {
		return Outcome{Kind: OutcomeReprompt, Message: mediaExpectedMessage(step)}, nil
	}

	// Multi-part step: buffer under the transport's batch id. A lone item
	// when a full set is expected is always rejected — no single-part
	// fallback.
	if step.Arity > 1 {
		if batchID == "" {
			return Outcome{Kind: OutcomeReprompt,
				Message: fmt.Sprintf("Please send all %d photos together as one album.", step.Arity)}, nil
		}
		if err := e.batches.Add(batchID, p.ID, step.ID, step.Arity, mediaKey); err != nil {
			return Outcome{Kind: OutcomeReprompt,
				Message: fmt.Sprintf("That set was already closed. Please resend all %d photos together.", step.Arity)}, nil
		}
		return Outcome{Kind: OutcomeBuffered}, nil
	}

	answers, err := sessionAnswers(sess)
	if err != nil {
		return Outcome{}, err
	}
	mediaKeys, err := sessionMediaKeys(sess)
	if err != nil {
		return Outcome{}, err
	}
	answers[step.ID] = mediaKey
	mediaKeys = append(mediaKeys, mediaKey)

	return e.advance(p, sess, g, step, answers, mediaKeys)
}

// finishBatch is the batch collector sink: it validates the part count and
// either advances the flow or asks for a full resend. Outcomes leave via
// the engine sink because the debounce timer has no request to reply on.
func (e *Engine) finishBatch(fb FinalizedBatch) {
	out, err := e.resolveBatch(fb)
	if err != nil {
		log.Printf("intake: finalize batch %s for participant %d: %v", fb.BatchID, fb.ParticipantID, err)
		out = Outcome{Kind: OutcomeReprompt,
			Message: "Something went wrong saving your photos. Please resend the full set."}
	}
	if e.sink == nil {
		log.Printf("intake: batch outcome for participant %d dropped (no sink)", fb.ParticipantID)
		return
	}
	e.sink(fb.ParticipantID, out)
}

// resolveBatch turns a finalized buffer into an outcome.
func (e *Engine) resolveBatch(fb FinalizedBatch) (Outcome, error) {
	var p models.Participant
	if err := e.db.First(&p, fb.ParticipantID).Error; err != nil {
		return Outcome{}, fmt.Errorf("load participant: %w", err)
	}
	sess, err := e.sessions.Active(p.ID)
	if err != nil {
		return Outcome{}, err
	}
	g, step, err := e.resolve(sess)
	if err != nil {
		return Outcome{}, err
	}
	if step.ID != fb.StepID || step.Arity != fb.Expected {
		// The session moved on while the window was open.
		return Outcome{}, fmt.Errorf("%w: session is on step %s, batch was for %s", ErrUnknownBatch, step.ID, fb.StepID)
	}

	if len(fb.Parts) != fb.Expected {
		log.Printf("intake: batch %s: %v: got %d, want %d", fb.BatchID, ErrArityMismatch, len(fb.Parts), fb.Expected)
		return Outcome{Kind: OutcomeReprompt,
			Message: fmt.Sprintf("Got %d of %d photos. Please resend the complete set of %d together.",
				len(fb.Parts), fb.Expected, fb.Expected)}, nil
	}

	answers, err := sessionAnswers(sess)
	if err != nil {
		return Outcome{}, err
	}
	mediaKeys, err := sessionMediaKeys(sess)
	if err != nil {
		return Outcome{}, err
	}
	for i, part := range fb.Parts {
		answers[step.ID+"_"+step.PartLabels[i]] = part
		mediaKeys = append(mediaKeys, part)
	}

	return e.advance(&p, sess, g, step, answers, mediaKeys)
}

// advance moves the session to the next step or completes the flow.
func (e *Engine) advance(p *models.Participant, sess *models.IntakeSession, g *Graph, step *Step, answers map[string]string, mediaKeys []string) (Outcome, error) {
	next := g.NextStep(step, answers)
	if next == StepComplete {
		return e.complete(p, sess, g, answers, mediaKeys)
	}

	nextStep := g.StepByID(next)
	if nextStep == nil {
		return Outcome{}, fmt.Errorf("intake: flow %s: branch from %q returned unknown step %q", g.Type, step.ID, next)
	}
	if err := e.sessions.Advance(sess.ID, next, answers, mediaKeys); err != nil {
		return Outcome{}, err
	}
	return Outcome{Kind: OutcomeAdvance, Message: nextStep.Prompt, Options: nextStep.Options}, nil
}

// complete persists the submission and closes the session. A persistence
// failure leaves the session intact so the participant can retry by
// re-sending their last answer.
func (e *Engine) complete(p *models.Participant, sess *models.IntakeSession, g *Graph, answers map[string]string, mediaKeys []string) (Outcome, error) {
	payload, err := json.Marshal(answers)
	if err != nil {
		return Outcome{}, fmt.Errorf("intake: marshal payload: %w", err)
	}
	mediaJSON, err := json.Marshal(mediaKeys)
	if err != nil {
		return Outcome{}, fmt.Errorf("intake: marshal media keys: %w", err)
	}

	sub := &models.Submission{
		ParticipantID: p.ID,
		Type:          g.Type,
		Payload:       string(payload),
		MediaKeys:     string(mediaJSON),
		Summary:       g.Summary,
		Daily:         g.Daily,
	}
	if err := store.Save(e.db, sub, p.Timezone); err != nil {
		return Outcome{}, err
	}

	if err := e.sessions.Complete(sess.ID); err != nil {
		// The submission is saved; a dangling session row only means the
		// next start supersedes it.
		log.Printf("intake: close session %d after save: %v", sess.ID, err)
	}

	done := g.DoneText
	if done == "" {
		done = "Saved. Thank you!"
	}
	return Outcome{Kind: OutcomeCompleted, Message: done, Submission: sub}, nil
}

// resolve loads the graph and current step for a session.
func (e *Engine) resolve(sess *models.IntakeSession) (*Graph, *Step, error) {
	g, ok := e.flows[sess.Slot]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownFlow, sess.Slot)
	}
	step := g.StepByID(sess.StepID)
	if step == nil {
		return nil, nil, fmt.Errorf("intake: session %d points at unknown step %q in flow %s", sess.ID, sess.StepID, sess.Slot)
	}
	return g, step, nil
}

// kindAccepts reports whether a step kind takes a transport media kind.
// An empty kind is accepted: some transports cannot classify every upload.
func kindAccepts(stepKind StepKind, mediaKind string) bool {
	if mediaKind == "" {
		return true
	}
	switch stepKind {
	case KindVideo:
		return mediaKind == "video"
	case KindPhoto:
		return mediaKind == "photo"
	}
	return false
}

// mediaExpectedMessage tells the participant what the current step wants.
func mediaExpectedMessage(step *Step) string {
	switch {
	case step.Kind == KindVideo:
		return "Please send a video for this task."
	case step.Arity > 1:
		return fmt.Sprintf("Please send %d photos together as one album.", step.Arity)
	default:
		return "Please send a photo for this task."
	}
}
