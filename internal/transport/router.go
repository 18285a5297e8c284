package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pulseward/pulseward/internal/campaign"
	"github.com/pulseward/pulseward/internal/flows"
	"github.com/pulseward/pulseward/internal/intake"
	"github.com/pulseward/pulseward/internal/models"
	"github.com/pulseward/pulseward/internal/store"
	"gorm.io/gorm"
)

// Adviser produces a personalized recommendation for a completed
// submission. Implementations may take a while; the router calls them off
// the inbound path.
type Adviser interface {
	Advise(ctx context.Context, p models.Participant, sub *models.Submission) (string, error)
}

// commandFlows maps chat commands to the flow they start.
var commandFlows = map[string]string{
	"/checkin":         flows.TypeDailyCheckin,
	"/onboarding":      flows.TypeOnboarding,
	"/health":          flows.TypeHealthStatus,
	"/nutrition":       flows.TypeNutrition,
	"/body":            flows.TypeBodyMeasurements,
	"/supplements":     flows.TypeSupplements,
	"/mindfulness":     flows.TypeMindfulness,
	"/safety":          flows.TypeSafetySupport,
	"/close_circle":    flows.TypeCloseCircle,
	"/photos_fullbody": flows.TypeFullBodyPhotos,
	"/photos_hands":    flows.TypeHandsPhotos,
	"/photo_face":      flows.TypeFacePhoto,
	"/photo_tongue":    flows.TypeTonguePhoto,
	"/video_balance":   flows.TypeBalanceVideo,
}

// Router classifies inbound chat messages and routes them: commands to
// their handlers, text to the participant's live questionnaire session,
// media into the batch pipeline.
type Router struct {
	db        *gorm.DB
	engine    *intake.Engine
	adapter   Adapter
	flows     intake.Registry
	rules     []campaign.Rule
	adviser   Adviser // optional
	operators map[string]bool
	botUserID string
	out       io.Writer
}

// RouterOpts holds parameters for creating a Router.
type RouterOpts struct {
	DB        *gorm.DB
	Engine    *intake.Engine
	Adapter   Adapter
	Flows     intake.Registry
	Rules     []campaign.Rule // defaults to campaign.Rules()
	Adviser   Adviser
	Operators []string  // platform user IDs allowed to run operator commands
	BotUserID string    // bot's user ID for self-message filtering
	Out       io.Writer // defaults to os.Stdout
}

// NewRouter creates a Router.
func NewRouter(opts RouterOpts) (*Router, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("transport: router: db is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("transport: router: intake engine is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("transport: router: adapter is required")
	}
	if opts.Flows == nil {
		return nil, fmt.Errorf("transport: router: flow registry is required")
	}
	rules := opts.Rules
	if rules == nil {
		rules = campaign.Rules()
	}
	operators := make(map[string]bool, len(opts.Operators))
	for _, id := range opts.Operators {
		operators[id] = true
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &Router{
		db:        opts.DB,
		engine:    opts.Engine,
		adapter:   opts.Adapter,
		flows:     opts.Flows,
		rules:     rules,
		adviser:   opts.Adviser,
		operators: operators,
		botUserID: opts.BotUserID,
		out:       out,
	}, nil
}

// Run consumes the adapter's inbound channel until it closes or the
// context is cancelled.
func (r *Router) Run(ctx context.Context) error {
	inbound, err := r.adapter.Listen(ctx)
	if err != nil {
		return fmt.Errorf("transport: router: listen: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-inbound:
			if !ok {
				return nil
			}
			r.Handle(ctx, msg)
		}
	}
}

// Handle classifies and routes a single inbound message. Routing paths:
//  1. Bot self-message → ignore
//  2. Slash command → command handler
//  3. Media attachment → intake media pipeline
//  4. Text → the participant's live session
func (r *Router) Handle(ctx context.Context, msg InboundMessage) {
	if r.botUserID != "" && msg.UserID == r.botUserID {
		return
	}

	p, err := store.EnsureParticipant(r.db, msg.UserID, msg.UserName, msg.ChannelID)
	if err != nil {
		log.Printf("transport: router: ensure participant %s: %v", msg.UserID, err)
		return
	}

	text := strings.TrimSpace(msg.Text)
	fmt.Fprintf(r.out, "transport: router: recv [ch=%s user=%s media=%v] %q\n",
		msg.ChannelID, msg.UserName, msg.MediaKey != "", truncate(text, 80))

	switch {
	case msg.MediaKey != "":
		r.handleMedia(ctx, p, msg)
	case strings.HasPrefix(text, "/"):
		r.handleCommand(ctx, p, msg, text)
	case text != "":
		r.handleAnswer(ctx, p, msg, text)
	}
}

// handleAnswer feeds a typed reply into the participant's live session.
func (r *Router) handleAnswer(ctx context.Context, p *models.Participant, msg InboundMessage, text string) {
	out, err := r.engine.SubmitAnswer(p, text)
	if errors.Is(err, intake.ErrNoSession) {
		r.reply(ctx, msg.ChannelID, p, "No questionnaire is in progress. Try /checkin, or /help for the full list.", nil)
		return
	}
	if err != nil {
		log.Printf("transport: router: answer from %s: %v", msg.UserID, err)
		r.reply(ctx, msg.ChannelID, p, "Something went wrong saving your answer. Please send it again.", nil)
		return
	}
	r.sendOutcome(ctx, msg.ChannelID, *p, out)
}

// handleMedia feeds a photo or video into the intake media pipeline.
func (r *Router) handleMedia(ctx context.Context, p *models.Participant, msg InboundMessage) {
	out, err := r.engine.SubmitMediaPart(p, msg.BatchID, msg.MediaKey, msg.MediaKind)
	if errors.Is(err, intake.ErrNoSession) {
		r.reply(ctx, msg.ChannelID, p, "I wasn't expecting a photo right now. Start a capture task first, e.g. /photo_face.", nil)
		return
	}
	if err != nil {
		log.Printf("transport: router: media from %s: %v", msg.UserID, err)
		r.reply(ctx, msg.ChannelID, p, "Something went wrong with that upload. Please resend it.", nil)
		return
	}
	r.sendOutcome(ctx, msg.ChannelID, *p, out)
}

// handleCommand dispatches a slash command.
func (r *Router) handleCommand(ctx context.Context, p *models.Participant, msg InboundMessage, text string) {
	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])

	if flowType, ok := commandFlows[cmd]; ok {
		r.startFlow(ctx, p, msg.ChannelID, flowType)
		return
	}

	switch cmd {
	case "/start":
		r.reply(ctx, msg.ChannelID, p,
			"Welcome! You are registered. The program will prompt you when questionnaires are due; /help lists what you can start yourself.", nil)

	case "/timezone":
		if len(fields) < 2 {
			r.reply(ctx, msg.ChannelID, p, "Usage: /timezone <IANA zone>, e.g. /timezone Europe/Berlin", nil)
			return
		}
		if err := store.SetTimezone(r.db, p.ID, fields[1]); err != nil {
			r.reply(ctx, msg.ChannelID, p,
				fmt.Sprintf("%q is not a valid timezone. Use an IANA name like Europe/Berlin or Asia/Tokyo.", fields[1]), nil)
			return
		}
		r.reply(ctx, msg.ChannelID, p, fmt.Sprintf("Timezone set to %s. Reminders will follow your local clock.", fields[1]), nil)

	case "/cancel":
		if err := r.engine.Cancel(p.ID); err != nil {
			log.Printf("transport: router: cancel for %s: %v", msg.UserID, err)
		}
		r.reply(ctx, msg.ChannelID, p, "Cancelled. Your answers so far were discarded.", nil)

	case "/help":
		r.reply(ctx, msg.ChannelID, p, helpText(), nil)

	case "/program", "/participants", "/deactivate":
		if !r.operators[msg.UserID] {
			r.reply(ctx, msg.ChannelID, p, "That command is reserved for program operators.", nil)
			return
		}
		r.handleOperatorCommand(ctx, p, msg, cmd, fields[1:])

	default:
		r.reply(ctx, msg.ChannelID, p, "Unknown command. Send /help for the list.", nil)
	}
}

// startFlow opens a questionnaire for the participant, honoring the
// program-day gate for scheduled topics.
func (r *Router) startFlow(ctx context.Context, p *models.Participant, channelID, flowType string) {
	if reason := r.dayGate(p, flowType); reason != "" {
		r.reply(ctx, channelID, p, reason, nil)
		return
	}

	out, err := r.engine.Start(p, flowType, false)
	if errors.Is(err, intake.ErrAlreadyActive) {
		r.reply(ctx, channelID, p, "That questionnaire is already in progress. Send your next answer, or /cancel to start over.", nil)
		return
	}
	if err != nil {
		log.Printf("transport: router: start %s for %d: %v", flowType, p.ID, err)
		r.reply(ctx, channelID, p, "Could not start that questionnaire right now. Please try again.", nil)
		return
	}
	r.sendOutcome(ctx, channelID, *p, out)
}

// dayGate returns a participant-facing refusal when a scheduled topic is
// started on the wrong program day, or "" when the start is allowed.
// Unscheduled flows and unenrolled participants are never gated.
func (r *Router) dayGate(p *models.Participant, flowType string) string {
	if p.EnrolledAt == nil {
		return ""
	}
	for _, rule := range r.rules {
		if rule.Flow != flowType || len(rule.Days) == 0 {
			continue
		}
		day, err := campaign.ProgramDay(nowFunc(), *p.EnrolledAt, p.Timezone)
		if err != nil {
			log.Printf("transport: router: day gate for %d: %v", p.ID, err)
			return ""
		}
		if !rule.AppliesTo(day) {
			return "That questionnaire is not scheduled for today. It will open on its program day."
		}
	}
	return ""
}

// sendOutcome relays an engine outcome to the participant. Buffered
// outcomes owe no reply; the batch result arrives via DeliverOutcome.
func (r *Router) sendOutcome(ctx context.Context, channelID string, p models.Participant, out intake.Outcome) {
	if out.Kind == intake.OutcomeBuffered {
		return
	}
	r.reply(ctx, channelID, &p, out.Message, out.Options)

	if out.Kind == intake.OutcomeCompleted && out.Submission != nil {
		r.recordProfile(p, out.Submission)
		r.maybeAdvise(ctx, p, out.Submission)
	}
}

// recordProfile copies profile answers from a completed onboarding onto
// the participant row, where the dashboard and advisory prompts read them.
func (r *Router) recordProfile(p models.Participant, sub *models.Submission) {
	if sub.Type != flows.TypeOnboarding {
		return
	}
	var answers map[string]string
	if err := json.Unmarshal([]byte(sub.Payload), &answers); err != nil {
		log.Printf("transport: router: onboarding payload for %d: %v", p.ID, err)
		return
	}
	if name := strings.TrimSpace(answers["full_name"]); name != "" {
		if err := store.SetFullName(r.db, p.ID, name); err != nil {
			log.Printf("transport: router: record name for %d: %v", p.ID, err)
		}
	}
}

// DeliverOutcome is the intake engine's sink for asynchronous batch
// outcomes. The participant's stored channel is the reply target.
func (r *Router) DeliverOutcome(participantID uint, out intake.Outcome) {
	var p models.Participant
	if err := r.db.First(&p, participantID).Error; err != nil {
		log.Printf("transport: router: deliver to %d: %v", participantID, err)
		return
	}
	r.sendOutcome(context.Background(), p.ChannelID, p, out)
}

// DeliverPrompt is the campaign dispatcher's delivery hook.
func (r *Router) DeliverPrompt(p models.Participant, out intake.Outcome) {
	r.sendOutcome(context.Background(), p.ChannelID, p, out)
}

// maybeAdvise asks the advisory collaborator for a recommendation when the
// completed flow wants one. Failures degrade to silence; the submission is
// already saved.
func (r *Router) maybeAdvise(ctx context.Context, p models.Participant, sub *models.Submission) {
	if r.adviser == nil {
		return
	}
	g, ok := r.flows[sub.Type]
	if !ok || !g.Advisory {
		return
	}
	go func() {
		advice, err := r.adviser.Advise(context.WithoutCancel(ctx), p, sub)
		if err != nil {
			log.Printf("transport: router: advise %s for %d: %v", sub.Type, p.ID, err)
			return
		}
		if advice == "" {
			return
		}
		r.reply(context.Background(), p.ChannelID, &p, "Recommendations:\n\n"+advice, nil)
	}()
}

// handleOperatorCommand runs program-management commands for operators.
func (r *Router) handleOperatorCommand(ctx context.Context, p *models.Participant, msg InboundMessage, cmd string, args []string) {
	switch cmd {
	case "/program":
		sub := ""
		if len(args) > 0 {
			sub = strings.ToLower(args[0])
		}
		switch sub {
		case "start":
			at, err := store.StartProgram(r.db, msg.UserName)
			if errors.Is(err, store.ErrAlreadyStarted) {
				r.reply(ctx, msg.ChannelID, p, "The program is already running. Use /program reset first to restart it.", nil)
				return
			}
			if err != nil {
				log.Printf("transport: router: program start: %v", err)
				r.reply(ctx, msg.ChannelID, p, "Could not start the program.", nil)
				return
			}
			r.reply(ctx, msg.ChannelID, p, fmt.Sprintf("Program started. Day 1 is %s for every participant.", at.Format("2006-01-02")), nil)
		case "reset":
			if err := store.ResetProgram(r.db, msg.UserName); err != nil {
				log.Printf("transport: router: program reset: %v", err)
				r.reply(ctx, msg.ChannelID, p, "Could not reset the program.", nil)
				return
			}
			r.reply(ctx, msg.ChannelID, p, "Program reset. No reminders will go out until the next /program start.", nil)
		default:
			start, err := store.ProgramStart(r.db)
			if err != nil {
				log.Printf("transport: router: program status: %v", err)
				return
			}
			if start == nil {
				r.reply(ctx, msg.ChannelID, p, "The program has not been started.", nil)
				return
			}
			r.reply(ctx, msg.ChannelID, p, fmt.Sprintf("Program running since %s.", start.Format("2006-01-02")), nil)
		}

	case "/participants":
		list, err := store.AllParticipants(r.db)
		if err != nil {
			log.Printf("transport: router: participants: %v", err)
			return
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%d participants:\n", len(list))
		for _, q := range list {
			state := "active"
			if !q.Active {
				state = "inactive"
			}
			fmt.Fprintf(&b, "- %s (%s, %s, %s)\n", q.UserName, q.PlatformUserID, q.Timezone, state)
		}
		r.reply(ctx, msg.ChannelID, p, b.String(), nil)

	case "/deactivate":
		if len(args) < 1 {
			r.reply(ctx, msg.ChannelID, p, "Usage: /deactivate <platform user id>", nil)
			return
		}
		if err := store.Deactivate(r.db, args[0]); err != nil {
			r.reply(ctx, msg.ChannelID, p, fmt.Sprintf("Could not deactivate %s: %v", args[0], err), nil)
			return
		}
		r.reply(ctx, msg.ChannelID, p, fmt.Sprintf("Participant %s deactivated.", args[0]), nil)
	}
}

// reply sends a plain message to the participant's channel.
func (r *Router) reply(ctx context.Context, channelID string, p *models.Participant, text string, options []string) {
	if channelID == "" {
		channelID = p.ChannelID
	}
	if err := r.adapter.Send(ctx, OutboundMessage{
		ChannelID: channelID,
		UserID:    p.PlatformUserID,
		Text:      text,
		Options:   options,
	}); err != nil {
		log.Printf("transport: router: send to %s: %v", p.PlatformUserID, err)
	}
}

// helpText lists the participant-facing commands, flow commands sorted for
// stable output.
func helpText() string {
	cmds := make([]string, 0, len(commandFlows))
	for cmd := range commandFlows {
		cmds = append(cmds, cmd)
	}
	sort.Strings(cmds)

	var b strings.Builder
	b.WriteString("Commands:\n")
	b.WriteString("/timezone <zone> — set your local timezone\n")
	b.WriteString("/cancel — abandon the questionnaire in progress\n")
	b.WriteString("Questionnaires and tasks:\n")
	for _, cmd := range cmds {
		fmt.Fprintf(&b, "%s\n", cmd)
	}
	return b.String()
}

// truncate returns s truncated to maxLen with "..." appended if needed.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// nowFunc is swapped in tests to pin the clock.
var nowFunc = time.Now
