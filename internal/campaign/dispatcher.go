package campaign

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pulseward/pulseward/internal/intake"
	"github.com/pulseward/pulseward/internal/models"
	"github.com/pulseward/pulseward/internal/store"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const defaultConcurrency = 16

// Dispatcher evaluates the program calendar once per tick and opens the
// due questionnaires for every enrolled participant. One participant's
// failure never blocks the others.
type Dispatcher struct {
	db          *gorm.DB
	engine      *intake.Engine
	rules       []Rule
	concurrency int
	tickSpec    string

	cron *cron.Cron

	// deliver pushes a prompt outcome to the participant's chat.
	deliver func(p models.Participant, out intake.Outcome)
	// digest produces the weekly advisory summary; nil disables digest rules.
	digest func(ctx context.Context, p models.Participant, day int) error
}

// DispatcherOpts holds parameters for creating a Dispatcher.
type DispatcherOpts struct {
	DB          *gorm.DB
	Engine      *intake.Engine
	Rules       []Rule
	TickSpec    string // cron spec for the evaluation tick, default every minute
	Concurrency int
	Deliver     func(p models.Participant, out intake.Outcome)
	Digest      func(ctx context.Context, p models.Participant, day int) error
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts DispatcherOpts) (*Dispatcher, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("campaign: dispatcher: db is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("campaign: dispatcher: intake engine is required")
	}
	if opts.Deliver == nil {
		return nil, fmt.Errorf("campaign: dispatcher: deliver func is required")
	}
	rules := opts.Rules
	if rules == nil {
		rules = Rules()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	tickSpec := opts.TickSpec
	if tickSpec == "" {
		tickSpec = "* * * * *"
	}
	return &Dispatcher{
		db:          opts.DB,
		engine:      opts.Engine,
		rules:       rules,
		concurrency: concurrency,
		tickSpec:    tickSpec,
		deliver:     opts.Deliver,
		digest:      opts.Digest,
	}, nil
}

// Start begins the tick loop. It returns after scheduling; ticks run on
// the cron's goroutine until Stop.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.cron = cron.New()
	_, err := d.cron.AddFunc(d.tickSpec, func() {
		d.Tick(ctx, time.Now())
	})
	if err != nil {
		return fmt.Errorf("campaign: schedule tick: %w", err)
	}
	d.cron.Start()
	log.Printf("campaign: dispatcher started (tick %q, %d rules)", d.tickSpec, len(d.rules))
	return nil
}

// Stop halts the tick loop and waits for in-flight ticks to finish.
func (d *Dispatcher) Stop() {
	if d.cron != nil {
		<-d.cron.Stop().Done()
	}
	log.Printf("campaign: dispatcher stopped")
}

// Tick evaluates all rules for all active participants at the given
// instant. Exported so operators and tests can force an evaluation.
func (d *Dispatcher) Tick(ctx context.Context, now time.Time) {
	participants, err := store.ActiveParticipants(d.db)
	if err != nil {
		log.Printf("campaign: load participants: %v", err)
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, p := range participants {
		p := p
		g.Go(func() error {
			if err := d.runParticipant(ctx, now, p); err != nil {
				log.Printf("campaign: participant %d: %v", p.ID, err)
			}
			return nil
		})
	}
	g.Wait()
}

// runParticipant fires every rule due for one participant at this instant.
func (d *Dispatcher) runParticipant(ctx context.Context, now time.Time, p models.Participant) error {
	if p.EnrolledAt == nil {
		// The program has not been started for this participant.
		return nil
	}

	day, err := ProgramDay(now, *p.EnrolledAt, p.Timezone)
	if err != nil {
		return err
	}
	if day < 1 || day > 31 {
		return nil
	}
	local, err := LocalTime(now, p.Timezone)
	if err != nil {
		return err
	}

	for _, rule := range d.rules {
		if !rule.AppliesTo(day) || !rule.DueAt(local) {
			continue
		}
		if err := d.fire(ctx, rule, p, now, day); err != nil {
			log.Printf("campaign: rule %s for participant %d: %v", rule.Name, p.ID, err)
		}
	}
	return nil
}

// fire executes one due rule for one participant.
func (d *Dispatcher) fire(ctx context.Context, rule Rule, p models.Participant, now time.Time, day int) error {
	if rule.Digest {
		if d.digest == nil {
			return nil
		}
		return d.digest(ctx, p, day)
	}

	// Dedupe per local day only: a rule listed for several days (nutrition
	// on days 5 and 8) must fire on each of them.
	done, err := store.HasSubmissionOn(d.db, p.ID, rule.Flow, now, p.Timezone)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	out, err := d.engine.Start(&p, rule.Flow, true)
	if err != nil {
		return fmt.Errorf("start %s: %w", rule.Flow, err)
	}
	d.deliver(p, out)
	return nil
}
