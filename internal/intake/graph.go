package intake

import "fmt"

// StepComplete is the sentinel transition target meaning the flow is done.
const StepComplete = "complete"

// StepKind distinguishes how a step's answer arrives.
type StepKind string

const (
	// KindText expects a typed reply validated by the step's Validator.
	KindText StepKind = "text"
	// KindPhoto expects one or more photos; Arity > 1 routes through the
	// batch collector.
	KindPhoto StepKind = "photo"
	// KindVideo expects a single video.
	KindVideo StepKind = "video"
)

// Step is one node in a questionnaire flow.
type Step struct {
	ID      string
	Prompt  string
	Options []string  // keyboard choices forwarded to the transport; empty for free input
	Kind    StepKind  // defaults to KindText
	Check   Validator // required for text steps

	// Next names the step after a valid answer; empty means the next step
	// in declaration order, StepComplete ends the flow.
	Next string

	// Branch, when set, overrides Next. It sees only the answers collected
	// so far in this session and must return an existing step ID or
	// StepComplete.
	Branch func(answers map[string]string) string

	// Arity is the expected number of media parts for photo steps; 0 and 1
	// both mean a single part. PartLabels names each position in arrival
	// order (e.g. front/back/right/left) and must match Arity.
	Arity      int
	PartLabels []string
}

// Graph is a complete questionnaire flow: an ordered set of steps walked by
// the intake engine. Graphs are immutable at runtime.
type Graph struct {
	Type       string // questionnaire-type tag, also the session slot
	Title      string
	Daily      bool   // daily types dedupe per calendar day, others for all time
	Advisory   bool   // forward completed submissions to the advisory collaborator
	Summary    string // stored on the submission
	DoneText   string // sent to the participant on completion
	Steps      []Step
}

// First returns the entry step of the flow.
func (g *Graph) First() *Step {
	return &g.Steps[0]
}

// StepByID returns the step with the given ID, or nil.
func (g *Graph) StepByID(id string) *Step {
	for i := range g.Steps {
		if g.Steps[i].ID == id {
			return &g.Steps[i]
		}
	}
	return nil
}

// NextStep resolves the transition out of the given step: the branch
// function if present, then the explicit Next, then declaration order. The
// last step falls through to StepComplete.
func (g *Graph) NextStep(from *Step, answers map[string]string) string {
	if from.Branch != nil {
		return from.Branch(answers)
	}
	if from.Next != "" {
		return from.Next
	}
	for i := range g.Steps {
		if g.Steps[i].ID == from.ID {
			if i+1 < len(g.Steps) {
				return g.Steps[i+1].ID
			}
			return StepComplete
		}
	}
	return StepComplete
}

// Validate checks the graph's internal consistency: at least one step,
// unique step IDs, resolvable explicit transitions, a validator on every
// text step, and part labels matching multi-part arity. Called once at
// registry build time.
func (g *Graph) Validate() error {
	if g.Type == "" {
		return fmt.Errorf("intake: graph has no type tag")
	}
	if len(g.Steps) == 0 {
		return fmt.Errorf("intake: graph %s has no steps", g.Type)
	}
	seen := make(map[string]bool, len(g.Steps))
	for i := range g.Steps {
		s := &g.Steps[i]
		if s.ID == "" {
			return fmt.Errorf("intake: graph %s: step %d has no id", g.Type, i)
		}
		if s.ID == StepComplete {
			return fmt.Errorf("intake: graph %s: step id %q is reserved", g.Type, StepComplete)
		}
		if seen[s.ID] {
			return fmt.Errorf("intake: graph %s: duplicate step id %q", g.Type, s.ID)
		}
		seen[s.ID] = true
		if s.Kind == "" {
			s.Kind = KindText
		}
		if s.Kind == KindText && s.Check == nil {
			return fmt.Errorf("intake: graph %s: text step %q has no validator", g.Type, s.ID)
		}
		if s.Arity > 1 && len(s.PartLabels) != s.Arity {
			return fmt.Errorf("intake: graph %s: step %q has %d labels for arity %d",
				g.Type, s.ID, len(s.PartLabels), s.Arity)
		}
	}
	for i := range g.Steps {
		s := &g.Steps[i]
		if s.Next != "" && s.Next != StepComplete && !seen[s.Next] {
			return fmt.Errorf("intake: graph %s: step %q transitions to unknown step %q",
				g.Type, s.ID, s.Next)
		}
	}
	return nil
}

// Registry maps questionnaire-type tags to their flow graphs.
type Registry map[string]*Graph

// NewRegistry validates each graph and indexes it by type tag.
func NewRegistry(graphs ...*Graph) (Registry, error) {
	r := make(Registry, len(graphs))
	for _, g := range graphs {
		if err := g.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r[g.Type]; dup {
			return nil, fmt.Errorf("intake: duplicate graph type %q", g.Type)
		}
		r[g.Type] = g
	}
	return r, nil
}
