package design

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/task"
)

type State string

const (
	StateInput       State = "input"
	StateCustomizing State = "customizing"
	StateGenerating  State = "generating"
	StateResult      State = "result"
	StateFailed      State = "failed"
)

// Variant selects the widget the builder drives. Both share one state machine.
type Variant string

const (
	VariantHero   Variant = "hero"
	VariantStudio Variant = "studio"
)

func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case "", VariantHero:
		return VariantHero, nil
	case VariantStudio:
		return VariantStudio, nil
	default:
		return "", fmt.Errorf("%w: unknown variant %q", domain.ErrValidation, s)
	}
}

const (
	MinScale     = 10
	MaxScale     = 200
	ScaleStep    = 5
	DefaultScale = 50

	// UnitPrice is the price of one meter of printed fabric in minor units.
	UnitPrice int64 = 120000

	ItemName = "Custom Fabric Design"
)

var (
	ErrInvalidTransition = errors.New("action not allowed in current state")
	ErrEmptyPrompt       = fmt.Errorf("%w: describe your fabric first", domain.ErrValidation)
)

// Builder is one design session. Its fields are guarded by the owning Service.
type Builder struct {
	id      string
	variant Variant
	state   State
	draft   domain.Draft
	pattern *Pattern
	failure string

	// generation increments on every Generate and Reset; a finishing job only
	// applies its result when its token still matches.
	generation uint64
	job        *task.Job[Pattern]
	settled    chan struct{}
	touched    time.Time
}

func newBuilder(id string, variant Variant, now time.Time) *Builder {
	b := &Builder{id: id, variant: variant, touched: now}
	b.clear()
	return b
}

// clear drops the draft and returns to input.
func (b *Builder) clear() {
	b.state = StateInput
	b.draft = domain.Draft{FabricType: domain.FabricCotton, PatternScale: DefaultScale, Length: 1}
	b.pattern = nil
	b.failure = ""
}

func (b *Builder) require(states ...State) error {
	for _, s := range states {
		if b.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidTransition, b.state)
}

func (b *Builder) setPrompt(prompt string) error {
	if err := b.require(StateInput); err != nil {
		return err
	}
	b.draft.Prompt = prompt
	return nil
}

func (b *Builder) describe(style string, moods []string, useCase string) error {
	if err := b.require(StateInput); err != nil {
		return err
	}
	b.draft.Style = strings.TrimSpace(style)
	b.draft.UseCase = strings.TrimSpace(useCase)
	b.draft.Moods = dedupe(moods)
	return nil
}

// CanCustomize reports whether the input step may advance.
func (b *Builder) CanCustomize() bool {
	return b.state == StateInput && strings.TrimSpace(b.draft.Prompt) != ""
}

func (b *Builder) customize() error {
	if err := b.require(StateInput); err != nil {
		return err
	}
	if !b.CanCustomize() {
		return ErrEmptyPrompt
	}
	b.state = StateCustomizing
	return nil
}

func (b *Builder) back() error {
	if err := b.require(StateCustomizing); err != nil {
		return err
	}
	b.state = StateInput
	return nil
}

func (b *Builder) selectFabric(name string) error {
	if err := b.require(StateCustomizing); err != nil {
		return err
	}
	ft, ok := domain.ParseFabricType(name)
	if !ok {
		return fmt.Errorf("%w: unknown fabric %q", domain.ErrValidation, name)
	}
	b.draft.FabricType = ft
	return nil
}

func (b *Builder) setScale(scale int) error {
	if err := b.require(StateCustomizing); err != nil {
		return err
	}
	if scale < MinScale || scale > MaxScale || scale%ScaleStep != 0 {
		return fmt.Errorf("%w: pattern scale must be %d-%d in steps of %d", domain.ErrValidation, MinScale, MaxScale, ScaleStep)
	}
	b.draft.PatternScale = scale
	return nil
}

func (b *Builder) refine() error {
	if err := b.require(StateResult, StateFailed); err != nil {
		return err
	}
	b.state = StateCustomizing
	b.failure = ""
	return nil
}

func (b *Builder) changeLength(delta int) error {
	if err := b.require(StateResult); err != nil {
		return err
	}
	l := b.draft.Length + delta
	if l < 1 {
		l = 1
	}
	b.draft.Length = l
	return nil
}

func (b *Builder) selectCandidate(index int) error {
	if err := b.require(StateResult); err != nil {
		return err
	}
	if b.pattern == nil || index < 0 || index >= len(b.pattern.Candidates) {
		return fmt.Errorf("%w: no pattern candidate %d", domain.ErrValidation, index)
	}
	b.pattern.Image = b.pattern.Candidates[index]
	return nil
}

// cancelJob stops any pending generation and invalidates its token.
func (b *Builder) cancelJob() {
	b.generation++
	if b.job != nil {
		b.job.Cancel()
		b.job = nil
	}
}

func (b *Builder) TotalPrice() int64 {
	return UnitPrice * int64(b.draft.Length)
}

// Snapshot is the read model of a builder.
type Snapshot struct {
	ID           string       `json:"id"`
	Variant      Variant      `json:"variant"`
	State        State        `json:"state"`
	Draft        domain.Draft `json:"draft"`
	Pattern      *Pattern     `json:"pattern,omitempty"`
	Error        string       `json:"error,omitempty"`
	CanCustomize bool         `json:"canCustomize"`
	UnitPrice    int64        `json:"unitPrice"`
	TotalPrice   int64        `json:"totalPrice"`
	Currency     string       `json:"currency"`
}

func (b *Builder) snapshot() Snapshot {
	s := Snapshot{
		ID:           b.id,
		Variant:      b.variant,
		State:        b.state,
		Draft:        b.draft,
		Error:        b.failure,
		CanCustomize: b.CanCustomize(),
		UnitPrice:    UnitPrice,
		TotalPrice:   b.TotalPrice(),
		Currency:     domain.Currency,
	}
	if b.draft.Moods != nil {
		s.Draft.Moods = append([]string(nil), b.draft.Moods...)
	}
	if b.pattern != nil {
		p := *b.pattern
		p.Candidates = append([]string(nil), b.pattern.Candidates...)
		s.Pattern = &p
	}
	return s
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
