package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tfashion-storefront/internal/domain"
	"tfashion-storefront/internal/task"
)

// TargetProgress is the completion shown for the stage in progress.
const TargetProgress = 65

var ErrInvalidTimeline = errors.New("invalid timeline")

func intPtr(v int) *int { return &v }

var currentOrder = domain.Order{
	ID:      "TF-8821",
	Date:    "Sept 21, 2024",
	Total:   "KES 2,400",
	Status:  "In Production",
	Address: "Block B, Apartment 4B, Kileleshwa, Nairobi",
	ETA:     "Sept 25 - Sept 27",
	Timeline: []domain.TimelineStage{
		{ID: 1, Title: "Payment Received", Date: "Sept 21, 10:43 AM", Description: "Your order has been confirmed securely.", Status: domain.StageCompleted, Icon: "check"},
		{ID: 2, Title: "Design Finalized", Date: "Sept 21, 11:15 AM", Description: "Your custom fabric pattern has been locked in for printing.", Status: domain.StageCompleted, Icon: "sparkles"},
		{ID: 3, Title: "In Production", Date: "In progress", Description: "Your fabric is being carefully printed by our artisans. This usually takes 2-3 days.", Status: domain.StageCurrent, Icon: "package", Progress: intPtr(TargetProgress)},
		{ID: 4, Title: "Quality Check", Date: "Est. Sept 24", Description: "We inspect every inch to ensure it meets our premium standards.", Status: domain.StageUpcoming, Icon: "check"},
		{ID: 5, Title: "Out for Delivery", Date: "Est. Sept 25", Description: "It's on the move to you!", Status: domain.StageUpcoming, Icon: "truck"},
		{ID: 6, Title: "Delivered", Date: "-", Description: "We hope you love it. Tell us how it feels.", Status: domain.StageUpcoming, Icon: "map-pin"},
	},
}

// Validate checks that stages are ordered by id, at most one is current, every
// stage before it is completed and every stage after it is upcoming.
func Validate(stages []domain.TimelineStage) error {
	phase := domain.StageCompleted
	for i, st := range stages {
		if i > 0 && st.ID <= stages[i-1].ID {
			return fmt.Errorf("%w: stage %d out of order", ErrInvalidTimeline, st.ID)
		}
		switch st.Status {
		case domain.StageCompleted:
			if phase != domain.StageCompleted {
				return fmt.Errorf("%w: completed stage %d after unfinished stage", ErrInvalidTimeline, st.ID)
			}
		case domain.StageCurrent:
			if phase != domain.StageCompleted {
				return fmt.Errorf("%w: more than one current stage", ErrInvalidTimeline)
			}
			phase = domain.StageUpcoming
		case domain.StageUpcoming:
			phase = domain.StageUpcoming
		default:
			return fmt.Errorf("%w: stage %d has status %q", ErrInvalidTimeline, st.ID, st.Status)
		}
		if st.Progress != nil && (*st.Progress < 0 || *st.Progress > 100) {
			return fmt.Errorf("%w: stage %d progress %d", ErrInvalidTimeline, st.ID, *st.Progress)
		}
	}
	return nil
}

// Status is the order plus when it was last refreshed.
type Status struct {
	Order       domain.Order `json:"order"`
	LastUpdated string       `json:"lastUpdated"`
	RefreshedAt time.Time    `json:"refreshedAt"`
}

// Tick is one message of the live progress feed.
type Tick struct {
	Stage       int    `json:"stage"`
	Progress    int    `json:"progress"`
	LastUpdated string `json:"lastUpdated,omitempty"`
}

type Service struct {
	refreshDelay  time.Duration
	progressDelay time.Duration
	heartbeat     time.Duration
	now           func() time.Time
}

func New(refreshDelay, progressDelay time.Duration) *Service {
	return &Service{
		refreshDelay:  refreshDelay,
		progressDelay: progressDelay,
		heartbeat:     time.Minute,
		now:           time.Now,
	}
}

// Current returns a copy of the tracked order.
func (s *Service) Current() domain.Order {
	o := currentOrder
	o.Timeline = make([]domain.TimelineStage, len(currentOrder.Timeline))
	for i, st := range currentOrder.Timeline {
		if st.Progress != nil {
			st.Progress = intPtr(*st.Progress)
		}
		o.Timeline[i] = st
	}
	return o
}

// Lookup returns the order with id.
func (s *Service) Lookup(id string) (domain.Order, error) {
	if id != currentOrder.ID {
		return domain.Order{}, domain.ErrNotFound
	}
	return s.Current(), nil
}

func (s *Service) Status() Status {
	return Status{Order: s.Current(), LastUpdated: "Just now", RefreshedAt: s.now().UTC()}
}

// Refresh simulates re-fetching the order. The data never changes.
func (s *Service) Refresh(ctx context.Context) (Status, error) {
	if err := task.Sleep(ctx, s.refreshDelay); err != nil {
		return Status{}, err
	}
	return s.Status(), nil
}

func currentStage(o domain.Order) int {
	for _, st := range o.Timeline {
		if st.Status == domain.StageCurrent {
			return st.ID
		}
	}
	return 0
}

// Progress feeds the live view: progress 0, then the target once after the
// progress delay, then a clock heartbeat until ctx is done or emit fails.
func (s *Service) Progress(ctx context.Context, emit func(Tick) error) error {
	stage := currentStage(currentOrder)
	if err := emit(Tick{Stage: stage, Progress: 0}); err != nil {
		return err
	}
	if err := task.Sleep(ctx, s.progressDelay); err != nil {
		return nil
	}
	if err := emit(Tick{Stage: stage, Progress: TargetProgress}); err != nil {
		return err
	}

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := emit(Tick{Stage: stage, Progress: TargetProgress, LastUpdated: s.now().Format("15:04")}); err != nil {
				return err
			}
		}
	}
}
