package inward

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/receiving/internal/confirm"
	"github.com/odyssey-erp/receiving/internal/platform/store"
)

// GateName labels the bundle inward quantity gate in metrics.
const GateName = "bundle_inward"

// Repository persists inward entries between requests.
type Repository interface {
	Create(ctx context.Context, id string, in Inward) error
	Get(ctx context.Context, id string) (Inward, error)
	Update(ctx context.Context, id string, fn func(*Inward) error) (Inward, error)
	Take(ctx context.Context, id string, fn func(Inward) error) error
	Delete(ctx context.Context, id string) error
}

// Submitter sends a finished inward to the backend.
type Submitter interface {
	SaveBundleInward(ctx context.Context, payload SavePayload, idempotencyKey string) (SaveResult, error)
}

// GateObserver receives quantity gate transitions.
type GateObserver interface {
	ObserveGate(gate string, state confirm.State)
}

// Service coordinates inward state with the backend.
type Service struct {
	repo      Repository
	submitter Submitter
	observer  GateObserver
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the inward service. observer may be nil.
func NewService(repo Repository, submitter Submitter, observer GateObserver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, submitter: submitter, observer: observer, logger: logger, now: time.Now}
}

// Open stores an empty inward for header.
func (s *Service) Open(ctx context.Context, header Header) (Inward, error) {
	in := New(uuid.NewString(), header, s.now().UTC())
	if err := s.repo.Create(ctx, in.ID, in); err != nil {
		return Inward{}, err
	}
	s.logger.Info("inward opened",
		slog.String("inward_id", in.ID),
		slog.String("purchase_order_id", header.PurchaseOrderID))
	return in, nil
}

// Get returns an inward entry.
func (s *Service) Get(ctx context.Context, id string) (Inward, error) {
	in, err := s.repo.Get(ctx, id)
	return in, mapStoreErr(err)
}

// AddBill validates the bill and adds it or parks it for confirmation.
func (s *Service) AddBill(ctx context.Context, id string, b Bill) (confirm.State, Inward, error) {
	return s.decide(ctx, id, func(in *Inward) (confirm.State, error) {
		return in.AddBill(b)
	})
}

// Proceed adds the bill waiting for confirmation.
func (s *Service) Proceed(ctx context.Context, id string) (confirm.State, Inward, error) {
	return s.decide(ctx, id, (*Inward).Proceed)
}

// Cancel discards the bill waiting for confirmation.
func (s *Service) Cancel(ctx context.Context, id string) (confirm.State, Inward, error) {
	return s.decide(ctx, id, (*Inward).Cancel)
}

// RemoveBill deletes an added bill.
func (s *Service) RemoveBill(ctx context.Context, id string, index int) (Inward, error) {
	return s.mutate(ctx, id, func(in *Inward) error {
		return in.RemoveBill(index)
	})
}

// Save submits the bills using the inward id as idempotency key. The entry
// stays locked until the backend answers and is discarded once it accepts.
func (s *Service) Save(ctx context.Context, id string) (SaveResult, error) {
	var (
		res   SaveResult
		saved bool
	)
	err := s.repo.Take(ctx, id, func(in Inward) error {
		payload, err := in.SavePayload()
		if err != nil {
			return err
		}
		res, err = s.submitter.SaveBundleInward(ctx, payload, in.ID)
		if err != nil {
			s.logger.Warn("bundle inward save failed", slog.String("inward_id", id), slog.Any("error", err))
			return err
		}
		saved = true
		return nil
	})
	if err != nil && !saved {
		return SaveResult{}, mapStoreErr(err)
	}
	if err != nil {
		s.logger.Error("discard saved inward", slog.String("inward_id", id), slog.Any("error", err))
	}
	return res, nil
}

// Discard drops an inward entry without saving.
func (s *Service) Discard(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) decide(ctx context.Context, id string, step func(*Inward) (confirm.State, error)) (confirm.State, Inward, error) {
	var state confirm.State
	in, err := s.mutate(ctx, id, func(in *Inward) error {
		var err error
		state, err = step(in)
		return err
	})
	if err != nil {
		return state, in, err
	}
	if s.observer != nil {
		s.observer.ObserveGate(GateName, state)
	}
	return state, in, nil
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*Inward) error) (Inward, error) {
	in, err := s.repo.Update(ctx, id, func(in *Inward) error {
		if err := fn(in); err != nil {
			return err
		}
		in.UpdatedAt = s.now().UTC()
		return nil
	})
	return in, mapStoreErr(err)
}

func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
