package receiving

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/receiving/internal/confirm"
	"github.com/odyssey-erp/receiving/internal/gridnav"
	"github.com/odyssey-erp/receiving/internal/platform/store"
	"github.com/odyssey-erp/receiving/internal/pricing"
)

// GateName labels the GRN quantity gate in metrics.
const GateName = "grn"

// Repository persists worksheets between requests.
type Repository interface {
	Create(ctx context.Context, id string, ws Worksheet) error
	Get(ctx context.Context, id string) (Worksheet, error)
	Update(ctx context.Context, id string, fn func(*Worksheet) error) (Worksheet, error)
	Take(ctx context.Context, id string, fn func(Worksheet) error) error
	Delete(ctx context.Context, id string) error
}

// RulesProvider supplies the round-off rules snapshot for new worksheets.
type RulesProvider interface {
	Rules(ctx context.Context) ([]pricing.RoundOffRule, error)
}

// LabelSource loads a master attribute list.
type LabelSource interface {
	Labels(ctx context.Context, kind LabelKind) ([]Label, error)
}

// Submitter sends a finished GRN to the backend.
type Submitter interface {
	SaveGRN(ctx context.Context, payload SavePayload, idempotencyKey string) (SaveResult, error)
}

// GateObserver receives quantity gate transitions.
type GateObserver interface {
	ObserveGate(gate string, state confirm.State)
}

// CursorMove either focuses an explicit cell or, when Focus is nil,
// advances as Enter would.
type CursorMove struct {
	Focus *gridnav.Cell `json:"focus"`
}

// CursorPosition is the cursor after a move. Done is true once the last
// editable cell has been passed.
type CursorPosition struct {
	Cell gridnav.Cell `json:"cell"`
	Done bool         `json:"done"`
}

// Service coordinates worksheet state with rules, labels and the backend.
type Service struct {
	repo      Repository
	rules     RulesProvider
	labels    LabelSource
	submitter Submitter
	observer  GateObserver
	logger    *slog.Logger
	now       func() time.Time
	render    func(Worksheet, io.Writer) error
}

// NewService constructs the receiving service. observer may be nil.
func NewService(repo Repository, rules RulesProvider, labels LabelSource, submitter Submitter, observer GateObserver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		rules:     rules,
		labels:    labels,
		submitter: submitter,
		observer:  observer,
		logger:    logger,
		now:       time.Now,
		render:    WriteStickerSheet,
	}
}

// Open loads the rules and the four label lists concurrently and stores a
// fresh worksheet for header.
func (s *Service) Open(ctx context.Context, header Header) (Worksheet, error) {
	var (
		rules []pricing.RoundOffRule
		lists = make([][]Label, len(LabelKinds))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loaded, err := s.rules.Rules(gctx)
		if err != nil {
			return fmt.Errorf("receiving: load rules: %w", err)
		}
		rules = loaded
		return nil
	})
	for i, kind := range LabelKinds {
		g.Go(func() error {
			loaded, err := s.labels.Labels(gctx, kind)
			if err != nil {
				return fmt.Errorf("receiving: load %s: %w", kind, err)
			}
			lists[i] = loaded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Worksheet{}, err
	}

	var labels LabelSet
	for i, kind := range LabelKinds {
		labels.Set(kind, lists[i])
	}
	ws := NewWorksheet(uuid.NewString(), header, rules, labels, s.now().UTC())
	if err := s.repo.Create(ctx, ws.ID, ws); err != nil {
		return Worksheet{}, err
	}
	s.logger.Info("worksheet opened",
		slog.String("worksheet_id", ws.ID),
		slog.String("purchase_order_id", header.PurchaseOrderID),
		slog.Int("rules", len(rules)))
	return ws, nil
}

// Get returns a worksheet.
func (s *Service) Get(ctx context.Context, id string) (Worksheet, error) {
	ws, err := s.repo.Get(ctx, id)
	return ws, mapStoreErr(err)
}

// ConfigureBatch applies form changes, regenerating rows when needed.
func (s *Service) ConfigureBatch(ctx context.Context, id string, u BatchUpdate) (Worksheet, error) {
	return s.mutate(ctx, id, func(ws *Worksheet) error {
		_, err := ws.Configure(u)
		return err
	})
}

// UpdateRow edits one row cell.
func (s *Service) UpdateRow(ctx context.Context, id string, index int, field Field, value string) (Worksheet, error) {
	return s.mutate(ctx, id, func(ws *Worksheet) error {
		return ws.UpdateRow(index, field, value)
	})
}

// DeleteRow removes one row from the batch.
func (s *Service) DeleteRow(ctx context.Context, id string, index int) (Worksheet, error) {
	return s.mutate(ctx, id, func(ws *Worksheet) error {
		return ws.DeleteRow(index)
	})
}

// ValidateBatch runs the pre-commit checks without changing anything.
func (s *Service) ValidateBatch(ctx context.Context, id string) (ValidationResult, error) {
	ws, err := s.Get(ctx, id)
	if err != nil {
		return ValidationResult{}, err
	}
	return ws.Validate(), nil
}

// AddBatch validates the batch and commits it or parks it for confirmation.
func (s *Service) AddBatch(ctx context.Context, id string) (confirm.State, Worksheet, error) {
	return s.decide(ctx, id, (*Worksheet).AddBatch)
}

// Proceed commits the batch waiting for confirmation.
func (s *Service) Proceed(ctx context.Context, id string) (confirm.State, Worksheet, error) {
	return s.decide(ctx, id, (*Worksheet).Proceed)
}

// Cancel discards the batch waiting for confirmation.
func (s *Service) Cancel(ctx context.Context, id string) (confirm.State, Worksheet, error) {
	return s.decide(ctx, id, (*Worksheet).Cancel)
}

func (s *Service) decide(ctx context.Context, id string, step func(*Worksheet) (confirm.State, error)) (confirm.State, Worksheet, error) {
	var state confirm.State
	ws, err := s.mutate(ctx, id, func(ws *Worksheet) error {
		var err error
		state, err = step(ws)
		return err
	})
	if err != nil {
		return state, ws, err
	}
	if s.observer != nil {
		s.observer.ObserveGate(GateName, state)
	}
	return state, ws, nil
}

// RemoveItem deletes a committed item.
func (s *Service) RemoveItem(ctx context.Context, id string, index int) (Worksheet, error) {
	return s.mutate(ctx, id, func(ws *Worksheet) error {
		return ws.RemoveItem(index)
	})
}

// MoveCursor moves the grid cursor over the batch rows.
func (s *Service) MoveCursor(ctx context.Context, id string, move CursorMove) (CursorPosition, error) {
	var pos CursorPosition
	_, err := s.mutate(ctx, id, func(ws *Worksheet) error {
		if move.Focus != nil {
			if err := ws.Cursor.FocusCell(*move.Focus); err != nil {
				return err
			}
			pos.Cell = *move.Focus
			return nil
		}
		cell, ok := ws.Cursor.Next()
		pos = CursorPosition{Cell: cell, Done: !ok}
		return nil
	})
	return pos, err
}

// Export writes the worksheet sticker sheet to dst.
func (s *Service) Export(ctx context.Context, id string, dst io.Writer) error {
	ws, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.render(ws, dst)
}

// Save submits the committed items to the backend with the worksheet id as
// the idempotency key. The worksheet stays locked until the backend answers;
// it is discarded after a successful save and kept after a failed one.
func (s *Service) Save(ctx context.Context, id string) (SaveResult, error) {
	var (
		res   SaveResult
		items int
		saved bool
	)
	err := s.repo.Take(ctx, id, func(ws Worksheet) error {
		payload, err := ws.SavePayload()
		if err != nil {
			return err
		}
		res, err = s.submitter.SaveGRN(ctx, payload, ws.ID)
		if err != nil {
			s.logger.Warn("grn save failed",
				slog.String("worksheet_id", id),
				slog.Any("error", err))
			return err
		}
		items, saved = len(payload.Items), true
		return nil
	})
	if err != nil && !saved {
		return SaveResult{}, mapStoreErr(err)
	}
	if err != nil {
		s.logger.Error("discard saved worksheet",
			slog.String("worksheet_id", id),
			slog.Any("error", err))
	}
	s.logger.Info("grn saved",
		slog.String("worksheet_id", id),
		slog.String("grn_id", res.ID),
		slog.Int("items", items))
	return res, nil
}

// Discard drops a worksheet without saving.
func (s *Service) Discard(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*Worksheet) error) (Worksheet, error) {
	ws, err := s.repo.Update(ctx, id, func(ws *Worksheet) error {
		if err := fn(ws); err != nil {
			return err
		}
		ws.UpdatedAt = s.now().UTC()
		return nil
	})
	return ws, mapStoreErr(err)
}

func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
