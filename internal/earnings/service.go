package earnings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/tradelink-backend/pkg/db"
	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradelink-backend/pkg/errors"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"github.com/angelmondragon/tradelink-backend/pkg/metrics"
	"github.com/angelmondragon/tradelink-backend/pkg/pagination"
	"github.com/google/uuid"
)

const maxSettleBatch = 500

// Service exposes seller earnings reads and admin settlement.
type Service interface {
	Settle(ctx context.Context, input SettleInput) (*SettleResult, error)
	List(ctx context.Context, sellerID uuid.UUID, status *enums.EarningStatus, params pagination.Params) (*pagination.Page[models.SellerEarning], error)
	Summary(ctx context.Context, sellerID uuid.UUID) ([]StatusTotal, error)
}

// SettleInput names the earnings an admin is paying out.
type SettleInput struct {
	ActorRole  enums.UserRole
	EarningIDs []uuid.UUID
	Notes      string
}

// SettleResult reports which earnings moved to settled. Skipped ids were
// unknown or not pending.
type SettleResult struct {
	Settled int64       `json:"settled"`
	Skipped []uuid.UUID `json:"skipped"`
}

type service struct {
	repo    Repository
	logg    *logger.Logger
	metrics *metrics.EngineMetrics
	now     func() time.Time
}

// NewService wires the earnings service.
func NewService(repo Repository, logg *logger.Logger, m *metrics.EngineMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("earnings repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, metrics: m, now: time.Now}, nil
}

func (s *service) Settle(ctx context.Context, input SettleInput) (*SettleResult, error) {
	if input.ActorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can settle earnings")
	}
	ids := dedupe(input.EarningIDs)
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "earning_ids is required")
	}
	if len(ids) > maxSettleBatch {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d earnings per settlement", maxSettleBatch))
	}

	existing, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, db.MapError(err, "load earnings")
	}
	pending := map[uuid.UUID]bool{}
	for _, e := range existing {
		if e.Status == enums.EarningStatusPending {
			pending[e.ID] = true
		}
	}

	var notes *string
	if trimmed := strings.TrimSpace(input.Notes); trimmed != "" {
		notes = &trimmed
	}
	settled, err := s.repo.Settle(ctx, ids, notes, s.now())
	if err != nil {
		return nil, db.MapError(err, "settle earnings")
	}

	skipped := []uuid.UUID{}
	for _, id := range ids {
		if !pending[id] {
			skipped = append(skipped, id)
		}
	}
	s.metrics.Settled(settled)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"settled": settled,
		"skipped": len(skipped),
	}), "earnings settled")
	return &SettleResult{Settled: settled, Skipped: skipped}, nil
}

func (s *service) List(ctx context.Context, sellerID uuid.UUID, status *enums.EarningStatus, params pagination.Params) (*pagination.Page[models.SellerEarning], error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	rows, err := s.repo.ListBySeller(ctx, sellerID, status, params)
	if err != nil {
		return nil, db.MapError(err, "list earnings")
	}
	page := pagination.Trim(rows, params.Limit, func(e models.SellerEarning) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	})
	return &page, nil
}

func (s *service) Summary(ctx context.Context, sellerID uuid.UUID) ([]StatusTotal, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	totals, err := s.repo.SummaryBySeller(ctx, sellerID)
	if err != nil {
		return nil, db.MapError(err, "summarize earnings")
	}
	return totals, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
