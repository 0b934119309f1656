package credit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-mandi/internal/common"
	dbgen "github.com/noah-isme/backend-mandi/internal/db/gen"
	"github.com/noah-isme/backend-mandi/internal/lock"
	"github.com/noah-isme/backend-mandi/internal/pricing"
)

type queryProvider interface {
	ListRepaymentTiers(ctx context.Context) ([]dbgen.RepaymentTier, error)
	DeleteRepaymentTiers(ctx context.Context) error
	InsertRepaymentTier(ctx context.Context, arg dbgen.InsertRepaymentTierParams) (pgtype.UUID, error)
}

// Cache abstracts the JSON cache used for the configured rules.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, keys ...string) error
}

// Service loads, previews, and updates repayment rules.
type Service struct {
	queries queryProvider
	pool    *pgxpool.Pool
	cache   Cache
	locker  *lock.Locker
}

// ServiceConfig groups Service dependencies. Pool is optional; when set,
// rule updates run inside a transaction. Locker is optional; when set,
// concurrent rule updates are serialised across instances.
type ServiceConfig struct {
	Queries queryProvider
	Pool    *pgxpool.Pool
	Cache   Cache
	Locker  *lock.Locker
}

const (
	rulesCacheKey = "credit:repayment:rules"
	rulesLockKey  = "credit:repayment:rules:lock"
	rulesLockTTL  = 10 * time.Second
)

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("credit: queries provider is required")
	}
	return &Service{queries: cfg.Queries, pool: cfg.Pool, cache: cfg.Cache, locker: cfg.Locker}, nil
}

// Rules returns the configured repayment rules, falling back to the
// defaults when none are stored.
func (s *Service) Rules(ctx context.Context) (Rules, error) {
	if s.cache != nil {
		var cached Rules
		ok, err := s.cache.GetJSON(ctx, rulesCacheKey, &cached)
		if err == nil && ok {
			return cached, nil
		}
	}
	rows, err := s.queries.ListRepaymentTiers(ctx)
	if err != nil {
		return Rules{}, fmt.Errorf("list repayment tiers: %w", err)
	}
	rules := rulesFromRows(rows).Normalize()
	if rules.IsEmpty() {
		rules = DefaultRules()
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, rulesCacheKey, rules)
	}
	return rules, nil
}

// Preview computes the repayment outcome for a subtotal at a slider
// position using the configured rules.
func (s *Service) Preview(ctx context.Context, subtotal pricing.Money, percent float64) (Result, error) {
	if subtotal < 0 {
		return Result{}, &common.AppError{
			Code:       "BAD_REQUEST",
			Message:    "subtotal must not be negative",
			HTTPStatus: http.StatusBadRequest,
			Err:        common.ErrInvalidInput,
		}
	}
	rules, err := s.Rules(ctx)
	if err != nil {
		return Result{}, err
	}
	return Calculate(subtotal, percent, rules), nil
}

// UpdateRules validates and replaces the stored rule set, then drops the
// cached copy.
func (s *Service) UpdateRules(ctx context.Context, rules Rules) error {
	if err := rules.Validate(); err != nil {
		return &common.AppError{
			Code:       "INVALID_TIERS",
			Message:    err.Error(),
			HTTPStatus: http.StatusUnprocessableEntity,
			Err:        common.ErrInvalidInput,
		}
	}
	replace := func(ctx context.Context) error {
		if s.pool != nil {
			return s.replaceInTx(ctx, rules)
		}
		return replaceTiers(ctx, s.queries, rules)
	}
	if s.locker != nil {
		if err := s.locker.WithLock(ctx, rulesLockKey, rulesLockTTL, replace); err != nil {
			return err
		}
	} else if err := replace(ctx); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, rulesCacheKey)
	}
	return nil
}

func (s *Service) replaceInTx(ctx context.Context, rules Rules) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rules update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := replaceTiers(ctx, dbgen.New(tx), rules); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func replaceTiers(ctx context.Context, q queryProvider, rules Rules) error {
	if err := q.DeleteRepaymentTiers(ctx); err != nil {
		return fmt.Errorf("delete repayment tiers: %w", err)
	}
	for i, tier := range sortedByStart(rules.Discounts) {
		if err := insertTier(ctx, q, KindDiscount, tier, i); err != nil {
			return err
		}
	}
	for i, tier := range sortedByStart(rules.Interests) {
		if err := insertTier(ctx, q, KindInterest, tier, i); err != nil {
			return err
		}
	}
	return nil
}

func insertTier(ctx context.Context, q queryProvider, kind string, tier Tier, position int) error {
	_, err := q.InsertRepaymentTier(ctx, dbgen.InsertRepaymentTierParams{
		Kind:     kind,
		StartDay: int32(tier.StartDay),
		EndDay:   int32(tier.EndDay),
		RatePct:  tier.RatePct,
		Label:    tier.Label,
		Position: int32(position),
	})
	if err != nil {
		return fmt.Errorf("insert %s tier: %w", kind, err)
	}
	return nil
}

func rulesFromRows(rows []dbgen.RepaymentTier) Rules {
	var rules Rules
	for _, row := range rows {
		tier := Tier{
			StartDay: int(row.StartDay),
			EndDay:   int(row.EndDay),
			RatePct:  row.RatePct,
			Label:    row.Label,
		}
		switch row.Kind {
		case KindDiscount:
			rules.Discounts = append(rules.Discounts, tier)
		case KindInterest:
			rules.Interests = append(rules.Interests, tier)
		}
	}
	return rules
}
