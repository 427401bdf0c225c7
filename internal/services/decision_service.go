package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mwarner/loginguard/internal/classifier"
	"github.com/mwarner/loginguard/internal/metrics"
	"github.com/mwarner/loginguard/internal/models"
	"github.com/mwarner/loginguard/internal/policy"
	pkglogger "github.com/mwarner/loginguard/pkg/logger"
)

// AttemptLedger defines the ledger operations the service needs
type AttemptLedger interface {
	Append(ctx context.Context, attempt *models.LoginAttempt) (int64, error)
	RecentAttempts(ctx context.Context, limit int) ([]models.LoginAttempt, error)
	PurgeTx(ctx context.Context, tx pgx.Tx, address, application string) error
}

// DecisionCache defines the per-address decision cache operations
type DecisionCache interface {
	Upsert(ctx context.Context, address string, decision models.Decision, now int64) error
	Read(ctx context.Context, address string) (models.Decision, error)
	ListBlocked(ctx context.Context) ([]models.BlockedAddress, error)
	Purge(ctx context.Context, address string) error
	PurgeTx(ctx context.Context, tx pgx.Tx, address string) error
}

// FeatureExtractor computes the behavioral vector for an address
type FeatureExtractor interface {
	Extract(ctx context.Context, address string, now time.Time) (models.FeatureVector, error)
}

// TxRunner runs a function inside a database transaction
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error
}

// DecisionService orchestrates a scoring pass: record the attempt, extract
// features over the trailing window, score, classify and cache the verdict.
type DecisionService struct {
	ledger      AttemptLedger
	cache       DecisionCache
	extractor   FeatureExtractor
	scorer      classifier.Scorer
	tx          TxRunner
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	defaultApp  string
	now         func() time.Time
}

// NewDecisionService creates a new DecisionService
func NewDecisionService(
	ledger AttemptLedger,
	cache DecisionCache,
	extractor FeatureExtractor,
	scorer classifier.Scorer,
	tx TxRunner,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
	defaultApp string,
) *DecisionService {
	return &DecisionService{
		ledger:      ledger,
		cache:       cache,
		extractor:   extractor,
		scorer:      scorer,
		tx:          tx,
		logger:      logger,
		auditLogger: auditLogger,
		defaultApp:  defaultApp,
		now:         time.Now,
	}
}

// DecideInput is one observed login attempt to score. Probe requests are
// scored without being recorded, so enforcement pre-checks do not poison
// the ledger they are scored from.
type DecideInput struct {
	Address     string
	Username    string
	Success     bool
	UserAgent   string
	Application string
	Probe       bool
}

// DecideResult is the verdict for the address as of this pass.
type DecideResult struct {
	Decision models.Decision `json:"decision"`
	Score    float64         `json:"score"`
}

// AddressScore is an entry in the administrative scores view: the verdict
// an address would receive if it attempted a login right now, next to the
// verdict still sitting in the cache. The two drift apart as the window
// slides.
type AddressScore struct {
	Address  string  `json:"address"`
	Decision string  `json:"decision"`
	Cached   string  `json:"cached_decision"`
	Score    float64 `json:"score"`
	LastSeen int64   `json:"last_seen"`
}

// LogAndDecide runs a full scoring pass for one attempt. The attempt is
// appended first so it is part of the window it is scored against; if the
// append fails there is no decision, because a verdict computed from a
// window missing its own attempt would understate the risk.
func (s *DecisionService) LogAndDecide(ctx context.Context, in DecideInput) (*DecideResult, error) {
	timer := time.Now()
	defer func() {
		metrics.ScoringDuration.Observe(time.Since(timer).Seconds())
	}()

	now := s.now()

	application := in.Application
	if application == "" {
		application = s.defaultApp
	}

	if !in.Probe {
		attempt := &models.LoginAttempt{
			AttemptTime: now.Unix(),
			Address:     in.Address,
			Username:    in.Username,
			Success:     in.Success,
			UserAgent:   in.UserAgent,
			Application: application,
		}

		if _, err := s.ledger.Append(ctx, attempt); err != nil {
			s.logger.Error("failed to append login attempt",
				slog.String("address", in.Address),
				slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
	}

	fv, err := s.extractor.Extract(ctx, in.Address, now)
	if err != nil {
		s.logger.Error("feature extraction failed",
			slog.String("address", in.Address),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	score := s.scorer.Score(fv)
	decision := policy.Classify(score)

	if err := s.cache.Upsert(ctx, in.Address, decision, now.Unix()); err != nil {
		s.logger.Error("failed to cache decision",
			slog.String("address", in.Address),
			slog.String("decision", decision.String()),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	metrics.DecisionsTotal.WithLabelValues(decision.String()).Inc()
	s.auditLogger.LogDecision(pkglogger.DecisionEvent{
		Address:     in.Address,
		Username:    in.Username,
		Application: application,
		Decision:    decision.String(),
		Score:       score,
		Probe:       in.Probe,
	})

	return &DecideResult{Decision: decision, Score: score}, nil
}

// ListBlocked returns every address currently held at block.
func (s *DecisionService) ListBlocked(ctx context.Context) ([]models.BlockedAddress, error) {
	blocked, err := s.cache.ListBlocked(ctx)
	if err != nil {
		s.logger.Error("failed to list blocked addresses", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return blocked, nil
}

// Unblock clears the cached verdict for an address so it reverts to the
// implicit allow. With purgeHistory the ledger rows are removed in the same
// transaction, so the address cannot be re-blocked by a scoring pass that
// still sees the old window.
func (s *DecisionService) Unblock(ctx context.Context, address, application string, purgeHistory bool) error {
	if purgeHistory {
		err := s.tx.WithTransaction(ctx, func(tx pgx.Tx) error {
			if err := s.ledger.PurgeTx(ctx, tx, address, application); err != nil {
				return err
			}
			return s.cache.PurgeTx(ctx, tx, address)
		})
		if err != nil {
			s.logger.Error("failed to unblock address with history purge",
				slog.String("address", address),
				slog.Any("error", err))
			return models.ErrInternalServer
		}
	} else {
		if err := s.cache.Purge(ctx, address); err != nil {
			s.logger.Error("failed to unblock address",
				slog.String("address", address),
				slog.Any("error", err))
			return models.ErrInternalServer
		}
	}

	metadata := map[string]string{"purge_history": "false"}
	if purgeHistory {
		metadata["purge_history"] = "true"
		if application != "" {
			metadata["application"] = application
		}
	}
	s.auditLogger.LogAdminAction("unblock", address, metadata)

	return nil
}

// Scores computes the current verdict for the addresses seen in the most
// recent attempts. This is a read-only view: nothing is appended and nothing
// is cached, the scores are what a probe would return right now.
func (s *DecisionService) Scores(ctx context.Context, limit int) ([]AddressScore, error) {
	attempts, err := s.ledger.RecentAttempts(ctx, limit)
	if err != nil {
		s.logger.Error("failed to load recent attempts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := s.now()
	seen := make(map[string]bool, len(attempts))
	scores := make([]AddressScore, 0, len(attempts))
	for _, a := range attempts {
		if seen[a.Address] {
			continue
		}
		seen[a.Address] = true

		fv, err := s.extractor.Extract(ctx, a.Address, now)
		if err != nil {
			s.logger.Error("feature extraction failed",
				slog.String("address", a.Address),
				slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		cached, err := s.cache.Read(ctx, a.Address)
		if err != nil {
			s.logger.Error("failed to read cached decision",
				slog.String("address", a.Address),
				slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		score := s.scorer.Score(fv)
		scores = append(scores, AddressScore{
			Address:  a.Address,
			Decision: policy.Classify(score).String(),
			Cached:   cached.String(),
			Score:    score,
			LastSeen: a.AttemptTime,
		})
	}

	return scores, nil
}
