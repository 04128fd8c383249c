/*
service.go - Orchestrates the engine over a Repository

PURPOSE:
  The pure functions in this package take plans and return plans. Service is
  the thin shell that loads them from the store, runs one operation, writes
  the result back and reports it.

RECORD PAYMENT FLOW (one store transaction):
  1. Validate the command (no store access on failure)
  2. Load plans and the audit log
  3. Reject a replayed idempotency key
  4. Allocate
  5. Save plans, append the audit record
  6. After commit: metrics, log line, receipt rendering

  If any step in 2-5 fails nothing is written. Receipt rendering happens
  outside the transaction and its failure does not undo the payment.

SEE ALSO:
  - allocate.go: the allocation itself
  - store.go: Repository and TxRepository
*/
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	repo     TxRepository
	logger   *zap.Logger
	renderer Renderer
	now      func() time.Time
}

type Option func(*Service)

// WithRenderer sets the receipt renderer called after each recorded payment.
func WithRenderer(r Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo TxRepository, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PaymentResult is returned by RecordPayment.
type PaymentResult struct {
	Plan        InstallmentPlan
	Transaction InstallmentTransaction
	Receipt     Receipt

	// Rendered is the renderer output, nil without a renderer or on render failure.
	Rendered []byte
}

// =============================================================================
// WRITES
// =============================================================================

// RecordPayment applies cmd and persists the result atomically.
// An empty IdempotencyKey is replaced with a generated one.
func (s *Service) RecordPayment(ctx context.Context, cmd PaymentCommand) (*PaymentResult, error) {
	log := s.logger.With(
		zap.String("plan_id", cmd.PlanID),
		zap.Int("payment_number", cmd.PaymentNumber),
		zap.String("amount", cmd.Amount.String()),
		zap.String("method", string(cmd.Method)),
	)

	if err := cmd.Validate(); err != nil {
		s.reject(log, err)
		return nil, err
	}
	if cmd.IdempotencyKey == "" {
		cmd.IdempotencyKey = uuid.NewString()
	}

	var alloc Allocation
	err := s.repo.WithTx(ctx, func(repo Repository) error {
		plans, err := repo.LoadPlans(ctx)
		if err != nil {
			return err
		}
		txs, err := repo.LoadInstallmentTransactions(ctx)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			if tx.IdempotencyKey == cmd.IdempotencyKey {
				return ErrDuplicateIdempotencyKey
			}
		}

		alloc, err = Allocate(plans, cmd, s.now())
		if err != nil {
			return err
		}
		if err := repo.SavePlans(ctx, alloc.Plans); err != nil {
			return err
		}
		return repo.AppendInstallmentTransaction(ctx, alloc.Transaction)
	})
	if err != nil {
		s.reject(log, err)
		return nil, err
	}

	entry := alloc.After.Payments[mustIndex(alloc.After, cmd.PaymentNumber)]
	paymentsRecorded.WithLabelValues(string(cmd.Method), string(entry.Status)).Inc()
	amountCollected.Add(cmd.Amount.Float64())
	if alloc.Before.Status != PlanCompleted && alloc.After.Status == PlanCompleted {
		plansCompleted.Inc()
	}

	log.Info("payment recorded",
		zap.String("transaction_id", alloc.Transaction.ID),
		zap.String("entry_status", string(entry.Status)),
		zap.String("remaining_balance", alloc.After.RemainingBalance.String()),
		zap.String("plan_status", string(alloc.After.Status)),
		zap.Int("version", alloc.After.Version),
	)

	result := &PaymentResult{
		Plan:        alloc.After,
		Transaction: alloc.Transaction,
		Receipt:     alloc.Receipt,
	}
	if s.renderer != nil {
		doc, err := s.renderer.Render(alloc.Receipt)
		if err != nil {
			log.Warn("receipt rendering failed", zap.Error(err))
		} else {
			result.Rendered = doc
		}
	}
	return result, nil
}

func (s *Service) reject(log *zap.Logger, err error) {
	reason := rejectReason(err)
	paymentsRejected.WithLabelValues(reason).Inc()
	if IsClientError(err) || IsNotFound(err) || IsRetryable(err) {
		log.Info("payment rejected", zap.String("reason", reason), zap.Error(err))
		return
	}
	log.Error("payment failed", zap.Error(err))
}

func mustIndex(p InstallmentPlan, number int) int {
	i, _ := p.Payment(number)
	return i
}

// =============================================================================
// READS
// =============================================================================

// Plans returns the canonical plans matching f.
func (s *Service) Plans(ctx context.Context, f PlanFilter) ([]InstallmentPlan, error) {
	plans, err := s.repo.LoadPlans(ctx)
	if err != nil {
		return nil, err
	}
	return FilterPlans(plans, f), nil
}

func (s *Service) Plan(ctx context.Context, id string) (InstallmentPlan, error) {
	plans, err := s.repo.LoadPlans(ctx)
	if err != nil {
		return InstallmentPlan{}, err
	}
	return FindPlan(plans, id)
}

// DuePlans returns plans with an entry due today or earlier.
func (s *Service) DuePlans(ctx context.Context, limit int) ([]InstallmentPlan, error) {
	plans, err := s.repo.LoadPlans(ctx)
	if err != nil {
		return nil, err
	}
	return DuePlans(plans, s.now(), limit), nil
}

func (s *Service) Kpis(ctx context.Context) (Kpis, error) {
	plans, err := s.repo.LoadPlans(ctx)
	if err != nil {
		return Kpis{}, err
	}
	return ComputeKpis(plans, s.now()), nil
}

// Transactions returns the audit log, restricted to one plan when planID is set.
func (s *Service) Transactions(ctx context.Context, planID string) ([]InstallmentTransaction, error) {
	txs, err := s.repo.LoadInstallmentTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return PlanTransactions(txs, planID), nil
}

// Receipt rebuilds the receipt of a recorded payment for reprinting.
func (s *Service) Receipt(ctx context.Context, planID string, number int) (Receipt, error) {
	txs, err := s.repo.LoadInstallmentTransactions(ctx)
	if err != nil {
		return Receipt{}, err
	}
	tx, err := FindPaymentTransaction(txs, planID, number)
	if err != nil {
		return Receipt{}, err
	}
	return ReceiptFromTransaction(tx), nil
}

func (s *Service) Sales(ctx context.Context, f SalesFilter) ([]Transaction, error) {
	sales, err := s.repo.LoadSales(ctx)
	if err != nil {
		return nil, err
	}
	return FilterSales(sales, f), nil
}

// SalesStats summarizes sales, for one customer when customerID is set.
func (s *Service) SalesStats(ctx context.Context, customerID string) (SalesStats, error) {
	sales, err := s.repo.LoadSales(ctx)
	if err != nil {
		return SalesStats{}, err
	}
	if customerID != "" {
		sales = FilterSales(sales, SalesFilter{CustomerID: customerID})
	}
	return SummarizeSales(sales), nil
}

// Now is the service clock.
func (s *Service) Now() time.Time { return s.now() }
