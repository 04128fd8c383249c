package ledger

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pos_ledger",
		Name:      "payments_recorded_total",
		Help:      "Installment payments recorded, by method and resulting entry status.",
	}, []string{"method", "status"})

	paymentsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pos_ledger",
		Name:      "payments_rejected_total",
		Help:      "Installment payments rejected, by reason.",
	}, []string{"reason"})

	amountCollected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pos_ledger",
		Name:      "amount_collected_total",
		Help:      "Sum of recorded installment payment amounts.",
	})

	plansCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pos_ledger",
		Name:      "plans_completed_total",
		Help:      "Plans that reached completed status through a recorded payment.",
	})
)

// rejectReason maps an error to a low-cardinality metric label.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInvalidMethod):
		return "invalid_method"
	case errors.Is(err, ErrPlanNotFound):
		return "plan_not_found"
	case errors.Is(err, ErrUnknownTarget):
		return "unknown_target"
	case errors.Is(err, ErrConcurrentModification):
		return "conflict"
	case errors.Is(err, ErrDuplicateIdempotencyKey):
		return "duplicate"
	case errors.Is(err, ErrCorruptLog):
		return "corrupt_log"
	default:
		return "store"
	}
}
