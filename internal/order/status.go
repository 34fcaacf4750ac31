package order

import (
	"fmt"
	"time"
)

// Apply transitions o to target at now, stamping the timestamp that belongs
// to the transition. Rules:
//   - unknown target: ErrValidation
//   - terminal orders accept nothing further
//   - Canceled is reachable from any non-terminal state
//   - otherwise the move must be strictly forward along
//     New -> Confirmed -> Preparing -> Ready -> OutForDelivery -> Delivered;
//     forward skips are allowed (assignment jumps Confirmed -> OutForDelivery)
//
// Side effects beyond the stamp (ConfirmedBy, delivery person, cancellation
// reason) are the caller's to set.
func Apply(o *Order, target Status, now time.Time) error {
	if !target.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, target)
	}
	if o.Status.Terminal() {
		return fmt.Errorf("%w: order is %s", ErrInvalidOperation, o.Status)
	}
	if target == StatusCanceled {
		o.Status = StatusCanceled
		o.CanceledAt = stamp(now)
		return nil
	}
	if statusRank[target] <= statusRank[o.Status] {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidOperation, o.Status, target)
	}

	o.Status = target
	switch target {
	case StatusConfirmed:
		o.ConfirmedAt = stamp(now)
	case StatusPreparing:
		o.PreparingAt = stamp(now)
	case StatusReady:
		o.ReadyAt = stamp(now)
	case StatusOutForDelivery:
		o.DispatchedAt = stamp(now)
	case StatusDelivered:
		o.DeliveredAt = stamp(now)
	}
	return nil
}

func stamp(now time.Time) *time.Time {
	t := now.UTC()
	return &t
}
