package delivery

import (
	"errors"
	"fmt"

	"github.com/swiftdrop/dispatch/core/model"
)

// ErrNotFound is returned when a delivery id is unknown to the store.
var ErrNotFound = errors.New("delivery not found")

// InvalidTransitionError reports an illegal state machine transition. It
// carries the current and attempted state so the caller can decide whether
// to retry or surface the conflict.
type InvalidTransitionError struct {
	DeliveryID string
	From       model.DeliveryStatus
	To         model.DeliveryStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("delivery %s: illegal transition %s -> %s", e.DeliveryID, e.From, e.To)
}
