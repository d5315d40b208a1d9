// Package mail is the outbound mail transport boundary: synchronous send,
// success or failure only, no delivery receipts.
package mail

import (
	"context"

	"github.com/bizcopilot/bizcopilot/internal/domain"
)

// Mailer sends one message from the configured sender address.
type Mailer interface {
	Send(ctx context.Context, req domain.EmailSendRequest) error
}
