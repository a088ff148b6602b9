package repository

import (
	"context"

	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/model"
)

// SessionRepository stores checkout sessions for the duration of a checkout,
// keyed both by session id and by the bill id once one is assigned. Entries
// expire on their own; nothing here outlives the flow.
type SessionRepository interface {
	Save(ctx context.Context, session *model.CheckoutSession) error
	Find(ctx context.Context, sessionID string) (*model.CheckoutSession, error)
	FindByBillID(ctx context.Context, billID string) (*model.CheckoutSession, error)
	Delete(ctx context.Context, sessionID string) error
}
