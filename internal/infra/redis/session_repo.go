package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/model"
	"github.com/EbenEzer-MOMBO/streaming-payment-gateway/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo keeps checkout sessions in Redis for the duration of a
// checkout. A secondary bill_id key lets the confirmation page re-associate
// the session after the navigation handoff. Entries expire with the TTL;
// nothing outlives the flow.
type SessionRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewSessionRepo(client RedisClient, ttl time.Duration) *SessionRepo {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionRepo{client: client, ttl: ttl}
}

func sessionKey(id string) string { return fmt.Sprintf("checkout_session:%s", id) }
func billKey(billID string) string {
	return fmt.Sprintf("checkout_session_bill:%s", billID)
}

func (r *SessionRepo) Save(ctx context.Context, session *model.CheckoutSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, sessionKey(session.ID), data, r.ttl); err != nil {
		return err
	}
	if session.BillID != "" {
		return r.client.Set(ctx, billKey(session.BillID), session.ID, r.ttl)
	}
	return nil
}

func (r *SessionRepo) Find(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	var s model.CheckoutSession
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) FindByBillID(ctx context.Context, billID string) (*model.CheckoutSession, error) {
	sessionID, err := r.client.Get(ctx, billKey(billID))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return r.Find(ctx, sessionID)
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	s, err := r.Find(ctx, sessionID)
	if err != nil {
		if err == domain.ErrSessionNotFound {
			return nil
		}
		return err
	}
	keys := []string{sessionKey(sessionID)}
	if s.BillID != "" {
		keys = append(keys, billKey(s.BillID))
	}
	return r.client.Del(ctx, keys...)
}
