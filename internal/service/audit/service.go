// Package audit implements the security event logger: append-only
// records with a per-entry authenticity hash. The hash covers the
// entry's own fields plus a server secret; it is not a chain and gives
// no cross-entry tamper evidence.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opticheck/screening-api/internal/model"
	"github.com/opticheck/screening-api/internal/repository"
	"github.com/opticheck/screening-api/pkg/metrics"
)

// Actor describes who triggered a security-relevant action and from
// where. Handlers fill it from the verified claims and the request.
type Actor struct {
	ID        uuid.UUID
	Email     string
	Portal    string
	IPAddress string
	UserAgent string
}

type Service struct {
	repo       repository.AuditRepository
	secret     []byte
	failClosed bool
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	now        func() time.Time
}

func NewService(repo repository.AuditRepository, hashSecret string, failClosed bool, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		secret:     []byte(hashSecret),
		failClosed: failClosed,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// Record appends one security event. Identical calls produce distinct
// entries; there is no deduplication. By default persistence failures
// are swallowed with a warning and a dropped-event metric so the
// triggering operation still succeeds; fail-closed config propagates
// the error instead.
func (s *Service) Record(ctx context.Context, eventType, description string, actor Actor) error {
	ts := s.now().UTC()
	event := &model.SecurityEvent{
		ID:          uuid.New(),
		EventType:   eventType,
		Description: description,
		ActorID:     actor.ID,
		ActorEmail:  actor.Email,
		Portal:      actor.Portal,
		IPAddress:   actor.IPAddress,
		UserAgent:   actor.UserAgent,
		AuditHash:   s.hash(eventType, description, actor.ID.String(), ts),
		OccurredAt:  ts,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		if s.failClosed {
			return fmt.Errorf("failed to record security event: %w", err)
		}
		s.logger.Warn().Err(err).
			Str("event_type", eventType).
			Msg("security event dropped")
		if s.metrics != nil {
			s.metrics.AuditEventsDropped.Inc()
		}
		return nil
	}

	if s.metrics != nil {
		s.metrics.AuditEventsRecorded.Inc()
	}
	return nil
}

// List returns events matching the filters, newest first. Access
// control happens at the route; the service does not re-check roles.
func (s *Service) List(ctx context.Context, filters *model.SecurityEventFilters) ([]*model.SecurityEvent, error) {
	return s.repo.List(ctx, filters)
}

// hash computes the per-entry authenticity stamp: SHA-256 over the
// event fields, the unix-second timestamp and the server secret.
func (s *Service) hash(eventType, description, actorID string, ts time.Time) string {
	payload := strings.Join([]string{
		eventType,
		description,
		actorID,
		strconv.FormatInt(ts.Unix(), 10),
	}, "|")
	sum := sha256.Sum256(append([]byte(payload+"|"), s.secret...))
	return hex.EncodeToString(sum[:])
}
