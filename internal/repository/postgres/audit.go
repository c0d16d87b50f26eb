package postgres

import (
	"context"
	"fmt"

	"github.com/opticheck/screening-api/internal/model"
	"github.com/opticheck/screening-api/internal/repository"
)

type auditRepository struct {
	BaseRepository
}

func NewAuditRepository(base BaseRepository) repository.AuditRepository {
	return &auditRepository{base}
}

// Create appends one security event. There is no update or delete path
// for this table.
func (r *auditRepository) Create(ctx context.Context, event *model.SecurityEvent) error {
	query := `
		INSERT INTO security_events (
			id, event_type, description, actor_id, actor_email, portal,
			ip_address, user_agent, audit_hash, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.GetDB().ExecContext(ctx, query,
		event.ID, event.EventType, event.Description,
		event.ActorID, event.ActorEmail, event.Portal,
		event.IPAddress, event.UserAgent, event.AuditHash, event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create security event: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, filters *model.SecurityEventFilters) ([]*model.SecurityEvent, error) {
	query := `SELECT * FROM security_events WHERE 1=1`
	var args []interface{}

	if filters != nil {
		if filters.EventType != "" {
			args = append(args, filters.EventType)
			query += fmt.Sprintf(" AND event_type = $%d", len(args))
		}
		if filters.ActorID != "" {
			args = append(args, filters.ActorID)
			query += fmt.Sprintf(" AND actor_id = $%d", len(args))
		}
		if filters.From != nil {
			args = append(args, *filters.From)
			query += fmt.Sprintf(" AND occurred_at >= $%d", len(args))
		}
		if filters.To != nil {
			args = append(args, *filters.To)
			query += fmt.Sprintf(" AND occurred_at <= $%d", len(args))
		}
	}
	query += " ORDER BY occurred_at DESC"
	if filters != nil && filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var events []*model.SecurityEvent
	if err := r.GetDB().SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list security events: %w", err)
	}
	return events, nil
}
