package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LeadMetrics aggregates lead volume and quality over a window.
type LeadMetrics struct {
	WindowDays int            `json:"window_days"`
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByIntent   map[string]int `json:"by_intent"`
	AvgScore   float64        `json:"avg_score"`
}

// ConversionMetrics aggregates assignment outcomes over a window.
// Revenue sums each converting provider's lead price.
type ConversionMetrics struct {
	WindowDays      int     `json:"window_days"`
	TotalAssigned   int     `json:"total_assigned"`
	TotalAccepted   int     `json:"total_accepted"`
	TotalConverted  int     `json:"total_converted"`
	TotalRejected   int     `json:"total_rejected"`
	AcceptanceRate  float64 `json:"acceptance_rate"`
	ConversionRate  float64 `json:"conversion_rate"`
	AvgHoursToClose float64 `json:"avg_hours_to_close"`
	TotalRevenue    float64 `json:"total_revenue"`
}

// CategoryMetric is one vertical's share of recent volume.
type CategoryMetric struct {
	Category    string  `json:"category"`
	Total       int     `json:"total"`
	Distributed int     `json:"distributed"`
	AvgScore    float64 `json:"avg_score"`
}

// Repository answers reporting queries.
type Repository interface {
	LeadMetrics(ctx context.Context, since time.Time, windowDays int) (*LeadMetrics, error)
	ConversionMetrics(ctx context.Context, since time.Time, windowDays int) (*ConversionMetrics, error)
	CategoryBreakdown(ctx context.Context, since time.Time) ([]CategoryMetric, error)
}

// PostgresRepository computes metrics with plain aggregate queries.
type PostgresRepository struct {
	pool PgxPool
}

func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) LeadMetrics(ctx context.Context, since time.Time, windowDays int) (*LeadMetrics, error) {
	m := &LeadMetrics{
		WindowDays: windowDays,
		ByStatus:   map[string]int{},
		ByIntent:   map[string]int{},
	}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(score), 0)
		FROM leads WHERE created_at >= $1`,
		since,
	).Scan(&m.Total, &m.AvgScore)
	if err != nil {
		return nil, fmt.Errorf("analytics: lead totals: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT status, intent, COUNT(*)
		FROM leads WHERE created_at >= $1
		GROUP BY status, intent`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("analytics: lead breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status, intent string
			count          int
		)
		if err := rows.Scan(&status, &intent, &count); err != nil {
			return nil, fmt.Errorf("analytics: scan lead breakdown: %w", err)
		}
		m.ByStatus[status] += count
		m.ByIntent[intent] += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("analytics: lead breakdown: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) ConversionMetrics(ctx context.Context, since time.Time, windowDays int) (*ConversionMetrics, error) {
	m := &ConversionMetrics{WindowDays: windowDays}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(la.id),
		       COUNT(la.id) FILTER (WHERE la.status = 'accepted'),
		       COUNT(la.id) FILTER (WHERE la.status = 'converted'),
		       COUNT(la.id) FILTER (WHERE la.status = 'rejected'),
		       COALESCE(AVG(la.time_to_convert_hours) FILTER (WHERE la.status = 'converted'), 0),
		       COALESCE(SUM(p.lead_price) FILTER (WHERE la.status = 'converted'), 0)
		FROM lead_assignments la
		JOIN providers p ON la.provider_id = p.id
		WHERE la.assigned_at >= $1`,
		since,
	).Scan(&m.TotalAssigned, &m.TotalAccepted, &m.TotalConverted, &m.TotalRejected,
		&m.AvgHoursToClose, &m.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("analytics: conversion totals: %w", err)
	}
	if m.TotalAssigned > 0 {
		m.AcceptanceRate = float64(m.TotalAccepted) / float64(m.TotalAssigned)
	}
	if m.TotalAccepted > 0 {
		m.ConversionRate = float64(m.TotalConverted) / float64(m.TotalAccepted)
	}
	return m, nil
}

func (r *PostgresRepository) CategoryBreakdown(ctx context.Context, since time.Time) ([]CategoryMetric, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT service_category,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'distributed'),
		       COALESCE(AVG(score), 0)
		FROM leads WHERE created_at >= $1
		GROUP BY service_category
		ORDER BY COUNT(*) DESC`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("analytics: category breakdown: %w", err)
	}
	defer rows.Close()

	var out []CategoryMetric
	for rows.Next() {
		var c CategoryMetric
		if err := rows.Scan(&c.Category, &c.Total, &c.Distributed, &c.AvgScore); err != nil {
			return nil, fmt.Errorf("analytics: scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("analytics: category breakdown: %w", err)
	}
	return out, nil
}
