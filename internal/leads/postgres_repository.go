package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quoteotter/lead-engine/internal/phonerisk"
)

// PgxPool is the subset of pgxpool.Pool the repository needs. Keeping it
// narrow lets tests substitute a pgxmock pool.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in Postgres. The phone assessment is
// kept alongside the row as JSONB.
type PostgresRepository struct {
	pool PgxPool
}

func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const leadColumns = `id, first_name, last_name, email, phone, zip_code,
	service_category, service_details, project_timeline, budget, notes,
	source, utm_source, utm_medium, utm_campaign,
	score, intent, status, flag_reason, phone_validation, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, l *Lead) error {
	var assessment []byte
	if l.PhoneAssessment != nil {
		b, err := json.Marshal(l.PhoneAssessment)
		if err != nil {
			return fmt.Errorf("leads: marshal phone assessment: %w", err)
		}
		assessment = b
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO leads (`+leadColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		l.ID, l.FirstName, l.LastName, l.Email, l.Phone, l.ZipCode,
		l.ServiceCategory, l.ServiceDetails, string(l.ProjectTimeline), l.Budget, l.Notes,
		l.Source, l.UTMSource, l.UTMMedium, l.UTMCampaign,
		l.Score, string(l.Intent), string(l.Status), l.FlagReason, assessment,
		l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("leads: insert lead: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	l, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leads: get lead: %w", err)
	}
	return l, nil
}

// Sort keys use the API's camelCase names; anything else falls back to
// newest first.
var leadSortColumns = map[string]string{
	"createdAt": "created_at",
	"score":     "score",
	"status":    "status",
	"updatedAt": "updated_at",
}

func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]*Lead, int, error) {
	where, args := buildLeadFilter(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("leads: count leads: %w", err)
	}

	sortCol, ok := leadSortColumns[f.SortBy]
	if !ok {
		sortCol = "created_at"
		f.SortDesc = true
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`SELECT %s FROM leads%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		leadColumns, where, sortCol, dir, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("leads: list leads: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("leads: scan lead: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("leads: list leads: %w", err)
	}
	return out, total, nil
}

func buildLeadFilter(f ListFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.ServiceCategory != "" {
		add("service_category = $%d", f.ServiceCategory)
	}
	if f.Intent != "" {
		add("intent = $%d", string(f.Intent))
	}
	if f.MinScore != nil {
		add("score >= $%d", *f.MinScore)
	}
	if f.MaxScore != nil {
		add("score <= $%d", *f.MaxScore)
	}
	if f.CreatedAfter != nil {
		add("created_at >= $%d", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		add("created_at <= $%d", *f.CreatedBefore)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status, flagReason string) (*Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET status = $2, flag_reason = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, string(status), flagReason,
	)
	l, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leads: update lead status: %w", err)
	}
	return l, nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var (
		l          Lead
		timeline   string
		intent     string
		status     string
		assessment []byte
	)
	err := row.Scan(
		&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone, &l.ZipCode,
		&l.ServiceCategory, &l.ServiceDetails, &timeline, &l.Budget, &l.Notes,
		&l.Source, &l.UTMSource, &l.UTMMedium, &l.UTMCampaign,
		&l.Score, &intent, &status, &l.FlagReason, &assessment,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.ProjectTimeline = Timeline(timeline)
	l.Intent = Intent(intent)
	l.Status = Status(status)
	if len(assessment) > 0 {
		var a phonerisk.Assessment
		if err := json.Unmarshal(assessment, &a); err != nil {
			return nil, fmt.Errorf("decode phone assessment: %w", err)
		}
		l.PhoneAssessment = &a
	}
	return &l, nil
}

// PostgresAssignmentRepository stores lead assignments.
type PostgresAssignmentRepository struct {
	pool PgxPool
}

func NewPostgresAssignmentRepository(pool PgxPool) *PostgresAssignmentRepository {
	return &PostgresAssignmentRepository{pool: pool}
}

func (r *PostgresAssignmentRepository) Create(ctx context.Context, a *Assignment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_assignments (id, lead_id, provider_id, status, assigned_at)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.LeadID, a.ProviderID, string(a.Status), a.AssignedAt,
	)
	if err != nil {
		return fmt.Errorf("leads: insert assignment: %w", err)
	}
	return nil
}

func (r *PostgresAssignmentRepository) ListByLead(ctx context.Context, leadID string) ([]*Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, provider_id, status, response_time_seconds, time_to_convert_hours, assigned_at
		FROM lead_assignments WHERE lead_id = $1 ORDER BY assigned_at`,
		leadID,
	)
	if err != nil {
		return nil, fmt.Errorf("leads: list assignments: %w", err)
	}
	defer rows.Close()

	var out []*Assignment
	for rows.Next() {
		var (
			a      Assignment
			status string
		)
		if err := rows.Scan(&a.ID, &a.LeadID, &a.ProviderID, &status,
			&a.ResponseTimeSeconds, &a.TimeToConvertHours, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("leads: scan assignment: %w", err)
		}
		a.Status = AssignmentStatus(status)
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list assignments: %w", err)
	}
	return out, nil
}
