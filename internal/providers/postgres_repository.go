package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

// PostgresRepository stores providers in Postgres. Category and zip
// coverage live in text[] columns so matching stays a single query.
type PostgresRepository struct {
	pool PgxPool
}

func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const providerColumns = `id, business_name, contact_name, email, phone,
	service_categories, service_zip_codes, status,
	max_leads_per_day, lead_price, leads_today, quality_threshold,
	conversion_rate, response_time_avg, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, p *Provider) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO providers (`+providerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		p.ID, p.BusinessName, p.ContactName, p.Email, p.Phone,
		p.ServiceCategories, p.ServiceZipCodes, string(p.Status),
		p.MaxLeadsPerDay, p.LeadPrice, p.LeadsToday, p.QualityThreshold,
		p.ConversionRate, p.ResponseTimeAvg, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("providers: insert provider: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Provider, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+providerColumns+` FROM providers WHERE id = $1`, id)
	p, err := scanProvider(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("providers: get provider: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]*Provider, int, error) {
	var (
		clauses []string
		args    []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.ServiceCategory != "" {
		args = append(args, f.ServiceCategory)
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(service_categories)", len(args)))
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM providers`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("providers: count providers: %w", err)
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	args = append(args, limit, (page-1)*limit)

	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM providers%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		providerColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("providers: list providers: %w", err)
	}
	defer rows.Close()

	out, err := collectProviders(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, req *UpdateProviderRequest) (*Provider, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if req.BusinessName != nil {
		set("business_name", *req.BusinessName)
	}
	if req.ContactName != nil {
		set("contact_name", *req.ContactName)
	}
	if req.Phone != nil {
		set("phone", *req.Phone)
	}
	if req.ServiceCategories != nil {
		set("service_categories", *req.ServiceCategories)
	}
	if req.ServiceZipCodes != nil {
		set("service_zip_codes", *req.ServiceZipCodes)
	}
	if req.Status != nil {
		set("status", string(*req.Status))
	}
	if req.MaxLeadsPerDay != nil {
		set("max_leads_per_day", *req.MaxLeadsPerDay)
	}
	if req.LeadPrice != nil {
		set("lead_price", *req.LeadPrice)
	}
	if req.QualityThreshold != nil {
		set("quality_threshold", *req.QualityThreshold)
	}
	if len(sets) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE providers SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), providerColumns)

	p, err := scanProvider(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("providers: update provider: %w", err)
	}
	return p, nil
}

// Match returns up to three active providers covering the lead's
// category and zip, under their daily cap, whose quality threshold the
// lead's score meets. Best converters first, fastest responders
// breaking ties.
func (r *PostgresRepository) Match(ctx context.Context, category, zipCode string, score int) ([]*Provider, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+providerColumns+`
		FROM providers
		WHERE status = 'active'
		  AND $1 = ANY(service_categories)
		  AND $2 = ANY(service_zip_codes)
		  AND leads_today < max_leads_per_day
		  AND quality_threshold <= $3
		ORDER BY conversion_rate DESC, response_time_avg ASC
		LIMIT 3`,
		category, zipCode, score,
	)
	if err != nil {
		return nil, fmt.Errorf("providers: match providers: %w", err)
	}
	defer rows.Close()
	return collectProviders(rows)
}

func (r *PostgresRepository) IncrementLeadsToday(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE providers SET leads_today = leads_today + 1, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("providers: increment daily count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProviderNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (*Provider, error) {
	row := r.pool.QueryRow(ctx,
		`DELETE FROM providers WHERE id = $1 RETURNING `+providerColumns, id)
	p, err := scanProvider(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("providers: delete provider: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Stats(ctx context.Context, id string) (*Stats, error) {
	var s Stats
	s.ProviderID = id
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(la.id),
		       COUNT(la.id) FILTER (WHERE la.status = 'accepted'),
		       COUNT(la.id) FILTER (WHERE la.status = 'converted'),
		       COALESCE(SUM(p.lead_price) FILTER (WHERE la.status = 'converted'), 0)
		FROM providers p
		LEFT JOIN lead_assignments la ON la.provider_id = p.id
		WHERE p.id = $1
		GROUP BY p.id`,
		id,
	).Scan(&s.TotalAssigned, &s.TotalAccepted, &s.TotalConverted, &s.TotalRevenue)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProviderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("providers: provider stats: %w", err)
	}
	if s.TotalAssigned > 0 {
		s.ConversionRate = float64(s.TotalConverted) / float64(s.TotalAssigned)
	}
	return &s, nil
}

func scanProvider(row pgx.Row) (*Provider, error) {
	var (
		p      Provider
		status string
	)
	err := row.Scan(
		&p.ID, &p.BusinessName, &p.ContactName, &p.Email, &p.Phone,
		&p.ServiceCategories, &p.ServiceZipCodes, &status,
		&p.MaxLeadsPerDay, &p.LeadPrice, &p.LeadsToday, &p.QualityThreshold,
		&p.ConversionRate, &p.ResponseTimeAvg, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = ProviderStatus(status)
	return &p, nil
}

func collectProviders(rows pgx.Rows) ([]*Provider, error) {
	var out []*Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("providers: scan provider: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("providers: read providers: %w", err)
	}
	return out, nil
}
