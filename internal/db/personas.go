package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const personaColumns = `id, user_id, name, title, email, phone, location, job_search_location,
	experience, experience_level, education, summary, gender, skills, roles, work_history,
	areas_of_improvement, salary_min, salary_max, avatar_url, cv_file_name, cv_file_url,
	is_active, market_demand, global_matches, confidence_score, created_at, updated_at`

// UpdatableColumns lists the persona columns a partial update may set.
var UpdatableColumns = map[string]bool{
	"name": true, "title": true, "email": true, "phone": true, "location": true,
	"job_search_location": true, "experience": true, "experience_level": true,
	"education": true, "summary": true, "gender": true, "skills": true, "roles": true,
	"work_history": true, "areas_of_improvement": true, "salary_min": true,
	"salary_max": true, "avatar_url": true, "cv_file_name": true, "cv_file_url": true,
	"is_active": true,
}

func scanPersona(row pgx.Row) (*Persona, error) {
	var p Persona
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Title, &p.Email, &p.Phone, &p.Location,
		&p.JobSearchLocation, &p.Experience, &p.ExperienceLevel, &p.Education, &p.Summary,
		&p.Gender, &p.Skills, &p.Roles, &p.WorkHistory, &p.AreasOfImprovement, &p.SalaryMin,
		&p.SalaryMax, &p.AvatarURL, &p.CVFileName, &p.CVFileURL, &p.IsActive, &p.MarketDemand,
		&p.GlobalMatches, &p.ConfidenceScore, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// notFound maps pgx.ErrNoRows to ErrNotFound and wraps anything else.
func notFound(err error, action string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// ListPersonas returns the user's personas, oldest first.
func (db *DB) ListPersonas(ctx context.Context, userID uuid.UUID) ([]Persona, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+personaColumns+` FROM personas WHERE user_id = $1 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list personas: %w", err)
	}
	defer rows.Close()

	personas := []Persona{}
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan persona: %w", err)
		}
		personas = append(personas, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list personas: %w", err)
	}
	return personas, nil
}

// GetPersona returns one persona owned by userID.
func (db *DB) GetPersona(ctx context.Context, userID, id uuid.UUID) (*Persona, error) {
	p, err := scanPersona(db.pool.QueryRow(ctx,
		`SELECT `+personaColumns+` FROM personas WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err != nil {
		return nil, notFound(err, "get persona")
	}
	return p, nil
}

// CountPersonas returns how many personas the user owns.
func (db *DB) CountPersonas(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM personas WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count personas: %w", err)
	}
	return n, nil
}

// CreatePersona inserts p and returns the stored row. ID and timestamps are
// assigned by the database.
func (db *DB) CreatePersona(ctx context.Context, p *Persona) (*Persona, error) {
	created, err := scanPersona(db.pool.QueryRow(ctx,
		`INSERT INTO personas (user_id, name, title, email, phone, location, job_search_location,
		     experience, experience_level, education, summary, gender, skills, roles, work_history,
		     areas_of_improvement, salary_min, salary_max, avatar_url, cv_file_name, cv_file_url,
		     is_active, market_demand, global_matches, confidence_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		     $19, $20, $21, $22, $23, $24, $25)
		 RETURNING `+personaColumns,
		p.UserID, p.Name, p.Title, p.Email, p.Phone, p.Location, p.JobSearchLocation,
		p.Experience, p.ExperienceLevel, p.Education, p.Summary, p.Gender, p.Skills, p.Roles,
		p.WorkHistory, p.AreasOfImprovement, p.SalaryMin, p.SalaryMax, p.AvatarURL, p.CVFileName,
		p.CVFileURL, p.IsActive, p.MarketDemand, p.GlobalMatches, p.ConfidenceScore,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("active persona for user %s: %w", p.UserID, ErrConflict)
		}
		return nil, fmt.Errorf("failed to create persona: %w", err)
	}
	return created, nil
}

// buildPersonaUpdate renders the SET clause for fields. Keys are sorted so
// the statement is deterministic; unknown columns are rejected.
func buildPersonaUpdate(fields map[string]any) (string, []any, error) {
	if len(fields) == 0 {
		return "", nil, errors.New("no fields to update")
	}
	columns := make([]string, 0, len(fields))
	for column := range fields {
		if !UpdatableColumns[column] {
			return "", nil, fmt.Errorf("column %q cannot be updated", column)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns)+1)
	args := make([]any, 0, len(columns))
	for i, column := range columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, i+1))
		args = append(args, fields[column])
	}
	sets = append(sets, "updated_at = NOW()")
	return strings.Join(sets, ", "), args, nil
}

// UpdatePersona applies a partial update keyed by column name.
func (db *DB) UpdatePersona(ctx context.Context, userID, id uuid.UUID, fields map[string]any) (*Persona, error) {
	set, args, err := buildPersonaUpdate(fields)
	if err != nil {
		return nil, err
	}
	n := len(args)
	args = append(args, id, userID)

	p, err := scanPersona(db.pool.QueryRow(ctx,
		fmt.Sprintf(`UPDATE personas SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
			set, n+1, n+2, personaColumns),
		args...,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("active persona for user %s: %w", userID, ErrConflict)
		}
		return nil, notFound(err, "update persona")
	}
	return p, nil
}

// SetCVFileURL records where the persona's CV was stored.
func (db *DB) SetCVFileURL(ctx context.Context, userID, id uuid.UUID, url string) (*Persona, error) {
	return db.UpdatePersona(ctx, userID, id, map[string]any{"cv_file_url": url})
}

// DeletePersona removes a persona and returns it so callers can clean up
// the stored CV.
func (db *DB) DeletePersona(ctx context.Context, userID, id uuid.UUID) (*Persona, error) {
	p, err := scanPersona(db.pool.QueryRow(ctx,
		`DELETE FROM personas WHERE id = $1 AND user_id = $2 RETURNING `+personaColumns,
		id, userID,
	))
	if err != nil {
		return nil, notFound(err, "delete persona")
	}
	return p, nil
}

// ActivatePersona makes id the user's only active persona. Both updates
// run in one transaction; a missing persona leaves the others untouched.
func (db *DB) ActivatePersona(ctx context.Context, userID, id uuid.UUID) (*Persona, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM personas WHERE id = $1 AND user_id = $2)`,
		id, userID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check persona: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	if _, err := tx.Exec(ctx,
		`UPDATE personas SET is_active = FALSE, updated_at = NOW()
		 WHERE user_id = $1 AND is_active AND id <> $2`,
		userID, id,
	); err != nil {
		return nil, fmt.Errorf("failed to deactivate personas: %w", err)
	}

	p, err := scanPersona(tx.QueryRow(ctx,
		`UPDATE personas SET is_active = TRUE, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 RETURNING `+personaColumns,
		id, userID,
	))
	if err != nil {
		return nil, notFound(err, "activate persona")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit activation: %w", err)
	}
	return p, nil
}
