package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/team-roster/models"
)

var ErrTeamNotFound = errors.New("team not found")

var teamFilterColumns = map[string]bool{"id": true, "name": true}

// TeamUpdate lists the columns an update may touch; nil fields are left as is.
type TeamUpdate struct {
	Name     *string
	LogoPath *string
}

type TeamRepository interface {
	List(ctx context.Context, exec SQLExecutor, filter Filter) ([]models.Team, error)
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetOrFail(ctx context.Context, exec SQLExecutor, id int, filter Filter) (*models.Team, error)
	Update(ctx context.Context, exec SQLExecutor, id int, input TeamUpdate, filter Filter) (*models.Team, error)
	DeleteOne(ctx context.Context, exec SQLExecutor, id int, filter Filter) (int64, error)
	DeleteMany(ctx context.Context, exec SQLExecutor, filter Filter) (int64, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const teamColumns = `id, name, logo_path, created_at, updated_at`

func scanTeam(row interface{ Scan(dest ...any) error }, team *models.Team) error {
	return row.Scan(&team.ID, &team.Name, &team.LogoPath, &team.CreatedAt, &team.UpdatedAt)
}

func (r *postgresTeamRepository) List(ctx context.Context, exec SQLExecutor, filter Filter) ([]models.Team, error) {
	where, args, err := whereFilter(filter, teamFilterColumns, 1)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + teamColumns + ` FROM teams ` + where + ` ORDER BY id ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var team models.Team
		if err := scanTeam(rows, &team); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, team)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (name, logo_path)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query, team.Name, team.LogoPath).
		Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return mapConstraintError(err, nil)
	}
	return nil
}

func (r *postgresTeamRepository) GetOrFail(ctx context.Context, exec SQLExecutor, id int, filter Filter) (*models.Team, error) {
	where, args, err := whereWithID(id, filter, teamFilterColumns)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + teamColumns + ` FROM teams ` + where

	var team models.Team
	if err := scanTeam(r.getExecutor(exec).QueryRowContext(ctx, query, args...), &team); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}
	return &team, nil
}

func (r *postgresTeamRepository) Update(ctx context.Context, exec SQLExecutor, id int, input TeamUpdate, filter Filter) (*models.Team, error) {
	sets := []string{"updated_at = NOW()"}
	var setArgs []any
	if input.Name != nil {
		setArgs = append(setArgs, *input.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(setArgs)))
	}
	if input.LogoPath != nil {
		setArgs = append(setArgs, *input.LogoPath)
		sets = append(sets, fmt.Sprintf("logo_path = $%d", len(setArgs)))
	}

	extra, filterArgs, err := filter.clause(teamFilterColumns, len(setArgs)+2)
	if err != nil {
		return nil, err
	}
	where := fmt.Sprintf("WHERE id = $%d", len(setArgs)+1)
	if extra != "" {
		where += " AND " + extra
	}
	args := append(append(setArgs, id), filterArgs...)

	query := `UPDATE teams SET ` + strings.Join(sets, ", ") + ` ` + where + ` RETURNING ` + teamColumns

	var team models.Team
	if err := scanTeam(r.getExecutor(exec).QueryRowContext(ctx, query, args...), &team); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, mapConstraintError(err, nil)
	}
	return &team, nil
}

func (r *postgresTeamRepository) DeleteOne(ctx context.Context, exec SQLExecutor, id int, filter Filter) (int64, error) {
	where, args, err := whereWithID(id, filter, teamFilterColumns)
	if err != nil {
		return 0, err
	}
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM teams `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete team %d: %w", id, err)
	}
	return checkRowsAffected(result)
}

func (r *postgresTeamRepository) DeleteMany(ctx context.Context, exec SQLExecutor, filter Filter) (int64, error) {
	where, args, err := whereFilter(filter, teamFilterColumns, 1)
	if err != nil {
		return 0, err
	}
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM teams `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete teams: %w", err)
	}
	return checkRowsAffected(result)
}
