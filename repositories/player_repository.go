package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/team-roster/models"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	// ErrPlayerTeamInvalid is returned when the referenced team row no longer exists.
	ErrPlayerTeamInvalid = errors.New("player team conflict or invalid")
)

var playerFilterColumns = map[string]bool{"id": true, "team_id": true}

// PlayerUpdate lists the mutable player columns. team_id is immutable.
type PlayerUpdate struct {
	FirstName        *string
	LastName         *string
	ProfileImagePath *string
}

type PlayerRepository interface {
	List(ctx context.Context, exec SQLExecutor, filter Filter) ([]models.Player, error)
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetOrFail(ctx context.Context, exec SQLExecutor, id int, filter Filter) (*models.Player, error)
	Update(ctx context.Context, exec SQLExecutor, id int, input PlayerUpdate, filter Filter) (*models.Player, error)
	DeleteOne(ctx context.Context, exec SQLExecutor, id int, filter Filter) (int64, error)
	DeleteMany(ctx context.Context, exec SQLExecutor, filter Filter) (int64, error)
	// ListAssetPaths returns only the profile image paths of matching players.
	ListAssetPaths(ctx context.Context, exec SQLExecutor, filter Filter) ([]string, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const playerColumns = `id, team_id, first_name, last_name, profile_image_path, created_at, updated_at`

func scanPlayer(row interface{ Scan(dest ...any) error }, p *models.Player) error {
	return row.Scan(&p.ID, &p.TeamID, &p.FirstName, &p.LastName, &p.ProfileImagePath, &p.CreatedAt, &p.UpdatedAt)
}

func (r *postgresPlayerRepository) List(ctx context.Context, exec SQLExecutor, filter Filter) ([]models.Player, error) {
	where, args, err := whereFilter(filter, playerFilterColumns, 1)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + playerColumns + ` FROM players ` + where + ` ORDER BY id ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var player models.Player
		if err := scanPlayer(rows, &player); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, player)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `
		INSERT INTO players (team_id, first_name, last_name, profile_image_path)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		player.TeamID,
		player.FirstName,
		player.LastName,
		player.ProfileImagePath,
	).Scan(&player.ID, &player.CreatedAt, &player.UpdatedAt)
	if err != nil {
		return mapConstraintError(err, ErrPlayerTeamInvalid)
	}
	return nil
}

func (r *postgresPlayerRepository) GetOrFail(ctx context.Context, exec SQLExecutor, id int, filter Filter) (*models.Player, error) {
	where, args, err := whereWithID(id, filter, playerFilterColumns)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + playerColumns + ` FROM players ` + where

	var player models.Player
	if err := scanPlayer(r.getExecutor(exec).QueryRowContext(ctx, query, args...), &player); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player %d: %w", id, err)
	}
	return &player, nil
}

func (r *postgresPlayerRepository) Update(ctx context.Context, exec SQLExecutor, id int, input PlayerUpdate, filter Filter) (*models.Player, error) {
	sets := []string{"updated_at = NOW()"}
	var setArgs []any
	for _, field := range []struct {
		column string
		value  *string
	}{
		{"first_name", input.FirstName},
		{"last_name", input.LastName},
		{"profile_image_path", input.ProfileImagePath},
	} {
		if field.value == nil {
			continue
		}
		setArgs = append(setArgs, *field.value)
		sets = append(sets, fmt.Sprintf("%s = $%d", field.column, len(setArgs)))
	}

	extra, filterArgs, err := filter.clause(playerFilterColumns, len(setArgs)+2)
	if err != nil {
		return nil, err
	}
	where := fmt.Sprintf("WHERE id = $%d", len(setArgs)+1)
	if extra != "" {
		where += " AND " + extra
	}
	args := append(append(setArgs, id), filterArgs...)

	query := `UPDATE players SET ` + strings.Join(sets, ", ") + ` ` + where + ` RETURNING ` + playerColumns

	var player models.Player
	if err := scanPlayer(r.getExecutor(exec).QueryRowContext(ctx, query, args...), &player); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, mapConstraintError(err, nil)
	}
	return &player, nil
}

func (r *postgresPlayerRepository) DeleteOne(ctx context.Context, exec SQLExecutor, id int, filter Filter) (int64, error) {
	where, args, err := whereWithID(id, filter, playerFilterColumns)
	if err != nil {
		return 0, err
	}
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM players `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete player %d: %w", id, err)
	}
	return checkRowsAffected(result)
}

func (r *postgresPlayerRepository) DeleteMany(ctx context.Context, exec SQLExecutor, filter Filter) (int64, error) {
	where, args, err := whereFilter(filter, playerFilterColumns, 1)
	if err != nil {
		return 0, err
	}
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM players `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete players: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *postgresPlayerRepository) ListAssetPaths(ctx context.Context, exec SQLExecutor, filter Filter) ([]string, error) {
	where, args, err := whereFilter(filter, playerFilterColumns, 1)
	if err != nil {
		return nil, err
	}
	query := `SELECT profile_image_path FROM players ` + where + ` ORDER BY id ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list player image paths: %w", err)
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}
