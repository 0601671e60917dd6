package repositories

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/team-roster/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var playerRowColumns = []string{"id", "team_id", "first_name", "last_name", "profile_image_path", "created_at", "updated_at"}

func TestPlayerRepositoryCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresPlayerRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO players (team_id, first_name, last_name, profile_image_path)")).
		WithArgs(3, "Ann", "Smith", "profile-images/a.png").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(11, now, now))

	player := &models.Player{TeamID: 3, FirstName: "Ann", LastName: "Smith", ProfileImagePath: "profile-images/a.png"}
	require.NoError(t, repo.Create(context.Background(), nil, player))
	assert.Equal(t, 11, player.ID)
}

func TestPlayerRepositoryCreateMissingTeam(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresPlayerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO players")).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "players_team_id_fkey"})

	err := repo.Create(context.Background(), nil, &models.Player{TeamID: 999, FirstName: "Ann", LastName: "Smith"})
	assert.ErrorIs(t, err, ErrPlayerTeamInvalid)
}

func TestPlayerRepositoryGetOrFailScopedByTeam(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresPlayerRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM players WHERE id = $1 AND team_id = $2")).
		WithArgs(11, 3).
		WillReturnRows(sqlmock.NewRows(playerRowColumns).AddRow(11, 3, "Ann", "Smith", "profile-images/a.png", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM players WHERE id = $1 AND team_id = $2")).
		WithArgs(11, 4).
		WillReturnError(sql.ErrNoRows)

	player, err := repo.GetOrFail(context.Background(), nil, 11, Filter{"team_id": 3})
	require.NoError(t, err)
	assert.Equal(t, "Ann", player.FirstName)

	_, err = repo.GetOrFail(context.Background(), nil, 11, Filter{"team_id": 4})
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestPlayerRepositoryUpdateKeepsImageWhenNil(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresPlayerRepository(db)
	now := time.Now()
	first, last := "Anna", "Smyth"

	mock.ExpectQuery(regexp.QuoteMeta(
		"UPDATE players SET updated_at = NOW(), first_name = $1, last_name = $2 WHERE id = $3 AND team_id = $4 RETURNING")).
		WithArgs(first, last, 11, 3).
		WillReturnRows(sqlmock.NewRows(playerRowColumns).AddRow(11, 3, first, last, "profile-images/a.png", now, now))

	player, err := repo.Update(context.Background(), nil, 11, PlayerUpdate{FirstName: &first, LastName: &last}, Filter{"team_id": 3})
	require.NoError(t, err)
	assert.Equal(t, "profile-images/a.png", player.ProfileImagePath)
}

func TestPlayerRepositoryListAssetPaths(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresPlayerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT profile_image_path FROM players WHERE team_id = $1 ORDER BY id ASC")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"profile_image_path"}).
			AddRow("profile-images/a.png").
			AddRow("profile-images/b.png"))

	paths, err := repo.ListAssetPaths(context.Background(), nil, Filter{"team_id": 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"profile-images/a.png", "profile-images/b.png"}, paths)
}

func TestPlayerRepositoryDeleteMany(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostgresPlayerRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM players WHERE team_id = $1")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM players WHERE id = $1 AND team_id = $2")).
		WithArgs(11, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.DeleteMany(context.Background(), nil, Filter{"team_id": 3})
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	n, err = repo.DeleteOne(context.Background(), nil, 11, Filter{"team_id": 3})
	require.NoError(t, err)
	assert.Zero(t, n)
}
