package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/team-roster/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockTransactor(t *testing.T) (Transactor, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewTransactor(conn), mock
}

func TestWithinTxCommits(t *testing.T) {
	tx, mock := newMockTransactor(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM players").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := tx.WithinTx(context.Background(), func(ctx context.Context, exec repositories.SQLExecutor) error {
		_, err := exec.ExecContext(ctx, "DELETE FROM players WHERE team_id = $1", 1)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	tx, mock := newMockTransactor(t)
	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := tx.WithinTx(context.Background(), func(context.Context, repositories.SQLExecutor) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxReportsCommitFailure(t *testing.T) {
	tx, mock := newMockTransactor(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(sql.ErrConnDone)

	err := tx.WithinTx(context.Background(), func(context.Context, repositories.SQLExecutor) error {
		return nil
	})
	require.ErrorIs(t, err, sql.ErrConnDone)
	assert.Contains(t, err.Error(), "failed to commit transaction")
}

func TestWithinTxRollsBackOnPanic(t *testing.T) {
	tx, mock := newMockTransactor(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = tx.WithinTx(context.Background(), func(context.Context, repositories.SQLExecutor) error {
			panic("kaboom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxBeginFailure(t *testing.T) {
	tx, mock := newMockTransactor(t)
	mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

	called := false
	err := tx.WithinTx(context.Background(), func(context.Context, repositories.SQLExecutor) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, sql.ErrConnDone)
	assert.False(t, called)
}
