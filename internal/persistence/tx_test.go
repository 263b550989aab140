package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTxCommits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE assets").WithArgs("x").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	m := NewTxManager(mock)
	err = m.WithinTx(context.Background(), func(ctx context.Context) error {
		_, ok := TxFromContext(ctx)
		assert.True(t, ok)
		_, err := Conn(ctx, mock).Exec(ctx, "UPDATE assets SET name = $1", "x")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = NewTxManager(mock).WithinTx(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxJoinsOuterTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	m := NewTxManager(mock)
	calls := 0
	err = m.WithinTx(context.Background(), func(ctx context.Context) error {
		return m.WithinTx(ctx, func(context.Context) error {
			calls++
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxWithoutDatabase(t *testing.T) {
	err := NewTxManager(nil).WithinTx(context.Background(), func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestConnFallsBackToPool(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	assert.Equal(t, Querier(mock), Conn(context.Background(), mock))
}
