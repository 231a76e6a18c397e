package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/dmitrijs2005/babypal/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBabies_DeleteCascades(t *testing.T) {
	m := NewRepositoryManager()
	ctx := context.Background()

	b, err := m.Babies(nil).Create(ctx, &models.Baby{Name: "Sam", Owner: "alice", Caregivers: models.StringList{"alice"}})
	require.NoError(t, err)
	_, err = m.Measurements(nil).Create(ctx, &models.Measurement{BabyID: b.ID, Author: "alice"})
	require.NoError(t, err)
	_, err = m.Records(nil).Create(ctx, &models.Record{BabyID: b.ID, Author: "alice", Type: "SLEEP"})
	require.NoError(t, err)

	require.NoError(t, m.Babies(nil).Delete(ctx, b.ID))

	ms, err := m.Measurements(nil).ListByBaby(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, ms)
	rs, err := m.Records(nil).ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, rs)

	err = m.Babies(nil).Delete(ctx, b.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestBabies_ReturnCopies(t *testing.T) {
	m := NewRepositoryManager()
	ctx := context.Background()

	b, err := m.Babies(nil).Create(ctx, &models.Baby{Name: "Sam", Owner: "alice", Caregivers: models.StringList{"alice"}})
	require.NoError(t, err)

	got, err := m.Babies(nil).GetByID(ctx, b.ID)
	require.NoError(t, err)
	got.Caregivers[0] = "mallory"

	again, err := m.Babies(nil).GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"alice"}, again.Caregivers)

	visible, err := m.Babies(nil).ListVisibleTo(ctx, "bob")
	require.NoError(t, err)
	assert.NotNil(t, visible)
	assert.Empty(t, visible)
}

func TestUsers_UniqueAndNotFound(t *testing.T) {
	m := NewRepositoryManager()
	ctx := context.Background()

	_, err := m.Users(nil).Create(ctx, &models.User{UserName: "alice", Email: "a@example.com"})
	require.NoError(t, err)
	_, err = m.Users(nil).Create(ctx, &models.User{UserName: "alice", Email: "b@example.com"})
	assert.ErrorIs(t, err, common.ErrorConflict)

	_, err = m.Users(nil).GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	ok, err := m.Users(nil).ExistsByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResetTokens_MarkUsedOnce(t *testing.T) {
	m := NewRepositoryManager()
	ctx := context.Background()

	tok, err := m.ResetTokens(nil).Create(ctx, &models.PasswordResetToken{Token: "abc", UserID: 1})
	require.NoError(t, err)

	require.NoError(t, m.ResetTokens(nil).MarkUsed(ctx, tok.ID))
	assert.ErrorIs(t, m.ResetTokens(nil).MarkUsed(ctx, tok.ID), common.ErrResetTokenUsed)

	_, err = m.ResetTokens(nil).GetByToken(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestLogs_FailLogs(t *testing.T) {
	m := NewRepositoryManager()
	ctx := context.Background()

	_, err := m.Logs(nil).Create(ctx, &models.Log{Username: "alice", Action: "SIGN_IN"})
	require.NoError(t, err)

	boom := errors.New("boom")
	m.Store().FailLogs(boom)
	_, err = m.Logs(nil).Create(ctx, &models.Log{Username: "alice", Action: "SIGN_OUT"})
	assert.ErrorIs(t, err, boom)

	rows := m.Store().LogRows()
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].ID)

	l, err := m.Logs(nil).GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "SIGN_IN", l.Action)
}
