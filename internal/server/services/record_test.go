package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/dmitrijs2005/babypal/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordService_CreateAndUpdate(t *testing.T) {
	e := newEnv(t)
	babies := newBabyService(e)
	svc := NewRecordService(e.db, e.rm, e.eval, e.recorder)
	ctx := context.Background()
	b := createSam(t, babies)

	start := time.Date(2024, 5, 1, 22, 0, 0, 0, time.UTC)
	end := start.Add(-time.Minute)

	tests := []struct {
		name string
		in   *models.Record
		want error
	}{
		{"missing type", &models.Record{BabyID: b.ID, StartTime: start}, common.ErrorValidation},
		{"end before start", &models.Record{BabyID: b.ID, Type: "SLEEP", StartTime: start, EndTime: &end}, common.ErrorValidation},
		{"no baby", &models.Record{Type: "SLEEP"}, common.ErrorValidation},
		{"unknown baby", &models.Record{BabyID: 777, Type: "SLEEP"}, common.ErrorNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, alice, tt.in)
			require.ErrorIs(t, err, tt.want)
		})
	}

	r, err := svc.Create(ctx, alice, &models.Record{BabyID: b.ID, Type: "SLEEP", SubType: "NAP", StartTime: start})
	require.NoError(t, err)
	assert.Equal(t, "alice", r.Author)
	assert.Nil(t, r.EndTime)

	_, err = svc.Create(ctx, bob, &models.Record{BabyID: b.ID, Type: "FEEDING"})
	require.ErrorIs(t, err, common.ErrorForbidden)

	stop := start.Add(90 * time.Minute)
	updated, err := svc.Update(ctx, alice, r.ID, &models.Record{Type: "SLEEP", SubType: "NAP", StartTime: start, EndTime: &stop})
	require.NoError(t, err)
	require.NotNil(t, updated.EndTime)
	assert.True(t, updated.EndTime.Equal(stop))

	_, err = svc.Update(ctx, bob, r.ID, &models.Record{Type: "SLEEP", StartTime: start})
	require.ErrorIs(t, err, common.ErrorForbidden)
}

func TestRecordService_ReadsAndDeletes(t *testing.T) {
	e := newEnv(t)
	babies := newBabyService(e)
	svc := NewRecordService(e.db, e.rm, e.eval, e.recorder)
	ctx := context.Background()
	b := createSam(t, babies)

	r, err := svc.Create(ctx, alice, &models.Record{BabyID: b.ID, Type: "DIAPER"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, alice, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "DIAPER", got.Type)

	mine, err := svc.ListMine(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	byBaby, err := svc.ListByBaby(ctx, alice, b.ID)
	require.NoError(t, err)
	assert.Len(t, byBaby, 1)

	require.ErrorIs(t, svc.Delete(ctx, bob, r.ID), common.ErrorForbidden)
	require.NoError(t, svc.Delete(ctx, alice, r.ID))

	all, err := svc.ListAll(ctx, root)
	require.NoError(t, err)
	assert.Empty(t, all)

	var actions []string
	for _, l := range e.store.LogRows() {
		if l.Type == models.LogTypeRecord {
			actions = append(actions, l.Action)
		}
	}
	assert.Equal(t, []string{"CREATE_RECORD", "GET_RECORD", "DELETE_RECORD"}, actions)
}
