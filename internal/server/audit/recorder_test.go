package audit

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/dmitrijs2005/babypal/internal/logging"
	"github.com/dmitrijs2005/babypal/internal/server/metrics"
	"github.com/dmitrijs2005/babypal/internal/server/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeLogsRepo struct {
	mu        sync.Mutex
	rows      []*models.Log
	createErr error
}

func (f *fakeLogsRepo) Create(_ context.Context, l *models.Log) (*models.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	l.ID = int64(len(f.rows) + 1)
	l.CreatedAt = time.Date(2025, 1, 1, 0, 0, len(f.rows), 0, time.UTC)
	f.rows = append(f.rows, l)
	return l, nil
}

func (f *fakeLogsRepo) List(context.Context) ([]*models.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Log{}, f.rows...), nil
}

func (f *fakeLogsRepo) GetByID(_ context.Context, id int64) (*models.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.rows {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, common.NotFound("Log not found")
}

func TestRecord_StoresEventAndCounts(t *testing.T) {
	repo := &fakeLogsRepo{}
	m := metrics.New("test")
	r := NewRecorder(repo, logging.Discard(), m)

	row, err := r.Record(context.Background(), EntityCreated("alice", models.LogTypeBaby, 7))
	require.NoError(t, err)

	assert.Equal(t, "alice", row.Username)
	assert.Equal(t, models.LogTypeBaby, row.Type)
	assert.Equal(t, int64(7), *row.TypeID)
	assert.Equal(t, "CREATE_BABY", row.Action)
	assert.Equal(t, StatusCreated, row.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditEventsTotal.WithLabelValues("BABY", "CREATE_BABY")))
}

func TestTrack_SwallowsFailure(t *testing.T) {
	repo := &fakeLogsRepo{createErr: errors.New("db down")}
	m := metrics.New("test")
	r := NewRecorder(repo, logging.Discard(), m)

	r.Track(context.Background(), SignIn("alice", 1))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditFailuresTotal.WithLabelValues(models.LogTypeAuth)))
	got, _ := r.List(context.Background())
	assert.Empty(t, got)
}

func TestRecord_NilMetrics(t *testing.T) {
	r := NewRecorder(&fakeLogsRepo{}, logging.Discard(), nil)
	_, err := r.Record(context.Background(), SignOut("alice", 1))
	require.NoError(t, err)
}

func TestGet(t *testing.T) {
	r := NewRecorder(&fakeLogsRepo{}, logging.Discard(), nil)
	r.Track(context.Background(), SignUp("alice", 1))

	l, err := r.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, ActionSignUp, l.Action)

	_, err = r.Get(context.Background(), 2)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestEventHelpers(t *testing.T) {
	tests := []struct {
		name   string
		e      Event
		typ    string
		action string
		status string
	}{
		{"sign in", SignIn("a", 1), "AUTH", "SIGN_IN", "200"},
		{"sign in failed", SignInFailed("a", nil), "AUTH", "SIGN_IN_FAILED", "401"},
		{"sign up", SignUp("a", 1), "AUTH", "SIGN_UP", "201"},
		{"credentials", CredentialsUpdated("a", 1), "AUTH", "CREDENTIALS_UPDATE", "200"},
		{"2fa on", TwoFactorEnabled("a", 1), "AUTH", "TWO_FACTOR_ENABLE", "200"},
		{"2fa off", TwoFactorDisabled("a", 1), "AUTH", "TWO_FACTOR_DISABLE", "200"},
		{"2fa ok", TwoFactorVerified("a", 1, true), "AUTH", "TWO_FACTOR_VERIFY_SUCCESS", "200"},
		{"2fa bad", TwoFactorVerified("a", 1, false), "AUTH", "TWO_FACTOR_VERIFY_FAILED", "401"},
		{"update", EntityUpdated("a", "RECORD", 1), "RECORD", "UPDATE_RECORD", "200"},
		{"delete", EntityDeleted("a", "MEASUREMENT", 1), "MEASUREMENT", "DELETE_MEASUREMENT", "200"},
		{"read", EntityRead("a", "GROWTH_GUIDE", 1), "GROWTH_GUIDE", "GET_GROWTH_GUIDE", "200"},
		{"admin", AdminAction("root", "UPDATE_LOCK_STATUS", 4), "ADMIN", "UPDATE_LOCK_STATUS", "200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.e.Type)
			assert.Equal(t, tt.action, tt.e.Action)
			assert.Equal(t, tt.status, tt.e.StatusCode)
		})
	}
}

func TestSignInFailed_UnknownUser(t *testing.T) {
	e := SignInFailed("", nil)
	assert.Equal(t, UnknownUser, e.Username)
	assert.Nil(t, e.TypeID)
}

func TestExport(t *testing.T) {
	r := NewRecorder(&fakeLogsRepo{}, logging.Discard(), nil)
	r.Track(context.Background(), SignIn("alice", 1))
	r.Track(context.Background(), SignInFailed("", nil))

	var buf bytes.Buffer
	require.NoError(t, r.Export(context.Background(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, "alice", rows[1][1])
	assert.Equal(t, "SIGN_IN", rows[1][4])
	assert.Equal(t, "UNKNOWN", rows[2][1])
	assert.Equal(t, "", rows[2][3])
}
