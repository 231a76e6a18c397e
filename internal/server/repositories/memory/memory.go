// Package memory provides in-memory repositories behind the same
// RepositoryManager interface as the PostgreSQL implementation. It backs
// service and handler tests.
package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/dmitrijs2005/babypal/internal/dbx"
	"github.com/dmitrijs2005/babypal/internal/server/models"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/babies"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/growthguides"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/logs"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/measurements"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/records"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/users"
)

// Store holds the rows of every repository served by a Manager.
type Store struct {
	mu sync.Mutex

	nextID       int64
	users        map[int64]*models.User
	tokens       map[string]*models.PasswordResetToken
	babies       map[int64]*models.Baby
	measurements map[int64]*models.Measurement
	records      map[int64]*models.Record
	guides       map[int64]*models.GrowthGuide
	logs         []*models.Log

	logErr error
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		users:        map[int64]*models.User{},
		tokens:       map[string]*models.PasswordResetToken{},
		babies:       map[int64]*models.Baby{},
		measurements: map[int64]*models.Measurement{},
		records:      map[int64]*models.Record{},
		guides:       map[int64]*models.GrowthGuide{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// LogRows returns a copy of the audit rows in insertion order.
func (s *Store) LogRows() []*models.Log {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Log{}, s.logs...)
}

// UpdateUser applies fn to the stored user with the given id.
func (s *Store) UpdateUser(id int64, fn func(u *models.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		fn(u)
	}
}

// UserID returns the id of the named user, or 0.
func (s *Store) UserID(username string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if u.UserName == username {
			return id
		}
	}
	return 0
}

// SeedGrowthGuide stores g under its own id.
func (s *Store) SeedGrowthGuide(g *models.GrowthGuide) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *g
	s.guides[g.ID] = &c
}

// FailLogs makes every following audit write return err. nil restores writes.
func (s *Store) FailLogs(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logErr = err
}

// --- users ---

type memUsers struct{ s *Store }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.users {
		if x.UserName == u.UserName || x.Email == u.Email {
			return nil, common.Conflict("username or email already in use")
		}
	}
	c := *u
	c.ID = r.s.id()
	r.s.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r memUsers) find(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.UserName == username })
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r memUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r memUsers) List(context.Context) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.User{}
	for _, u := range r.s.users {
		c := *u
		out = append(out, &c)
	}
	return out, nil
}

func (r memUsers) Update(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return common.ErrorNotFound
	}
	c := *u
	r.s.users[u.ID] = &c
	return nil
}

// --- reset tokens ---

type memTokens struct{ s *Store }

func (r memTokens) Create(_ context.Context, t *models.PasswordResetToken) (*models.PasswordResetToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = r.s.id()
	c := *t
	r.s.tokens[t.Token] = &c
	return t, nil
}

func (r memTokens) GetByToken(_ context.Context, token string) (*models.PasswordResetToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[token]
	if !ok {
		return nil, common.Validation("Invalid password reset token")
	}
	c := *t
	return &c, nil
}

func (r memTokens) MarkUsed(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.ID == id {
			if t.Used {
				return common.ErrResetTokenUsed
			}
			t.Used = true
			return nil
		}
	}
	return common.ErrResetTokenUsed
}

// --- babies ---

type memBabies struct{ s *Store }

func cloneBaby(b *models.Baby) *models.Baby {
	c := *b
	c.Caregivers = append(models.StringList{}, b.Caregivers...)
	return &c
}

func (r memBabies) Create(_ context.Context, b *models.Baby) (*models.Baby, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b.ID = r.s.id()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	r.s.babies[b.ID] = cloneBaby(b)
	return b, nil
}

func (r memBabies) GetByID(_ context.Context, id int64) (*models.Baby, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.babies[id]
	if !ok {
		return nil, common.NotFound("Baby not found")
	}
	return cloneBaby(b), nil
}

func (r memBabies) ListVisibleTo(_ context.Context, username string) ([]*models.Baby, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Baby{}
	for _, b := range r.s.babies {
		if b.Owner == username || b.Caregivers.Contains(username) {
			out = append(out, cloneBaby(b))
		}
	}
	return out, nil
}

func (r memBabies) ListAll(context.Context) ([]*models.Baby, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Baby{}
	for _, b := range r.s.babies {
		out = append(out, cloneBaby(b))
	}
	return out, nil
}

func (r memBabies) Update(_ context.Context, b *models.Baby) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.babies[b.ID]; !ok {
		return common.NotFound("Baby not found")
	}
	r.s.babies[b.ID] = cloneBaby(b)
	return nil
}

func (r memBabies) UpdatePhotoKey(_ context.Context, id int64, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.babies[id]
	if !ok {
		return common.NotFound("Baby not found")
	}
	b.PhotoKey = key
	return nil
}

func (r memBabies) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.babies[id]; !ok {
		return common.NotFound("Baby not found")
	}
	delete(r.s.babies, id)
	for mid, m := range r.s.measurements {
		if m.BabyID == id {
			delete(r.s.measurements, mid)
		}
	}
	for rid, rec := range r.s.records {
		if rec.BabyID == id {
			delete(r.s.records, rid)
		}
	}
	return nil
}

// --- measurements ---

type memMeasurements struct{ s *Store }

func (r memMeasurements) Create(_ context.Context, m *models.Measurement) (*models.Measurement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = r.s.id()
	c := *m
	r.s.measurements[m.ID] = &c
	return m, nil
}

func (r memMeasurements) GetByID(_ context.Context, id int64) (*models.Measurement, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.measurements[id]
	if !ok {
		return nil, common.NotFound("Measurement not found")
	}
	c := *m
	return &c, nil
}

func (r memMeasurements) filter(keep func(*models.Measurement) bool) []*models.Measurement {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Measurement{}
	for _, m := range r.s.measurements {
		if keep(m) {
			c := *m
			out = append(out, &c)
		}
	}
	return out
}

func (r memMeasurements) ListByAuthor(_ context.Context, author string) ([]*models.Measurement, error) {
	return r.filter(func(m *models.Measurement) bool { return m.Author == author }), nil
}

func (r memMeasurements) ListByBaby(_ context.Context, babyID int64) ([]*models.Measurement, error) {
	return r.filter(func(m *models.Measurement) bool { return m.BabyID == babyID }), nil
}

func (r memMeasurements) ListAll(context.Context) ([]*models.Measurement, error) {
	return r.filter(func(*models.Measurement) bool { return true }), nil
}

func (r memMeasurements) Update(_ context.Context, m *models.Measurement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.measurements[m.ID]; !ok {
		return common.NotFound("Measurement not found")
	}
	c := *m
	r.s.measurements[m.ID] = &c
	return nil
}

func (r memMeasurements) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.measurements[id]; !ok {
		return common.NotFound("Measurement not found")
	}
	delete(r.s.measurements, id)
	return nil
}

// --- records ---

type memRecords struct{ s *Store }

func (r memRecords) Create(_ context.Context, rec *models.Record) (*models.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec.ID = r.s.id()
	c := *rec
	r.s.records[rec.ID] = &c
	return rec, nil
}

func (r memRecords) GetByID(_ context.Context, id int64) (*models.Record, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.records[id]
	if !ok {
		return nil, common.NotFound("Record not found")
	}
	c := *rec
	return &c, nil
}

func (r memRecords) filter(keep func(*models.Record) bool) []*models.Record {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Record{}
	for _, rec := range r.s.records {
		if keep(rec) {
			c := *rec
			out = append(out, &c)
		}
	}
	return out
}

func (r memRecords) ListByAuthor(_ context.Context, author string) ([]*models.Record, error) {
	return r.filter(func(rec *models.Record) bool { return rec.Author == author }), nil
}

func (r memRecords) ListByBaby(_ context.Context, babyID int64) ([]*models.Record, error) {
	return r.filter(func(rec *models.Record) bool { return rec.BabyID == babyID }), nil
}

func (r memRecords) ListAll(context.Context) ([]*models.Record, error) {
	return r.filter(func(*models.Record) bool { return true }), nil
}

func (r memRecords) Update(_ context.Context, rec *models.Record) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.records[rec.ID]; !ok {
		return common.NotFound("Record not found")
	}
	c := *rec
	r.s.records[rec.ID] = &c
	return nil
}

func (r memRecords) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.records[id]; !ok {
		return common.NotFound("Record not found")
	}
	delete(r.s.records, id)
	return nil
}

// --- growth guides ---

type memGuides struct{ s *Store }

func (r memGuides) List(context.Context) ([]*models.GrowthGuide, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.GrowthGuide{}
	for _, g := range r.s.guides {
		c := *g
		out = append(out, &c)
	}
	return out, nil
}

func (r memGuides) GetByID(_ context.Context, id int64) (*models.GrowthGuide, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.guides[id]
	if !ok {
		return nil, common.NotFound("Growth guide not found")
	}
	c := *g
	return &c, nil
}

func (r memGuides) Update(_ context.Context, g *models.GrowthGuide) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.guides[g.ID]; !ok {
		return common.NotFound("Growth guide not found")
	}
	c := *g
	r.s.guides[g.ID] = &c
	return nil
}

// --- logs ---

type memLogs struct{ s *Store }

func (r memLogs) Create(_ context.Context, l *models.Log) (*models.Log, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.logErr != nil {
		return nil, r.s.logErr
	}
	l.ID = int64(len(r.s.logs) + 1)
	l.CreatedAt = time.Now()
	c := *l
	r.s.logs = append(r.s.logs, &c)
	return l, nil
}

func (r memLogs) List(context.Context) ([]*models.Log, error) {
	return r.s.LogRows(), nil
}

func (r memLogs) GetByID(_ context.Context, id int64) (*models.Log, error) {
	for _, l := range r.s.LogRows() {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, common.NotFound("Log not found")
}

// --- repo manager ---

// Manager implements repomanager.RepositoryManager over a Store. The DBTX
// argument of the factories is ignored, so transactions are not isolated.
type Manager struct{ s *Store }

var _ repomanager.RepositoryManager = (*Manager)(nil)

func NewRepositoryManager() *Manager {
	return &Manager{s: NewStore()}
}

func (m *Manager) Store() *Store { return m.s }

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *Manager) Users(dbx.DBTX) users.Repository             { return memUsers{m.s} }
func (m *Manager) ResetTokens(dbx.DBTX) resettokens.Repository { return memTokens{m.s} }
func (m *Manager) Babies(dbx.DBTX) babies.Repository           { return memBabies{m.s} }
func (m *Manager) Measurements(dbx.DBTX) measurements.Repository {
	return memMeasurements{m.s}
}
func (m *Manager) Records(dbx.DBTX) records.Repository           { return memRecords{m.s} }
func (m *Manager) GrowthGuides(dbx.DBTX) growthguides.Repository { return memGuides{m.s} }
func (m *Manager) Logs(dbx.DBTX) logs.Repository                 { return memLogs{m.s} }
