package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/dmitrijs2005/babypal/internal/server/access"
	"github.com/dmitrijs2005/babypal/internal/server/audit"
	"github.com/dmitrijs2005/babypal/internal/server/models"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/repomanager"
)

type MeasurementService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	access      *access.Evaluator
	audit       *audit.Recorder
	now         func() time.Time
}

func NewMeasurementService(db *sql.DB, rm repomanager.RepositoryManager, eval *access.Evaluator, rec *audit.Recorder) *MeasurementService {
	return &MeasurementService{db: db, repomanager: rm, access: eval, audit: rec, now: time.Now}
}

// parentBaby loads the baby a measurement or record is attached to.
func parentBaby(ctx context.Context, rm repomanager.RepositoryManager, db *sql.DB, babyID int64) (*models.Baby, error) {
	if babyID == 0 {
		return nil, common.Validation("babyId is required")
	}
	b, err := rm.Babies(db).GetByID(ctx, babyID)
	if err != nil {
		return nil, notFoundAs(err, "Baby not found")
	}
	return b, nil
}

// Create adds a measurement to a baby the actor cares for. The actor
// becomes its author.
func (s *MeasurementService) Create(ctx context.Context, actor access.Actor, in *models.Measurement) (*models.Measurement, error) {
	b, err := parentBaby(ctx, s.repomanager, s.db, in.BabyID)
	if err != nil {
		return nil, err
	}
	if err := s.access.Authorize(actor, access.Measurement, access.Create, access.BabySubject(b)); err != nil {
		return nil, err
	}

	at := in.Time
	if at.IsZero() {
		at = s.now()
	}
	m := &models.Measurement{
		BabyID:            b.ID,
		Author:            actor.Username,
		Time:              at,
		Weight:            in.Weight,
		Height:            in.Height,
		HeadCircumference: in.HeadCircumference,
	}

	m, err = s.repomanager.Measurements(s.db).Create(ctx, m)
	if err != nil {
		return nil, classify(err)
	}
	s.audit.Track(ctx, audit.EntityCreated(actor.Username, models.LogTypeMeasurement, m.ID))
	return m, nil
}

func (s *MeasurementService) load(ctx context.Context, actor access.Actor, id int64, act access.Action) (*models.Measurement, error) {
	m, err := s.repomanager.Measurements(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Measurement not found")
	}
	if err := s.access.Authorize(actor, access.Measurement, act, access.MeasurementSubject(m)); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MeasurementService) Get(ctx context.Context, actor access.Actor, id int64) (*models.Measurement, error) {
	m, err := s.load(ctx, actor, id, access.Read)
	if err != nil {
		return nil, err
	}
	s.audit.Track(ctx, audit.EntityRead(actor.Username, models.LogTypeMeasurement, m.ID))
	return m, nil
}

// ListMine returns the measurements actor authored.
func (s *MeasurementService) ListMine(ctx context.Context, actor access.Actor) ([]*models.Measurement, error) {
	if err := s.access.Authorize(actor, access.Measurement, access.List, access.Subject{}); err != nil {
		return nil, err
	}
	out, err := s.repomanager.Measurements(s.db).ListByAuthor(ctx, actor.Username)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// ListByBaby returns a baby's measurements to anyone allowed to read the baby.
func (s *MeasurementService) ListByBaby(ctx context.Context, actor access.Actor, babyID int64) ([]*models.Measurement, error) {
	b, err := parentBaby(ctx, s.repomanager, s.db, babyID)
	if err != nil {
		return nil, err
	}
	if err := s.access.Authorize(actor, access.Baby, access.Read, access.BabySubject(b)); err != nil {
		return nil, err
	}
	out, err := s.repomanager.Measurements(s.db).ListByBaby(ctx, b.ID)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// Update replaces the readings. A zero time keeps the current one.
func (s *MeasurementService) Update(ctx context.Context, actor access.Actor, id int64, in *models.Measurement) (*models.Measurement, error) {
	m, err := s.load(ctx, actor, id, access.Update)
	if err != nil {
		return nil, err
	}

	if !in.Time.IsZero() {
		m.Time = in.Time
	}
	m.Weight = in.Weight
	m.Height = in.Height
	m.HeadCircumference = in.HeadCircumference

	if err := s.repomanager.Measurements(s.db).Update(ctx, m); err != nil {
		return nil, classify(err)
	}
	s.audit.Track(ctx, audit.EntityUpdated(actor.Username, models.LogTypeMeasurement, m.ID))
	return m, nil
}

func (s *MeasurementService) Delete(ctx context.Context, actor access.Actor, id int64) error {
	m, err := s.load(ctx, actor, id, access.Delete)
	if err != nil {
		return err
	}
	if err := s.repomanager.Measurements(s.db).Delete(ctx, m.ID); err != nil {
		return classify(err)
	}
	s.audit.Track(ctx, audit.EntityDeleted(actor.Username, models.LogTypeMeasurement, m.ID))
	return nil
}

// ListAll returns every measurement. Admin only.
func (s *MeasurementService) ListAll(ctx context.Context, actor access.Actor) ([]*models.Measurement, error) {
	if err := s.access.Authorize(actor, access.Admin, access.Manage, access.Subject{}); err != nil {
		return nil, err
	}
	out, err := s.repomanager.Measurements(s.db).ListAll(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}
