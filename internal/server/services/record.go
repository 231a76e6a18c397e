package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/dmitrijs2005/babypal/internal/server/access"
	"github.com/dmitrijs2005/babypal/internal/server/audit"
	"github.com/dmitrijs2005/babypal/internal/server/models"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/repomanager"
)

type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	access      *access.Evaluator
	audit       *audit.Recorder
	now         func() time.Time
}

func NewRecordService(db *sql.DB, rm repomanager.RepositoryManager, eval *access.Evaluator, rec *audit.Recorder) *RecordService {
	return &RecordService{db: db, repomanager: rm, access: eval, audit: rec, now: time.Now}
}

func validateRecord(in *models.Record) error {
	if strings.TrimSpace(in.Type) == "" {
		return common.Validation("Record type is required")
	}
	if in.EndTime != nil && !in.StartTime.IsZero() && in.EndTime.Before(in.StartTime) {
		return common.Validation("Record end time must not be before its start time")
	}
	return nil
}

func (s *RecordService) Create(ctx context.Context, actor access.Actor, in *models.Record) (*models.Record, error) {
	if err := validateRecord(in); err != nil {
		return nil, err
	}
	b, err := parentBaby(ctx, s.repomanager, s.db, in.BabyID)
	if err != nil {
		return nil, err
	}
	if err := s.access.Authorize(actor, access.Record, access.Create, access.BabySubject(b)); err != nil {
		return nil, err
	}

	start := in.StartTime
	if start.IsZero() {
		start = s.now()
	}
	r := &models.Record{
		BabyID:    b.ID,
		Author:    actor.Username,
		Type:      in.Type,
		SubType:   in.SubType,
		Note:      in.Note,
		StartTime: start,
		EndTime:   in.EndTime,
	}

	r, err = s.repomanager.Records(s.db).Create(ctx, r)
	if err != nil {
		return nil, classify(err)
	}
	s.audit.Track(ctx, audit.EntityCreated(actor.Username, models.LogTypeRecord, r.ID))
	return r, nil
}

func (s *RecordService) load(ctx context.Context, actor access.Actor, id int64, act access.Action) (*models.Record, error) {
	r, err := s.repomanager.Records(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Record not found")
	}
	if err := s.access.Authorize(actor, access.Record, act, access.RecordSubject(r)); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *RecordService) Get(ctx context.Context, actor access.Actor, id int64) (*models.Record, error) {
	r, err := s.load(ctx, actor, id, access.Read)
	if err != nil {
		return nil, err
	}
	s.audit.Track(ctx, audit.EntityRead(actor.Username, models.LogTypeRecord, r.ID))
	return r, nil
}

func (s *RecordService) ListMine(ctx context.Context, actor access.Actor) ([]*models.Record, error) {
	if err := s.access.Authorize(actor, access.Record, access.List, access.Subject{}); err != nil {
		return nil, err
	}
	out, err := s.repomanager.Records(s.db).ListByAuthor(ctx, actor.Username)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (s *RecordService) ListByBaby(ctx context.Context, actor access.Actor, babyID int64) ([]*models.Record, error) {
	b, err := parentBaby(ctx, s.repomanager, s.db, babyID)
	if err != nil {
		return nil, err
	}
	if err := s.access.Authorize(actor, access.Baby, access.Read, access.BabySubject(b)); err != nil {
		return nil, err
	}
	out, err := s.repomanager.Records(s.db).ListByBaby(ctx, b.ID)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (s *RecordService) Update(ctx context.Context, actor access.Actor, id int64, in *models.Record) (*models.Record, error) {
	r, err := s.load(ctx, actor, id, access.Update)
	if err != nil {
		return nil, err
	}
	if err := validateRecord(in); err != nil {
		return nil, err
	}

	r.Type = in.Type
	r.SubType = in.SubType
	r.Note = in.Note
	if !in.StartTime.IsZero() {
		r.StartTime = in.StartTime
	}
	r.EndTime = in.EndTime

	if err := s.repomanager.Records(s.db).Update(ctx, r); err != nil {
		return nil, classify(err)
	}
	s.audit.Track(ctx, audit.EntityUpdated(actor.Username, models.LogTypeRecord, r.ID))
	return r, nil
}

func (s *RecordService) Delete(ctx context.Context, actor access.Actor, id int64) error {
	r, err := s.load(ctx, actor, id, access.Delete)
	if err != nil {
		return err
	}
	if err := s.repomanager.Records(s.db).Delete(ctx, r.ID); err != nil {
		return classify(err)
	}
	s.audit.Track(ctx, audit.EntityDeleted(actor.Username, models.LogTypeRecord, r.ID))
	return nil
}

func (s *RecordService) ListAll(ctx context.Context, actor access.Actor) ([]*models.Record, error) {
	if err := s.access.Authorize(actor, access.Admin, access.Manage, access.Subject{}); err != nil {
		return nil, err
	}
	out, err := s.repomanager.Records(s.db).ListAll(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}
