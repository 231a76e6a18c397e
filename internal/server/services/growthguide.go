package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/dmitrijs2005/babypal/internal/server/access"
	"github.com/dmitrijs2005/babypal/internal/server/audit"
	"github.com/dmitrijs2005/babypal/internal/server/models"
	"github.com/dmitrijs2005/babypal/internal/server/repositories/repomanager"
)

type GrowthGuideService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	access      *access.Evaluator
	audit       *audit.Recorder
}

func NewGrowthGuideService(db *sql.DB, rm repomanager.RepositoryManager, eval *access.Evaluator, rec *audit.Recorder) *GrowthGuideService {
	return &GrowthGuideService{db: db, repomanager: rm, access: eval, audit: rec}
}

func (s *GrowthGuideService) List(ctx context.Context, actor access.Actor) ([]*models.GrowthGuide, error) {
	if err := s.access.Authorize(actor, access.GrowthGuide, access.List, access.Subject{}); err != nil {
		return nil, err
	}
	out, err := s.repomanager.GrowthGuides(s.db).List(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (s *GrowthGuideService) Get(ctx context.Context, actor access.Actor, id int64) (*models.GrowthGuide, error) {
	if err := s.access.Authorize(actor, access.GrowthGuide, access.Read, access.Subject{}); err != nil {
		return nil, err
	}
	g, err := s.repomanager.GrowthGuides(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Growth guide not found")
	}
	s.audit.Track(ctx, audit.EntityRead(actor.Username, models.LogTypeGrowthGuide, g.ID))
	return g, nil
}

// Update replaces every field of the guide. Admin only.
func (s *GrowthGuideService) Update(ctx context.Context, actor access.Actor, id int64, in *models.GrowthGuide) (*models.GrowthGuide, error) {
	if err := s.access.Authorize(actor, access.GrowthGuide, access.Update, access.Subject{}); err != nil {
		return nil, err
	}
	if in.MonthRange == "" || in.AgeDescription == "" {
		return nil, common.Validation("monthRange and ageDescription are required")
	}

	g := &models.GrowthGuide{
		ID:                  id,
		MonthRange:          in.MonthRange,
		AgeDescription:      in.AgeDescription,
		PhysicalDevelopment: in.PhysicalDevelopment,
		CognitiveSocial:     in.CognitiveSocial,
		MotorSkills:         in.MotorSkills,
	}
	if err := s.repomanager.GrowthGuides(s.db).Update(ctx, g); err != nil {
		return nil, notFoundAs(err, "Growth guide not found")
	}
	s.audit.Track(ctx, audit.EntityUpdated(actor.Username, models.LogTypeGrowthGuide, g.ID))
	return g, nil
}
