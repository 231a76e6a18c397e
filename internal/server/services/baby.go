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
	"github.com/dmitrijs2005/babypal/internal/server/storage"
)

// PhotoSigner presigns object URLs for baby photos.
type PhotoSigner interface {
	UploadURL(ctx context.Context, key string) (string, error)
	DownloadURL(ctx context.Context, key string) (string, error)
}

// PhotoURL is a presigned URL and the object key it points at.
type PhotoURL struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type BabyService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	access      *access.Evaluator
	audit       *audit.Recorder
	photos      PhotoSigner
	now         func() time.Time
}

func NewBabyService(db *sql.DB, rm repomanager.RepositoryManager, eval *access.Evaluator, rec *audit.Recorder, photos PhotoSigner) *BabyService {
	return &BabyService{db: db, repomanager: rm, access: eval, audit: rec, photos: photos, now: time.Now}
}

var errNoPhotoStorage = common.NotFound("Photo storage is not configured")

func validateBabyName(name string) error {
	if n := len(strings.TrimSpace(name)); n < 3 || n > 100 {
		return common.Validation("Baby name must be between 3 and 100 characters")
	}
	return nil
}

// Create stores a baby owned by actor, with actor as its only caregiver.
func (s *BabyService) Create(ctx context.Context, actor access.Actor, in *models.Baby) (*models.Baby, error) {
	if err := s.access.Authorize(actor, access.Baby, access.Create, access.Subject{}); err != nil {
		return nil, err
	}
	if err := validateBabyName(in.Name); err != nil {
		return nil, err
	}

	dob := in.DateOfBirth
	if dob.IsZero() {
		dob = s.now()
	}
	b := &models.Baby{
		Name:              strings.TrimSpace(in.Name),
		Gender:            in.Gender,
		DateOfBirth:       dob,
		Weight:            in.Weight,
		Height:            in.Height,
		HeadCircumference: in.HeadCircumference,
		Caregivers:        models.StringList{actor.Username},
		Owner:             actor.Username,
	}

	b, err := s.repomanager.Babies(s.db).Create(ctx, b)
	if err != nil {
		return nil, classify(err)
	}
	s.audit.Track(ctx, audit.EntityCreated(actor.Username, models.LogTypeBaby, b.ID))
	return b, nil
}

// ListMine returns the babies actor owns or cares for.
func (s *BabyService) ListMine(ctx context.Context, actor access.Actor) ([]*models.Baby, error) {
	if err := s.access.Authorize(actor, access.Baby, access.List, access.Subject{}); err != nil {
		return nil, err
	}
	babies, err := s.repomanager.Babies(s.db).ListVisibleTo(ctx, actor.Username)
	if err != nil {
		return nil, classify(err)
	}
	return babies, nil
}

// load fetches a baby and authorizes act on it.
func (s *BabyService) load(ctx context.Context, actor access.Actor, id int64, act access.Action) (*models.Baby, error) {
	b, err := s.repomanager.Babies(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Baby not found")
	}
	if err := s.access.Authorize(actor, access.Baby, act, access.BabySubject(b)); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BabyService) Get(ctx context.Context, actor access.Actor, id int64) (*models.Baby, error) {
	b, err := s.load(ctx, actor, id, access.Read)
	if err != nil {
		return nil, err
	}
	s.audit.Track(ctx, audit.EntityRead(actor.Username, models.LogTypeBaby, b.ID))
	return b, nil
}

// Update replaces the baby's fields. A nil caregiver list or an empty owner
// keeps the current value.
func (s *BabyService) Update(ctx context.Context, actor access.Actor, id int64, in *models.Baby) (*models.Baby, error) {
	b, err := s.load(ctx, actor, id, access.Update)
	if err != nil {
		return nil, err
	}
	if err := validateBabyName(in.Name); err != nil {
		return nil, err
	}

	owner, caregivers := b.Owner, b.Caregivers
	if in.Owner != "" {
		owner = in.Owner
	}
	if in.Caregivers != nil {
		caregivers = in.Caregivers
	}

	b.Name = strings.TrimSpace(in.Name)
	b.Gender = in.Gender
	if !in.DateOfBirth.IsZero() {
		b.DateOfBirth = in.DateOfBirth
	}
	b.Weight = in.Weight
	b.Height = in.Height
	b.HeadCircumference = in.HeadCircumference
	b.Owner = owner
	b.Caregivers = caregivers

	if err := s.repomanager.Babies(s.db).Update(ctx, b); err != nil {
		return nil, notFoundAs(err, "Baby not found")
	}
	s.audit.Track(ctx, audit.EntityUpdated(actor.Username, models.LogTypeBaby, b.ID))
	return b, nil
}

// Delete removes the baby together with its measurements and records.
func (s *BabyService) Delete(ctx context.Context, actor access.Actor, id int64) error {
	b, err := s.load(ctx, actor, id, access.Delete)
	if err != nil {
		return err
	}
	if err := s.repomanager.Babies(s.db).Delete(ctx, b.ID); err != nil {
		return notFoundAs(err, "Baby not found")
	}
	s.audit.Track(ctx, audit.EntityDeleted(actor.Username, models.LogTypeBaby, b.ID))
	return nil
}

// PhotoUploadURL assigns a new photo key to the baby and presigns a PUT for it.
func (s *BabyService) PhotoUploadURL(ctx context.Context, actor access.Actor, id int64) (*PhotoURL, error) {
	if s.photos == nil {
		return nil, errNoPhotoStorage
	}
	b, err := s.load(ctx, actor, id, access.Update)
	if err != nil {
		return nil, err
	}

	key := storage.PhotoKey(b.ID)
	u, err := s.photos.UploadURL(ctx, key)
	if err != nil {
		return nil, classify(err)
	}
	if err := s.repomanager.Babies(s.db).UpdatePhotoKey(ctx, b.ID, key); err != nil {
		return nil, notFoundAs(err, "Baby not found")
	}
	s.audit.Track(ctx, audit.EntityUpdated(actor.Username, models.LogTypeBaby, b.ID))
	return &PhotoURL{URL: u, Key: key}, nil
}

func (s *BabyService) PhotoDownloadURL(ctx context.Context, actor access.Actor, id int64) (*PhotoURL, error) {
	if s.photos == nil {
		return nil, errNoPhotoStorage
	}
	b, err := s.load(ctx, actor, id, access.Read)
	if err != nil {
		return nil, err
	}
	if b.PhotoKey == "" {
		return nil, common.NotFound("Baby has no photo")
	}
	u, err := s.photos.DownloadURL(ctx, b.PhotoKey)
	if err != nil {
		return nil, classify(err)
	}
	return &PhotoURL{URL: u, Key: b.PhotoKey}, nil
}

// ListAll returns every baby. Admin only.
func (s *BabyService) ListAll(ctx context.Context, actor access.Actor) ([]*models.Baby, error) {
	if err := s.access.Authorize(actor, access.Admin, access.Manage, access.Subject{}); err != nil {
		return nil, err
	}
	babies, err := s.repomanager.Babies(s.db).ListAll(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return babies, nil
}
