package service

import (
	"context"
	"log"
	"strings"

	"civicfix/ai"
	"civicfix/config"
	"civicfix/models"
	"civicfix/storage"
)

// Submission size bounds enforced at intake
const (
	titleMinLen       = 5
	titleMaxLen       = 200
	descriptionMinLen = 10
	descriptionMaxLen = 5000
	imageMaxBytes     = 10 << 20
)

// IntakeService orchestrates complaint submission: validation, optional
// image upload, duplicate resolution, AI classification with graceful
// degradation, and hand-off to the complaint engine.
type IntakeService struct {
	engine    *ComplaintService
	community *CommunityService
	oracle    ai.Oracle
	objects   storage.ObjectStore
	cfg       config.AIConfig
}

// NewIntakeService creates the intake orchestrator
func NewIntakeService(
	engine *ComplaintService,
	community *CommunityService,
	oracle ai.Oracle,
	objects storage.ObjectStore,
	cfg config.AIConfig,
) *IntakeService {
	return &IntakeService{
		engine:    engine,
		community: community,
		oracle:    oracle,
		objects:   objects,
		cfg:       cfg,
	}
}

// Submit runs the full intake pipeline for one citizen submission.
//
// When coordinates are present and a near-certain duplicate exists, no new
// complaint is created: the duplicate is returned, with an upvote applied if
// the citizen consented via upvote_if_duplicate. The AI oracle failing (or
// being unconfigured) downgrades to the fallback classification unless
// AI_REQUIRED is set.
func (s *IntakeService) Submit(
	ctx context.Context,
	actor models.ActorContext,
	req models.CreateComplaintRequest,
	imageBytes []byte,
	imageMime string,
) (*models.IntakeResult, error) {
	if actor.Role != models.RoleCitizen {
		return nil, models.NewDomainError(models.ErrUnauthorized,
			"role %s may not file complaints", actor.Role)
	}
	if err := validateSubmission(req, imageBytes); err != nil {
		return nil, err
	}

	if req.Latitude != nil && req.Longitude != nil {
		matches, err := s.community.CheckDuplicates(*req.Latitude, *req.Longitude, req.Title+" "+req.Description)
		if err != nil {
			// Duplicate detection is advisory; intake proceeds without it.
			log.Printf("[INTAKE] duplicate check failed: %v", err)
		} else if len(matches) > 0 && matches[0].NearCertainDup {
			existing := matches[0].Complaint
			result := &models.IntakeResult{
				Complaint:   &existing,
				DuplicateOf: existing.ComplaintID,
			}
			if req.UpvoteIfDup && existing.CitizenID != actor.UserID {
				created, count, uerr := s.community.Upvote(existing.ComplaintID, actor, req.Latitude, req.Longitude)
				if uerr != nil {
					log.Printf("[INTAKE] consent upvote on complaint %d failed: %v", existing.ComplaintID, uerr)
				} else {
					result.Upvoted = created
					result.Complaint.UpvoteCount = count
				}
			}
			return result, nil
		}
	}

	imageKey := ""
	if len(imageBytes) > 0 {
		key, err := s.objects.Put(ctx, imageBytes, imageMime)
		if err != nil {
			// A failed upload never blocks intake; the complaint is filed
			// without its photo.
			log.Printf("[INTAKE] image upload failed: %v", err)
		} else {
			imageKey = key
		}
	}

	decision, err := s.oracle.Analyze(ctx, req.Title+"\n"+req.Description, imageBytes)
	if err != nil {
		if s.cfg.Required {
			return nil, models.NewDomainError(models.ErrExternalUnavailable,
				"classification unavailable: %v", err)
		}
		log.Printf("[INTAKE] oracle failed, degrading to fallback: %v", err)
		decision = ai.FallbackDecision()
	}

	draft := IntakeDraft{
		CitizenID:   actor.UserID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		ImageKey:    imageKey,
		ImageMime:   imageMime,
	}
	c, err := s.engine.CreateFromIntake(draft, decision)
	if err != nil {
		return nil, err
	}
	return &models.IntakeResult{Complaint: c}, nil
}

func validateSubmission(req models.CreateComplaintRequest, imageBytes []byte) error {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)

	if len(title) < titleMinLen || len(title) > titleMaxLen {
		return models.NewDomainError(models.ErrValidation,
			"title must be between %d and %d characters", titleMinLen, titleMaxLen)
	}
	if len(description) < descriptionMinLen || len(description) > descriptionMaxLen {
		return models.NewDomainError(models.ErrValidation,
			"description must be between %d and %d characters", descriptionMinLen, descriptionMaxLen)
	}
	if strings.TrimSpace(req.Location) == "" {
		return models.NewDomainError(models.ErrValidation, "location is required")
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return models.NewDomainError(models.ErrValidation,
			"latitude and longitude must be provided together")
	}
	if req.Latitude != nil {
		if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
			return models.NewDomainError(models.ErrValidation, "coordinates out of range")
		}
	}
	if len(imageBytes) > imageMaxBytes {
		return models.NewDomainError(models.ErrValidation, "image exceeds the 10MB limit")
	}
	return nil
}
