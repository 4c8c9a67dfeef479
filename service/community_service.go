package service

import (
	"database/sql"
	"math"
	"sort"
	"strings"

	"civicfix/clock"
	"civicfix/config"
	"civicfix/models"
)

// similarityFloor is the minimum textual similarity for a candidate to be
// reported as a potential duplicate at all.
const similarityFloor = 0.4

// earthRadiusMeters for haversine distance
const earthRadiusMeters = 6371000.0

// CommunityService handles geospatial duplicate detection and upvotes
type CommunityService struct {
	complaints complaintStore
	upvotes    upvoteStore
	cfg        config.DuplicateConfig
	clk        clock.Clock
}

// NewCommunityService creates the community service
func NewCommunityService(
	complaints complaintStore,
	upvotes upvoteStore,
	cfg config.DuplicateConfig,
	clk clock.Clock,
) *CommunityService {
	return &CommunityService{
		complaints: complaints,
		upvotes:    upvotes,
		cfg:        cfg,
		clk:        clk,
	}
}

// HaversineMeters returns the great-circle distance between two coordinates
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLng := (lng2 - lng1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180.0)*math.Cos(lat2*math.Pi/180.0)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// TextSimilarity scores two descriptions by token overlap (Jaccard over
// lowercased words). 1.0 means identical token sets, 0.0 means disjoint.
func TextSimilarity(a, b string) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	intersection := 0
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union)
}

func tokenize(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, f := range strings.Fields(strings.ToLower(s)) {
		f = strings.Trim(f, ".,!?;:()\"'")
		if len(f) > 2 {
			tokens[f] = struct{}{}
		}
	}
	return tokens
}

// CheckDuplicates finds active complaints near the given point whose text
// resembles the draft. Distance only gates which candidates are considered;
// the flag and block thresholds apply to the textual similarity alone, so an
// identical complaint at the radius edge still scores near-certain. Matches
// come back by similarity descending, closest first among ties.
func (s *CommunityService) CheckDuplicates(lat, lng float64, description string) ([]models.DuplicateMatch, error) {
	candidates, err := s.complaints.ListActiveWithCoords()
	if err != nil {
		return nil, err
	}

	var matches []models.DuplicateMatch
	for _, c := range candidates {
		if !c.Latitude.Valid || !c.Longitude.Valid {
			continue
		}
		distance := HaversineMeters(lat, lng, c.Latitude.Float64, c.Longitude.Float64)
		if distance > s.cfg.RadiusMeters {
			continue
		}
		similarity := TextSimilarity(description, c.Title+" "+c.Description)
		if similarity < similarityFloor {
			continue
		}
		matches = append(matches, models.DuplicateMatch{
			Complaint:      c,
			DistanceMeters: distance,
			Similarity:     similarity,
			LikelyDup:      similarity >= s.cfg.FlagThreshold,
			NearCertainDup: similarity >= s.cfg.BlockThreshold,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		if matches[i].DistanceMeters != matches[j].DistanceMeters {
			return matches[i].DistanceMeters < matches[j].DistanceMeters
		}
		return matches[i].Complaint.ComplaintID < matches[j].Complaint.ComplaintID
	})
	return matches, nil
}

// Upvote registers a citizen's support for a complaint. A citizen cannot
// upvote their own complaint; re-upvoting is a no-op that reports the current
// count.
func (s *CommunityService) Upvote(complaintID int64, actor models.ActorContext, lat, lng *float64) (created bool, count int, err error) {
	c, err := s.complaints.GetByID(complaintID)
	if err != nil {
		return false, 0, err
	}
	if c.CitizenID == actor.UserID {
		return false, 0, models.NewDomainError(models.ErrConflict,
			"citizens cannot upvote their own complaint")
	}
	if c.CurrentStatus.IsTerminal() {
		return false, 0, models.NewDomainError(models.ErrPreconditionFailed,
			"complaint %d is %s", complaintID, c.CurrentStatus)
	}

	u := &models.Upvote{
		ComplaintID: complaintID,
		CitizenID:   actor.UserID,
		CreatedAt:   s.clk.Now(),
	}
	if lat != nil && lng != nil {
		u.Latitude = sql.NullFloat64{Float64: *lat, Valid: true}
		u.Longitude = sql.NullFloat64{Float64: *lng, Valid: true}
	}
	created, err = s.upvotes.Create(u)
	if err != nil {
		return false, 0, err
	}

	count, err = s.upvotes.Count(complaintID)
	if err != nil {
		return created, 0, err
	}
	return created, count, nil
}

// RemoveUpvote withdraws a citizen's upvote
func (s *CommunityService) RemoveUpvote(complaintID int64, actor models.ActorContext) (count int, err error) {
	removed, err := s.upvotes.Delete(complaintID, actor.UserID)
	if err != nil {
		return 0, err
	}
	if !removed {
		return 0, models.NewDomainError(models.ErrNotFound,
			"no upvote by citizen %d on complaint %d", actor.UserID, complaintID)
	}
	return s.upvotes.Count(complaintID)
}

// Nearby lists active complaints within radiusMeters of a point, closest
// first. A zero radius falls back to the configured duplicate radius.
func (s *CommunityService) Nearby(lat, lng, radiusMeters float64) ([]models.DuplicateMatch, error) {
	if radiusMeters <= 0 {
		radiusMeters = s.cfg.RadiusMeters
	}
	candidates, err := s.complaints.ListActiveWithCoords()
	if err != nil {
		return nil, err
	}

	var out []models.DuplicateMatch
	for _, c := range candidates {
		if !c.Latitude.Valid || !c.Longitude.Valid {
			continue
		}
		distance := HaversineMeters(lat, lng, c.Latitude.Float64, c.Longitude.Float64)
		if distance > radiusMeters {
			continue
		}
		out = append(out, models.DuplicateMatch{Complaint: c, DistanceMeters: distance})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DistanceMeters < out[j].DistanceMeters })
	return out, nil
}

// Trending lists active complaints by upvote count descending
func (s *CommunityService) Trending(limit int) ([]models.Complaint, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.complaints.ListTrending(limit)
}
