package models

// CreateComplaintRequest is the JSON intake payload
type CreateComplaintRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	UpvoteIfDup bool     `json:"upvote_if_duplicate,omitempty"`
}

// IntakeResult is returned by the intake orchestrator. When DuplicateOf is
// set, no new complaint was created and Complaint refers to the existing one.
type IntakeResult struct {
	Complaint   *Complaint `json:"complaint"`
	DuplicateOf int64      `json:"duplicate_of,omitempty"`
	Upvoted     bool       `json:"upvoted,omitempty"`
}

// TransitionRequest is the body for the generic state endpoint
type TransitionRequest struct {
	TargetState ComplaintStatus `json:"targetState"`
	Reason      string          `json:"reason,omitempty"`
}

// RateRequest records the citizen's rating on a resolved/closed complaint
type RateRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback,omitempty"`
}

// AssignDepartmentRequest is the ADMIN manual-routing body
type AssignDepartmentRequest struct {
	DepartmentID string `json:"department_id"`
	Reason       string `json:"reason,omitempty"`
}

// SignoffRequest is the citizen's post-resolution response body
type SignoffRequest struct {
	IsAccepted      bool   `json:"isAccepted"`
	Rating          *int   `json:"rating,omitempty"`
	Feedback        string `json:"feedback,omitempty"`
	DisputeReason   string `json:"disputeReason,omitempty"`
	DisputeImageKey string `json:"disputeImageKey,omitempty"`
}

// DuplicateMatch annotates a candidate duplicate with distance and similarity
type DuplicateMatch struct {
	Complaint      Complaint `json:"complaint"`
	DistanceMeters float64   `json:"distance_meters"`
	Similarity     float64   `json:"similarity"`
	LikelyDup      bool      `json:"likely_duplicate"`
	NearCertainDup bool      `json:"near_certain_duplicate"`
}

// EscalationStats summarizes the scheduler's view of the backlog
type EscalationStats struct {
	OverdueInProgress int `json:"overdue_in_progress"`
	Level1            int `json:"level_1"`
	Level2            int `json:"level_2"`
	AwaitingSignoff   int `json:"awaiting_signoff"`
	StalledFiled      int `json:"stalled_filed"`
}

// SweepReport is the outcome of one escalation sweep
type SweepReport struct {
	Escalated  int `json:"escalated"`
	AutoClosed int `json:"auto_closed"`
	Warned     int `json:"warned"`
	Examined   int `json:"examined"`
}
