package requests

import (
	"time"

	"unihr/internal/domain/authz"
)

// Request lifecycle. Rejection is terminal from pending; the remaining
// states advance one way.
const (
	StatusPending     = "pending"
	StatusApproved    = "approved"
	StatusFulfillment = "fulfillment"
	StatusCompleted   = "completed"
	StatusRejected    = "rejected"
)

const (
	ActionPending  = "pending"
	ActionApproved = "approved"
	ActionRejected = "rejected"
)

var transitions = map[string][]string{
	StatusPending:     {StatusApproved, StatusRejected},
	StatusApproved:    {StatusFulfillment},
	StatusFulfillment: {StatusCompleted},
}

// CanTransition reports whether a request may move between the two states.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RequestType is an administrator-configured workflow: an ordered chain of
// approval steps, each carrying one or more abstract approvers.
type RequestType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Steps       []Step `json:"steps,omitempty"`
}

type Step struct {
	ID            string         `json:"id"`
	RequestTypeID string         `json:"requestTypeId"`
	Seq           int            `json:"seq"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Approvers     []StepApprover `json:"approvers,omitempty"`
}

// StepApprover is the persisted form of an abstract approver config.
type StepApprover struct {
	ID         string             `json:"id"`
	StepID     string             `json:"stepId"`
	Kind       authz.ApproverKind `json:"kind"`
	UserID     string             `json:"userId,omitempty"`
	RoleID     string             `json:"roleId,omitempty"`
	PositionID string             `json:"positionId,omitempty"`
}

func (sa StepApprover) Config() authz.ApproverConfig {
	switch sa.Kind {
	case authz.ApproverUser:
		return authz.UserApprover(sa.UserID)
	case authz.ApproverRole:
		return authz.RoleApprover(sa.RoleID)
	case authz.ApproverPosition:
		return authz.PositionApprover(sa.PositionID)
	}
	return authz.ApproverConfig{}
}

type Request struct {
	ID                  string    `json:"id"`
	RequestTypeID       string    `json:"requestTypeId"`
	RequesterEmployeeID string    `json:"requesterEmployeeId"`
	Subject             string    `json:"subject"`
	Status              string    `json:"status"`
	CurrentStepSeq      int       `json:"currentStepSeq"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Action is the persisted projection of one resolved approver obligation.
// UserID stays empty for entries passed through unresolved; those are
// claimed at act time by live membership or occupancy.
type Action struct {
	ID                 string             `json:"id"`
	RequestID          string             `json:"requestId"`
	StepID             string             `json:"stepId"`
	Kind               authz.ApproverKind `json:"kind"`
	UserID             string             `json:"userId,omitempty"`
	RoleID             string             `json:"roleId,omitempty"`
	PositionID         string             `json:"positionId,omitempty"`
	Escalated          bool               `json:"escalated"`
	EscalatedToFaculty bool               `json:"escalatedToFaculty"`
	OriginalReference  string             `json:"originalReference,omitempty"`
	Status             string             `json:"status"`
	DecidedBy          string             `json:"decidedBy,omitempty"`
	DecidedAt          *time.Time         `json:"decidedAt,omitempty"`
}

func actionFromResolved(requestID, stepID string, ra authz.ResolvedApprover) Action {
	return Action{
		RequestID:          requestID,
		StepID:             stepID,
		Kind:               ra.Kind,
		UserID:             ra.UserID,
		RoleID:             ra.RoleID,
		PositionID:         ra.PositionID,
		Escalated:          ra.Escalated,
		EscalatedToFaculty: ra.EscalatedToFaculty,
		OriginalReference:  ra.OriginalReference,
		Status:             ActionPending,
	}
}
