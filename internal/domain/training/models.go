package training

import (
	"time"

	"unihr/internal/domain/authz"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

const (
	ApplicationPending   = "pending"
	ApplicationApproved  = "approved"
	ApplicationRejected  = "rejected"
	ApplicationCompleted = "completed"
	ApplicationCancelled = "cancelled"
)

// Training is an offering employees can apply to. Capacity is nil for
// unlimited offerings. The three allow-lists restrict who may apply; an
// empty list leaves that dimension open.
type Training struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     time.Time  `json:"endDate"`
	Capacity    *int       `json:"capacity,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	FacultyIDs    []string `json:"facultyIds,omitempty"`
	DepartmentIDs []string `json:"departmentIds,omitempty"`
	PositionIDs   []string `json:"positionIds,omitempty"`
}

func (t *Training) Restrictions() authz.OfferingRestrictions {
	return authz.OfferingRestrictions{
		FacultyIDs:    t.FacultyIDs,
		DepartmentIDs: t.DepartmentIDs,
		PositionIDs:   t.PositionIDs,
	}
}

type Application struct {
	ID             string    `json:"id"`
	TrainingID     string    `json:"trainingId"`
	EmployeeID     string    `json:"employeeId"`
	Status         string    `json:"status"`
	CertificateRef string    `json:"certificateRef,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// countedStatuses are the application states that consume a capacity spot.
var countedStatuses = []string{ApplicationPending, ApplicationApproved, ApplicationCompleted}
