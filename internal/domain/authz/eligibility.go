package authz

import (
	"context"

	"unihr/internal/domain/directory"
)

// OfferingRestrictions are the three independent allow-lists of a restricted
// offering. An empty list leaves that dimension unrestricted.
type OfferingRestrictions struct {
	FacultyIDs    []string
	DepartmentIDs []string
	PositionIDs   []string
}

type EligibilityChecker struct {
	Dir directory.API
}

func NewEligibilityChecker(dir directory.API) *EligibilityChecker {
	return &EligibilityChecker{Dir: dir}
}

// IsEligible requires all three allow-list predicates to hold. A candidate
// without a department satisfies the department predicate when any allowed
// department belongs to the candidate's effective faculty.
func (c *EligibilityChecker) IsEligible(ctx context.Context, res OfferingRestrictions, emp *directory.Employee) (bool, error) {
	if emp == nil {
		return false, nil
	}

	facultyID := emp.FacultyID()
	if len(res.FacultyIDs) > 0 && !containsID(res.FacultyIDs, facultyID) {
		return false, nil
	}

	if len(res.DepartmentIDs) > 0 {
		if emp.DepartmentID != "" {
			if !containsID(res.DepartmentIDs, emp.DepartmentID) {
				return false, nil
			}
		} else {
			matched := false
			for _, id := range res.DepartmentIDs {
				dep, err := c.Dir.DepartmentByID(ctx, id)
				if err != nil {
					return false, err
				}
				if dep != nil && facultyID != "" && dep.FacultyID == facultyID {
					matched = true
					break
				}
			}
			if !matched {
				return false, nil
			}
		}
	}

	if len(res.PositionIDs) > 0 && !containsID(res.PositionIDs, emp.PositionID) {
		return false, nil
	}

	return true, nil
}

// HasCapacity reports whether an offering can take another application.
// A nil capacity means unlimited.
func HasCapacity(capacity *int, countedApplications int) bool {
	return capacity == nil || countedApplications < *capacity
}

// AvailableSpots returns the remaining spots, or nil when unlimited.
func AvailableSpots(capacity *int, countedApplications int) *int {
	if capacity == nil {
		return nil
	}
	spots := *capacity - countedApplications
	if spots < 0 {
		spots = 0
	}
	return &spots
}

func containsID(ids []string, id string) bool {
	if id == "" {
		return false
	}
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
