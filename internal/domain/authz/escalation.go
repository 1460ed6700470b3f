package authz

import (
	"context"

	"unihr/internal/domain/directory"
)

// EscalationEngine finds the next accountable person strictly above a
// requester when a configured approver would otherwise be the requester.
type EscalationEngine struct {
	Dir directory.API
}

func NewEscalationEngine(dir directory.API) *EscalationEngine {
	return &EscalationEngine{Dir: dir}
}

// Escalate walks a fixed priority chain and returns the user id of the first
// candidate with a linked account who is not the requester, or "" when the
// chain is exhausted. Requesters without both a position and a department
// cannot be escalated.
//
// Chain: closest higher position in the requester's department, then the
// department's named head, then the faculty tier ordered by hierarchy level
// descending (dean before associate dean), then the top position of any
// administrative department when the requester sits in an academic one.
func (e *EscalationEngine) Escalate(ctx context.Context, requester *directory.Employee) (string, error) {
	if requester == nil || requester.Position == nil || requester.Department == nil {
		return "", nil
	}
	facultyID := requester.Department.FacultyID

	positions, err := e.Dir.PositionsAbove(ctx, requester.DepartmentID, facultyID, requester.Position.HierarchyLevel)
	if err != nil {
		return "", err
	}
	for _, pos := range positions {
		userID, err := e.firstOccupantUser(ctx, pos.ID, requester.DepartmentID, facultyID, requester)
		if err != nil {
			return "", err
		}
		if userID != "" {
			return userID, nil
		}
	}

	if headID := requester.Department.HeadPositionID; headID != "" {
		userID, err := e.firstOccupantUser(ctx, headID, "", "", requester)
		if err != nil {
			return "", err
		}
		if userID != "" {
			return userID, nil
		}
	}

	if facultyID != "" {
		tier, err := e.Dir.FacultyTierPositions(ctx, facultyID)
		if err != nil {
			return "", err
		}
		for _, pos := range tier {
			userID, err := e.firstOccupantUser(ctx, pos.ID, "", "", requester)
			if err != nil {
				return "", err
			}
			if userID != "" {
				return userID, nil
			}
		}
	}

	if requester.Department.Type == directory.DepartmentAcademic {
		pos, err := e.Dir.TopAdministrativePosition(ctx, directory.LevelDepartmentHead)
		if err != nil {
			return "", err
		}
		if pos != nil {
			userID, err := e.firstOccupantUser(ctx, pos.ID, "", "", requester)
			if err != nil {
				return "", err
			}
			if userID != "" {
				return userID, nil
			}
		}
	}

	return "", nil
}

func (e *EscalationEngine) firstOccupantUser(ctx context.Context, positionID, departmentID, facultyID string, requester *directory.Employee) (string, error) {
	occupants, err := e.Dir.PositionOccupants(ctx, positionID, departmentID, facultyID)
	if err != nil {
		return "", err
	}
	for _, occ := range occupants {
		if occ.ID == requester.ID || occ.UserID == "" {
			continue
		}
		if requester.UserID != "" && occ.UserID == requester.UserID {
			continue
		}
		return occ.UserID, nil
	}
	return "", nil
}
