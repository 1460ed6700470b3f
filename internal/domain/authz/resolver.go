package authz

import (
	"context"

	"unihr/internal/domain/directory"
)

// Resolver expands abstract approver configurations into concrete approval
// obligations for one requester. Resolution is deterministic for a given
// directory state; running it twice without directory changes yields the
// same set.
type Resolver struct {
	Dir        directory.API
	Escalation *EscalationEngine
}

func NewResolver(dir directory.API) *Resolver {
	return &Resolver{Dir: dir, Escalation: NewEscalationEngine(dir)}
}

// Resolve expands each configured approver for the requester and
// deduplicates the result, first occurrence wins. The two allow-lists, when
// non-empty, restrict position-type configs to an offering's faculties and
// departments. The returned list can be empty; the caller must treat a step
// with zero resolved approvers as a configuration error to surface.
func (r *Resolver) Resolve(ctx context.Context, configs []ApproverConfig, requester *directory.Employee, allowedFacultyIDs, allowedDepartmentIDs []string) ([]ResolvedApprover, error) {
	var entries []ResolvedApprover
	for _, cfg := range configs {
		expanded, err := r.resolveOne(ctx, cfg, requester, allowedFacultyIDs, allowedDepartmentIDs)
		if err != nil {
			return nil, err
		}
		entries = append(entries, expanded...)
	}
	return dedupe(entries), nil
}

func (r *Resolver) resolveOne(ctx context.Context, cfg ApproverConfig, requester *directory.Employee, allowedFacultyIDs, allowedDepartmentIDs []string) ([]ResolvedApprover, error) {
	switch cfg.Kind {
	case ApproverUser:
		return r.resolveUser(ctx, cfg, requester)
	case ApproverRole:
		return r.resolveRole(ctx, cfg, requester)
	case ApproverPosition:
		return r.resolvePosition(ctx, cfg, requester, allowedFacultyIDs, allowedDepartmentIDs)
	}
	return nil, nil
}

func (r *Resolver) resolveUser(ctx context.Context, cfg ApproverConfig, requester *directory.Employee) ([]ResolvedApprover, error) {
	if requester != nil && requester.UserID != "" && cfg.UserID == requester.UserID {
		entry, err := r.substitute(ctx, requester, cfg)
		if err != nil || entry == nil {
			return nil, err
		}
		return []ResolvedApprover{*entry}, nil
	}
	return []ResolvedApprover{{Kind: ApproverUser, UserID: cfg.UserID}}, nil
}

func (r *Resolver) resolveRole(ctx context.Context, cfg ApproverConfig, requester *directory.Employee) ([]ResolvedApprover, error) {
	passthrough := []ResolvedApprover{{Kind: ApproverRole, RoleID: cfg.RoleID}}
	if requester == nil || requester.DepartmentID == "" {
		return passthrough, nil
	}

	facultyID := ""
	if requester.Department != nil {
		facultyID = requester.Department.FacultyID
	}
	members, err := r.Dir.RoleMembers(ctx, cfg.RoleID, requester.DepartmentID, facultyID)
	if err != nil {
		return nil, err
	}

	var entries []ResolvedApprover
	for _, member := range members {
		if member.ID == requester.ID || member.UserID == "" {
			continue
		}
		if requester.UserID != "" && member.UserID == requester.UserID {
			continue
		}
		entries = append(entries, ResolvedApprover{Kind: ApproverRole, UserID: member.UserID, RoleID: cfg.RoleID})
	}
	if len(entries) == 0 {
		// No current member in the requester's unit; the entry stays
		// unresolved and is checked against live membership at act time.
		return passthrough, nil
	}
	return entries, nil
}

func (r *Resolver) resolvePosition(ctx context.Context, cfg ApproverConfig, requester *directory.Employee, allowedFacultyIDs, allowedDepartmentIDs []string) ([]ResolvedApprover, error) {
	if len(allowedFacultyIDs) > 0 || len(allowedDepartmentIDs) > 0 {
		pos, err := r.Dir.PositionByID(ctx, cfg.PositionID)
		if err != nil {
			return nil, err
		}
		if pos == nil {
			return nil, nil
		}
		if !containsID(allowedFacultyIDs, pos.FacultyID) && !containsID(allowedDepartmentIDs, pos.DepartmentID) {
			return nil, nil
		}
	}

	deptID, facultyID := "", ""
	if requester != nil {
		deptID = requester.DepartmentID
		if requester.Department != nil {
			facultyID = requester.Department.FacultyID
		}
	}
	occupants, err := r.Dir.PositionOccupants(ctx, cfg.PositionID, deptID, facultyID)
	if err != nil {
		return nil, err
	}
	// Positions are expected to be unique within a filtered unit; only the
	// first occupant becomes accountable.
	for _, occ := range occupants {
		if requester != nil && occ.ID == requester.ID {
			continue
		}
		if occ.UserID == "" {
			continue
		}
		return []ResolvedApprover{{Kind: ApproverPosition, UserID: occ.UserID, PositionID: cfg.PositionID}}, nil
	}

	if requester != nil && requester.PositionID != "" && cfg.PositionID == requester.PositionID {
		entry, err := r.substitute(ctx, requester, cfg)
		if err != nil || entry == nil {
			return nil, err
		}
		return []ResolvedApprover{*entry}, nil
	}
	return []ResolvedApprover{{Kind: ApproverPosition, PositionID: cfg.PositionID}}, nil
}

// substitute replaces an approver that resolved to the requester. Requesters
// already at the top of their department are reassigned to the faculty tier
// as an unresolved position entry; everyone else goes through the
// escalation engine. A nil return means the obligation is dropped.
func (r *Resolver) substitute(ctx context.Context, requester *directory.Employee, original ApproverConfig) (*ResolvedApprover, error) {
	atMax, err := r.requesterAtMaxLevel(ctx, requester)
	if err != nil {
		return nil, err
	}
	if atMax {
		if facultyID := requester.FacultyID(); facultyID != "" {
			tier, err := r.Dir.FacultyTierPositions(ctx, facultyID)
			if err != nil {
				return nil, err
			}
			if len(tier) > 0 {
				return &ResolvedApprover{
					Kind:               ApproverPosition,
					PositionID:         tier[0].ID,
					EscalatedToFaculty: true,
					OriginalReference:  original.Reference(),
				}, nil
			}
		}
	}

	userID, err := r.Escalation.Escalate(ctx, requester)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, nil
	}
	return &ResolvedApprover{
		Kind:              ApproverUser,
		UserID:            userID,
		RoleID:            original.RoleID,
		PositionID:        original.PositionID,
		Escalated:         true,
		OriginalReference: original.Reference(),
	}, nil
}

func (r *Resolver) requesterAtMaxLevel(ctx context.Context, requester *directory.Employee) (bool, error) {
	if requester.Position == nil {
		return false, nil
	}
	maxLevel, err := r.Dir.MaxHierarchyLevel(ctx, requester.DepartmentID)
	if err != nil {
		return false, err
	}
	return requester.Position.HierarchyLevel >= maxLevel, nil
}
