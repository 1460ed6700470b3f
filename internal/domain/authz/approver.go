// Package authz holds the organizational authorization core: viewing scope,
// offering eligibility, approval escalation and approver resolution. All
// operations are pure reads over a directory.API snapshot; nothing here
// writes or keeps state between calls.
package authz

type ApproverKind string

const (
	ApproverUser     ApproverKind = "user"
	ApproverRole     ApproverKind = "role"
	ApproverPosition ApproverKind = "position"
)

// ApproverConfig is one abstract approver attached to an approval step.
// Build values through the constructors so only the id matching Kind is set.
type ApproverConfig struct {
	Kind       ApproverKind
	UserID     string
	RoleID     string
	PositionID string
}

func UserApprover(userID string) ApproverConfig {
	return ApproverConfig{Kind: ApproverUser, UserID: userID}
}

func RoleApprover(roleID string) ApproverConfig {
	return ApproverConfig{Kind: ApproverRole, RoleID: roleID}
}

func PositionApprover(positionID string) ApproverConfig {
	return ApproverConfig{Kind: ApproverPosition, PositionID: positionID}
}

// Reference returns the configured id, kept on escalated entries so the
// original accountability target stays visible in logs.
func (c ApproverConfig) Reference() string {
	switch c.Kind {
	case ApproverUser:
		return c.UserID
	case ApproverRole:
		return c.RoleID
	case ApproverPosition:
		return c.PositionID
	}
	return ""
}

// ResolvedApprover is one concrete approval obligation produced for a single
// requester. UserID is empty only for entries passed through unresolved
// (role with no current member, position with no occupant, or the
// faculty-tier reassignment) which are checked again at act time.
type ResolvedApprover struct {
	Kind               ApproverKind `json:"kind"`
	UserID             string       `json:"userId,omitempty"`
	RoleID             string       `json:"roleId,omitempty"`
	PositionID         string       `json:"positionId,omitempty"`
	Escalated          bool         `json:"escalated"`
	EscalatedToFaculty bool         `json:"escalatedToFaculty"`
	OriginalReference  string       `json:"originalReference,omitempty"`
}

type approverKey struct {
	kind       ApproverKind
	userID     string
	roleID     string
	positionID string
}

func (a ResolvedApprover) key() approverKey {
	return approverKey{kind: a.Kind, userID: a.UserID, roleID: a.RoleID, positionID: a.PositionID}
}

// dedupe keeps the first occurrence per composite key, and additionally the
// first occurrence per concrete user id, so one person reached through two
// differently-configured approvers owes exactly one approval.
func dedupe(entries []ResolvedApprover) []ResolvedApprover {
	seenKeys := make(map[approverKey]bool, len(entries))
	seenUsers := make(map[string]bool, len(entries))
	out := make([]ResolvedApprover, 0, len(entries))
	for _, entry := range entries {
		if seenKeys[entry.key()] {
			continue
		}
		if entry.UserID != "" && seenUsers[entry.UserID] {
			continue
		}
		seenKeys[entry.key()] = true
		if entry.UserID != "" {
			seenUsers[entry.UserID] = true
		}
		out = append(out, entry)
	}
	return out
}
