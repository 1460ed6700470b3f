package requests

import (
	"context"
	"errors"

	"unihr/internal/domain/authz"
	"unihr/internal/domain/directory"
	"unihr/internal/platform/metrics"
)

var (
	ErrNotFound          = errors.New("request not found")
	ErrTypeNotFound      = errors.New("request type not found")
	ErrNoSteps           = errors.New("request type has no approval steps")
	ErrNoEmployee        = errors.New("no employee record linked to this account")
	ErrNoApprovers       = errors.New("approval step resolved to zero approvers")
	ErrSelfApproval      = errors.New("requesters cannot act on their own requests")
	ErrNotApprover       = errors.New("no pending approval assigned to this user")
	ErrInvalidTransition = errors.New("invalid request status transition")
)

type Service struct {
	store    Store
	dir      directory.API
	resolver *authz.Resolver
	metrics  *metrics.Collector
}

func NewService(store Store, dir directory.API, resolver *authz.Resolver, collector *metrics.Collector) *Service {
	return &Service{store: store, dir: dir, resolver: resolver, metrics: collector}
}

func (s *Service) CreateType(ctx context.Context, rt *RequestType) error {
	if len(rt.Steps) == 0 {
		return ErrNoSteps
	}
	return s.store.CreateRequestType(ctx, rt)
}

func (s *Service) Types(ctx context.Context) ([]RequestType, error) {
	return s.store.ListRequestTypes(ctx)
}

func (s *Service) TypeByID(ctx context.Context, id string) (*RequestType, error) {
	rt, err := s.store.RequestTypeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, ErrTypeNotFound
	}
	return rt, nil
}

// Submit opens a request and resolves the first step's approvers. Later
// steps are resolved when the request reaches them, so each step sees the
// directory as it is at arrival.
func (s *Service) Submit(ctx context.Context, typeID, userID, subject string) (*Request, error) {
	emp, err := s.dir.EmployeeByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, ErrNoEmployee
	}

	rt, err := s.store.RequestTypeByID(ctx, typeID)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, ErrTypeNotFound
	}
	if len(rt.Steps) == 0 {
		return nil, ErrNoSteps
	}

	first := rt.Steps[0]
	actions, err := s.resolveStep(ctx, first, emp)
	if err != nil {
		return nil, err
	}

	req := &Request{
		RequestTypeID:       typeID,
		RequesterEmployeeID: emp.ID,
		Subject:             subject,
		Status:              StatusPending,
		CurrentStepSeq:      first.Seq,
	}
	if err := s.store.CreateRequest(ctx, req, actions); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Service) resolveStep(ctx context.Context, step Step, requester *directory.Employee) ([]Action, error) {
	configs := make([]authz.ApproverConfig, 0, len(step.Approvers))
	for _, sa := range step.Approvers {
		configs = append(configs, sa.Config())
	}

	resolved, err := s.resolver.Resolve(ctx, configs, requester, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return nil, ErrNoApprovers
	}

	escalated, unresolved := 0, 0
	actions := make([]Action, 0, len(resolved))
	for _, ra := range resolved {
		if ra.Escalated || ra.EscalatedToFaculty {
			escalated++
		}
		if ra.UserID == "" {
			unresolved++
		}
		actions = append(actions, actionFromResolved("", step.ID, ra))
	}
	if s.metrics != nil {
		s.metrics.RecordResolution(escalated, unresolved)
	}
	return actions, nil
}

// Detail is a request with its approval trail.
type Detail struct {
	Request
	Actions []Action `json:"actions"`
}

func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	req, err := s.store.RequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	actions, err := s.store.Actions(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Request: *req, Actions: actions}, nil
}

func (s *Service) List(ctx context.Context, filter RequestFilter) ([]Request, int, error) {
	return s.store.ListRequests(ctx, filter)
}

// ListForUser lists the calling employee's own requests.
func (s *Service) ListForUser(ctx context.Context, userID, status string, limit, offset int) ([]Request, int, error) {
	emp, err := s.dir.EmployeeByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if emp == nil {
		return nil, 0, ErrNoEmployee
	}
	return s.store.ListRequests(ctx, RequestFilter{
		RequesterEmployeeID: emp.ID,
		Status:              status,
		Limit:               limit,
		Offset:              offset,
	})
}

// Inbox lists pending requests the user can currently act on, including
// unresolved role and position entries claimable by live membership.
func (s *Service) Inbox(ctx context.Context, userID string) ([]Request, error) {
	open, err := s.store.OpenActions(ctx)
	if err != nil {
		return nil, err
	}

	var out []Request
	seen := map[string]bool{}
	for _, a := range open {
		if seen[a.RequestID] {
			continue
		}
		req, err := s.store.RequestByID(ctx, a.RequestID)
		if err != nil {
			return nil, err
		}
		if req == nil {
			continue
		}
		requester, err := s.dir.EmployeeByID(ctx, req.RequesterEmployeeID)
		if err != nil {
			return nil, err
		}
		if requester != nil && requester.UserID == userID {
			continue
		}
		ok, err := s.claimable(ctx, a, userID)
		if err != nil {
			return nil, err
		}
		if ok {
			seen[a.RequestID] = true
			out = append(out, *req)
		}
	}
	return out, nil
}

// claimable reports whether the user may decide this action. Entries with a
// concrete user id match directly; unresolved entries are checked against
// live role membership or position occupancy.
func (s *Service) claimable(ctx context.Context, a Action, userID string) (bool, error) {
	if a.Status != ActionPending {
		return false, nil
	}
	if a.UserID != "" {
		return a.UserID == userID, nil
	}
	switch a.Kind {
	case authz.ApproverRole:
		return s.dir.UserHoldsRole(ctx, userID, a.RoleID)
	case authz.ApproverPosition:
		emp, err := s.dir.EmployeeByUserID(ctx, userID)
		if err != nil {
			return false, err
		}
		return emp != nil && emp.PositionID == a.PositionID, nil
	}
	return false, nil
}

func (s *Service) Approve(ctx context.Context, requestID, userID string) (*Request, error) {
	req, action, err := s.claimPending(ctx, requestID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DecideAction(ctx, action.ID, ActionApproved, userID); err != nil {
		return nil, err
	}
	return s.advance(ctx, req, action)
}

func (s *Service) Reject(ctx context.Context, requestID, userID string) (*Request, error) {
	req, action, err := s.claimPending(ctx, requestID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DecideAction(ctx, action.ID, ActionRejected, userID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateRequestStatus(ctx, req.ID, StatusRejected); err != nil {
		return nil, err
	}
	req.Status = StatusRejected
	return req, nil
}

func (s *Service) claimPending(ctx context.Context, requestID, userID string) (*Request, *Action, error) {
	req, err := s.store.RequestByID(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	if req == nil {
		return nil, nil, ErrNotFound
	}
	if req.Status != StatusPending {
		return nil, nil, ErrInvalidTransition
	}

	requester, err := s.dir.EmployeeByID(ctx, req.RequesterEmployeeID)
	if err != nil {
		return nil, nil, err
	}
	if requester != nil && requester.UserID != "" && requester.UserID == userID {
		return nil, nil, ErrSelfApproval
	}

	actions, err := s.store.Actions(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	for i := range actions {
		ok, err := s.claimable(ctx, actions[i], userID)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			return req, &actions[i], nil
		}
	}
	return nil, nil, ErrNotApprover
}

// advance moves the request forward after an approval: to the next step when
// the current one still has other pending actions left it stays put; when
// the final step is exhausted the request becomes approved.
func (s *Service) advance(ctx context.Context, req *Request, decided *Action) (*Request, error) {
	actions, err := s.store.Actions(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	for _, a := range actions {
		if a.StepID == decided.StepID && a.ID != decided.ID && a.Status == ActionPending {
			return req, nil
		}
	}

	rt, err := s.store.RequestTypeByID(ctx, req.RequestTypeID)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, ErrTypeNotFound
	}

	var next *Step
	for i := range rt.Steps {
		if rt.Steps[i].Seq > req.CurrentStepSeq {
			next = &rt.Steps[i]
			break
		}
	}
	if next == nil {
		if err := s.store.UpdateRequestStatus(ctx, req.ID, StatusApproved); err != nil {
			return nil, err
		}
		req.Status = StatusApproved
		return req, nil
	}

	requester, err := s.dir.EmployeeByID(ctx, req.RequesterEmployeeID)
	if err != nil {
		return nil, err
	}
	nextActions, err := s.resolveStep(ctx, *next, requester)
	if err != nil {
		return nil, err
	}
	if err := s.store.AdvanceRequest(ctx, req.ID, StatusPending, next.Seq, nextActions); err != nil {
		return nil, err
	}
	req.CurrentStepSeq = next.Seq
	return req, nil
}

// Fulfill marks an approved request as being carried out.
func (s *Service) Fulfill(ctx context.Context, requestID string) (*Request, error) {
	return s.transition(ctx, requestID, StatusFulfillment)
}

// Complete closes a request that has been fulfilled.
func (s *Service) Complete(ctx context.Context, requestID string) (*Request, error) {
	return s.transition(ctx, requestID, StatusCompleted)
}

func (s *Service) transition(ctx context.Context, requestID, to string) (*Request, error) {
	req, err := s.store.RequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if !CanTransition(req.Status, to) {
		return nil, ErrInvalidTransition
	}
	if err := s.store.UpdateRequestStatus(ctx, requestID, to); err != nil {
		return nil, err
	}
	req.Status = to
	return req, nil
}
