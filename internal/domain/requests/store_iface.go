package requests

import "context"

type RequestFilter struct {
	RequesterEmployeeID string
	Status              string
	Limit               int
	Offset              int
}

type Store interface {
	CreateRequestType(ctx context.Context, rt *RequestType) error
	RequestTypeByID(ctx context.Context, id string) (*RequestType, error)
	ListRequestTypes(ctx context.Context) ([]RequestType, error)

	// CreateRequest inserts the request and its first step's action rows in
	// one transaction.
	CreateRequest(ctx context.Context, req *Request, actions []Action) error
	RequestByID(ctx context.Context, id string) (*Request, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]Request, int, error)

	Actions(ctx context.Context, requestID string) ([]Action, error)
	// OpenActions lists pending actions belonging to pending requests.
	OpenActions(ctx context.Context) ([]Action, error)
	DecideAction(ctx context.Context, actionID, status, decidedBy string) error

	// AdvanceRequest updates the request's status and step pointer and
	// inserts the next step's action rows in one transaction.
	AdvanceRequest(ctx context.Context, requestID, status string, stepSeq int, actions []Action) error
	UpdateRequestStatus(ctx context.Context, requestID, status string) error
}
