package authorization

import "context"

// Service decides whether an actor may perform an action on an object within an organization.
// Actors are "user:<id>" or "system".
type Service interface {
	Authorize(ctx context.Context, actor string, orgID string, object string, action string) error
}
