package actor

import "villabay/internal/domain/shared/fault"

var (
	ErrUnverifiedEmail = fault.New(fault.KindPermission, "actor: email must be verified")
	ErrForbidden       = fault.New(fault.KindPermission, "actor: not allowed to perform this action")
)

type UserType string

const (
	TypeGuest UserType = "guest"
	TypeHost  UserType = "host"
	TypeAdmin UserType = "admin"
)

// Actor is the already-authenticated identity handed to every engine
// operation. The engine performs no credential checks, only
// authorization against this record.
type Actor struct {
	UserUID       string
	Type          UserType
	EmailVerified bool
}

func (a Actor) IsAdmin() bool {
	return a.Type == TypeAdmin
}

// CanTransition reports whether the actor may drive transitions on a
// booking: the guest who owns it, the villa's host, or an admin.
func (a Actor) CanTransition(guestID, hostID string) bool {
	return a.IsAdmin() || a.UserUID == guestID || a.UserUID == hostID
}
