package domain

// Scope identifies the caller and the business unit a request operates in.
type Scope struct {
	BusinessUnitID string
	UserID         string
	IPAddress      string
	// Unrestricted is set when the caller holds PermissionAll. Only such callers may grant it.
	Unrestricted bool
}

// ActorID returns the user id as a nullable column value.
func (s Scope) ActorID() *string {
	if s.UserID == "" {
		return nil
	}
	id := s.UserID
	return &id
}
