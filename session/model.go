package session

// Profile is the cached user-identity record kept in durable storage
// alongside, but separate from, the access credential.
//
// Profile instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Profile struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Role           string   `json:"role"`
	WorkspaceID    string   `json:"workspace_id,omitempty"`
	OrganizationID string   `json:"organization_id,omitempty"`
	TeamIDs        []string `json:"team_ids,omitempty"`
}

// Session is the authenticated identity for the current process: the access
// credential read best-effort from the cookie jar, and the profile read from
// durable storage.
type Session struct {
	Credential string
	Profile    *Profile
}

// IsAuthenticated reports whether both session parts are present. Presence
// of only one part is treated as unauthenticated.
func (s Session) IsAuthenticated() bool {
	return s.Credential != "" && s.Profile != nil
}

// rememberRecord is the persisted remember-me sub-record. CreatedAt is epoch
// milliseconds; the record expires rememberTTL after it.
type rememberRecord struct {
	Enabled   bool  `json:"enabled"`
	CreatedAt int64 `json:"created_at"`
}
