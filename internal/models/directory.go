package models

// Principal is a workspace member record. The remote service nests display
// fields under a profile object; the client flattens them before they reach
// the cache.
type Principal struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RealName    string `json:"real_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	IsBot       bool   `json:"is_bot,omitempty"`
	Deleted     bool   `json:"deleted,omitempty"`
}

// Label returns the friendliest non-empty name for the principal.
func (p Principal) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if p.RealName != "" {
		return p.RealName
	}
	return p.Name
}

// Channel is a workspace channel record.
type Channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Topic      string `json:"topic,omitempty"`
	Purpose    string `json:"purpose,omitempty"`
	IsPrivate  bool   `json:"is_private,omitempty"`
	IsArchived bool   `json:"is_archived,omitempty"`
	NumMembers int    `json:"num_members,omitempty"`
}

// LooksLikeChannelID reports whether s has the shape of a channel id: a C, G,
// or D prefix followed by at least eight upper-case alphanumerics.
func LooksLikeChannelID(s string) bool {
	return len(s) >= 9 && (s[0] == 'C' || s[0] == 'G' || s[0] == 'D') && isUpperAlnum(s[1:])
}

// LooksLikePrincipalID reports whether s has the shape of a member id (U or W
// prefixed).
func LooksLikePrincipalID(s string) bool {
	return len(s) >= 9 && (s[0] == 'U' || s[0] == 'W') && isUpperAlnum(s[1:])
}

func isUpperAlnum(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
