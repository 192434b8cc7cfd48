package entity

// TokenClass discriminates the two kinds of signed tokens the service
// issues. The class is embedded in the token payload and checked after
// signature verification, so one class can never be replayed as the other.
type TokenClass string

const (
	// TokenClassAccess is the short-lived credential authorizing API calls.
	TokenClassAccess TokenClass = "access"
	// TokenClassRefresh is the long-lived credential used solely to mint
	// new token pairs.
	TokenClassRefresh TokenClass = "refresh"
)

// String returns the string representation of the TokenClass.
func (c TokenClass) String() string {
	return string(c)
}

// IsValid checks if the TokenClass is a valid value.
func (c TokenClass) IsValid() bool {
	switch c {
	case TokenClassAccess, TokenClassRefresh:
		return true
	default:
		return false
	}
}

// TokenPair bundles the two independently signed tokens handed out on
// authentication and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
