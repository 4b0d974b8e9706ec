package primary

import "context"

// AuthorityService defines the primary port for authority lookup and registration.
type AuthorityService interface {
	// FindAuthority returns one verified authority for the role in the jurisdiction.
	// Returns a KindNotFound error when none matches.
	FindAuthority(ctx context.Context, role string, j Jurisdiction) (*Authority, error)

	// RegisterAuthority records an authority account.
	RegisterAuthority(ctx context.Context, req RegisterAuthorityRequest) error

	// ListAuthorities lists authorities with optional filters.
	ListAuthorities(ctx context.Context, filters AuthorityFilters) ([]*Authority, error)
}

// Jurisdiction is the geographic scope of an issue or authority.
type Jurisdiction struct {
	PanchayatID string
	Taluk       string
	District    string
}

// Authority represents an authority account at the port boundary.
type Authority struct {
	UID         string
	Name        string
	Email       string
	Role        string // 'pdo', 'tdo', 'ddo'
	PanchayatID string
	Taluk       string
	District    string
	Verified    bool
}

// RegisterAuthorityRequest contains parameters for registering an authority.
type RegisterAuthorityRequest struct {
	UID          string
	Name         string
	Email        string
	Role         string
	Jurisdiction Jurisdiction
	Verified     bool
}

// AuthorityFilters contains filter options for listing authorities.
type AuthorityFilters struct {
	Role         string
	District     string
	VerifiedOnly bool
}
