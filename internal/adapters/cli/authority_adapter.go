package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/example/vital/internal/ports/primary"
)

// AuthorityAdapter is a thin adapter that translates CLI operations to AuthorityService calls.
type AuthorityAdapter struct {
	service primary.AuthorityService
	out     io.Writer
}

// NewAuthorityAdapter creates a new AuthorityAdapter with the given service.
func NewAuthorityAdapter(service primary.AuthorityService, out io.Writer) *AuthorityAdapter {
	return &AuthorityAdapter{
		service: service,
		out:     out,
	}
}

// Add registers an authority.
func (a *AuthorityAdapter) Add(ctx context.Context, req primary.RegisterAuthorityRequest) error {
	if err := a.service.RegisterAuthority(ctx, req); err != nil {
		return err
	}

	state := "unverified"
	if req.Verified {
		state = "verified"
	}
	fmt.Fprintf(a.out, "%s Registered %s %s (%s, %s)\n", okMark, roleLabel(req.Role), req.UID, req.Email, state)
	return nil
}

// List lists authorities with optional filters.
func (a *AuthorityAdapter) List(ctx context.Context, filters primary.AuthorityFilters) error {
	authorities, err := a.service.ListAuthorities(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list authorities: %w", err)
	}

	if len(authorities) == 0 {
		fmt.Fprintln(a.out, "No authorities found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-16s %-5s %-24s %-30s %s\n", "UID", "ROLE", "NAME", "EMAIL", "JURISDICTION")
	fmt.Fprintln(a.out, rule)
	for _, au := range authorities {
		role := padRight(roleLabel(au.Role), roleText(au.Role), 5)
		name := au.Name
		if !au.Verified {
			name += " (unverified)"
		}
		fmt.Fprintf(a.out, "%-16s %s %-24s %-30s %s\n", au.UID, role, name, au.Email, jurisdiction(au))
	}
	fmt.Fprintln(a.out)

	return nil
}

// Lookup shows which authority would receive an escalation to role.
func (a *AuthorityAdapter) Lookup(ctx context.Context, role string, j primary.Jurisdiction) (*primary.Authority, error) {
	au, err := a.service.FindAuthority(ctx, role, j)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "%s %s %s <%s>\n", roleLabel(au.Role), au.UID, au.Name, au.Email)
	fmt.Fprintf(a.out, "  Jurisdiction: %s\n", jurisdiction(au))
	return au, nil
}

func jurisdiction(au *primary.Authority) string {
	switch au.Role {
	case "pdo":
		return "panchayat " + dash(au.PanchayatID)
	case "tdo":
		return fmt.Sprintf("taluk %s, %s", dash(au.Taluk), dash(au.District))
	default:
		return "district " + dash(au.District)
	}
}
