package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"go.uber.org/zap"

	"github.com/example/vital/internal/core/escalation"
	"github.com/example/vital/internal/metrics"
	"github.com/example/vital/internal/ports/primary"
	"github.com/example/vital/internal/ports/secondary"
)

// AuthorityServiceImpl implements the AuthorityService interface.
type AuthorityServiceImpl struct {
	authorityRepo secondary.AuthorityRepository
	log           *zap.SugaredLogger
}

// NewAuthorityService creates a new AuthorityService with injected dependencies.
func NewAuthorityService(authorityRepo secondary.AuthorityRepository, log *zap.SugaredLogger) *AuthorityServiceImpl {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &AuthorityServiceImpl{authorityRepo: authorityRepo, log: log}
}

// FindAuthority returns one verified authority for role in the jurisdiction.
// The jurisdiction fields used depend on the role: panchayat for pdo, taluk
// and district for tdo, district for ddo. When several match, which one is
// returned is unspecified.
func (s *AuthorityServiceImpl) FindAuthority(ctx context.Context, role string, j primary.Jurisdiction) (*primary.Authority, error) {
	r, err := escalation.ParseRole(role)
	if err != nil {
		return nil, primary.NewError(primary.KindInvalidArgument, err.Error())
	}

	query, ok := authorityQuery(r, j)
	if !ok {
		metrics.AuthorityLookupMisses.WithLabelValues(role).Inc()
		return nil, noAuthorityError(r)
	}

	record, err := s.authorityRepo.FindOne(ctx, query)
	if errors.Is(err, secondary.ErrNotFound) {
		metrics.AuthorityLookupMisses.WithLabelValues(role).Inc()
		return nil, noAuthorityError(r)
	}
	if err != nil {
		return nil, primary.WrapInternal("failed to find authority", err)
	}

	return recordToAuthority(record), nil
}

// RegisterAuthority records an authority account.
func (s *AuthorityServiceImpl) RegisterAuthority(ctx context.Context, req primary.RegisterAuthorityRequest) error {
	if req.UID == "" || req.Name == "" || req.Email == "" {
		return primary.NewError(primary.KindInvalidArgument, "uid, name and email are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return primary.NewError(primary.KindInvalidArgument, fmt.Sprintf("invalid email %q", req.Email))
	}
	role, err := escalation.ParseRole(req.Role)
	if err != nil {
		return primary.NewError(primary.KindInvalidArgument, err.Error())
	}
	if _, ok := authorityQuery(role, req.Jurisdiction); !ok {
		return primary.NewError(primary.KindInvalidArgument, jurisdictionHint(role))
	}

	err = s.authorityRepo.Create(ctx, &secondary.AuthorityRecord{
		UID:         req.UID,
		Name:        req.Name,
		Email:       req.Email,
		Role:        string(role),
		PanchayatID: req.Jurisdiction.PanchayatID,
		Taluk:       req.Jurisdiction.Taluk,
		District:    req.Jurisdiction.District,
		Verified:    req.Verified,
	})
	if err != nil {
		return fmt.Errorf("failed to register authority: %w", err)
	}

	s.log.Infow("Authority registered", "uid", req.UID, "role", role, "verified", req.Verified)
	return nil
}

// ListAuthorities lists authorities with optional filters.
func (s *AuthorityServiceImpl) ListAuthorities(ctx context.Context, filters primary.AuthorityFilters) ([]*primary.Authority, error) {
	records, err := s.authorityRepo.List(ctx, secondary.AuthorityFilters{
		Role:         filters.Role,
		District:     filters.District,
		VerifiedOnly: filters.VerifiedOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list authorities: %w", err)
	}

	authorities := make([]*primary.Authority, len(records))
	for i, r := range records {
		authorities[i] = recordToAuthority(r)
	}
	return authorities, nil
}

// authorityQuery builds the lookup for a role. Returns false when the
// jurisdiction lacks a field the role is scoped by.
func authorityQuery(role escalation.Role, j primary.Jurisdiction) (secondary.AuthorityQuery, bool) {
	q := secondary.AuthorityQuery{Role: string(role)}
	switch role {
	case escalation.RolePDO:
		q.PanchayatID = j.PanchayatID
		return q, j.PanchayatID != ""
	case escalation.RoleTDO:
		q.Taluk, q.District = j.Taluk, j.District
		return q, j.Taluk != "" && j.District != ""
	case escalation.RoleDDO:
		q.District = j.District
		return q, j.District != ""
	default:
		return q, false
	}
}

func jurisdictionHint(role escalation.Role) string {
	switch role {
	case escalation.RolePDO:
		return "pdo authorities require a panchayat id"
	case escalation.RoleTDO:
		return "tdo authorities require a taluk and a district"
	default:
		return "ddo authorities require a district"
	}
}

func noAuthorityError(role escalation.Role) *primary.Error {
	return primary.NewError(primary.KindNotFound, "No authority found for "+string(role))
}

func recordToAuthority(r *secondary.AuthorityRecord) *primary.Authority {
	return &primary.Authority{
		UID:         r.UID,
		Name:        r.Name,
		Email:       r.Email,
		Role:        r.Role,
		PanchayatID: r.PanchayatID,
		Taluk:       r.Taluk,
		District:    r.District,
		Verified:    r.Verified,
	}
}

// Ensure AuthorityServiceImpl implements the interface
var _ primary.AuthorityService = (*AuthorityServiceImpl)(nil)
