package auth

import "github.com/kambejat/undiziwa/internal"

// EnforceInstitutionScope resolves which institution a payload may target.
// Pure: no I/O, total for any well-formed principal.
//
// hr / institution_admin are locked to their own institution; whatever the
// payload carries is overwritten. super_admin must name an institution
// explicitly. gov_admin may name one and falls back to its own.
func EnforceInstitutionScope(p *Principal, payloadInstitutionID *int64) (int64, error) {
	switch p.Role {
	case RoleHR, RoleInstitutionAdmin:
		if p.InstitutionID == nil {
			return 0, internal.NewValidationError("principal has no institution affiliation", internal.ErrCodeInstitutionReq)
		}
		return *p.InstitutionID, nil

	case RoleSuperAdmin:
		if payloadInstitutionID == nil {
			return 0, internal.NewValidationError("institution is required for this user", internal.ErrCodeInstitutionReq)
		}
		return *payloadInstitutionID, nil

	case RoleGovAdmin:
		if payloadInstitutionID != nil {
			return *payloadInstitutionID, nil
		}
		if p.InstitutionID == nil {
			return 0, internal.NewValidationError("institution is required for this user", internal.ErrCodeInstitutionReq)
		}
		return *p.InstitutionID, nil

	default:
		return 0, internal.NewValidationError("unknown role: "+string(p.Role), internal.ErrCodeInvalidRole)
	}
}
