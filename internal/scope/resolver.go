package scope

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"transferdesk/internal/geo"
	"transferdesk/pkg/domain"
)

// Resolver builds filters from actors. The case service and the ranking
// calculator share one instance.
type Resolver struct {
	registry geo.Registry
	logger   *slog.Logger
}

func NewResolver(registry geo.Registry, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{registry: registry, logger: logger}
}

var errUnresolved = errors.New("location reference is empty")

// Resolve never returns an error: failures become a match-none filter.
func (r *Resolver) Resolve(ctx context.Context, actor domain.Actor) Filter {
	f := r.resolve(ctx, actor)
	if f.MatchesNothing() {
		r.logger.WarnContext(ctx, "scope resolved to match-none",
			"actor_id", actor.ID.String(),
			"role", string(actor.Role),
			"reason", f.Reason,
		)
	}
	return f
}

func (r *Resolver) resolve(ctx context.Context, actor domain.Actor) Filter {
	switch actor.Role {
	case domain.RoleSuperAdmin:
		return All()

	case domain.RoleDistrictAdmin:
		code, err := r.districtCode(ctx, actor.District)
		if err != nil {
			return None("district: " + err.Error())
		}
		return Filter{Kind: KindDistrict, Codes: []string{code}}

	case domain.RoleProvinceAdmin:
		province, err := r.province(ctx, actor.Province)
		if err != nil {
			return None("province: " + err.Error())
		}
		codes, err := r.registry.DistrictCodesInProvince(ctx, province.ID)
		if err != nil {
			return None("province districts: " + err.Error())
		}
		if len(codes) == 0 {
			return None("province has no districts")
		}
		return Filter{Kind: KindProvince, Codes: codes}

	case domain.RoleApplicant:
		nationalID := strings.TrimSpace(actor.NationalID)
		if nationalID == "" {
			return None("applicant has no national id")
		}
		return Filter{Kind: KindOwner, NationalID: nationalID}

	default:
		return None("unknown role " + string(actor.Role))
	}
}

// districtCode normalizes a raw or pre-resolved reference to a registered
// 4-digit code. A pre-resolved code is still checked against the registry.
func (r *Resolver) districtCode(ctx context.Context, ref domain.LocationRef) (string, error) {
	if code := strings.TrimSpace(ref.Code); code != "" {
		d, err := r.registry.DistrictByCode(ctx, code)
		if err != nil {
			return "", err
		}
		return d.Code, nil
	}
	if strings.TrimSpace(ref.ID) == "" {
		return "", errUnresolved
	}
	id, err := domain.ParseDistrictID(ref.ID)
	if err != nil {
		return "", err
	}
	d, err := r.registry.DistrictByID(ctx, id)
	if err != nil {
		return "", err
	}
	return d.Code, nil
}

func (r *Resolver) province(ctx context.Context, ref domain.LocationRef) (geo.Province, error) {
	if code := strings.TrimSpace(ref.Code); code != "" {
		return r.registry.ProvinceByCode(ctx, code)
	}
	if strings.TrimSpace(ref.ID) == "" {
		return geo.Province{}, errUnresolved
	}
	id, err := domain.ParseProvinceID(ref.ID)
	if err != nil {
		return geo.Province{}, err
	}
	return r.registry.ProvinceByID(ctx, id)
}
