package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"transferdesk/internal/app"
	jwttoken "transferdesk/internal/jwt_token"
	"transferdesk/internal/platform/metrics"
	"transferdesk/pkg/domain"
	dErrors "transferdesk/pkg/domain-errors"
)

var (
	tokenRole       string
	tokenDistrict   string
	tokenProvince   string
	tokenNationalID string
	tokenPassword   string
	tokenTTL        time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a signed bearer token for an actor",
	Long: `Mints a token for the actor described by the flags. With --password the
applicant identified by --national-id is authenticated first and the token
carries that identity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		var actor domain.Actor
		if tokenPassword != "" {
			a, err := app.Build(cmd.Context(), cfg, metrics.New(), log)
			if err != nil {
				return err
			}
			defer a.Close()
			identity, err := a.Identities.Authenticate(cmd.Context(), tokenNationalID, tokenPassword)
			if err != nil {
				return err
			}
			actor = identity.Actor()
		} else if actor, err = tokenActor(); err != nil {
			return err
		}
		token, err := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer).GenerateToken(actor, tokenTTL)
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), map[string]any{"token": token, "actor": actor})
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func tokenActor() (domain.Actor, error) {
	actor := domain.Actor{
		ID:         domain.NewUserID(),
		Role:       domain.Role(tokenRole),
		NationalID: tokenNationalID,
		District:   domain.LocationRef{Code: tokenDistrict},
		Province:   domain.LocationRef{Code: tokenProvince},
	}
	switch actor.Role {
	case domain.RoleDistrictAdmin:
		if tokenDistrict == "" {
			return actor, dErrors.New(dErrors.CodeValidation, "--district is required for district admins")
		}
	case domain.RoleProvinceAdmin:
		if tokenProvince == "" {
			return actor, dErrors.New(dErrors.CodeValidation, "--province is required for province admins")
		}
	case domain.RoleApplicant:
		if tokenNationalID == "" {
			return actor, dErrors.New(dErrors.CodeValidation, "--national-id is required for applicants")
		}
	case domain.RoleSuperAdmin:
	default:
		return actor, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", tokenRole)
	}
	return actor, nil
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(domain.RoleSuperAdmin), "actor role")
	tokenCmd.Flags().StringVar(&tokenDistrict, "district", "", "district code for district admins")
	tokenCmd.Flags().StringVar(&tokenProvince, "province", "", "province code for province admins")
	tokenCmd.Flags().StringVar(&tokenNationalID, "national-id", "", "national id for applicants")
	tokenCmd.Flags().StringVar(&tokenPassword, "password", "", "authenticate the applicant with this password")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "token lifetime")
}
