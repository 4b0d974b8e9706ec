package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/vital/internal/ports/primary"
	"github.com/example/vital/internal/wire"
)

var authorityCmd = &cobra.Command{
	Use:   "authority",
	Short: "Manage authority accounts",
	Long:  "Register and look up the PDO, TDO and DDO officers that receive escalations",
}

var authorityAddCmd = &cobra.Command{
	Use:   "add [uid]",
	Short: "Register an authority",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		role, _ := cmd.Flags().GetString("role")
		verified, _ := cmd.Flags().GetBool("verified")

		return wire.AuthorityAdapterWithOutput(cmd.OutOrStdout()).Add(ctx, primary.RegisterAuthorityRequest{
			UID:          args[0],
			Name:         name,
			Email:        email,
			Role:         role,
			Jurisdiction: jurisdictionFlags(cmd),
			Verified:     verified,
		})
	},
}

var authorityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List authorities",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		role, _ := cmd.Flags().GetString("role")
		district, _ := cmd.Flags().GetString("district")
		verifiedOnly, _ := cmd.Flags().GetBool("verified-only")

		return wire.AuthorityAdapterWithOutput(cmd.OutOrStdout()).List(ctx, primary.AuthorityFilters{
			Role:         role,
			District:     district,
			VerifiedOnly: verifiedOnly,
		})
	},
}

var authorityLookupCmd = &cobra.Command{
	Use:   "lookup [role]",
	Short: "Show which authority receives escalations to a role",
	Long: `Resolve the verified authority for a role in a jurisdiction:

  pdo  matches --panchayat
  tdo  matches --taluk and --district
  ddo  matches --district`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		_, err := wire.AuthorityAdapterWithOutput(cmd.OutOrStdout()).Lookup(ctx, args[0], jurisdictionFlags(cmd))
		return err
	},
}

func addJurisdictionFlags(cmd *cobra.Command) {
	cmd.Flags().String("panchayat", "", "Panchayat ID")
	cmd.Flags().String("taluk", "", "Taluk")
	cmd.Flags().String("district", "", "District")
}

func jurisdictionFlags(cmd *cobra.Command) primary.Jurisdiction {
	panchayat, _ := cmd.Flags().GetString("panchayat")
	taluk, _ := cmd.Flags().GetString("taluk")
	district, _ := cmd.Flags().GetString("district")
	return primary.Jurisdiction{PanchayatID: panchayat, Taluk: taluk, District: district}
}

// AuthorityCmd returns the authority command
func AuthorityCmd() *cobra.Command {
	authorityAddCmd.Flags().String("name", "", "Display name")
	authorityAddCmd.Flags().String("email", "", "Notification address (required)")
	authorityAddCmd.Flags().String("role", "", "Role: pdo, tdo or ddo (required)")
	authorityAddCmd.Flags().Bool("verified", false, "Mark the account verified")
	addJurisdictionFlags(authorityAddCmd)
	_ = authorityAddCmd.MarkFlagRequired("email")
	_ = authorityAddCmd.MarkFlagRequired("role")

	authorityListCmd.Flags().String("role", "", "Filter by role")
	authorityListCmd.Flags().String("district", "", "Filter by district")
	authorityListCmd.Flags().Bool("verified-only", false, "Only verified accounts")

	addJurisdictionFlags(authorityLookupCmd)

	authorityCmd.AddCommand(authorityAddCmd)
	authorityCmd.AddCommand(authorityListCmd)
	authorityCmd.AddCommand(authorityLookupCmd)

	return authorityCmd
}
