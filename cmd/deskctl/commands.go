package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"grievancedesk/config"
	"grievancedesk/lifecycle"
	"grievancedesk/models"
	"grievancedesk/roles"
	"grievancedesk/sla"
	"grievancedesk/utils"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var catalogPath string

	root := &cobra.Command{
		Use:           "deskctl",
		Short:         "Operator tool for the grievance desk",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&catalogPath, "roles", "", "role catalog YAML (defaults to the built-in catalog)")

	loadCatalog := func() (*roles.Catalog, error) {
		return roles.Load(catalogPath)
	}

	root.AddCommand(newTransitionsCmd(loadCatalog))
	root.AddCommand(newDurationCmd())
	root.AddCommand(newTokenCmd(loadCatalog))
	return root
}

func newTransitionsCmd(loadCatalog func() (*roles.Catalog, error)) *cobra.Command {
	var (
		from string
		role string
	)

	cmd := &cobra.Command{
		Use:   "transitions",
		Short: "Print the status transition table",
		Long:  "Print every allowed status transition and the role group that may perform it. With --from and --role, list only what that role may do from that status.",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog()
			if err != nil {
				return err
			}
			machine := lifecycle.NewDefaultMachine(catalog)
			out := cmd.OutOrStdout()

			if from != "" || role != "" {
				if from == "" || role == "" {
					return fmt.Errorf("--from and --role must be used together")
				}
				current := models.ComplaintStatus(from)
				if !current.IsValid() {
					return fmt.Errorf("unknown status %q", from)
				}
				if !catalog.Known(models.Role(role)) {
					return fmt.Errorf("unknown role %q", role)
				}
				for _, s := range machine.Allowed(current, models.Role(role)) {
					fmt.Fprintln(out, s)
				}
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FROM\tTO\tGROUP")
			for _, r := range machine.Rules() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.From, r.To, r.Group)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "current status, e.g. \"Need Details\"")
	cmd.Flags().StringVar(&role, "role", "", "acting role, e.g. COLLECTOR_TEAM")
	return cmd
}

func newDurationCmd() *cobra.Command {
	var (
		start string
		end   string
	)

	cmd := &cobra.Command{
		Use:   "duration",
		Short: "Compute business and wall-clock duration between two instants",
		Long:  "Compute the business-hours duration between --start and --end (RFC 3339) using the SLA_* settings. --end defaults to now.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			calc, err := sla.NewForZone(cfg.SLA.Timezone, cfg.SLA.DayStartHour, cfg.SLA.DayEndHour)
			if err != nil {
				return err
			}

			from, err := time.Parse(time.RFC3339, start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			to := time.Now()
			if end != "" {
				if to, err = time.Parse(time.RFC3339, end); err != nil {
					return fmt.Errorf("--end: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "business: %s\n", calc.BusinessDuration(from, to))
			fmt.Fprintf(out, "precise:  %s\n", sla.PreciseDuration(from, to))
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "start instant (RFC 3339)")
	cmd.Flags().StringVar(&end, "end", "", "end instant (RFC 3339), defaults to now")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func newTokenCmd(loadCatalog func() (*roles.Catalog, error)) *cobra.Command {
	var (
		userID int64
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET must be set")
			}
			catalog, err := loadCatalog()
			if err != nil {
				return err
			}
			if !catalog.Known(models.Role(role)) {
				return fmt.Errorf("unknown role %q", role)
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}

			token, err := utils.GenerateJWT(userID, models.Role(role), []byte(cfg.Auth.JWTSecret), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id")
	cmd.Flags().StringVar(&role, "role", "", "role id from the catalog")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
