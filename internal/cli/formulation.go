package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/suanview/orchard/internal/domain"
)

func (a *app) newFormulationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formulation",
		Short: "Maintain stored formulation codes",
	}

	var dryRun bool
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite legacy formulation codes to the current catalogue",
		Example: `
orchardctl formulation migrate --dry-run
orchardctl formulation migrate
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loc, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := a.open(cmd.Context(), cfg, loc)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := s.service.MigrateFormulations(cmd.Context(), dryRun)
			if err != nil {
				return fmt.Errorf("formulation migration failed: %w", err)
			}
			printMigration(cmd.OutOrStdout(), result, dryRun)
			return nil
		},
	}
	migrate.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")

	cmd.AddCommand(migrate)
	return cmd
}

func printMigration(w io.Writer, r *domain.FormulationMigrationResult, dryRun bool) {
	verb := "Migrated"
	if dryRun {
		verb = "Would migrate"
	}
	_, _ = fmt.Fprintf(w, "Scanned %d activity logs. %s %d.\n", r.Scanned, verb, r.Migrated)
	if len(r.Unknown) > 0 {
		warn := color.New(color.FgYellow)
		_, _ = fmt.Fprintln(w, warn.Sprintf("Unknown codes left untouched: %s", strings.Join(r.Unknown, ", ")))
	}
}
