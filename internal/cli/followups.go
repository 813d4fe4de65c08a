package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/suanview/orchard/internal/application/orchard"
	"github.com/suanview/orchard/internal/domain"
	"github.com/suanview/orchard/internal/followup"
	"github.com/suanview/orchard/internal/ptr"
	"github.com/suanview/orchard/internal/thaidate"
)

type followUpsOptions struct {
	Zone string
	Date string
}

func (a *app) newFollowUpsCommand() *cobra.Command {
	o := &followUpsOptions{}

	cmd := &cobra.Command{
		Use:   "followups",
		Short: "Print pending follow-ups grouped into overdue, today and upcoming",
		Example: `
orchardctl followups
orchardctl followups --date 2024-01-20 --zone 0190f4c2-...
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loc, err := loadConfig()
			if err != nil {
				return err
			}

			params := orchard.FollowUpBoardParams{ZoneID: ptr.NonZero(o.Zone)}
			if o.Date != "" {
				at, err := thaidate.Parse(o.Date, loc)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", o.Date, err)
				}
				params.At = at
			}

			s, err := a.open(cmd.Context(), cfg, loc)
			if err != nil {
				return err
			}
			defer s.Close()

			board, err := s.service.FollowUpBoard(cmd.Context(), params)
			if err != nil {
				return err
			}
			printBoard(cmd.OutOrStdout(), board)
			return nil
		},
	}
	cmd.Flags().StringVar(&o.Zone, "zone", "", "only show follow-ups of this zone id")
	cmd.Flags().StringVar(&o.Date, "date", "", "reference day instead of today")

	return cmd
}

var bucketColors = map[followup.Classification]*color.Color{
	followup.Overdue:  color.New(color.FgRed, color.Bold),
	followup.Today:    color.New(color.FgYellow, color.Bold),
	followup.Upcoming: color.New(color.FgGreen),
}

// printBoard renders the board as one table per non-empty bucket.
func printBoard(w io.Writer, board *orchard.FollowUpBoard) {
	heading := color.New(color.Bold, color.Underline)
	_, _ = fmt.Fprintln(w, heading.Sprintf("Follow-ups for %s", thaidate.FormatFull(board.Date)))

	if board.Groups.Len() == 0 {
		_, _ = fmt.Fprintln(w, color.New(color.Faint).Sprint("Nothing pending."))
		return
	}

	buckets := []struct {
		name  followup.Classification
		items []domain.FollowUpItem
	}{
		{followup.Overdue, board.Groups.Overdue},
		{followup.Today, board.Groups.Today},
		{followup.Upcoming, board.Groups.Upcoming},
	}

	bold := color.New(color.Bold)
	for _, b := range buckets {
		if len(b.items) == 0 {
			continue
		}
		c := bucketColors[b.name]
		_, _ = fmt.Fprintf(w, "\n%s (%d)\n", c.Sprint(b.name), len(b.items))

		tbl := uitable.New()
		tbl.Separator = "  "
		tbl.AddRow(bold.Sprint("Tree"), bold.Sprint("Zone"), bold.Sprint("Activity"), bold.Sprint("Product"), bold.Sprint("Due"), bold.Sprint("When"))
		for _, item := range b.items {
			date := item.FollowUp()
			tbl.AddRow(
				item.TreeCode,
				item.ZoneName,
				item.Activity.Type.Label(),
				product(item.Activity),
				thaidate.FormatLocalizedFullIn(date, board.Date.Location()),
				c.Sprint(followup.RelativeLabel(date, board.Date)),
			)
		}
		_, _ = fmt.Fprintln(w, tbl)
	}
}

func product(a domain.ActivityLog) string {
	if a.Product == "" {
		return "-"
	}
	if a.Formulation == "" {
		return a.Product
	}
	return a.Product + " " + string(a.Formulation)
}
