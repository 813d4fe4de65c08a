package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/suanview/orchard/internal/application/orchard"
	"github.com/suanview/orchard/internal/domain"
	"github.com/suanview/orchard/internal/thaidate"
)

// seedFile is the YAML layout accepted by "orchardctl seed".
//
//	zones:
//	  - name: แปลงเหนือ
//	    trees:
//	      - code: N-001
//	        variety: หมอนทอง
//	        status: healthy
//	        planted_at: 2019-06-01
type seedFile struct {
	Zones []seedZone `yaml:"zones"`
}

type seedZone struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Trees       []seedTree `yaml:"trees"`
}

// seedTree uses the presentation status vocabulary, like the API.
type seedTree struct {
	Code      string `yaml:"code"`
	Variety   string `yaml:"variety"`
	Status    string `yaml:"status"`
	PlantedAt string `yaml:"planted_at"`
	Notes     string `yaml:"notes"`
}

// seeder is the part of *orchard.Service that seeding writes through.
type seeder interface {
	CreateZone(ctx context.Context, in orchard.CreateZoneInput) (*domain.Zone, error)
	CreateTree(ctx context.Context, in orchard.CreateTreeInput) (*domain.Tree, error)
}

type seedResult struct {
	Zones int
	Trees int
}

func (a *app) newSeedCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "seed FILE",
		Short: "Create zones and trees from a YAML file",
		Example: `
orchardctl seed orchard.yaml
orchardctl seed --dry-run orchard.yaml
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loc, err := loadConfig()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			file, err := decodeSeed(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			plan, err := planSeed(file, loc)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			if dryRun {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Would create %d zones and %d trees.\n", len(plan), countTrees(plan))
				return nil
			}

			s, err := a.open(cmd.Context(), cfg, loc)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := applySeed(cmd.Context(), s.service, plan)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %d zones and %d trees.\n", result.Zones, result.Trees)
			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without writing")

	return cmd
}

func decodeSeed(r io.Reader) (*seedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file seedFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("seed file is empty")
		}
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &file, nil
}

// zonePlan is a validated zone ready to be written.
type zonePlan struct {
	zone  orchard.CreateZoneInput
	trees []orchard.CreateTreeInput
}

// planSeed checks statuses and dates for the whole file before anything is written,
// so a typo on the last tree does not leave half a seed behind.
func planSeed(file *seedFile, loc *time.Location) ([]zonePlan, error) {
	plan := make([]zonePlan, 0, len(file.Zones))
	for i, z := range file.Zones {
		zp := zonePlan{zone: orchard.CreateZoneInput{Name: z.Name, Description: z.Description}}

		for j, t := range z.Trees {
			in := orchard.CreateTreeInput{
				Code:    t.Code,
				Variety: t.Variety,
				Notes:   t.Notes,
			}
			if t.Status != "" {
				status, err := domain.ToPersisted(t.Status)
				if err != nil {
					return nil, fmt.Errorf("zones[%d].trees[%d].status: %w", i, j, err)
				}
				in.Status = status
			}
			if t.PlantedAt != "" {
				planted, err := thaidate.Parse(t.PlantedAt, loc)
				if err != nil {
					return nil, fmt.Errorf("zones[%d].trees[%d].planted_at: %w", i, j, err)
				}
				in.PlantedAt = &planted
			}
			zp.trees = append(zp.trees, in)
		}
		plan = append(plan, zp)
	}
	return plan, nil
}

// applySeed writes the plan in file order and stops at the first error.
func applySeed(ctx context.Context, s seeder, plan []zonePlan) (seedResult, error) {
	var result seedResult
	for _, zp := range plan {
		zone, err := s.CreateZone(ctx, zp.zone)
		if err != nil {
			return result, fmt.Errorf("zone %q: %w", zp.zone.Name, err)
		}
		result.Zones++

		for _, in := range zp.trees {
			in.ZoneID = &zone.ID
			if _, err := s.CreateTree(ctx, in); err != nil {
				return result, fmt.Errorf("tree %q: %w", in.Code, err)
			}
			result.Trees++
		}
	}
	return result, nil
}

func countTrees(plan []zonePlan) int {
	n := 0
	for _, zp := range plan {
		n += len(zp.trees)
	}
	return n
}
