package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/suanview/orchard/internal/application/auth"
	"github.com/suanview/orchard/internal/infrastructure/keygen"
)

type apiKeyOptions struct {
	Name    string
	Days    int
	KeyType string
	Service string
	Version string
}

func (a *app) newAPIKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}

	o := &apiKeyOptions{}
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key and print it once",
		Example: `
orchardctl apikey create --name "field tablet"
orchardctl apikey create --name ci --days 30
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.Days < 0 {
				return fmt.Errorf("--days must be >= 0")
			}
			cfg, loc, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := a.open(cmd.Context(), cfg, loc)
			if err != nil {
				return err
			}
			defer s.Close()

			return createAPIKey(cmd, s.store, o, a.now())
		},
	}
	create.Flags().StringVar(&o.Name, "name", "", "name/description for the key (required)")
	create.Flags().IntVar(&o.Days, "days", 0, "days until expiration, 0 never expires")
	create.Flags().StringVar(&o.KeyType, "type", keygen.DefaultKeyType, "key type prefix")
	create.Flags().StringVar(&o.Service, "service", keygen.DefaultService, "service segment of the key")
	create.Flags().StringVar(&o.Version, "key-version", keygen.DefaultVersion, "version segment of the key")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(create)
	return cmd
}

func createAPIKey(cmd *cobra.Command, repo auth.Repository, o *apiKeyOptions, now time.Time) error {
	var expiresAt *time.Time
	if o.Days > 0 {
		expiry := now.UTC().AddDate(0, 0, o.Days)
		expiresAt = &expiry
	}

	key, err := auth.CreateAPIKey(cmd.Context(), repo, auth.CreateKeyParams{
		KeyType:   o.KeyType,
		Service:   o.Service,
		Version:   o.Version,
		Name:      o.Name,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}

	printAPIKey(cmd.OutOrStdout(), o.Name, key, expiresAt)
	return nil
}

func printAPIKey(w io.Writer, name, key string, expiresAt *time.Time) {
	bold := color.New(color.Bold)
	warn := color.New(color.FgYellow)

	_, _ = fmt.Fprintln(w, bold.Sprint("API key created"))
	_, _ = fmt.Fprintf(w, "Name:    %s\n", name)
	if expiresAt != nil {
		_, _ = fmt.Fprintf(w, "Expires: %s\n", expiresAt.Format(time.RFC3339))
	} else {
		_, _ = fmt.Fprintln(w, "Expires: never")
	}
	_, _ = fmt.Fprintf(w, "\n%s\n\n", key)
	_, _ = fmt.Fprintln(w, warn.Sprint("Save this key now. It will not be shown again."))
	_, _ = fmt.Fprintf(w, "  curl -H \"Authorization: Bearer %s\" http://localhost:8080/api/v1/statuses\n", keygen.MaskAPIKey(key))
}
