package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// MigrateResult reports the schema after migration.
type MigrateResult struct {
	Backend       string `json:"backend"`
	Table         string `json:"table"`
	SchemaVersion string `json:"schema_version"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the tag table",
		Long: `Connect to the configured data source and apply pending schema
migrations. Applying migrations is idempotent.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			s, err := openSession(cmd.Context(), rootOpts, f)
			if err != nil {
				return err
			}
			defer s.Close(f)

			v, err := s.provider.SchemaVersion(cmd.Context())
			if err != nil {
				return f.Fail(ExitFailure, ErrCodeOperation, "failed to read schema version", err)
			}

			res := MigrateResult{
				Backend:       string(s.provider.Backend().Type()),
				Table:         s.provider.Table(),
				SchemaVersion: "none",
			}
			if v != nil {
				res.SchemaVersion = v.String()
			}
			return f.Success(fmt.Sprintf("✓ %s table %s at schema version %s", res.Backend, res.Table, res.SchemaVersion), res)
		},
	}
}
