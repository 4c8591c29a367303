package cli

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/placebreak/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose      bool
	Format       string // "json" | "text"
	ConfigDir    string
	EphemeralTTL time.Duration
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// DefaultConfigDir is used when --config-dir is not given.
const DefaultConfigDir = "plugins/PlaceBreakPatch"

// NewRootCommand creates the root command for the placebreak CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "placebreak",
		Short: "Place-and-break exploit patch",
		Long: `Operate the block tag store behind the place-and-break exploit patch.

Blocks placed by players are tagged so that breaking them again does not pay
out job rewards. This tool manages the configuration, migrates the tag table,
inspects and edits tags, and replays block event scenarios.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.EphemeralTTL <= 0 {
				return fmt.Errorf("invalid ephemeral TTL %s: must be positive", opts.EphemeralTTL)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigDir, "config-dir", "c", DefaultConfigDir, "directory holding dataSource.yml and restrictedBlocks.yml")
	cmd.PersistentFlags().DurationVar(&opts.EphemeralTTL, "ephemeral-ttl", config.DefaultEphemeralTTL, "how long ephemeral tags count as player-placed")

	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewTagCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
