package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/placebreak/internal/config"
)

// ConfigInitResult lists the files written by config init.
type ConfigInitResult struct {
	Dir     string   `json:"dir"`
	Written []string `json:"written"`
}

// ConfigValidateResult is the outcome of config validate.
type ConfigValidateResult struct {
	Valid  bool                      `json:"valid"`
	Errors []config.ValidationError `json:"errors,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dataSource.yml and restrictedBlocks.yml",
	}
	cmd.AddCommand(newConfigInitCommand(rootOpts))
	cmd.AddCommand(newConfigValidateCommand(rootOpts))
	return cmd
}

func newConfigInitCommand(rootOpts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write default config files",
		Long: `Write default dataSource.yml and restrictedBlocks.yml into the config
directory. Existing files are kept unless --force is given.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			logger := newLogger(f.GetErrWriter(), rootOpts.Verbose)

			written, err := config.WriteDefaults(rootOpts.ConfigDir, force, logger)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeConfig, "failed to write config files", err)
			}
			if written == nil {
				written = []string{}
			}

			text := fmt.Sprintf("No files written, %s already holds both config files", rootOpts.ConfigDir)
			if len(written) > 0 {
				text = "Wrote " + strings.Join(written, ", ")
			}
			return f.Success(text, ConfigInitResult{Dir: rootOpts.ConfigDir, Written: written})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

func newConfigValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the config files",
		Long: `Load the config files and check every setting. All violations are
reported together. Missing files are created with defaults first.

Exit codes:
  0 - Configuration is valid
  1 - One or more settings are invalid
  2 - Files could not be read or parsed`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			logger := newLogger(f.GetErrWriter(), rootOpts.Verbose)

			_, err := config.Load(rootOpts.ConfigDir, logger)
			if err == nil {
				return f.Success("✓ Configuration is valid", ConfigValidateResult{Valid: true})
			}

			var verrs config.ValidationErrors
			if !errors.As(err, &verrs) {
				return f.Fail(ExitCommandError, ErrCodeConfig, "failed to load configuration", err)
			}
			return outputValidationErrors(f, verrs)
		},
	}
}

func outputValidationErrors(f *OutputFormatter, verrs config.ValidationErrors) error {
	msg := fmt.Sprintf("%d invalid setting(s)", len(verrs))
	if f.Format == "json" {
		if err := f.encode(CLIResponse{
			Status: "error",
			Data:   ConfigValidateResult{Valid: false, Errors: verrs},
			Error:  &CLIError{Code: config.ErrCodeSchema, Message: msg},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	w := f.Writer
	fmt.Fprintf(w, "✗ %s\n", msg)
	for _, e := range verrs {
		fmt.Fprintf(w, "  [%s] %s: %s: %s\n", e.Code, e.File, e.Field, e.Message)
	}
	return NewExitError(ExitFailure, msg)
}
