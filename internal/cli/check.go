package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/placebreak/internal/engine"
)

// CheckResult is the exploit verdict for one block action.
type CheckResult struct {
	Action  string `json:"action"`
	Block   string `json:"block"`
	Exploit bool   `json:"exploit"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <action> <world> <x> <y> <z> <material>",
		Short: "Decide whether a block action is a place-and-break exploit",
		Long: `Decide whether rewarding <action> on a block would pay out for a block a
player placed. Supported actions are BREAK, TNTBREAK and PLACE; any other
action is never an exploit.`,
		Example:       `  placebreak check BREAK world 12 46 -234 STONE`,
		Args:          cobra.ExactArgs(6),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			action := engine.ParseActionKind(args[0])
			block, err := parseBlock(args[1:])
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeArgs, "invalid block", err)
			}
			if !action.Supported() {
				f.VerboseLog("Action %q is not judged", args[0])
			}

			s, err := openSession(cmd.Context(), rootOpts, f)
			if err != nil {
				return err
			}
			defer s.Close(f)

			exploit, err := s.engine.IsPlaceAndBreakExploit(cmd.Context(), action, &block)
			if err != nil {
				return f.Fail(ExitFailure, ErrCodeOperation, "failed to check block", err)
			}

			verdict := "clean"
			if exploit {
				verdict = "exploit"
			}
			res := CheckResult{Action: action.String(), Block: block.String(), Exploit: exploit}
			return f.Success(fmt.Sprintf("%s %s: %s", res.Action, res.Block, verdict), res)
		},
	}
}
