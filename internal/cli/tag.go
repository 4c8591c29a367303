package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/placebreak/internal/location"
	"github.com/roach88/placebreak/internal/tag"
)

// TagView is the JSON form of a stored tag.
type TagView struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Ephemeral bool   `json:"ephemeral"`
	World     string `json:"world"`
	X         int32  `json:"x"`
	Y         int32  `json:"y"`
	Z         int32  `json:"z"`
}

func newTagView(t tag.Tag) TagView {
	return TagView{
		ID:        t.ID.String(),
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339Nano),
		Ephemeral: t.Ephemeral,
		World:     t.Location.World,
		X:         t.Location.X,
		Y:         t.Location.Y,
		Z:         t.Location.Z,
	}
}

// TagResult is the output of tag put, get and rm.
type TagResult struct {
	Location string   `json:"location"`
	Found    bool     `json:"found"`
	Tag      *TagView `json:"tag,omitempty"`
}

// MoveResult is the output of tag move.
type MoveResult struct {
	Direction [3]int32 `json:"direction"`
	Blocks    int      `json:"blocks"`
}

// NewTagCommand creates the tag command group.
func NewTagCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Inspect and edit block tags",
		Long: `Inspect and edit block tags. Mutations go through the detection engine,
so blocks whose material is restricted are left alone.`,
	}
	cmd.AddCommand(newTagPutCommand(rootOpts))
	cmd.AddCommand(newTagGetCommand(rootOpts))
	cmd.AddCommand(newTagRemoveCommand(rootOpts))
	cmd.AddCommand(newTagMoveCommand(rootOpts))
	return cmd
}

func newTagPutCommand(rootOpts *RootOptions) *cobra.Command {
	var ephemeral bool

	cmd := &cobra.Command{
		Use:           "put <world> <x> <y> <z> <material>",
		Short:         "Tag a block as player-placed",
		Args:          cobra.ExactArgs(5),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			block, err := parseBlock(args)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeArgs, "invalid block", err)
			}

			s, err := openSession(cmd.Context(), rootOpts, f)
			if err != nil {
				return err
			}
			defer s.Close(f)

			if err := s.engine.PutTag(cmd.Context(), block, ephemeral); err != nil {
				return f.Fail(ExitFailure, ErrCodeOperation, "failed to put tag", err)
			}
			return outputTagAt(cmd, s, f, block.Location, "Tagged")
		},
	}

	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "expire the tag after the ephemeral TTL")
	return cmd
}

func newTagGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <world> <x> <y> <z>",
		Short:         "Show the tag at a location",
		Args:          cobra.ExactArgs(4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			loc, err := parseLocation(args)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeArgs, "invalid location", err)
			}

			s, err := openSession(cmd.Context(), rootOpts, f)
			if err != nil {
				return err
			}
			defer s.Close(f)

			return outputTagAt(cmd, s, f, loc, "Found")
		},
	}
}

func newTagRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rm <world> <x> <y> <z> <material>",
		Short:         "Remove the tag of a block",
		Args:          cobra.ExactArgs(5),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			block, err := parseBlock(args)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeArgs, "invalid block", err)
			}

			s, err := openSession(cmd.Context(), rootOpts, f)
			if err != nil {
				return err
			}
			defer s.Close(f)

			if err := s.engine.RemoveTag(cmd.Context(), block); err != nil {
				return f.Fail(ExitFailure, ErrCodeOperation, "failed to remove tag", err)
			}
			return outputTagAt(cmd, s, f, block.Location, "Still tagged")
		},
	}
}

func newTagMoveCommand(rootOpts *RootOptions) *cobra.Command {
	var direction string

	cmd := &cobra.Command{
		Use:   "move --direction dx,dy,dz <world,x,y,z,MATERIAL>...",
		Short: "Shift the tags of blocks, as a piston push does",
		Example: `  placebreak tag move --direction 0,1,0 world,12,45,-234,STONE
  placebreak tag move --direction 1,0,0 world,0,64,0,STONE world,1,64,0,DIRT`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			d, err := parseDirection(direction)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeArgs, "invalid direction", err)
			}
			blocks := make([]location.Block, len(args))
			for i, ref := range args {
				if blocks[i], err = parseBlockRef(ref); err != nil {
					return f.Fail(ExitCommandError, ErrCodeArgs, "invalid block", err)
				}
			}

			s, err := openSession(cmd.Context(), rootOpts, f)
			if err != nil {
				return err
			}
			defer s.Close(f)

			if err := s.engine.MoveTags(cmd.Context(), blocks, d); err != nil {
				return f.Fail(ExitFailure, ErrCodeOperation, "failed to move tags", err)
			}

			res := MoveResult{Direction: [3]int32{d.DX, d.DY, d.DZ}, Blocks: len(blocks)}
			return f.Success(fmt.Sprintf("✓ Moved tags of %d block(s) by (%d, %d, %d)", len(blocks), d.DX, d.DY, d.DZ), res)
		},
	}

	cmd.Flags().StringVarP(&direction, "direction", "d", "", "offset to move by, as dx,dy,dz")
	_ = cmd.MarkFlagRequired("direction")
	return cmd
}

// outputTagAt prints the tag now stored at loc.
func outputTagAt(cmd *cobra.Command, s *session, f *OutputFormatter, loc location.BlockLocation, verb string) error {
	t, ok, err := s.tags.FindByLocation(cmd.Context(), loc)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeOperation, "failed to read tag", err)
	}

	res := TagResult{Location: loc.String(), Found: ok}
	if !ok {
		return f.Success("No tag at "+loc.String(), res)
	}
	view := newTagView(t)
	res.Tag = &view
	return f.Success(fmt.Sprintf("%s %s: id=%s created_at=%s ephemeral=%t",
		verb, loc, view.ID, view.CreatedAt, view.Ephemeral), res)
}
