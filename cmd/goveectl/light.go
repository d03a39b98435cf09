package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chaz8081/goveectl/internal/ble/protocol"
	"github.com/chaz8081/goveectl/internal/light"
)

func newBrightnessCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "brightness <0-255>",
		Short: "Set the brightness",
		Long: `Sets the brightness. Values outside 0-255 are clamped.

Examples:
  goveectl brightness 255
  goveectl brightness 40`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid brightness %q: must be a number", args[0])
			}

			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := await(cmd.Context(), s.light.SetBrightnessNow(level))
			if err != nil {
				return err
			}
			return resultError(res)
		},
	}
}

func newColorCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "color <r> <g> <b> | <#rrggbb>",
		Short: "Set a static color",
		Long: `Sets a static RGB color, given as three numbers or a hex triplet.

Examples:
  goveectl color 255 120 0
  goveectl color '#ff7800'
  goveectl color ff7800`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 && len(args) != 3 {
				return fmt.Errorf("accepts 1 or 3 arg(s), received %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			rgb, err := parseColor(args)
			if err != nil {
				return err
			}

			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := await(cmd.Context(), s.light.SetColorNow(rgb[0], rgb[1], rgb[2]))
			if err != nil {
				return err
			}
			return resultError(res)
		},
	}
}

// parseColor accepts "r g b" as three arguments or one hex triplet with an
// optional leading '#'.
func parseColor(args []string) ([3]int, error) {
	var rgb [3]int
	switch len(args) {
	case 1:
		s := strings.TrimPrefix(strings.TrimSpace(args[0]), "#")
		if len(s) != 6 {
			return rgb, fmt.Errorf("invalid color %q: want #rrggbb", args[0])
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return rgb, fmt.Errorf("invalid color %q: %w", args[0], err)
		}
		return [3]int{int(b[0]), int(b[1]), int(b[2])}, nil
	case 3:
		for i, a := range args {
			v, err := strconv.Atoi(a)
			if err != nil {
				return rgb, fmt.Errorf("invalid color channel %q: must be a number", a)
			}
			rgb[i] = v
		}
		return rgb, nil
	default:
		return rgb, fmt.Errorf("color needs 1 or 3 values, got %d", len(args))
	}
}

func newSceneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scene <name>",
		Short: "Start a built-in scene",
		Long: `Starts one of the light's built-in scenes. Run 'goveectl scenes' for the list.

Examples:
  goveectl scene rainbow
  goveectl scene "Breathe (Fade)"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			if _, ok := protocol.LookupScene(name); !ok {
				return fmt.Errorf("unknown scene %q (available: %s)", name, sceneNames())
			}

			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			ch, err := s.light.ApplyScene(name)
			if errors.Is(err, light.ErrUnknownScene) {
				return fmt.Errorf("unknown scene %q (available: %s)", name, sceneNames())
			}
			if err != nil {
				return err
			}
			res, err := await(cmd.Context(), ch)
			if err != nil {
				return err
			}
			return resultError(res)
		},
	}
}

func sceneNames() string {
	var names []string
	for _, sc := range protocol.Scenes() {
		names = append(names, sc.Name)
	}
	return strings.Join(names, ", ")
}

func newScenesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenes",
		Short: "List built-in scenes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tLABEL\tID")
			for _, sc := range protocol.Scenes() {
				fmt.Fprintf(w, "%s\t%s\t0x%02X\n", sc.Name, sc.Label, sc.ID)
			}
			return w.Flush()
		},
	}
}
