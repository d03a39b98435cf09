package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chaz8081/goveectl/internal/ble/protocol"
	"github.com/chaz8081/goveectl/internal/preset"
)

func newPresetCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Apply, save and list presets",
		Long: `Presets store a color, a brightness and an optional scene.

A bare name refers to <preset_dir>/<name>.json; anything with an extension
or a path separator is used as a file path. Files ending in .json are JSON,
anything else is YAML.`,
	}
	cmd.AddCommand(newPresetApplyCmd(opts), newPresetSaveCmd(opts), newPresetListCmd(opts))
	return cmd
}

func newPresetApplyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <name|file>",
		Short: "Send a preset's color, brightness and scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := preset.Load(preset.Resolve(s.cfg.PresetDir, args[0]))
			if err != nil {
				return err
			}
			if p.Scene != "" {
				if _, ok := protocol.LookupScene(p.Scene); !ok {
					s.out.Hintf("Unknown scene %q in preset, skipping it.", p.Scene)
				}
			}

			res, err := await(cmd.Context(), s.light.ApplyPreset(p))
			if err != nil {
				return err
			}
			return resultError(res)
		},
	}
}

func newPresetSaveCmd(opts *rootOptions) *cobra.Command {
	var (
		rgb        []int
		brightness int
		scene      string
	)

	cmd := &cobra.Command{
		Use:   "save <name|file>",
		Short: "Write a preset file",
		Long: `Writes a preset file. Unset fields take the defaults: white, full
brightness, no scene.

Examples:
  goveectl preset save evening --rgb 255,120,0 --brightness 90
  goveectl preset save party.yaml --scene rainbow`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			p := preset.Default()
			if cmd.Flags().Changed("rgb") {
				if len(rgb) != 3 {
					return fmt.Errorf("--rgb needs three values, got %d", len(rgb))
				}
				p.RGB = [3]int{rgb[0], rgb[1], rgb[2]}
			}
			if cmd.Flags().Changed("brightness") {
				p.Brightness = brightness
			}
			if scene != "" {
				sc, ok := protocol.LookupScene(scene)
				if !ok {
					return fmt.Errorf("unknown scene %q (available: %s)", scene, sceneNames())
				}
				p.Scene = sc.Label
			}

			path := preset.Resolve(cfg.PresetDir, args[0])
			if err := preset.Save(path, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Preset saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&rgb, "rgb", nil, "color as r,g,b")
	cmd.Flags().IntVar(&brightness, "brightness", 255, "brightness 0-255")
	cmd.Flags().StringVar(&scene, "scene", "", "scene name")
	return cmd
}

func newPresetListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List presets in preset_dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			entries, err := os.ReadDir(cfg.PresetDir)
			if os.IsNotExist(err) {
				fmt.Fprintf(cmd.OutOrStdout(), "No presets in %s\n", cfg.PresetDir)
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading preset directory: %w", err)
			}

			for _, e := range entries {
				ext := strings.ToLower(filepath.Ext(e.Name()))
				if e.IsDir() || (ext != ".json" && ext != ".yaml" && ext != ".yml") {
					continue
				}
				p, err := preset.Load(filepath.Join(cfg.PresetDir, e.Name()))
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t(unreadable: %v)\n", e.Name(), err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tRGB(%d,%d,%d) brightness %d %s\n",
					strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
					p.RGB[0], p.RGB[1], p.RGB[2], p.Brightness, p.Scene)
			}
			return nil
		},
	}
}
