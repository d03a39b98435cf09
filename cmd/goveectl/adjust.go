package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chaz8081/goveectl/internal/preset"
)

func newAdjustCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "adjust",
		Short: "Adjust the light interactively from stdin",
		Long: `Reads one instruction per line from stdin. Brightness and color changes
are debounced: a burst of changes only sends the last value once input has
been quiet for debounce.quiet_period.

Instructions:
  brightness <0-255>
  color <r> <g> <b> | color <#rrggbb>
  scene <name>
  on | off
  preset <name|file>
  save <name|file>
  quit

Example:
  seq 0 5 255 | sed 's/^/brightness /' | goveectl adjust`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			for {
				line, err := s.readLine(cmd.Context())
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}

				a, err := parseAdjustLine(line)
				if err != nil {
					s.out.Status(err.Error(), false)
					continue
				}
				if a.op == adjustQuit {
					return nil
				}
				if err := s.adjust(a); err != nil {
					s.out.Status(err.Error(), false)
				}
			}
		},
	}
}

type adjustOp int

const (
	adjustBrightness adjustOp = iota
	adjustColor
	adjustScene
	adjustOn
	adjustOff
	adjustPreset
	adjustSave
	adjustQuit
)

// adjustment is one parsed stdin instruction.
type adjustment struct {
	op    adjustOp
	level int
	rgb   [3]int
	name  string
}

func parseAdjustLine(line string) (adjustment, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return adjustment{}, fmt.Errorf("empty instruction")
	}
	verb, rest := strings.ToLower(fields[0]), fields[1:]

	switch verb {
	case "brightness":
		if len(rest) != 1 {
			return adjustment{}, fmt.Errorf("usage: brightness <0-255>")
		}
		level, err := strconv.Atoi(rest[0])
		if err != nil {
			return adjustment{}, fmt.Errorf("invalid brightness %q", rest[0])
		}
		return adjustment{op: adjustBrightness, level: level}, nil
	case "color":
		rgb, err := parseColor(rest)
		if err != nil {
			return adjustment{}, err
		}
		return adjustment{op: adjustColor, rgb: rgb}, nil
	case "scene":
		if len(rest) == 0 {
			return adjustment{}, fmt.Errorf("usage: scene <name>")
		}
		return adjustment{op: adjustScene, name: strings.Join(rest, " ")}, nil
	case "on":
		return adjustment{op: adjustOn}, nil
	case "off":
		return adjustment{op: adjustOff}, nil
	case "preset", "save":
		if len(rest) != 1 {
			return adjustment{}, fmt.Errorf("usage: %s <name|file>", verb)
		}
		op := adjustPreset
		if verb == "save" {
			op = adjustSave
		}
		return adjustment{op: op, name: rest[0]}, nil
	case "quit", "exit":
		return adjustment{op: adjustQuit}, nil
	default:
		return adjustment{}, fmt.Errorf("unknown instruction %q", verb)
	}
}

// adjust applies one instruction without waiting for the radio.
func (s *session) adjust(a adjustment) error {
	switch a.op {
	case adjustBrightness:
		s.light.SetBrightness(a.level)
	case adjustColor:
		s.light.SetColor(a.rgb[0], a.rgb[1], a.rgb[2])
	case adjustScene:
		if _, err := s.light.ApplyScene(a.name); err != nil {
			return fmt.Errorf("unknown scene %q (available: %s)", a.name, sceneNames())
		}
	case adjustOn:
		s.light.TurnOn()
	case adjustOff:
		s.light.TurnOff()
	case adjustPreset:
		p, err := preset.Load(preset.Resolve(s.cfg.PresetDir, a.name))
		if err != nil {
			return err
		}
		s.light.ApplyPreset(p)
	case adjustSave:
		path := preset.Resolve(s.cfg.PresetDir, a.name)
		if err := preset.Save(path, s.light.Snapshot()); err != nil {
			return err
		}
		s.out.Status("Preset saved to "+path, true)
	}
	return nil
}
