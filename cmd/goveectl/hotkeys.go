package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/chaz8081/goveectl/internal/ble/protocol"
	"github.com/chaz8081/goveectl/internal/config"
	"github.com/chaz8081/goveectl/internal/hotkey"
)

func newHotkeysCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hotkeys",
		Short: "Control the light with global hotkeys",
		Long: `Listens for global key combos and drives the light until Ctrl+C.

Holding a brightness combo repeats it; the changes are debounced like a
slider drag. Combos and the brightness step come from the hotkeys section
of the config file. Defaults:

  ctrl+shift+l     toggle power
  ctrl+shift+up    brighter
  ctrl+shift+down  dimmer
  ctrl+shift+s     next scene`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			bindings := hotkeyBindings(s.cfg.Hotkeys)
			if err := hotkey.Validate(bindings); err != nil {
				return err
			}

			listener := hotkey.NewListener(bindings)
			go func() {
				<-cmd.Context().Done()
				listener.Stop()
			}()
			go listener.Start()

			for _, b := range bindings {
				s.out.Printf("  %s\n", b)
			}
			s.out.Printf("Ready! Ctrl+C to quit.\n")

			r := newRemote(s, s.cfg.Hotkeys.BrightnessStep)
			for action := range listener.Actions() {
				r.handle(action)
			}
			return nil
		},
	}
}

func hotkeyBindings(cfg config.HotkeyConfig) []hotkey.Binding {
	return []hotkey.Binding{
		{Keys: cfg.Toggle, Action: hotkey.ActionToggle},
		{Keys: cfg.BrightnessUp, Action: hotkey.ActionBrightnessUp},
		{Keys: cfg.BrightnessDown, Action: hotkey.ActionBrightnessDown},
		{Keys: cfg.NextScene, Action: hotkey.ActionNextScene},
	}
}

// remote turns hotkey actions into light commands. The light cannot be
// read back, so power state and brightness are tracked locally, starting
// from off and the controller's last requested brightness.
type remote struct {
	s     *session
	step  int
	on    bool
	level int
	scene int // index into protocol.Scenes; -1 before the first press
}

func newRemote(s *session, step int) *remote {
	return &remote{s: s, step: step, level: s.light.Snapshot().Brightness, scene: -1}
}

func (r *remote) handle(a hotkey.Action) {
	switch a {
	case hotkey.ActionToggle:
		r.on = !r.on
		if r.on {
			r.s.light.TurnOn()
		} else {
			r.s.light.TurnOff()
		}
	case hotkey.ActionBrightnessUp:
		r.level = min(255, r.level+r.step)
		r.s.light.SetBrightness(r.level)
	case hotkey.ActionBrightnessDown:
		r.level = max(0, r.level-r.step)
		r.s.light.SetBrightness(r.level)
	case hotkey.ActionNextScene:
		scenes := protocol.Scenes()
		r.scene = (r.scene + 1) % len(scenes)
		// The name comes from the table, so it always resolves.
		_, _ = r.s.light.ApplyScene(scenes[r.scene].Name)
	default:
		r.s.out.Status("Unknown hotkey action: "+strings.TrimSpace(string(a)), false)
	}
}
