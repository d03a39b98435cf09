// Package light turns user intents (power, brightness, color, scene,
// preset) into queued packets for one Govee light and reports progress as
// human-readable status messages.
package light

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chaz8081/goveectl/internal/ble"
	"github.com/chaz8081/goveectl/internal/ble/protocol"
	"github.com/chaz8081/goveectl/internal/debounce"
	"github.com/chaz8081/goveectl/internal/dispatch"
	"github.com/chaz8081/goveectl/internal/preset"
)

// ErrUnknownScene is returned by ApplyScene for names not in the scene table.
var ErrUnknownScene = errors.New("light: unknown scene")

// Sender queues a packet for addr and calls done with its result.
// *dispatch.Dispatcher satisfies it.
type Sender interface {
	Send(addr string, pkt protocol.Packet, done func(ble.Result)) *dispatch.Handle
}

// Control identifies a debounced input.
type Control string

const (
	ControlBrightness Control = "brightness"
	ControlColor      Control = "color" // R, G and B share one timer
)

// StatusFunc receives progress messages. ok is false for failures.
type StatusFunc func(msg string, ok bool)

// Options configures a Controller.
type Options struct {
	Quiet  time.Duration // debounce quiet period
	Status StatusFunc
	// OnDeviceNotFound is called when a transaction fails because the light
	// could not be reached, so the caller can offer a rescan.
	OnDeviceNotFound func(addr string)
}

// Controller drives one light. Its methods never block on the radio.
type Controller struct {
	sender Sender
	opts   Options

	debouncer *debounce.Debouncer[Control, value]
	inflight  *tracker

	mu         sync.Mutex
	addr       string
	rgb        [3]int
	brightness int
	scene      string
}

// value carries a debounced control's latest setting.
type value struct {
	level int
	rgb   [3]int
}

// New creates a Controller targeting addr, or ble.DefaultAddress if addr
// is empty.
func New(sender Sender, addr string, opts Options) *Controller {
	if addr == "" {
		addr = ble.DefaultAddress
	}
	if opts.Status == nil {
		opts.Status = func(string, bool) {}
	}
	c := &Controller{
		sender:     sender,
		opts:       opts,
		addr:       addr,
		rgb:        [3]int{255, 0, 0},
		brightness: 255,
		inflight:   newTracker(),
	}
	c.debouncer = debounce.New(opts.Quiet, c.fire)
	return c
}

// SetAddress changes the target light, for example after a scan.
func (c *Controller) SetAddress(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addr = addr
}

// Address returns the current target.
func (c *Controller) Address() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addr
}

// TurnOn switches the light on.
func (c *Controller) TurnOn() <-chan ble.Result {
	return c.send(protocol.Power(true), "Turning device ON...", "Device turned ON", "Failed to turn ON")
}

// TurnOff switches the light off.
func (c *Controller) TurnOff() <-chan ble.Result {
	return c.send(protocol.Power(false), "Turning device OFF...", "Device turned OFF", "Failed to turn OFF")
}

// SetBrightness records a brightness change and sends it once the
// brightness control has been quiet for the debounce period.
func (c *Controller) SetBrightness(level int) {
	c.mu.Lock()
	c.brightness = level
	c.mu.Unlock()
	c.debouncer.Trigger(ControlBrightness, value{level: level})
}

// SetColor records a color change and sends it once the color control has
// been quiet for the debounce period.
func (c *Controller) SetColor(r, g, b int) {
	rgb := [3]int{r, g, b}
	c.mu.Lock()
	c.rgb = rgb
	c.mu.Unlock()
	c.debouncer.Trigger(ControlColor, value{rgb: rgb})
}

// SetBrightnessNow sends a brightness change immediately, replacing any
// pending debounced one.
func (c *Controller) SetBrightnessNow(level int) <-chan ble.Result {
	c.debouncer.Cancel(ControlBrightness)
	c.mu.Lock()
	c.brightness = level
	c.mu.Unlock()
	return c.sendBrightness(level)
}

// SetColorNow sends a color immediately, replacing any pending debounced
// color. Used for one-shot picks rather than slider drags.
func (c *Controller) SetColorNow(r, g, b int) <-chan ble.Result {
	c.debouncer.Cancel(ControlColor)
	rgb := [3]int{r, g, b}
	c.mu.Lock()
	c.rgb = rgb
	c.mu.Unlock()
	return c.sendColor(rgb)
}

// ApplyScene starts the named built-in scene.
func (c *Controller) ApplyScene(name string) (<-chan ble.Result, error) {
	scene, ok := protocol.LookupScene(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	c.mu.Lock()
	c.scene = scene.Label
	c.mu.Unlock()
	return c.send(scene.Packet(),
		fmt.Sprintf("Applying scene: %s...", scene.Label),
		fmt.Sprintf("Scene applied: %s", scene.Label),
		fmt.Sprintf("Failed to apply scene: %s", scene.Label)), nil
}

// ApplyPreset sends the preset's color, then brightness, then scene. Each
// step is only queued after the previous one succeeded. A scene name not
// in the table is skipped.
func (c *Controller) ApplyPreset(p preset.Preset) <-chan ble.Result {
	c.debouncer.Cancel(ControlColor)
	c.debouncer.Cancel(ControlBrightness)

	c.mu.Lock()
	c.rgb = p.RGB
	c.brightness = p.Brightness
	addr := c.addr
	c.mu.Unlock()

	out := make(chan ble.Result, 1)
	c.inflight.add()
	finish := func(res ble.Result, msg string) {
		c.opts.Status(msg, res.Success)
		out <- res
		c.inflight.done()
	}

	c.opts.Status("Loading preset...", true)
	c.sender.Send(addr, protocol.Color(p.RGB[0], p.RGB[1], p.RGB[2]), func(res ble.Result) {
		if !res.Success {
			c.reportFailure(addr, res)
			finish(res, failureMessage("Failed to apply preset color", res))
			return
		}
		c.sender.Send(addr, protocol.Brightness(p.Brightness), func(res ble.Result) {
			if !res.Success {
				c.reportFailure(addr, res)
				finish(res, failureMessage("Failed to apply preset brightness", res))
				return
			}
			scene, ok := protocol.LookupScene(p.Scene)
			if p.Scene == "" || !ok {
				finish(res, "Preset applied successfully")
				return
			}
			c.mu.Lock()
			c.scene = scene.Label
			c.mu.Unlock()
			c.sender.Send(addr, scene.Packet(), func(res ble.Result) {
				if !res.Success {
					c.reportFailure(addr, res)
					finish(res, failureMessage("Failed to apply preset scene", res))
					return
				}
				finish(res, "Preset applied successfully")
			})
		})
	})
	return out
}

// Snapshot returns the last requested settings as a preset.
func (c *Controller) Snapshot() preset.Preset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return preset.Preset{RGB: c.rgb, Brightness: c.brightness, Scene: c.scene}
}

// Flush sends pending debounced changes now.
func (c *Controller) Flush() {
	c.debouncer.Flush()
}

// Wait blocks until every operation started so far has reported its final
// status, including preset chains.
func (c *Controller) Wait() {
	c.inflight.wait()
}

// Close drops pending debounced changes.
func (c *Controller) Close() {
	c.debouncer.Stop()
}

func (c *Controller) fire(ctrl Control, v value) {
	switch ctrl {
	case ControlBrightness:
		c.sendBrightness(v.level)
	case ControlColor:
		c.sendColor(v.rgb)
	}
}

func (c *Controller) sendBrightness(level int) <-chan ble.Result {
	return c.send(protocol.Brightness(level),
		fmt.Sprintf("Setting brightness to %d...", level),
		fmt.Sprintf("Brightness set to %d", level),
		"Failed to set brightness")
}

func (c *Controller) sendColor(rgb [3]int) <-chan ble.Result {
	desc := fmt.Sprintf("RGB(%d,%d,%d)", rgb[0], rgb[1], rgb[2])
	return c.send(protocol.Color(rgb[0], rgb[1], rgb[2]),
		"Setting color to "+desc+"...",
		"Color set to "+desc,
		"Failed to set color")
}

// send queues one packet and reports start and outcome through Status.
func (c *Controller) send(pkt protocol.Packet, starting, succeeded, failed string) <-chan ble.Result {
	addr := c.Address()
	out := make(chan ble.Result, 1)

	c.inflight.add()
	c.opts.Status(starting, true)
	c.sender.Send(addr, pkt, func(res ble.Result) {
		defer c.inflight.done()
		if res.Success {
			c.opts.Status(succeeded, true)
		} else {
			c.reportFailure(addr, res)
			c.opts.Status(failureMessage(failed, res), false)
		}
		out <- res
	})
	return out
}

func (c *Controller) reportFailure(addr string, res ble.Result) {
	slog.Debug("[LIGHT] command failed", "addr", addr, "kind", res.Kind, "error", res.Err)
	if res.Kind == ble.KindDeviceNotFound && c.opts.OnDeviceNotFound != nil {
		c.opts.OnDeviceNotFound(addr)
	}
}

func failureMessage(prefix string, res ble.Result) string {
	return fmt.Sprintf("%s: %s", prefix, res.Kind)
}
