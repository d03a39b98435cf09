package light

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaz8081/goveectl/internal/ble"
	"github.com/chaz8081/goveectl/internal/ble/protocol"
	"github.com/chaz8081/goveectl/internal/dispatch"
	"github.com/chaz8081/goveectl/internal/preset"
)

// fakeRadio is a dispatch.Executor that records packets and fails the
// opcodes listed in fail.
type fakeRadio struct {
	mu    sync.Mutex
	sent  []protocol.Packet
	addrs []string
	fail  map[byte]ble.ErrorKind
}

func (r *fakeRadio) Execute(_ context.Context, addr string, pkt protocol.Packet) ble.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, pkt)
	r.addrs = append(r.addrs, addr)
	if kind, ok := r.fail[pkt.Opcode()]; ok {
		return ble.Result{Kind: kind, Err: ble.ErrDeviceNotFound}
	}
	return ble.Succeeded()
}

func (r *fakeRadio) Sent() []protocol.Packet {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]protocol.Packet, len(r.sent))
	copy(out, r.sent)
	return out
}

type statusLog struct {
	mu   sync.Mutex
	msgs []string
	oks  []bool
}

func (s *statusLog) record(msg string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	s.oks = append(s.oks, ok)
}

func (s *statusLog) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.msgs...)
}

const testAddr = "A4:C1:38:D3:81:44"

func newTestController(t *testing.T, radio *fakeRadio, opts Options) (*Controller, *statusLog) {
	t.Helper()
	d := dispatch.New(radio, dispatch.DefaultOptions())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = d.Close(ctx)
	})

	status := &statusLog{}
	opts.Status = status.record
	if opts.Quiet == 0 {
		opts.Quiet = 30 * time.Millisecond
	}
	c := New(d, testAddr, opts)
	t.Cleanup(c.Close)
	return c, status
}

func receive(t *testing.T, ch <-chan ble.Result) ble.Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
		return ble.Result{}
	}
}

func TestTurnOnOff(t *testing.T) {
	radio := &fakeRadio{}
	c, status := newTestController(t, radio, Options{})

	assert.True(t, receive(t, c.TurnOn()).Success)
	assert.True(t, receive(t, c.TurnOff()).Success)
	c.Wait()

	assert.Equal(t, []protocol.Packet{protocol.Power(true), protocol.Power(false)}, radio.Sent())
	assert.Equal(t, []string{
		"Turning device ON...", "Device turned ON",
		"Turning device OFF...", "Device turned OFF",
	}, status.Messages())
	assert.Equal(t, []string{testAddr, testAddr}, radio.addrs)
}

func TestFailureStatusAndRescanHook(t *testing.T) {
	radio := &fakeRadio{fail: map[byte]ble.ErrorKind{protocol.OpPower: ble.KindDeviceNotFound}}
	missing := make(chan string, 1)
	c, status := newTestController(t, radio, Options{OnDeviceNotFound: func(addr string) { missing <- addr }})

	res := receive(t, c.TurnOn())
	assert.False(t, res.Success)
	assert.Equal(t, testAddr, <-missing)
	c.Wait()
	assert.Contains(t, status.Messages(), "Failed to turn ON: DeviceNotFound")
}

func TestSliderDragSendsOnce(t *testing.T) {
	radio := &fakeRadio{}
	c, _ := newTestController(t, radio, Options{})

	for level := 0; level <= 100; level += 10 {
		c.SetBrightness(level)
	}
	for i := 0; i < 5; i++ {
		c.SetColor(i*10, 0, 255-i)
	}

	require.Eventually(t, func() bool { return len(radio.Sent()) == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	c.Wait()

	sent := radio.Sent()
	require.Len(t, sent, 2)
	assert.ElementsMatch(t, []protocol.Packet{protocol.Brightness(100), protocol.Color(40, 0, 251)}, sent)
}

func TestFlushSendsPendingImmediately(t *testing.T) {
	radio := &fakeRadio{}
	c, _ := newTestController(t, radio, Options{Quiet: time.Hour})

	c.SetBrightness(42)
	c.Flush()
	c.Wait()

	assert.Equal(t, []protocol.Packet{protocol.Brightness(42)}, radio.Sent())
}

func TestSetColorNowCancelsPending(t *testing.T) {
	radio := &fakeRadio{}
	c, _ := newTestController(t, radio, Options{Quiet: 50 * time.Millisecond})

	c.SetColor(1, 1, 1)
	receive(t, c.SetColorNow(0, 255, 0))
	time.Sleep(150 * time.Millisecond)
	c.Wait()

	assert.Equal(t, []protocol.Packet{protocol.Color(0, 255, 0)}, radio.Sent())
}

func TestApplyScene(t *testing.T) {
	radio := &fakeRadio{}
	c, status := newTestController(t, radio, Options{})

	ch, err := c.ApplyScene("rainbow")
	require.NoError(t, err)
	assert.True(t, receive(t, ch).Success)
	c.Wait()
	assert.Equal(t, []protocol.Packet{protocol.SceneCommand(protocol.SceneRainbow)}, radio.Sent())
	assert.Contains(t, status.Messages(), "Scene applied: Rainbow")

	_, err = c.ApplyScene("Disco")
	assert.ErrorIs(t, err, ErrUnknownScene)
}

func TestApplyPresetOrder(t *testing.T) {
	radio := &fakeRadio{}
	c, status := newTestController(t, radio, Options{})

	p := preset.Preset{RGB: [3]int{10, 20, 30}, Brightness: 77, Scene: "Pulse (Blink)"}
	assert.True(t, receive(t, c.ApplyPreset(p)).Success)
	c.Wait()

	assert.Equal(t, []protocol.Packet{
		protocol.Color(10, 20, 30),
		protocol.Brightness(77),
		protocol.SceneCommand(protocol.ScenePulse),
	}, radio.Sent())
	msgs := status.Messages()
	assert.Equal(t, "Preset applied successfully", msgs[len(msgs)-1])
	assert.Equal(t, preset.Preset{RGB: [3]int{10, 20, 30}, Brightness: 77, Scene: "Pulse (Blink)"}, c.Snapshot())
}

func TestApplyPresetWithoutScene(t *testing.T) {
	radio := &fakeRadio{}
	c, _ := newTestController(t, radio, Options{})

	p := preset.Preset{RGB: [3]int{1, 2, 3}, Brightness: 4, Scene: "not-a-scene"}
	assert.True(t, receive(t, c.ApplyPreset(p)).Success)
	assert.Len(t, radio.Sent(), 2)
}

func TestApplyPresetStopsAtFirstFailure(t *testing.T) {
	radio := &fakeRadio{fail: map[byte]ble.ErrorKind{protocol.OpBrightness: ble.KindTransport}}
	c, status := newTestController(t, radio, Options{})

	p := preset.Preset{RGB: [3]int{1, 2, 3}, Brightness: 4, Scene: "Rainbow"}
	res := receive(t, c.ApplyPreset(p))
	assert.False(t, res.Success)
	c.Wait()

	assert.Equal(t, []protocol.Packet{protocol.Color(1, 2, 3), protocol.Brightness(4)}, radio.Sent())
	assert.Contains(t, status.Messages(), "Failed to apply preset brightness: TransportError")
}

func TestEmptyAddressUsesDefault(t *testing.T) {
	c := New(dispatch.New(&fakeRadio{}, dispatch.DefaultOptions()), "", Options{})
	defer c.Close()
	assert.Equal(t, ble.DefaultAddress, c.Address())
}

func TestSetAddress(t *testing.T) {
	radio := &fakeRadio{}
	c, _ := newTestController(t, radio, Options{})

	c.SetAddress("11:22:33:44:55:66")
	assert.Equal(t, "11:22:33:44:55:66", c.Address())
	receive(t, c.TurnOff())
	assert.Equal(t, []string{"11:22:33:44:55:66"}, radio.addrs)
}
