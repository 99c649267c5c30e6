package edr

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/road-data/edr/internal/fsutil"
	"github.com/road-data/edr/internal/monitoring"
	"github.com/road-data/edr/internal/timeutil"
)

func init() {
	monitoring.SetLogger(nil)
}

func testSpecs() []ChannelSpec {
	return []ChannelSpec{
		{Label: "front", Kind: KindCamera, Rate: 10.0},
		{Label: "vehicle-state", Kind: KindVehicleState, Rate: 100.0},
	}
}

// newTestController returns an armed controller writing into mem under
// "out", with a fixed clock so session IDs are predictable.
func newTestController(t *testing.T, mem *fsutil.MemoryFileSystem, cfg Config) *Controller {
	t.Helper()
	c := NewController(NewPersister(mem, "out"))
	c.clock = timeutil.NewMockClock(time.Date(2026, 8, 23, 14, 30, 0, 0, time.UTC))
	require.NoError(t, c.Activate(cfg, testSpecs()))
	return c
}

func cameraReading(b byte) Reading {
	return Reading{Channel: "front", Payload: &ImagePayload{PNG: []byte{b}}}
}

func stateReading(speed float64) Reading {
	return Reading{Channel: "vehicle-state", Payload: statePayload(speed)}
}

func quietFrame(ts float64, readings ...Reading) *Frame {
	return &Frame{Timestamp: ts, Ego: EgoState{Speed: 5, HalfLength: 2.4, HalfWidth: 1.1}, Readings: readings}
}

func collisionFrame(ts float64) *Frame {
	f := quietFrame(ts)
	f.Collisions = []Collision{{OtherKind: "vehicle"}}
	return f
}

func closeApproachFrame(ts float64) *Frame {
	f := quietFrame(ts)
	f.Actors = []ActorState{{ID: 1, Kind: ActorPedestrian, X: 3.0, HalfLength: 0.4, HalfWidth: 0.4}}
	return f
}

func TestActivateValidation(t *testing.T) {
	t.Parallel()

	t.Run("non-positive pre-event time", func(t *testing.T) {
		t.Parallel()
		c := NewController(NewPersister(fsutil.NewMemoryFileSystem(), "out"))
		cfg := DefaultConfig()
		cfg.PreEventTime = 0
		err := c.Activate(cfg, testSpecs())
		assert.ErrorIs(t, err, ErrConfig)
		assert.Equal(t, Disabled, c.State())
	})

	t.Run("non-positive post-event time", func(t *testing.T) {
		t.Parallel()
		c := NewController(NewPersister(fsutil.NewMemoryFileSystem(), "out"))
		cfg := DefaultConfig()
		cfg.PostEventTime = -1
		assert.ErrorIs(t, c.Activate(cfg, testSpecs()), ErrConfig)
	})

	t.Run("unknown channel kind", func(t *testing.T) {
		t.Parallel()
		c := NewController(NewPersister(fsutil.NewMemoryFileSystem(), "out"))
		err := c.Activate(DefaultConfig(), []ChannelSpec{{Label: "x", Kind: "radar", Rate: 1}})
		assert.ErrorIs(t, err, ErrConfig)
	})

	t.Run("duplicate channel label", func(t *testing.T) {
		t.Parallel()
		c := NewController(NewPersister(fsutil.NewMemoryFileSystem(), "out"))
		specs := []ChannelSpec{
			{Label: "front", Kind: KindCamera, Rate: 10},
			{Label: "front", Kind: KindLidar3D, Rate: 10},
		}
		assert.ErrorIs(t, c.Activate(DefaultConfig(), specs), ErrConfig)
	})

	t.Run("double activation rejected", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, fsutil.NewMemoryFileSystem(), DefaultConfig())
		assert.ErrorIs(t, c.Activate(DefaultConfig(), testSpecs()), ErrInvalidCommand)
	})
}

func TestDisabledPushesAreNoOps(t *testing.T) {
	t.Parallel()
	c := NewController(NewPersister(fsutil.NewMemoryFileSystem(), "out"))

	require.NoError(t, c.Tick(collisionFrame(1.0)))
	assert.Equal(t, Disabled, c.State())
	assert.Nil(t, c.Session())
	assert.False(t, c.DataReady())
}

func TestFirstCauseWins(t *testing.T) {
	t.Parallel()
	c := newTestController(t, fsutil.NewMemoryFileSystem(), DefaultConfig())

	require.NoError(t, c.Tick(collisionFrame(10.0)))
	require.Equal(t, PostBuffering, c.State())

	// A close-approach signal 200ms later must not replace the collision.
	require.NoError(t, c.Tick(closeApproachFrame(10.2)))
	ev := c.Session().Event
	require.NotNil(t, ev)
	assert.Equal(t, CauseCollision, ev.Cause)
	assert.Equal(t, 10.0, ev.Timestamp)
}

func TestPostBufferingToReadyBoundary(t *testing.T) {
	t.Parallel()
	c := newTestController(t, fsutil.NewMemoryFileSystem(), DefaultConfig())

	require.NoError(t, c.Tick(collisionFrame(100.0)))
	require.Equal(t, PostBuffering, c.State())

	// post_event_time is 2.0: still buffering strictly before 102.0.
	require.NoError(t, c.Tick(quietFrame(101.5)))
	assert.Equal(t, PostBuffering, c.State())
	assert.False(t, c.DataReady())

	// READY at the first tick with timestamp >= 102.0.
	require.NoError(t, c.Tick(quietFrame(102.0)))
	assert.Equal(t, Ready, c.State())
	assert.True(t, c.DataReady())
}

func TestManualTrigger(t *testing.T) {
	t.Parallel()
	c := newTestController(t, fsutil.NewMemoryFileSystem(), DefaultConfig())

	require.NoError(t, c.TriggerManual(50.0))
	assert.Equal(t, PostBuffering, c.State())
	assert.Equal(t, CauseManual, c.Session().Event.Cause)

	// Already triggered: a second manual trigger is an invalid command.
	assert.ErrorIs(t, c.TriggerManual(50.5), ErrInvalidCommand)

	// A collision signal after the manual trigger is ignored too.
	require.NoError(t, c.Tick(collisionFrame(51.0)))
	assert.Equal(t, CauseManual, c.Session().Event.Cause)
}

func TestResetDiscardsAndRearms(t *testing.T) {
	t.Parallel()
	c := newTestController(t, fsutil.NewMemoryFileSystem(), DefaultConfig())

	require.NoError(t, c.Tick(quietFrame(99.0, cameraReading(1), stateReading(30))))
	require.NoError(t, c.Tick(collisionFrame(100.0)))
	require.NoError(t, c.Tick(quietFrame(102.0)))
	require.Equal(t, Ready, c.State())

	require.NoError(t, c.Reset())
	assert.Equal(t, Armed, c.State())
	assert.Nil(t, c.Session().Event)
	for _, ch := range c.Session().Channels {
		assert.Zero(t, ch.Buffer().Len())
		assert.False(t, ch.Buffer().Frozen())
	}

	// A push after reset respects only the new window.
	require.NoError(t, c.Tick(quietFrame(200.0, cameraReading(2))))
	front := c.Session().Channels[0]
	assert.Equal(t, 1, front.Buffer().Len())
}

func TestInvalidCommands(t *testing.T) {
	t.Parallel()

	t.Run("save while disabled", func(t *testing.T) {
		t.Parallel()
		c := NewController(NewPersister(fsutil.NewMemoryFileSystem(), "out"))
		assert.ErrorIs(t, c.Save(), ErrInvalidCommand)
	})

	t.Run("save while armed", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, fsutil.NewMemoryFileSystem(), DefaultConfig())
		assert.ErrorIs(t, c.Save(), ErrInvalidCommand)
	})

	t.Run("reset while disabled", func(t *testing.T) {
		t.Parallel()
		c := NewController(NewPersister(fsutil.NewMemoryFileSystem(), "out"))
		assert.ErrorIs(t, c.Reset(), ErrInvalidCommand)
	})

	t.Run("manual trigger while ready", func(t *testing.T) {
		t.Parallel()
		c := newTestController(t, fsutil.NewMemoryFileSystem(), DefaultConfig())
		require.NoError(t, c.Tick(collisionFrame(10.0)))
		require.NoError(t, c.Tick(quietFrame(12.0)))
		require.Equal(t, Ready, c.State())
		assert.ErrorIs(t, c.TriggerManual(12.5), ErrInvalidCommand)
	})
}

func TestSaveWritesSessionAndRearms(t *testing.T) {
	t.Parallel()
	mem := fsutil.NewMemoryFileSystem()
	c := newTestController(t, mem, DefaultConfig())

	require.NoError(t, c.Tick(quietFrame(99.0, cameraReading(1), stateReading(30))))
	require.NoError(t, c.Tick(quietFrame(100.0, cameraReading(2), stateReading(31))))
	require.NoError(t, c.TriggerManual(100.0))
	require.NoError(t, c.Tick(quietFrame(101.0, cameraReading(3), stateReading(28))))
	require.NoError(t, c.Tick(quietFrame(102.0)))
	require.Equal(t, Ready, c.State())

	sid := c.Session().ID
	require.NoError(t, c.Save())
	assert.Equal(t, Armed, c.State())
	assert.Nil(t, c.Session().Event)
	for _, ch := range c.Session().Channels {
		assert.Zero(t, ch.Buffer().Len())
	}

	// Exactly three camera files with trigger-relative offsets, one CSV,
	// one reason file; nothing for unconfigured channels.
	base := filepath.Join("out", sid)
	assert.Equal(t, []string{
		filepath.Join(base, "images", "front-camera", "front-camera_100.000000_+0.000000.png"),
		filepath.Join(base, "images", "front-camera", "front-camera_101.000000_+1.000000.png"),
		filepath.Join(base, "images", "front-camera", "front-camera_99.000000_-1.000000.png"),
		filepath.Join(base, "reason.txt"),
		filepath.Join(base, "vehicle-state", "vehicle_state.csv"),
	}, mem.Paths())
}

func TestSaveFailureLeavesReadyAndRetrySucceeds(t *testing.T) {
	t.Parallel()
	mem := fsutil.NewMemoryFileSystem()
	c := newTestController(t, mem, DefaultConfig())

	require.NoError(t, c.Tick(quietFrame(99.0, cameraReading(1), stateReading(30))))
	require.NoError(t, c.Tick(collisionFrame(100.0)))
	require.NoError(t, c.Tick(quietFrame(102.0)))
	require.Equal(t, Ready, c.State())

	boom := errors.New("disk full")
	mem.FailWrites("images", boom)

	err := c.Save()
	require.ErrorIs(t, err, boom)

	// The session is not cleared on failure: still READY, data intact.
	assert.Equal(t, Ready, c.State())
	require.NotNil(t, c.Session().Event)
	assert.Equal(t, 1, c.Session().Channels[0].Buffer().Len())

	// Fix the disk and retry: the save completes and the recorder re-arms.
	mem.FailWrites("images", nil)
	require.NoError(t, c.Save())
	assert.Equal(t, Armed, c.State())
}

func TestAutosave(t *testing.T) {
	t.Parallel()
	mem := fsutil.NewMemoryFileSystem()
	cfg := DefaultConfig()
	cfg.Autosave = true
	c := newTestController(t, mem, cfg)

	require.NoError(t, c.Tick(quietFrame(99.0, cameraReading(1))))
	require.NoError(t, c.Tick(collisionFrame(100.0)))

	// READY is entered and the save fires on the same tick.
	require.NoError(t, c.Tick(quietFrame(102.0)))
	assert.Equal(t, Armed, c.State())
	assert.NotEmpty(t, mem.Paths())

	// A manual save racing the autosave finds nothing to save.
	assert.ErrorIs(t, c.Save(), ErrInvalidCommand)
}

func TestUnknownChannelReadingIsDropped(t *testing.T) {
	t.Parallel()
	c := newTestController(t, fsutil.NewMemoryFileSystem(), DefaultConfig())

	f := quietFrame(1.0, Reading{Channel: "rear", Payload: &ImagePayload{PNG: []byte{1}}})
	require.NoError(t, c.Tick(f))
	for _, ch := range c.Session().Channels {
		assert.Zero(t, ch.Buffer().Len())
	}
}

func TestMalformedReadingDoesNotStopTick(t *testing.T) {
	t.Parallel()
	c := newTestController(t, fsutil.NewMemoryFileSystem(), DefaultConfig())

	f := quietFrame(1.0,
		Reading{Channel: "front", Payload: &ImagePayload{}}, // empty: rejected
		stateReading(22),                                    // still ingested
	)
	require.NoError(t, c.Tick(f))
	assert.Zero(t, c.Session().Channels[0].Buffer().Len())
	assert.Equal(t, 1, c.Session().Channels[1].Buffer().Len())
}
