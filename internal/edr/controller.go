package edr

import (
	"errors"
	"fmt"
	"time"

	"github.com/road-data/edr/internal/monitoring"
	"github.com/road-data/edr/internal/timeutil"
)

// State is the EDR controller's recording state.
type State int

const (
	// Disabled means the EDR is not activated for this run; pushes no-op.
	Disabled State = iota
	// Armed means a rolling pre-event window is recording, eviction enabled.
	Armed
	// PostBuffering means a trigger fired and buffers grow, eviction off.
	PostBuffering
	// Ready means the post-event horizon was reached; data is frozen,
	// awaiting a save-or-discard decision.
	Ready
	// Saving means the persister is draining buffers; the tick loop blocks.
	Saving
)

func (s State) String() string {
	switch s {
	case Disabled:
		return "DISABLED"
	case Armed:
		return "ARMED"
	case PostBuffering:
		return "POST_BUFFERING"
	case Ready:
		return "READY"
	case Saving:
		return "SAVING"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrInvalidCommand marks a command rejected for the current state.
	// Rejections are no-ops; they never disturb the tick loop.
	ErrInvalidCommand = errors.New("command not valid in current state")

	// ErrConfig marks a fatal session-configuration error.
	ErrConfig = errors.New("invalid recorder configuration")
)

// Config holds the recording parameters fixed at activation.
type Config struct {
	PreEventTime  float64 // seconds of history retained before a trigger
	PostEventTime float64 // seconds recorded after a trigger
	Autosave      bool    // save immediately when READY is entered

	// MinCloseApproachSpeed gates the close-approach trigger (m/s).
	MinCloseApproachSpeed float64
}

// DefaultConfig returns the standard recording parameters.
func DefaultConfig() Config {
	return Config{
		PreEventTime:          5.0,
		PostEventTime:         2.0,
		MinCloseApproachSpeed: 1.0,
	}
}

// ChannelSpec names one channel to record. The controller builds the
// channel buffers itself so every window matches the session configuration.
type ChannelSpec struct {
	Label string
	Kind  ChannelKind
	Rate  float64
}

// RecordingSession aggregates all channel buffers, the active trigger event
// (if any) and a session identifier derived from the session start time.
// The controller owns the session exclusively; the persister borrows it
// read-only for the duration of a save.
type RecordingSession struct {
	ID        string
	WallStart time.Time
	SimStart  float64 // timestamp of the first tick seen this session
	simSeen   bool

	Channels []*SensorChannel
	Event    *TriggerEvent
}

// Controller orchestrates buffering, trigger evaluation, the recording
// state machine and persistence. Single-threaded: Tick and all commands
// must be called from the one loop goroutine.
type Controller struct {
	state    State
	cfg      Config
	detector TriggerDetector

	persister *Persister
	session   *RecordingSession
	byLabel   map[string]*SensorChannel

	clock timeutil.Clock
}

// NewController creates a controller in the DISABLED state.
func NewController(p *Persister) *Controller {
	return &Controller{
		state:     Disabled,
		persister: p,
		clock:     timeutil.RealClock{},
	}
}

// Activate configures a fresh session and arms the recorder. Fatal
// configuration errors (non-positive horizon, unknown or duplicate
// channels) leave the controller DISABLED.
func (c *Controller) Activate(cfg Config, specs []ChannelSpec) error {
	if c.state != Disabled {
		return c.reject("activate")
	}
	if cfg.PreEventTime <= 0 {
		return fmt.Errorf("pre_event_time %.3f must be positive: %w", cfg.PreEventTime, ErrConfig)
	}
	if cfg.PostEventTime <= 0 {
		return fmt.Errorf("post_event_time %.3f must be positive: %w", cfg.PostEventTime, ErrConfig)
	}

	byLabel := make(map[string]*SensorChannel, len(specs))
	channels := make([]*SensorChannel, 0, len(specs))
	for _, spec := range specs {
		if !KnownKind(spec.Kind) {
			return fmt.Errorf("channel %s: unknown kind %q: %w", spec.Label, spec.Kind, ErrConfig)
		}
		if _, dup := byLabel[spec.Label]; dup {
			return fmt.Errorf("duplicate channel label %q: %w", spec.Label, ErrConfig)
		}
		ch := NewSensorChannel(spec.Label, spec.Kind, spec.Rate, cfg.PreEventTime, cfg.PostEventTime)
		byLabel[spec.Label] = ch
		channels = append(channels, ch)
	}

	c.cfg = cfg
	c.detector = TriggerDetector{MinCloseApproachSpeed: cfg.MinCloseApproachSpeed}
	c.byLabel = byLabel
	c.session = newSession(channels, c.clock.Now())
	c.state = Armed
	monitoring.Logf("EDR armed: pre=%.1fs post=%.1fs autosave=%v channels=%d",
		cfg.PreEventTime, cfg.PostEventTime, cfg.Autosave, len(channels))
	return nil
}

// Deactivate turns the EDR off and drops any buffered data.
func (c *Controller) Deactivate() {
	c.state = Disabled
	c.session = nil
	c.byLabel = nil
}

// Tick advances the recorder by one simulation tick: pushes the frame's
// readings into each channel, evaluates triggers, and drives the state
// machine. Malformed samples are logged and skipped; they never stop the
// tick. The returned error is non-nil only when an autosave attempt fails.
func (c *Controller) Tick(f *Frame) error {
	if c.state == Disabled {
		return nil
	}
	if !c.session.simSeen {
		c.session.SimStart = f.Timestamp
		c.session.simSeen = true
	}

	for _, r := range f.Readings {
		ch, ok := c.byLabel[r.Channel]
		if !ok {
			monitoring.Logf("EDR: dropping reading for unconfigured channel %q", r.Channel)
			continue
		}
		if err := ch.Push(f.Timestamp, r.Payload); err != nil {
			monitoring.Logf("EDR: rejected sample: %v", err)
		}
	}

	if c.state == Armed {
		if ev := c.detector.Evaluate(f); ev != nil {
			c.accept(ev)
		}
	}

	if c.state == PostBuffering && f.Timestamp-c.session.Event.Timestamp >= c.cfg.PostEventTime {
		c.state = Ready
		if c.cfg.Autosave {
			return c.Save()
		}
		monitoring.Logf("EDR data ready: save or reset to continue")
	}
	return nil
}

// accept records the session's trigger event and freezes eviction. Only one
// event per session: callers check state first, so a second signal never
// reaches here.
func (c *Controller) accept(ev *TriggerEvent) {
	c.session.Event = ev
	for _, ch := range c.session.Channels {
		ch.Freeze(ev.Timestamp)
	}
	c.state = PostBuffering
	monitoring.Logf("EDR triggered - %s", ev.Description())
}

// TriggerManual raises a manual trigger at the given simulation time.
// Ignored when a trigger is already active (first cause wins) and rejected
// when not recording.
func (c *Controller) TriggerManual(timestamp float64) error {
	if c.state != Armed {
		return c.reject("manual trigger")
	}
	c.accept(&TriggerEvent{Cause: CauseManual, Timestamp: timestamp})
	return nil
}

// Save persists the frozen session and re-arms on success. On failure the
// session stays READY so the operator can retry or discard; files already
// written by the failed attempt are left on disk.
func (c *Controller) Save() error {
	if c.state != Ready {
		return c.reject("save")
	}

	c.state = Saving
	if err := c.persister.Save(c.session); err != nil {
		c.state = Ready
		monitoring.Logf("EDR save failed (data retained, retry or reset): %v", err)
		return fmt.Errorf("edr save: %w", err)
	}

	monitoring.Logf("EDR data saved: session %s", c.session.ID)
	c.rearm()
	return nil
}

// Reset discards the current window without writing to disk and re-arms.
// Accepted in every state except DISABLED and SAVING.
func (c *Controller) Reset() error {
	switch c.state {
	case Armed, PostBuffering, Ready:
		monitoring.Logf("EDR reset: discarding buffered data")
		c.rearm()
		return nil
	}
	return c.reject("reset")
}

// rearm clears the trigger event and all buffers and resumes the rolling
// pre-event window under a fresh session identity.
func (c *Controller) rearm() {
	for _, ch := range c.session.Channels {
		ch.Clear()
	}
	c.session = newSession(c.session.Channels, c.clock.Now())
	c.state = Armed
}

// DataReady reports whether a frozen window awaits a save-or-discard
// decision.
func (c *Controller) DataReady() bool { return c.state == Ready }

// State returns the current recording state.
func (c *Controller) State() State { return c.state }

// Session exposes the current session for inspection; nil while DISABLED.
func (c *Controller) Session() *RecordingSession { return c.session }

func (c *Controller) reject(op string) error {
	err := fmt.Errorf("%s while %s: %w", op, c.state, ErrInvalidCommand)
	monitoring.Logf("EDR: %v", err)
	return err
}

func newSession(channels []*SensorChannel, start time.Time) *RecordingSession {
	return &RecordingSession{
		ID:        start.Format("2006-01-02-15-04-05"),
		WallStart: start,
		Channels:  channels,
	}
}
