package beacon

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"uwb-nav-bridge/internal/models"
)

// State identifies the driver's protocol phase.
type State int32

const (
	StateAwaitingGrid State = iota
	StateRanging
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateAwaitingGrid:
		return "awaiting_grid"
	case StateRanging:
		return "ranging"
	case StateStopping:
		return "stopping"
	}
	return "unknown"
}

// statsLogInterval paces the periodic counter dump in the driver log.
const statsLogInterval = 30 * time.Second

// Publisher receives decoded reports. Calls are fire-and-forget; the driver
// never blocks on or reacts to sink outcomes.
type Publisher interface {
	PublishGrid(report *models.GridReport)
	PublishDistance(report *models.DistanceReport)
}

// Stats are the driver's observability counters. FramesRejected counts
// structural rejections (wrong size or stop byte); NoDataTimeouts counts
// windows in which the beacon sent nothing at all.
type Stats struct {
	FramesAccepted uint64 `json:"frames_accepted"`
	FramesRejected uint64 `json:"frames_rejected"`
	NoDataTimeouts uint64 `json:"no_data_timeouts"`
}

// Options configures a Driver.
type Options struct {
	// GridUUID is carried in every outbound command frame. The beacon only
	// consults it for the grid survey request.
	GridUUID uuid.UUID

	// GridSurveyOpcode is the firmware-specific survey request opcode.
	// Nil selects OpcodeGridSurvey; an explicit zero is sent as-is.
	GridSurveyOpcode *uint8

	// PublishNavPosition enables the navigation-frame target position in
	// distance reports.
	PublishNavPosition bool

	MessageTimeout time.Duration
	ByteTimeout    time.Duration

	// WarnInterval rate-limits the "beacon not responding" warning.
	WarnInterval time.Duration
}

func (o *Options) setDefaults() {
	if o.GridSurveyOpcode == nil {
		opcode := uint8(OpcodeGridSurvey)
		o.GridSurveyOpcode = &opcode
	}
	if o.MessageTimeout <= 0 {
		o.MessageTimeout = DefaultMessageTimeout
	}
	if o.ByteTimeout <= 0 {
		o.ByteTimeout = DefaultByteTimeout
	}
	if o.WarnInterval <= 0 {
		o.WarnInterval = 5 * time.Second
	}
}

// Driver owns the two-phase beacon protocol: a blocking grid survey
// handshake followed by continuous ranging. All serial traffic happens on
// the single goroutine that calls Run.
type Driver struct {
	port      BytePort
	acc       *Accumulator
	publisher Publisher
	logger    zerolog.Logger
	opts      Options

	now func() time.Time

	state          atomic.Int32
	framesAccepted atomic.Uint64
	framesRejected atomic.Uint64
	noDataTimeouts atomic.Uint64

	anchorCount     uint8
	gridUUID        uuid.UUID
	lastSilenceWarn time.Time
	lastStatsLog    time.Time
}

func NewDriver(port BytePort, publisher Publisher, opts Options, logger zerolog.Logger) *Driver {
	opts.setDefaults()

	return &Driver{
		port:      port,
		acc:       NewAccumulator(port, opts.MessageTimeout, opts.ByteTimeout),
		publisher: publisher,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

// State reports the current protocol phase.
func (d *Driver) State() State {
	return State(d.state.Load())
}

// Stats returns a snapshot of the driver's counters.
func (d *Driver) Stats() Stats {
	return Stats{
		FramesAccepted: d.framesAccepted.Load(),
		FramesRejected: d.framesRejected.Load(),
		NoDataTimeouts: d.noDataTimeouts.Load(),
	}
}

// Run executes the protocol until ctx is cancelled. Protocol errors never
// terminate the session; cancellation is polled between frame attempts, so
// shutdown can lag by up to one message timeout.
func (d *Driver) Run(ctx context.Context) error {
	d.lastStatsLog = d.now()

	grid := d.awaitGrid(ctx)
	if grid == nil {
		// Cancelled before any grid survey was accepted; ranging never
		// started, so there is nothing to stop.
		return nil
	}

	d.anchorCount = grid.AnchorCount
	if d.anchorCount > MaxAnchors {
		d.anchorCount = MaxAnchors
	}
	d.gridUUID = grid.GridUUID

	report := d.gridReport(grid)
	d.publisher.PublishGrid(report)

	d.logger.Info().
		Str("grid_uuid", grid.GridUUID.String()).
		Uint8("anchor_count", grid.AnchorCount).
		Msg("Grid survey accepted, entering ranging")

	d.state.Store(int32(StateRanging))
	d.sendCommand("pure_ranging", Command(OpcodePureRanging, d.opts.GridUUID))

	d.rangingLoop(ctx)

	d.state.Store(int32(StateStopping))
	d.sendCommand("stop_ranging", Command(OpcodeStopRanging, d.opts.GridUUID))

	return nil
}

// awaitGrid blocks until one grid survey message is accepted or ctx is
// cancelled. There is no retry limit: the beacon sends no negative
// acknowledgements, so silence and garbage are both handled by asking
// again.
func (d *Driver) awaitGrid(ctx context.Context) *GridSurveyMessage {
	for {
		if ctx.Err() != nil {
			return nil
		}
		d.maybeLogStats()

		d.sendCommand("grid_survey", Command(*d.opts.GridSurveyOpcode, d.opts.GridUUID))

		frame, err := d.acc.Next(GridSurveySize)
		if err != nil {
			d.logger.Warn().Err(err).Msg("Serial transport error during grid survey")
			continue
		}

		if len(frame) == 0 {
			d.noDataTimeouts.Add(1)
			d.warnNotResponding()
			continue
		}

		msg, err := DecodeGridSurvey(frame)
		if err != nil {
			d.framesRejected.Add(1)
			d.logger.Debug().Err(err).Int("bytes", len(frame)).Msg("Rejected grid survey frame")
			continue
		}

		d.framesAccepted.Add(1)
		return msg
	}
}

// rangingLoop accumulates and publishes distance results until ctx is
// cancelled. A single bad frame never aborts the session.
func (d *Driver) rangingLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		d.maybeLogStats()

		frame, err := d.acc.Next(DistanceResultSize)
		if err != nil {
			d.logger.Warn().Err(err).Msg("Serial transport error during ranging")
			// Retry the phase from the top: re-issue the ranging command
			// and start a fresh accumulation.
			d.sendCommand("pure_ranging", Command(OpcodePureRanging, d.opts.GridUUID))
			continue
		}

		if len(frame) == 0 {
			d.noDataTimeouts.Add(1)
			d.warnNotResponding()
			continue
		}

		msg, err := DecodeDistanceResult(frame)
		if err != nil {
			// Structural rejections stay quiet; the counter keeps them
			// observable without flooding the log on every corrupt burst.
			d.framesRejected.Add(1)
			continue
		}

		d.framesAccepted.Add(1)
		d.publisher.PublishDistance(d.distanceReport(msg))
	}
}

func (d *Driver) gridReport(msg *GridSurveyMessage) *models.GridReport {
	anchorCount := msg.AnchorCount
	if anchorCount > MaxAnchors {
		anchorCount = MaxAnchors
	}

	anchors := make([]models.Position, anchorCount)
	for i := range anchors {
		anchors[i] = models.Position{
			X: msg.AnchorPos[i][0],
			Y: msg.AnchorPos[i][1],
			Z: msg.AnchorPos[i][2],
		}
	}

	return &models.GridReport{
		Timestamp:     d.now(),
		GridUUID:      msg.GridUUID,
		InitiatorTime: msg.InitiatorTime,
		AnchorCount:   anchorCount,
		GPSReference: models.GPSCoordinates{
			Latitude:  msg.GPSLatitude,
			Longitude: msg.GPSLongitude,
			Altitude:  msg.GPSAltitude,
		},
		TargetReference: models.Position{
			X: msg.TargetRef[0],
			Y: msg.TargetRef[1],
			Z: msg.TargetRef[2],
		},
		AnchorPositions: anchors,
	}
}

func (d *Driver) distanceReport(msg *DistanceResultMessage) *models.DistanceReport {
	distances := make([]float64, d.anchorCount)
	for i := range distances {
		distances[i] = float64(msg.AnchorDistance[i]) / 100.0 // cm to m
	}

	report := &models.DistanceReport{
		Timestamp:       d.now(),
		GridUUID:        d.gridUUID,
		Status:          msg.Status,
		Counter:         msg.Counter,
		YawOffset:       msg.YawOffset,
		TimeOffset:      msg.TimeOffset,
		AnchorDistances: distances,
	}

	if d.opts.PublishNavPosition {
		pos := NavPosition(msg.PosX, msg.PosY, msg.PosZ, msg.YawOffset)
		report.TargetPosition = &pos
	}

	return report
}

func (d *Driver) sendCommand(name string, cmd []byte) {
	n, err := d.port.Write(cmd)
	if err != nil {
		d.logger.Error().Err(err).Str("command", name).Msg("Command write failed")
		return
	}

	// A short write is logged but not retried: the beacon either acts on
	// the prefix or stays silent, which surfaces as a no-data timeout.
	if n < len(cmd) {
		d.logger.Error().
			Str("command", name).
			Int("written", n).
			Int("size", len(cmd)).
			Msg("Short command write")
	}
}

// maybeLogStats dumps the counters at most once per statsLogInterval. It
// keeps long ranging sessions observable without flooding the debug log.
func (d *Driver) maybeLogStats() {
	now := d.now()
	if now.Sub(d.lastStatsLog) < statsLogInterval {
		return
	}
	d.lastStatsLog = now

	stats := d.Stats()
	d.logger.Debug().
		Str("state", d.State().String()).
		Uint64("frames_accepted", stats.FramesAccepted).
		Uint64("frames_rejected", stats.FramesRejected).
		Uint64("no_data_timeouts", stats.NoDataTimeouts).
		Msg("Driver counters")
}

func (d *Driver) warnNotResponding() {
	now := d.now()
	if now.Sub(d.lastSilenceWarn) < d.opts.WarnInterval {
		return
	}
	d.lastSilenceWarn = now

	d.logger.Warn().
		Str("state", d.State().String()).
		Msg("Beacon is not responding")
}
