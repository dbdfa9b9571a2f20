package perfstats

import "time"

// ReportInterval is the minimum time between instantaneous rate reports.
const ReportInterval = time.Second

// RateTracker counts frames through a streaming session and computes two
// throughput figures: a session average (total frames over total elapsed
// time) and a periodic instantaneous rate. The instantaneous rate is
// recomputed whenever at least ReportInterval has elapsed since the previous
// report, from the frame and time deltas since that report point - not since
// session start, so a long session doesn't dilute spikes.
//
// Callers pass in the clock, which keeps the tracker trivially testable.
type RateTracker struct {
	Frames uint64 // Frames counted this session

	started          bool
	startTime        time.Time
	lastReportTime   time.Time
	lastReportFrames uint64
}

// Started reports whether a session is in progress.
func (r *RateTracker) Started() bool {
	return r.started
}

// Start begins a session. Calling Start on a started session is a no-op.
func (r *RateTracker) Start(now time.Time) {
	if r.started {
		return
	}
	r.started = true
	r.startTime = now
	r.lastReportTime = now
	r.lastReportFrames = 0
	r.Frames = 0
}

// AddFrame counts one frame. If at least ReportInterval has elapsed since the
// last report point, it returns the instantaneous rate and true, and advances
// the report point.
func (r *RateTracker) AddFrame(now time.Time) (fps float64, report bool) {
	if !r.started {
		return 0, false
	}
	r.Frames++
	elapsed := now.Sub(r.lastReportTime)
	if elapsed < ReportInterval {
		return 0, false
	}
	fps = float64(r.Frames-r.lastReportFrames) / elapsed.Seconds()
	r.lastReportTime = now
	r.lastReportFrames = r.Frames
	return fps, true
}

// SessionAverage returns the average frame rate since Start.
func (r *RateTracker) SessionAverage(now time.Time) float64 {
	if !r.started {
		return 0
	}
	elapsed := now.Sub(r.startTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(r.Frames) / elapsed
}

// Reset ends the session and zeroes all counters.
func (r *RateTracker) Reset() {
	*r = RateTracker{}
}
