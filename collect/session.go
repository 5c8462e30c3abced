package collect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Thiagojm/rngkit-go/device"
	"github.com/Thiagojm/rngkit-go/naming"
	"github.com/Thiagojm/rngkit-go/zscore"
)

// State is the acquisition-loop state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result summarizes a finished session. State is StateCompleted or
// StateFailed; cancellation is not a failure, it completes with the samples
// acquired so far.
type Result struct {
	State   State
	Samples uint64
	Started time.Time
	Elapsed time.Duration
	// FinalZ is the running Z statistic after the last sample;
	// zero when no samples were acquired.
	FinalZ  float64
	BinPath string
	CSVPath string
	// Err holds the cause when State is StateFailed.
	Err error
}

// Progress is called after each persisted sample.
type Progress func(s Sample, rec zscore.Record)

// Run executes one acquisition session: validate the config, detect and open
// the source, create the session's log pair under dir, then sample at the
// configured interval until ctx is cancelled, the optional duration elapses,
// or a read/persist failure ends the session. The log handles and the source
// are released on every exit path. A non-nil progress is invoked per sample.
//
// The returned error is non-nil for start-up failures (invalid config,
// absent device, log creation) and for StateFailed results; it is nil for a
// completed session, cancelled or not.
func Run(ctx context.Context, cfg Config, src device.Source, dir string, progress Progress) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{State: StateFailed, Err: err}, err
	}

	present, err := src.Detect()
	if err != nil {
		err = fmt.Errorf("detect %s: %w", src.Kind(), err)
		return Result{State: StateFailed, Err: err}, err
	}
	if !present {
		err = fmt.Errorf("%s: %w", src.Kind(), ErrDeviceUnavailable)
		return Result{State: StateFailed, Err: err}, err
	}
	if err := src.Open(); err != nil {
		err = fmt.Errorf("open %s: %w", src.Kind(), err)
		return Result{State: StateFailed, Err: err}, err
	}
	defer src.Close()

	started := time.Now()
	binPath, csvPath, err := naming.BuildBinCSVPaths(dir, started, src.Kind(), cfg.SampleBits, cfg.IntervalSeconds, cfg.Folds)
	if err != nil {
		return Result{State: StateFailed, Err: err}, err
	}
	writer, err := OpenDualLog(binPath, csvPath)
	if err != nil {
		return Result{State: StateFailed, Err: err}, err
	}

	sess := &session{
		cfg:      cfg,
		src:      src,
		writer:   writer,
		clock:    Clock{Interval: cfg.Interval()},
		progress: progress,
		started:  started,
	}
	res := sess.run(ctx)

	if cerr := writer.Close(); cerr != nil && res.State != StateFailed {
		res.State = StateFailed
		res.Err = fmt.Errorf("close logs: %w", cerr)
	}
	res.BinPath = binPath
	res.CSVPath = csvPath
	return res, res.Err
}

// session is the per-run loop state. It lives on one goroutine; the only
// cross-goroutine input is ctx cancellation, observed at the top of each
// cycle and during the inter-sample wait.
type session struct {
	cfg      Config
	src      device.Source
	writer   *DualLogWriter
	clock    Clock
	progress Progress
	started  time.Time

	state   State
	samples uint64
}

func (s *session) run(ctx context.Context) Result {
	s.state = StateRunning
	stat, err := zscore.NewRunning(s.cfg.SampleBits)
	if err != nil {
		return s.failed(err)
	}
	bytesPerSample := s.cfg.BytesPerSample()
	var lastZ float64

	for {
		if ctx.Err() != nil {
			s.state = StateStopping
			return s.completed(lastZ)
		}
		workStart := time.Now()

		raw, err := s.src.ReadBytes(ctx, bytesPerSample)
		if err != nil {
			// A cancelled read is a stop request, not a device fault.
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				s.state = StateStopping
				return s.completed(lastZ)
			}
			return s.failed(fmt.Errorf("device read: %w", err))
		}
		sample := Sample{
			Seq:       s.samples + 1,
			Timestamp: time.Now(),
			Raw:       raw,
			Ones:      countOnes(raw),
		}
		if err := s.writer.Append(sample); err != nil {
			return s.failed(fmt.Errorf("persist sample %d: %w", sample.Seq, err))
		}
		s.samples++
		rec := stat.Push(sample.Ones)
		lastZ = rec.Z
		if s.progress != nil {
			s.progress(sample, rec)
		}

		if d := s.cfg.Duration(); d > 0 && time.Since(s.started) >= d {
			return s.completed(lastZ)
		}
		if !s.clock.Wait(ctx, time.Since(workStart)) {
			s.state = StateStopping
			return s.completed(lastZ)
		}
	}
}

func (s *session) completed(finalZ float64) Result {
	s.state = StateCompleted
	return Result{
		State:   StateCompleted,
		Samples: s.samples,
		Started: s.started,
		Elapsed: time.Since(s.started),
		FinalZ:  finalZ,
	}
}

func (s *session) failed(err error) Result {
	s.state = StateFailed
	return Result{
		State:   StateFailed,
		Samples: s.samples,
		Started: s.started,
		Elapsed: time.Since(s.started),
		Err:     err,
	}
}
