package ntpcheck

import (
	"context"
	"time"

	"github.com/batuhanky/gnss-timesync/pkg/logger"
	"github.com/batuhanky/gnss-timesync/pkg/mathutil"
	"github.com/batuhanky/gnss-timesync/pkg/metrics"
)

// TimeSource returns the current GNSS-disciplined UTC time. It fails while
// no usable time reference exists.
type TimeSource func() (time.Time, error)

// Result is the outcome of one server comparison.
type Result struct {
	Server     string
	Divergence time.Duration
	Exceeded   bool
	Err        error
}

// Checker periodically compares GNSS-derived UTC against a set of NTP
// servers and reports the divergence.
type Checker struct {
	querier       Querier
	source        TimeSource
	servers       []string
	interval      time.Duration
	maxDivergence time.Duration
	metrics       *metrics.SyncMetrics

	now func() time.Time
}

// NewChecker creates a checker. metrics may be nil when no exporter is
// wired in.
func NewChecker(querier Querier, source TimeSource, servers []string, interval, maxDivergence time.Duration, m *metrics.SyncMetrics) *Checker {
	return &Checker{
		querier:       querier,
		source:        source,
		servers:       servers,
		interval:      interval,
		maxDivergence: maxDivergence,
		metrics:       m,
		now:           time.Now,
	}
}

// Run executes the cross-check on the configured interval until the context
// is cancelled. The first check runs immediately.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("ntpcheck", "Cross-check loop stopped")
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce queries every configured server once and compares each response
// against the GNSS-disciplined clock.
func (c *Checker) RunOnce(ctx context.Context) []Result {
	results := make([]Result, 0, len(c.servers))

	for _, server := range c.servers {
		result := c.check(ctx, server)
		results = append(results, result)

		if result.Err != nil {
			continue
		}
		if result.Exceeded {
			logger.WarnFields("ntpcheck", "GNSS/NTP divergence above threshold", map[string]interface{}{
				"server":        server,
				"divergence_ms": float64(result.Divergence) / float64(time.Millisecond),
				"threshold_ms":  float64(c.maxDivergence) / float64(time.Millisecond),
			})
		}
	}

	return results
}

func (c *Checker) check(ctx context.Context, server string) Result {
	resp, err := c.querier.Query(ctx, server)
	if err != nil {
		c.countFailure(server, "query")
		return Result{Server: server, Err: err}
	}

	gnssNow, err := c.source()
	if err != nil {
		c.countFailure(server, "no_reference")
		return Result{Server: server, Err: err}
	}

	// NTP's view of now, projected from the measured local clock offset.
	ntpNow := c.now().Add(resp.Offset)
	divergence := ntpNow.Sub(gnssNow)
	exceeded := mathutil.AbsDuration(divergence) > c.maxDivergence

	if c.metrics != nil {
		c.metrics.NTPDivergenceSeconds.WithLabelValues(server).Set(divergence.Seconds())
		if exceeded {
			c.metrics.NTPDivergenceExceeded.WithLabelValues(server).Set(1)
		} else {
			c.metrics.NTPDivergenceExceeded.WithLabelValues(server).Set(0)
		}
	}

	return Result{Server: server, Divergence: divergence, Exceeded: exceeded}
}

func (c *Checker) countFailure(server, reason string) {
	if c.metrics != nil {
		c.metrics.NTPCheckFailuresTotal.WithLabelValues(server, reason).Inc()
	}
}
