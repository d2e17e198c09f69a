// Package speedtest measures the internet connection on request and
// renders the outcome as a spoken Hindi sentence.
package speedtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/showwin/speedtest-go/speedtest"

	"veer/pkg/logx"
)

// ErrBusy marks a measurement requested while one is already running.
var ErrBusy = errors.New("speed test already running")

// Result is one completed measurement.
type Result struct {
	Timestamp    time.Time
	DownloadMbps float64
	UploadMbps   float64
	Ping         time.Duration
	ServerName   string
}

// Runner performs one full test at a time against the closest server.
type Runner struct {
	log     logx.Logger
	timeout time.Duration

	inFlight atomic.Bool
}

func NewRunner(timeout time.Duration, log logx.Logger) *Runner {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Runner{log: log, timeout: timeout}
}

// Run fetches the server list, picks the closest server, and runs the
// download and upload tests. Only one measurement runs at a time.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer r.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// A fresh client per run; the package-level default client retains
	// large snapshots between runs.
	st := speedtest.New()
	defer func() {
		st.Snapshots().Clean()
		st.Reset()
	}()

	servers, err := st.FetchServerListContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch server list: %w", err)
	}
	if a := servers.Available(); a != nil {
		servers = *a
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("no servers available")
	}
	sort.Slice(servers, func(i, j int) bool {
		return servers[i].Distance < servers[j].Distance
	})
	server := servers[0]

	if err := server.PingTestContext(ctx, nil); err != nil {
		return nil, fmt.Errorf("latency test: %w", err)
	}
	if err := server.DownloadTestContext(ctx); err != nil {
		return nil, fmt.Errorf("download test: %w", err)
	}
	if err := server.UploadTestContext(ctx); err != nil {
		return nil, fmt.Errorf("upload test: %w", err)
	}

	res := &Result{
		Timestamp:    time.Now(),
		DownloadMbps: server.DLSpeed.Mbps(),
		UploadMbps:   server.ULSpeed.Mbps(),
		Ping:         server.Latency,
		ServerName:   server.Sponsor,
	}
	r.log.Info("speed test completed",
		logx.Float64("download_mbps", res.DownloadMbps),
		logx.Float64("upload_mbps", res.UploadMbps),
		logx.Duration("ping", res.Ping),
		logx.String("server", res.ServerName))
	return res, nil
}

// SpokenResult renders a measurement as the assistant's Hindi answer.
func SpokenResult(res *Result) string {
	return fmt.Sprintf("डाउनलोड स्पीड %.0f मेगाबिट, अपलोड स्पीड %.0f मेगाबिट और पिंग %d मिलीसेकंड है",
		res.DownloadMbps, res.UploadMbps, res.Ping.Milliseconds())
}
