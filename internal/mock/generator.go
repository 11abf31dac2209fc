package mock

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/agent-racer/netwatch/internal/interceptor"
)

// mockURL never leaves the process; scriptedTransport answers it.
const mockURL = "http://upstream.netwatch.invalid/ping"

// mockStep is one scripted round trip: either a response code or an error.
type mockStep struct {
	code int
	err  error
}

func okStep() mockStep           { return mockStep{code: http.StatusOK} }
func codeStep(c int) mockStep    { return mockStep{code: c} }
func errStep(err error) mockStep { return mockStep{err: err} }

func refused() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
}

func reset() error {
	return &net.OpError{Op: "read", Net: "tcp", Err: os.NewSyscallError("read", syscall.ECONNRESET)}
}

func lookupFailed() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "no such host", Name: "upstream.netwatch.invalid"}}
}

// patterns holds the available scripts. Each one loops forever.
var patterns = map[string][]mockStep{
	// A link that drops every few requests.
	"flapping": {
		okStep(), okStep(), okStep(),
		errStep(refused()), errStep(reset()),
		okStep(), codeStep(http.StatusServiceUnavailable),
		errStep(refused()),
	},
	// A healthy link. Server-side errors and timeouts never read as outages.
	"steady": {
		okStep(), okStep(), codeStep(http.StatusNotFound), okStep(),
		errStep(context.DeadlineExceeded), okStep(),
		codeStep(http.StatusInternalServerError), okStep(),
	},
	// A long outage followed by recovery.
	"outage": {
		okStep(), okStep(),
		errStep(lookupFailed()), errStep(lookupFailed()), errStep(refused()),
		errStep(lookupFailed()), errStep(refused()),
		okStep(),
	},
}

// PatternNames returns the names accepted by NewGenerator, sorted.
func PatternNames() []string {
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type scriptedTransport struct {
	mu    sync.Mutex
	steps []mockStep
	next  int
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	step := s.steps[s.next%len(s.steps)]
	s.next++
	s.mu.Unlock()

	if step.err != nil {
		return nil, step.err
	}
	return &http.Response{
		StatusCode: step.code,
		Status:     fmt.Sprintf("%d %s", step.code, http.StatusText(step.code)),
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}, nil
}

// Generator replays a scripted pattern of request outcomes through the
// interceptor so the status stream can be demoed without real traffic.
type Generator struct {
	client   *http.Client
	pattern  string
	interval time.Duration
	logger   *slog.Logger
}

func NewGenerator(adapter *interceptor.Adapter, pattern string, interval time.Duration, logger *slog.Logger) (*Generator, error) {
	steps, ok := patterns[pattern]
	if !ok {
		return nil, fmt.Errorf("unknown mock pattern %q", pattern)
	}
	if logger == nil {
		logger = slog.Default()
	}
	transport := &interceptor.Transport{
		Base:         &scriptedTransport{steps: steps},
		Adapter:      adapter,
		StatusErrors: true,
	}
	return &Generator{
		client:   &http.Client{Transport: transport},
		pattern:  pattern,
		interval: interval,
		logger:   logger,
	}, nil
}

// Step performs one scripted request and returns its error, if any.
func (g *Generator) Step(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mockURL, nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return interceptor.CheckStatus(resp)
}

// Start runs Step every interval until ctx is done.
func (g *Generator) Start(ctx context.Context) {
	g.logger.Info("mock outcome generator started", "pattern", g.pattern, "interval", g.interval)
	go g.run(ctx)
}

func (g *Generator) run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.Step(ctx); err != nil {
				g.logger.Debug("mock request failed", "err", err)
			}
		}
	}
}
