package transport

import (
	"context"
	"strconv"
	"strings"

	"github.com/kochabonline/liveserver/errors"
	"github.com/kochabonline/liveserver/store/db"
)

// Server is anything the app runner can run and shut down.
type Server interface {
	Run() error
	Shutdown(context.Context) error
}

var (
	// ErrInvalidAddress matches every address specification rejected by ParseAddr.
	ErrInvalidAddress = errors.BadRequest("invalid address").WithReason(errors.ReasonInvalidAddress)
	// ErrInvalidStatic matches every Static rejected by Validate.
	ErrInvalidStatic = errors.BadRequest("invalid static url").WithReason(errors.ReasonInvalidStatic)
)

const maxPort = 65535

// ParseAddr parses an address specification of the form host:ports, where
// ports is a comma-separated list of single ports or inclusive ranges, e.g.
// "localhost:8000-8010,8080,9200-9300". Candidate ports are returned in
// segment order, ranges ascending, duplicates kept. Port 0 asks the kernel
// for any free port.
func ParseAddr(spec string) (string, []int, error) {
	invalid := func() (string, []int, error) {
		return "", nil, errors.BadRequest("invalid address (%q) for live server", spec).
			WithReason(errors.ReasonInvalidAddress)
	}

	parts := strings.Split(spec, ":")
	if len(parts) != 2 {
		return invalid()
	}
	host, portRanges := parts[0], parts[1]

	var ports []int
	for _, portRange := range strings.Split(portRanges, ",") {
		extremes := strings.Split(portRange, "-")
		if len(extremes) > 2 {
			return invalid()
		}

		bounds := make([]int, len(extremes))
		for i, s := range extremes {
			p, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || p < 0 || p > maxPort {
				return invalid()
			}
			bounds[i] = p
		}

		if len(bounds) == 1 {
			ports = append(ports, bounds[0])
			continue
		}
		for p := bounds[0]; p <= bounds[1]; p++ {
			ports = append(ports, p)
		}
	}

	if len(ports) == 0 {
		return invalid()
	}
	return host, ports, nil
}

// Capability is a feature a Backend declares it supports.
type Capability uint8

const (
	// CapabilityServe means the backend can run a server thread at all.
	CapabilityServe Capability = 1 << iota
	// CapabilityStatic means ThreadConfig.Static is honoured.
	CapabilityStatic
	// CapabilityTerminate means threads implement Terminator.
	CapabilityTerminate
)

func (c Capability) Has(o Capability) bool {
	return c&o == o
}

func (c Capability) String() string {
	var names []string
	if c.Has(CapabilityServe) {
		names = append(names, "serve")
	}
	if c.Has(CapabilityStatic) {
		names = append(names, "static")
	}
	if c.Has(CapabilityTerminate) {
		names = append(names, "terminate")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Static describes static assets served under URL from the directory Root.
type Static struct {
	URL  string `json:"url" mapstructure:"url" default:"/static/"`
	Root string `json:"root" mapstructure:"root"`
}

// Validate checks URL is an absolute path below the root. Mounting static
// files at "/" would swallow the application and every other route.
func (s Static) Validate() error {
	if s.Root == "" {
		return nil
	}
	if !strings.HasPrefix(s.URL, "/") || strings.Trim(s.URL, "/") == "" {
		return errors.BadRequest("invalid static url %q, want a path such as /static/", s.URL).
			WithReason(errors.ReasonInvalidStatic)
	}
	return nil
}

// ThreadConfig is everything a server thread needs to bind and serve.
type ThreadConfig struct {
	Host      string
	Ports     []int
	Overrides db.Overrides
	// Static is nil when static assets are not served.
	Static *Static
}

// Thread is a server running on its own goroutine. Ready is closed once the
// thread is listening or has failed to start, in which case Err is set.
type Thread interface {
	Start()
	Ready() <-chan struct{}
	Err() error
	// Host and Port are the bound values, valid once Ready is closed.
	Host() string
	Port() int
	Alive() bool
	// Join blocks until the thread's goroutine has exited.
	Join()
}

// Terminator is implemented by threads that support graceful termination.
type Terminator interface {
	Terminate(ctx context.Context) error
}

// Backend creates server threads.
type Backend interface {
	Capabilities() Capability
	NewThread(cfg ThreadConfig) (Thread, error)
}
