package sink

import (
	"context"
	"net/url"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	"github.com/ppanyukov/wwtp-data-gen/pkg/series"
)

// DefaultTable is the relation generated series are appended to.
const DefaultTable = "wwtp_data"

// Writer is interface to append series to a destination.
type Writer interface {
	// Write appends every row of f to table. Any connection it needs is
	// acquired and released within the call; nothing is left half
	// written when it returns an error.
	Write(ctx context.Context, table string, f *series.Frame) error

	// Name describes the destination without credentials, for logging.
	Name() string
}

// New creates the writer for the destination descriptor.
func New(logger log.Logger, destination string) (Writer, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if destination == "" {
		return nil, errors.New("destination is not set")
	}

	scheme, rest, found := strings.Cut(destination, "://")
	if !found {
		return nil, errors.Errorf("destination %q has no scheme", redact(destination))
	}

	// SQLAlchemy style URLs name the driver after a plus sign
	scheme, _, _ = strings.Cut(strings.ToLower(scheme), "+")

	switch scheme {
	case "postgres", "postgresql":
		return NewPostgresWriter(logger, "postgres://"+rest)
	case "tsdb":
		return NewBlockWriter(logger, rest)
	default:
		return nil, errors.Errorf("unsupported destination scheme %q", scheme)
	}
}

// redact hides the password of URL style descriptors.
func redact(destination string) string {
	u, err := url.Parse(destination)
	if err != nil || u.User == nil {
		return destination
	}
	return u.Redacted()
}
