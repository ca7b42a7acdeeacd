// Package discovery resolves reachable build hosts by invoking the external
// host-listing tool and decoding its JSON output. All string scraping of
// that tool's output is confined to this package.
package discovery

import (
	"context"
	"encoding/json"
	"strings"

	"go.trai.ch/zerr"

	"go.pkgforge.dev/rebake/internal/core/domain"
	"go.pkgforge.dev/rebake/internal/core/ports"
)

// Scanner implements ports.HostLister by running a configured command that
// prints a JSON array of {name, address} descriptors.
type Scanner struct {
	command  []string
	executor ports.Executor
	logger   ports.Logger
}

var _ ports.HostLister = (*Scanner)(nil)

// NewScanner creates a Scanner. command is the argv of the listing tool.
func NewScanner(command []string, executor ports.Executor, logger ports.Logger) *Scanner {
	return &Scanner{command: command, executor: executor, logger: logger}
}

// ListHosts runs the discovery command and returns the decoded descriptors.
func (s *Scanner) ListHosts(ctx context.Context) ([]domain.HostDescriptor, error) {
	if len(s.command) == 0 {
		return nil, zerr.Wrap(domain.ErrProvisioning, "no discovery command configured")
	}

	res, err := s.executor.Run(ctx, s.command[0], s.command[1:]...)
	if err != nil {
		return nil, zerr.Wrap(err, "host discovery command failed to run")
	}
	if res.ExitCode != 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrProvisioning, "host discovery command exited nonzero"),
			"exit_code", res.ExitCode)
	}

	hosts, err := decodeHosts(res.Output)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("discovered hosts", "count", len(hosts))
	return hosts, nil
}

// decodeHosts parses the tool output. Some listing tools print log noise
// before the JSON document, so decoding starts at the first bracket.
func decodeHosts(out string) ([]domain.HostDescriptor, error) {
	idx := strings.IndexAny(out, "[{")
	if idx < 0 {
		return nil, zerr.Wrap(domain.ErrProvisioning, "host discovery output contains no JSON")
	}
	payload := out[idx:]

	var hosts []domain.HostDescriptor
	if strings.HasPrefix(payload, "{") {
		// Single-object form: one host printed bare.
		var h domain.HostDescriptor
		if err := json.Unmarshal([]byte(payload), &h); err != nil {
			return nil, zerr.Wrap(err, "failed to decode host descriptor")
		}
		hosts = []domain.HostDescriptor{h}
	} else if err := json.Unmarshal([]byte(payload), &hosts); err != nil {
		return nil, zerr.Wrap(err, "failed to decode host descriptors")
	}

	valid := hosts[:0]
	for _, h := range hosts {
		if h.Name != "" && h.Address != "" {
			valid = append(valid, h)
		}
	}
	return valid, nil
}
