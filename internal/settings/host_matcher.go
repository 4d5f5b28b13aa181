package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/hal9000y/gmail-provider/internal/provider"
)

// HostMatcher reports whether a match pattern is covered by an active, scanned
// frame of the watch list. The watch list is fetched on first use and kept for
// the lifetime of the matcher.
type HostMatcher struct {
	ch Channel

	mu        sync.Mutex
	watchList []provider.WatchListEntry
	populated bool
}

// NewHostMatcher creates a HostMatcher reading the watch list through ch.
func NewHostMatcher(ch Channel) *HostMatcher {
	return &HostMatcher{ch: ch}
}

// Verify reports whether host is covered. A failed fetch is returned as is and
// leaves the cache empty.
func (m *HostMatcher) Verify(ctx context.Context, host string) (bool, error) {
	re, err := CompileMatchPattern(host)
	if err != nil {
		return false, fmt.Errorf("CompileMatchPattern(%s) failed: %w", host, err)
	}

	watchList, err := m.load(ctx)
	if err != nil {
		return false, err
	}

	for _, entry := range watchList {
		if !entry.Active {
			continue
		}
		for _, f := range entry.Frames {
			if f.Scan && re.MatchString(f.Frame) {
				return true, nil
			}
		}
	}

	return false, nil
}

// Reset drops the cached watch list.
func (m *HostMatcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.watchList = nil
	m.populated = false
}

// load holds the lock across the fetch so concurrent first callers share one request.
func (m *HostMatcher) load(ctx context.Context) ([]provider.WatchListEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.populated {
		return m.watchList, nil
	}

	var resp provider.WatchListResponse
	if err := m.ch.Send(ctx, provider.OpGetWatchList, nil, &resp); err != nil {
		return nil, fmt.Errorf("%s failed: %w", provider.OpGetWatchList, err)
	}

	m.watchList = resp.Entries
	m.populated = true

	return m.watchList, nil
}
