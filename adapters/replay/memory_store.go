package replay

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/layer-3/turnstile/core"
	"github.com/layer-3/turnstile/ports"
)

// MemoryStore is a mutex-guarded in-memory redemption set with an append-only
// snapshot file for durability. Mark and append happen under the same lock,
// so a reference is never observable as redeemed without having been written.
type MemoryStore struct {
	mu       sync.Mutex
	redeemed map[core.Reference]struct{}
	snapshot *os.File // nil when persistence is disabled
}

var _ ports.ReplayGuard = (*MemoryStore)(nil)

// NewMemoryStore creates a store backed by the given snapshot file, loading
// any references recorded by previous runs. An empty path disables
// persistence, which is only appropriate for tests.
func NewMemoryStore(snapshotPath string) (*MemoryStore, error) {
	s := &MemoryStore{redeemed: make(map[core.Reference]struct{})}
	if snapshotPath == "" {
		return s, nil
	}

	if err := s.loadSnapshot(snapshotPath); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(snapshotPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", snapshotPath, err)
	}
	s.snapshot = f
	return s, nil
}

func (s *MemoryStore) loadSnapshot(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			s.redeemed[core.Reference(line)] = struct{}{}
		}
	}
	return scanner.Err()
}

// Contains reports whether the reference has been redeemed.
func (s *MemoryStore) Contains(ctx context.Context, ref core.Reference) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.redeemed[ref]
	return ok, nil
}

// TryMark records the reference as redeemed. The snapshot append is part of
// the critical section and is fail-closed: if the write does not reach disk,
// the reference stays unmarked and the caller gets an error.
func (s *MemoryStore) TryMark(ctx context.Context, ref core.Reference) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.redeemed[ref]; ok {
		return false, nil
	}

	if s.snapshot != nil {
		if _, err := fmt.Fprintln(s.snapshot, string(ref)); err != nil {
			return false, fmt.Errorf("%w: snapshot append: %w", core.ErrReplayUnavailable, err)
		}
		if err := s.snapshot.Sync(); err != nil {
			return false, fmt.Errorf("%w: snapshot sync: %w", core.ErrReplayUnavailable, err)
		}
	}

	s.redeemed[ref] = struct{}{}
	return true, nil
}

// Close releases the snapshot file.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil {
		return nil
	}
	err := s.snapshot.Close()
	s.snapshot = nil
	return err
}
