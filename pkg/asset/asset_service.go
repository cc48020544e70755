package asset

import (
	"context"
	"errors"
	"fmt"
	"nutrition-catalog/domain"
	"nutrition-catalog/internal/metrics"
	"nutrition-catalog/internal/utils/storage"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

const (
	DefaultRemoteTimeout = 5 * time.Second
	DefaultRetryAttempts = 5
	DefaultRetryBackoff  = time.Second
)

type (
	// AssetStore keeps photos in a local store and mirrors them to a remote
	// blob store. The local write is the durable one.
	AssetStore interface {
		Put(ctx context.Context, data []byte) (string, error)
		Get(ctx context.Context, id string) ([]byte, error)
		URL(ctx context.Context, id string) (string, error)
		Delete(ctx context.Context, id string) error
		Close() error
	}

	Options struct {
		RemoteTimeout time.Duration
		RetryAttempts int
		RetryBackoff  time.Duration
	}

	assetStore struct {
		remote  storage.BlobStore
		local   storage.BlobStore
		opts    Options
		metrics *metrics.Registry

		// lifetime of background retries, independent of any caller
		ctx    context.Context
		cancel context.CancelFunc
		mu     sync.Mutex
		closed bool
		wg     sync.WaitGroup
	}
)

// NewAssetStore builds an AssetStore. remote may be nil, in which case only
// the local store is used.
func NewAssetStore(remote storage.BlobStore, local storage.BlobStore, m *metrics.Registry, opts Options) AssetStore {
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = DefaultRemoteTimeout
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = DefaultRetryAttempts
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &assetStore{
		remote:  remote,
		local:   local,
		opts:    opts,
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *assetStore) Put(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", domain.ErrEmptyAsset
	}
	id := uuid.New().String()

	// the local write commits even if the caller goes away mid-call
	if err := s.local.Put(context.WithoutCancel(ctx), id, data); err != nil {
		return "", fmt.Errorf("store asset locally: %w", err)
	}
	if s.remote == nil {
		return id, nil
	}

	remoteCtx, cancel := context.WithTimeout(ctx, s.opts.RemoteTimeout)
	err := s.remote.Put(remoteCtx, id, data)
	cancel()
	if err != nil {
		log.Warnf("asset %s: remote write did not complete, retrying in background: %v", id, err)
		s.scheduleRetry(id, data)
	}
	return id, nil
}

func (s *assetStore) scheduleRetry(id string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.metrics.AssetRetries.WithLabelValues("cancelled").Inc()
		return
	}
	s.metrics.AssetRetries.WithLabelValues("scheduled").Inc()
	s.wg.Add(1)
	go s.retry(id, data)
}

func (s *assetStore) retry(id string, data []byte) {
	defer s.wg.Done()
	backoff := s.opts.RetryBackoff
	for attempt := 1; attempt <= s.opts.RetryAttempts; attempt++ {
		timer := time.NewTimer(backoff)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			s.metrics.AssetRetries.WithLabelValues("cancelled").Inc()
			return
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(s.ctx, s.opts.RemoteTimeout)
		err := s.remote.Put(ctx, id, data)
		cancel()
		if err == nil {
			log.Infof("asset %s: remote write succeeded on attempt %d", id, attempt)
			s.metrics.AssetRetries.WithLabelValues("succeeded").Inc()
			return
		}
		log.Warnf("asset %s: remote retry %d/%d failed: %v", id, attempt, s.opts.RetryAttempts, err)
		backoff *= 2
	}
	log.Errorf("asset %s: giving up on remote write, local copy only", id)
	s.metrics.AssetRetries.WithLabelValues("abandoned").Inc()
}

func (s *assetStore) Get(ctx context.Context, id string) ([]byte, error) {
	if s.remote != nil {
		data, err := s.remote.Get(ctx, id)
		if err == nil {
			return data, nil
		}
		log.Debugf("asset %s: remote read failed, trying local copy: %v", id, err)
	}

	data, err := s.local.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("asset %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	if s.remote != nil {
		s.metrics.AssetLocalFallbacks.Inc()
	}
	return data, nil
}

func (s *assetStore) URL(ctx context.Context, id string) (string, error) {
	if s.remote != nil {
		u, err := s.remote.URL(ctx, id)
		if err == nil {
			return u, nil
		}
		log.Debugf("asset %s: remote url failed, trying local copy: %v", id, err)
	}
	return s.local.URL(ctx, id)
}

// Delete removes the local copy and tries the remote one. A remote failure is
// only logged.
func (s *assetStore) Delete(ctx context.Context, id string) error {
	if err := s.local.Delete(ctx, id); err != nil {
		return err
	}
	if s.remote != nil {
		if err := s.remote.Delete(ctx, id); err != nil {
			log.Warnf("asset %s: remote delete failed: %v", id, err)
		}
	}
	return nil
}

// Close cancels pending remote retries and waits for them to stop.
func (s *assetStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	return nil
}
