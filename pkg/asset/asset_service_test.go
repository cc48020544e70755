package asset

import (
	"context"
	"errors"
	"fmt"
	"nutrition-catalog/domain"
	"nutrition-catalog/internal/metrics"
	"nutrition-catalog/internal/utils/storage"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote is an in-memory blob store whose failures are switchable.
type fakeRemote struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	failPuts  int
	blockPut  bool
	failGet   bool
	failDel   bool
	putCalls  int
	delCalled bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{blobs: make(map[string][]byte)}
}

func (f *fakeRemote) Put(ctx context.Context, id string, data []byte) error {
	f.mu.Lock()
	f.putCalls++
	block := f.blockPut
	if f.failPuts > 0 {
		f.failPuts--
		f.mu.Unlock()
		return errors.New("remote unavailable")
	}
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[id] = append([]byte(nil), data...)
	return nil
}

func (f *fakeRemote) Get(_ context.Context, id string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return nil, errors.New("remote unavailable")
	}
	data, ok := f.blobs[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, domain.ErrNotFound)
	}
	return data, nil
}

func (f *fakeRemote) URL(_ context.Context, id string) (string, error) {
	return "https://blobs.example/" + id, nil
}

func (f *fakeRemote) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delCalled = true
	if f.failDel {
		return errors.New("remote unavailable")
	}
	delete(f.blobs, id)
	return nil
}

func (f *fakeRemote) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blobs[id]
	return ok
}

func newTestStore(t *testing.T, remote storage.BlobStore, opts Options) (AssetStore, *storage.LocalStore) {
	t.Helper()
	local, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	s := NewAssetStore(remote, local, metrics.NewRegistry(), opts)
	t.Cleanup(func() { _ = s.Close() })
	return s, local
}

func TestPut_WritesBothStores(t *testing.T) {
	remote := newFakeRemote()
	s, local := newTestStore(t, remote, Options{})

	id, err := s.Put(context.Background(), []byte("photo"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.True(t, remote.has(id))

	data, err := local.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []byte("photo"), data)
}

func TestPut_RejectsEmpty(t *testing.T) {
	s, _ := newTestStore(t, newFakeRemote(), Options{})
	_, err := s.Put(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrEmptyAsset)
}

func TestPut_SlowRemoteReturnsIDAndRetries(t *testing.T) {
	remote := newFakeRemote()
	remote.blockPut = true
	s, local := newTestStore(t, remote, Options{
		RemoteTimeout: 20 * time.Millisecond,
		RetryBackoff:  5 * time.Millisecond,
		RetryAttempts: 10,
	})

	start := time.Now()
	id, err := s.Put(context.Background(), []byte("photo"))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	_, err = local.Get(context.Background(), id)
	require.NoError(t, err)

	remote.mu.Lock()
	remote.blockPut = false
	remote.mu.Unlock()

	require.Eventually(t, func() bool { return remote.has(id) }, 2*time.Second, 5*time.Millisecond)
}

func TestPut_CallerCancellationKeepsLocalCopy(t *testing.T) {
	remote := newFakeRemote()
	remote.failPuts = 100
	s, local := newTestStore(t, remote, Options{RetryBackoff: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	id, err := s.Put(ctx, []byte("photo"))
	require.NoError(t, err)

	data, err := local.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []byte("photo"), data)
}

func TestClose_CancelsPendingRetries(t *testing.T) {
	remote := newFakeRemote()
	remote.failPuts = 1
	s, _ := newTestStore(t, remote, Options{RetryBackoff: time.Hour})

	_, err := s.Put(context.Background(), []byte("photo"))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_ = s.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("close did not stop the pending retry")
	}
	remote.mu.Lock()
	defer remote.mu.Unlock()
	assert.Equal(t, 1, remote.putCalls)
}

func TestGet_FallsBackToLocal(t *testing.T) {
	remote := newFakeRemote()
	s, _ := newTestStore(t, remote, Options{})

	id, err := s.Put(context.Background(), []byte("banana.jpg"))
	require.NoError(t, err)

	remote.mu.Lock()
	remote.failGet = true
	remote.mu.Unlock()

	data, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []byte("banana.jpg"), data)
}

func TestGet_NotFoundAnywhere(t *testing.T) {
	s, _ := newTestStore(t, newFakeRemote(), Options{})
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_LocalOnly(t *testing.T) {
	s, _ := newTestStore(t, nil, Options{})
	id, err := s.Put(context.Background(), []byte("x"))
	require.NoError(t, err)
	data, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}

func TestDelete_RemoteFailureIsIgnored(t *testing.T) {
	remote := newFakeRemote()
	s, _ := newTestStore(t, remote, Options{})
	id, err := s.Put(context.Background(), []byte("photo"))
	require.NoError(t, err)

	remote.mu.Lock()
	remote.failDel = true
	remote.failGet = true
	remote.mu.Unlock()

	require.NoError(t, s.Delete(context.Background(), id))
	assert.True(t, remote.delCalled)

	_, err = s.Get(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
