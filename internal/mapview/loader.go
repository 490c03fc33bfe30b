package mapview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// KeyProvider resolves the map SDK app key.
type KeyProvider interface {
	MapAppKey(ctx context.Context) (string, error)
}

// StaticKey is a KeyProvider for a key known at startup.
type StaticKey string

func (k StaticKey) MapAppKey(context.Context) (string, error) {
	key := strings.TrimSpace(string(k))
	if key == "" {
		return "", errors.New("mapview: map app key is empty")
	}
	return key, nil
}

// LoadFunc loads the external map script for appKey and returns the ready SDK.
type LoadFunc func(ctx context.Context, appKey string) (SDK, error)

// Loader loads the map SDK at most once at a time. Concurrent callers share
// the in-flight load; a successful load is cached for the life of the Loader
// and a failed one may be retried by the next caller.
type Loader struct {
	keys KeyProvider
	load LoadFunc

	group singleflight.Group

	mu  sync.Mutex
	sdk SDK
}

// NewLoader creates a Loader. One Loader is meant to be shared by every map
// view of the process.
func NewLoader(keys KeyProvider, load LoadFunc) (*Loader, error) {
	if keys == nil {
		return nil, errors.New("mapview: key provider must not be nil")
	}
	if load == nil {
		return nil, errors.New("mapview: load func must not be nil")
	}
	return &Loader{keys: keys, load: load}, nil
}

// Load returns the SDK, loading it if needed. A caller whose ctx ends stops
// waiting, but the shared load keeps running for the others.
func (l *Loader) Load(ctx context.Context) (SDK, error) {
	if sdk := l.cached(); sdk != nil {
		return sdk, nil
	}

	ch := l.group.DoChan("sdk", func() (any, error) {
		if sdk := l.cached(); sdk != nil {
			return sdk, nil
		}
		loadCtx := context.WithoutCancel(ctx)
		key, err := l.keys.MapAppKey(loadCtx)
		if err != nil {
			return nil, fmt.Errorf("mapview: resolve app key: %w", err)
		}
		sdk, err := l.load(loadCtx, key)
		if err != nil {
			return nil, fmt.Errorf("mapview: load sdk: %w", err)
		}
		if sdk == nil {
			return nil, errors.New("mapview: load sdk: loader returned no sdk")
		}
		l.mu.Lock()
		l.sdk = sdk
		l.mu.Unlock()
		return sdk, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(SDK), nil
	}
}

func (l *Loader) cached() SDK {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sdk
}
