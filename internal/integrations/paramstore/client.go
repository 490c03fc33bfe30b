package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is the minimal AWS SSM interface required by Client.
// *ssm.Client from aws-sdk-go-v2 satisfies this interface.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter is the interface that wraps GetParameter.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Client wraps an AWS SSM API for parameter retrieval.
type Client struct {
	api ssmAPI
}

// New creates a Client with the given SSM API implementation.
func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if c.api == nil {
		return "", errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	withDecryption := true
	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", errors.New("paramstore: parameter missing value")
	}
	return *out.Parameter.Value, nil
}

// appKeyPayload is the JSON shape stored for the map app key. A plain string
// value is accepted as well.
type appKeyPayload struct {
	AppKey string `json:"appKey"`
}

// MapKey resolves the map SDK app key from {prefix}/map/app-key. The value is
// fetched on the first successful call and reused afterwards.
type MapKey struct {
	getter Getter
	name   string

	mu  sync.Mutex
	key string
}

// NewMapKey creates a MapKey reading below paramPrefix.
func NewMapKey(g Getter, paramPrefix string) (*MapKey, error) {
	if g == nil {
		return nil, errors.New("paramstore: getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("paramstore: parameter prefix must not be empty")
	}
	return &MapKey{getter: g, name: paramPrefix + "/map/app-key"}, nil
}

// MapAppKey returns the cached key or fetches it. Failures are not cached so
// a later map open can retry.
func (k *MapKey) MapAppKey(ctx context.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.key != "" {
		return k.key, nil
	}

	raw, err := k.getter.GetParameter(ctx, k.name)
	if err != nil {
		return "", fmt.Errorf("paramstore: fetch map app key: %w", err)
	}
	key, err := parseAppKey(raw)
	if err != nil {
		return "", err
	}
	k.key = key
	return key, nil
}

func parseAppKey(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		var p appKeyPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return "", fmt.Errorf("paramstore: unmarshal map app key as JSON: %w", err)
		}
		raw = strings.TrimSpace(p.AppKey)
	}
	if raw == "" {
		return "", errors.New("paramstore: map app key is empty")
	}
	return raw, nil
}
