package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a simple fake implementing ssmAPI for tests.
type fakeAPI struct {
	getOut *ssm.GetParameterOutput
	getErr error
}

func (f *fakeAPI) GetParameter(_ context.Context, _ *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	return f.getOut, f.getErr
}

func strPtr(s string) *string { return &s }

func TestGetParameter_HappyPath(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name: strPtr("p"), Value: strPtr(`{"k":"v"}`),
	}}}
	client, err := New(api)
	require.NoError(t, err)
	v, err := client.GetParameter(context.Background(), "p")
	require.NoError(t, err)
	require.Equal(t, `{"k":"v"}`, v)
}

func TestGetParameter_HappyPath_SecureString(t *testing.T) {
	typeStr := "SecureString"
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name: strPtr("p"), Value: strPtr(`{"k":"v"}`), Type: types.ParameterType(typeStr),
	}}}
	client, err := New(api)
	require.NoError(t, err)
	v, err := client.GetParameter(context.Background(), "p")
	require.NoError(t, err)
	require.Equal(t, `{"k":"v"}`, v)
}

func TestGetParameter_MissingValue(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: strPtr("p"), Value: nil}}}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing value")
}

func TestGetParameter_ApiError(t *testing.T) {
	api := &fakeAPI{getErr: errors.New("boom")}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.Error(t, err)
	require.ErrorContains(t, err, "boom")
}

func TestGetParameter_ClientNotInitialized(t *testing.T) {
	_, err := (&Client{}).GetParameter(context.Background(), "p")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not initialized")
}

func TestGetParameter_EmptyName(t *testing.T) {
	api := &fakeAPI{}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "  ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "required")
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}

// ---------------------------------------------------------------------------
// MapKey
// ---------------------------------------------------------------------------

type fakeGetter struct {
	val   string
	err   error
	calls int
	names []string
}

func (f *fakeGetter) GetParameter(_ context.Context, name string) (string, error) {
	f.calls++
	f.names = append(f.names, name)
	return f.val, f.err
}

func TestNewMapKey_Validates(t *testing.T) {
	_, err := NewMapKey(nil, "/welfare-advisor")
	require.Error(t, err)
	_, err = NewMapKey(&fakeGetter{}, " / ")
	require.Error(t, err)
}

func TestMapKey_JSONPayloadCached(t *testing.T) {
	g := &fakeGetter{val: `{"appKey":"kakao-123"}`}
	k, err := NewMapKey(g, "/welfare-advisor/")
	require.NoError(t, err)

	key, err := k.MapAppKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "kakao-123", key)

	_, _ = k.MapAppKey(context.Background())
	require.Equal(t, 1, g.calls, "SSM must only be called once after success")
	require.Equal(t, []string{"/welfare-advisor/map/app-key"}, g.names)
}

func TestMapKey_PlainValue(t *testing.T) {
	k, err := NewMapKey(&fakeGetter{val: " kakao-plain "}, "/p")
	require.NoError(t, err)
	key, err := k.MapAppKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "kakao-plain", key)
}

func TestMapKey_Errors(t *testing.T) {
	cases := []struct {
		name    string
		getter  *fakeGetter
		wantErr string
	}{
		{"getter error", &fakeGetter{err: errors.New("ssm unavailable")}, "ssm unavailable"},
		{"malformed json", &fakeGetter{val: `{"broken`}, "unmarshal"},
		{"missing field", &fakeGetter{val: `{"other":"x"}`}, "empty"},
		{"blank", &fakeGetter{val: "  "}, "empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k, err := NewMapKey(tc.getter, "/p")
			require.NoError(t, err)
			_, err = k.MapAppKey(context.Background())
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestMapKey_FailureRetried(t *testing.T) {
	g := &fakeGetter{err: errors.New("throttled")}
	k, err := NewMapKey(g, "/p")
	require.NoError(t, err)
	_, err = k.MapAppKey(context.Background())
	require.Error(t, err)

	g.err = nil
	g.val = "kakao-ok"
	key, err := k.MapAppKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "kakao-ok", key)
	require.Equal(t, 2, g.calls)
}
