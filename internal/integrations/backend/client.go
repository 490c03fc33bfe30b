package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"welfare-advisor/internal/domain"
)

const (
	defaultBaseURL  = "http://localhost:8080"
	defaultTimeout  = 10 * time.Second
	requestIDHeader = "X-Request-Id"
)

// ChatRequest is the body of POST /api/recommendations/chat.
type ChatRequest struct {
	UserID   domain.UserID             `json:"userId"`
	Message  string                    `json:"message"`
	History  []domain.ConversationTurn `json:"history"`
	Override bool                      `json:"override,omitempty"`
}

// ChatResponse is the reply of the recommendation service. Optional fields
// are left at their zero value when absent; RecommendationIssued is nil when
// the server did not declare it.
type ChatResponse struct {
	AssistantMessage     string                      `json:"assistantMessage"`
	Recommendations      []domain.RecommendationItem `json:"recommendations"`
	RiskLevel            string                      `json:"riskLevel"`
	RecommendationIssued *bool                       `json:"recommendationIssued"`
	UserName             string                      `json:"userName"`
	Residence            string                      `json:"residence"`
	BaseTags             domain.TagList              `json:"baseTags"`
}

type loginRequest struct {
	Name string `json:"name"`
}

type locationsResponse struct {
	Markers []domain.Marker `json:"markers"`
}

// ErrMalformedResponse wraps a 2xx body that does not decode.
var ErrMalformedResponse = errors.New("decode response")

// HTTPStatusError captures non-2xx backend responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("backend: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client talks to the welfare recommendation backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client for the backend at the default local address
// unless WithBaseURL is given.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if _, err := url.ParseRequestURI(apiURL(c.baseURL, "/")); err != nil {
		return nil, fmt.Errorf("backend: invalid base url %q: %w", c.baseURL, err)
	}
	return c, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

// apiURL joins the base URL and an API path, adding the /api prefix unless
// the base already ends with it.
func apiURL(baseURL, path string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	if !strings.HasSuffix(base, "/api") {
		base += "/api"
	}
	return base + path
}

// RegisterUser creates a user.
func (c *Client) RegisterUser(ctx context.Context, in domain.RegisterUserInput) (domain.User, error) {
	var out domain.User
	if err := c.doJSON(ctx, http.MethodPost, "/users/register", in, &out); err != nil {
		return domain.User{}, fmt.Errorf("backend: register user: %w", err)
	}
	return out, nil
}

// Login looks a user up by name.
func (c *Client) Login(ctx context.Context, name string) (domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, errors.New("backend: login: name must not be empty")
	}
	var out domain.User
	if err := c.doJSON(ctx, http.MethodPost, "/users/login", loginRequest{Name: name}, &out); err != nil {
		return domain.User{}, fmt.Errorf("backend: login: %w", err)
	}
	return out, nil
}

// GetUser fetches a user by id.
func (c *Client) GetUser(ctx context.Context, id domain.UserID) (domain.User, error) {
	if strings.TrimSpace(string(id)) == "" {
		return domain.User{}, errors.New("backend: get user: id must not be empty")
	}
	var out domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(string(id)), nil, &out); err != nil {
		return domain.User{}, fmt.Errorf("backend: get user: %w", err)
	}
	return out, nil
}

// SendChat sends one chat turn.
func (c *Client) SendChat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if req.History == nil {
		req.History = []domain.ConversationTurn{}
	}
	var out ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/recommendations/chat", req, &out); err != nil {
		return ChatResponse{}, fmt.Errorf("backend: send chat: %w", err)
	}
	return out, nil
}

// FetchLocations returns the geocoded benefit list.
func (c *Client) FetchLocations(ctx context.Context) ([]domain.Marker, error) {
	var out locationsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/benefits/locations", nil, &out); err != nil {
		return nil, fmt.Errorf("backend: fetch locations: %w", err)
	}
	return out.Markers, nil
}

// FetchBenefitDetail returns the long-form description of a benefit.
func (c *Client) FetchBenefitDetail(ctx context.Context, benefitID string) (domain.BenefitDetail, error) {
	benefitID = strings.TrimSpace(benefitID)
	if benefitID == "" {
		return domain.BenefitDetail{}, errors.New("backend: fetch benefit detail: id must not be empty")
	}
	var out domain.BenefitDetail
	if err := c.doJSON(ctx, http.MethodGet, "/benefits/"+url.PathEscape(benefitID), nil, &out); err != nil {
		return domain.BenefitDetail{}, fmt.Errorf("backend: fetch benefit detail: %w", err)
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	target := apiURL(c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, newUUID())
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	raw, err := c.doRequest(req, target)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) doRequest(req *http.Request, target string) ([]byte, error) {
	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        target,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

var newUUID = func() string {
	return uuid.NewString()
}
