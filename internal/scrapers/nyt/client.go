package nyt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"nytbestsellers/internal/components/assert"
	"nytbestsellers/internal/components/chrono"
	"nytbestsellers/internal/components/telemetry"
	libtelemetry "nytbestsellers/lib/telemetry"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("internal/scrapers/nyt")

const (
	report_client_list_categories   = "client.list-categories"
	report_client_fetch_bestsellers = "client.fetch-bestsellers"
	report_client_breaker           = "client.breaker"
)

const (
	DefaultBaseUrl = "https://api.nytimes.com/svc/books/v3"
	// MinRequestDelay is the floor between two calls made with the same api key,
	// going under it gets the key throttled and eventually blocked.
	MinRequestDelay = 3100 * time.Millisecond
	DefaultTimeout  = 5 * time.Second
	// DefaultBreakerTimeout is how long the breaker stays open before letting a call through.
	DefaultBreakerTimeout = time.Minute
)

var (
	ErrUpstreamTimeout       = errors.New("nyt: upstream timed out")
	ErrEmptyUpstreamResponse = errors.New("nyt: upstream returned no rows")
	errBadRequest            = errors.New("nyt: request rejected")
)

type ClientOptions struct {
	BaseUrl string
	ApiKey  string
	// RequestDelay is raised to MinRequestDelay when lower.
	RequestDelay time.Duration
	Timeout      time.Duration
	// BreakerTimeout is the open period of the circuit breaker, it is measured on
	// the wall clock.
	BreakerTimeout time.Duration
	Clock          chrono.API
}

type Client struct {
	http           *resty.Client
	pacer          *pacer
	clock          chrono.API
	breaker        *gobreaker.CircuitBreaker[[]Book]
	breakerTimeout time.Duration
	tel            telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.ApiKey)

	tel = telemetry.NewScopedAPI("nyt_client", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.RequestDelay < MinRequestDelay {
		opts.RequestDelay = MinRequestDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = DefaultBreakerTimeout
	}
	if opts.Clock == nil {
		opts.Clock = chrono.NewStandardImpl()
	}

	c := &Client{
		pacer:          &pacer{clock: opts.Clock, interval: opts.RequestDelay},
		clock:          opts.Clock,
		breakerTimeout: opts.BreakerTimeout,
		tel:            tel,
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	httpClient.SetQueryParam("api-key", opts.ApiKey)
	httpClient.SetHeader("accept", "application/json")
	httpClient.SetTimeout(opts.Timeout)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return c.pacer.wait(req.Context())
	})
	telemetry.InstrumentResty(httpClient, tel)
	libtelemetry.TraceResty(httpClient, "nyt_client")
	c.http = httpClient

	c.breaker = gobreaker.NewCircuitBreaker[[]Book](gobreaker.Settings{
		Name:        "nyt_bestsellers",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// a list that does not exist for a date is the caller's problem, not the key's
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errBadRequest)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			tel.ReportWarning(report_client_breaker, name, from.String(), to.String())
		},
	})

	return c, nil
}

// pacer keeps at least `interval` between the start of two consecutive requests.
type pacer struct {
	clock    chrono.API
	interval time.Duration

	mutex   sync.Mutex
	last    time.Time
	started bool
}

func (p *pacer) wait(ctx context.Context) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.started {
		remaining := p.interval - p.clock.Now().Sub(p.last)
		if remaining > 0 {
			err := p.clock.Sleep(ctx, remaining)
			if err != nil {
				return err
			}
		}
	}
	p.last = p.clock.Now()
	p.started = true
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	res, err := c.http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %s", ErrUpstreamTimeout, err.Error())
		}
		return fmt.Errorf("fetch: %w", err)
	}

	switch {
	case res.StatusCode() == http.StatusOK:
	case res.StatusCode() == http.StatusBadRequest || res.StatusCode() == http.StatusNotFound:
		return fmt.Errorf("%w: %s", errBadRequest, res.Status())
	default:
		return fmt.Errorf("fetch: unexpected status %s", res.Status())
	}

	err = json.Unmarshal(res.Body(), out)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
