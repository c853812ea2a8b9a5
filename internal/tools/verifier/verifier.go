// Package verifier checks a running service against a contract set: it sends
// generated requests and validates what comes back.
package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/krateoplatformops/provider-runtime/pkg/logging"

	"github.com/krateoplatformops/oascontracts/internal/tools/contracts"
	"github.com/krateoplatformops/oascontracts/internal/tools/datatypes"
	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

// Config holds the settings of a verification run.
type Config struct {
	// BaseURL is prepended to every contract path.
	BaseURL string
	Client  *http.Client
	// Attempts and Delay drive the retries of requests that fail before a
	// response is received.
	Attempts uint
	Delay    time.Duration
	// StatusHeader, when set, is sent with the status of the contract under
	// test so that every contract can be verified, not only the one the
	// service picks. The mock server honors it.
	StatusHeader string
	// Header is added to every request.
	Header http.Header
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig(baseURL string) *Config {
	return &Config{
		BaseURL:  baseURL,
		Client:   &http.Client{Timeout: 30 * time.Second},
		Attempts: 3,
		Delay:    500 * time.Millisecond,
	}
}

// Outcome is the verdict on one request.
type Outcome struct {
	// Contract is the contract the response was checked against. It is empty
	// when the status is not declared by the operation.
	Contract string
	Method   string
	Path     string
	Status   int
	Errors   []string
}

// Passed reports whether the response satisfied its contract.
func (o Outcome) Passed() bool {
	return len(o.Errors) == 0
}

// Report collects the outcomes of a run in contract order.
type Report struct {
	Outcomes []Outcome
}

// Failed returns the number of outcomes with errors.
func (r *Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Passed() {
			n++
		}
	}
	return n
}

// Verifier sends requests built from contracts.
type Verifier struct {
	cfg *Config
	log logging.Logger
}

// New returns a Verifier. A nil cfg.Client uses http.DefaultClient.
func New(cfg *Config, log logging.Logger) *Verifier {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 1
	}
	return &Verifier{cfg: cfg, log: log}
}

// Verify checks set against the service. Without a StatusHeader one request
// is sent per operation and the response is checked against the contract
// declaring its status. With a StatusHeader every contract gets a request.
func (v *Verifier) Verify(ctx context.Context, set *contracts.Set) *Report {
	report := &Report{}
	seen := map[string]bool{}
	for _, c := range set.Contracts {
		if v.cfg.StatusHeader == "" {
			key := c.Method + " " + c.Path
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		o := v.verify(ctx, c, set.ForOperation(c.Path, c.Method))
		if o.Passed() {
			v.log.Debug("Contract verified", "method", o.Method, "path", o.Path, "status", o.Status)
		} else {
			v.log.Info("Contract violated", "method", o.Method, "path", o.Path, "status", o.Status, "errors", strings.Join(o.Errors, "; "))
		}
		report.Outcomes = append(report.Outcomes, o)
	}
	return report
}

func (v *Verifier) verify(ctx context.Context, c contracts.Contract, candidates []contracts.Contract) Outcome {
	out := Outcome{Method: c.Method, Path: c.Path}

	status, header, body, err := v.send(ctx, c)
	if err != nil {
		out.Errors = []string{err.Error()}
		return out
	}
	out.Status = status

	if v.cfg.StatusHeader != "" && status != c.StatusCode {
		out.Errors = []string{fmt.Sprintf("expected status %d but was %d", c.StatusCode, status)}
		return out
	}
	expected, ok := match(candidates, status, header.Get("Content-Type"))
	if v.cfg.StatusHeader != "" {
		expected = c
	}
	if !ok {
		out.Errors = []string{fmt.Sprintf("status %d is not declared by the operation", status)}
		return out
	}
	out.Contract = expected.Name
	out.Errors = check(expected, header, body).Messages()
	return out
}

// match finds the contract declaring status, preferring the one whose media
// type is the content type of the response.
func match(candidates []contracts.Contract, status int, contentType string) (contracts.Contract, bool) {
	var found []contracts.Contract
	for _, c := range candidates {
		if c.StatusCode == status {
			found = append(found, c)
		}
	}
	if len(found) == 0 {
		return contracts.Contract{}, false
	}
	mt := mediaType(contentType)
	for _, c := range found {
		if c.Response != nil && mediaType(c.Response.MediaType) == mt {
			return c, true
		}
	}
	return found[0], true
}

func check(c contracts.Contract, header http.Header, body []byte) result.Result[any] {
	if c.Response == nil {
		if len(bytes.TrimSpace(body)) > 0 {
			return result.FailureAtProperty[any]("body", "expected no content")
		}
		return result.Success[any](nil)
	}
	if got := mediaType(header.Get("Content-Type")); got != mediaType(c.Response.MediaType) {
		return result.FailureAtProperty[any]("Content-Type", fmt.Sprintf("expected '%s' but was '%s'", mediaType(c.Response.MediaType), got))
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return result.FailureAtProperty[any]("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	return c.Response.Type.Validate(v).ForProperty("body")
}

// send performs the request of c. Only failures to get a response are
// retried; any status is an answer.
func (v *Verifier) send(ctx context.Context, c contracts.Contract) (status int, header http.Header, body []byte, err error) {
	payload, err := requestBody(c)
	if err != nil {
		return 0, nil, nil, err
	}

	err = retry.Do(
		func() error {
			req, err := v.request(ctx, c, payload)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := v.cfg.Client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}
			status, header = resp.StatusCode, resp.Header
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(v.cfg.Attempts),
		retry.Delay(v.cfg.Delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			v.log.Debug("Retrying request", "method", c.Method, "path", c.Path, "attempt", n+1, "error", err.Error())
		}),
	)
	return status, header, body, err
}

func (v *Verifier) request(ctx context.Context, c contracts.Contract, payload []byte) (*http.Request, error) {
	path := c.Path
	query := url.Values{}
	header := http.Header{}
	var cookies []*http.Cookie
	for _, p := range c.Parameters {
		if !p.Required {
			continue
		}
		raw := contracts.Format(p.Type.RandomValue())
		switch p.In {
		case contracts.InPath:
			path = strings.ReplaceAll(path, "{"+p.Name+"}", url.PathEscape(segment(p.Type, raw)))
		case contracts.InQuery:
			query.Set(p.Name, raw)
		case contracts.InHeader:
			header.Set(p.Name, raw)
		case contracts.InCookie:
			cookies = append(cookies, &http.Cookie{Name: p.Name, Value: raw})
		}
	}

	target := strings.TrimSuffix(v.cfg.BaseURL, "/") + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, c.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range v.cfg.Header {
		for _, val := range vs {
			req.Header.Add(k, val)
		}
	}
	for k, vs := range header {
		req.Header[k] = vs
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	if payload != nil {
		req.Header.Set("Content-Type", c.RequestBody.MediaType)
	}
	if c.Response != nil {
		req.Header.Set("Accept", c.Response.MediaType)
	}
	if v.cfg.StatusHeader != "" {
		req.Header.Set(v.cfg.StatusHeader, strconv.Itoa(c.StatusCode))
	}
	return req, nil
}

// segment avoids empty path segments, which would not route.
func segment(dt datatypes.DataType, raw string) string {
	for i := 0; raw == "" && i < 10; i++ {
		raw = contracts.Format(dt.RandomValue())
	}
	return raw
}

func requestBody(c contracts.Contract) ([]byte, error) {
	if c.RequestBody == nil {
		return nil, nil
	}
	b, err := json.Marshal(datatypes.Plain(c.RequestBody.Type.RandomValue()))
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return b, nil
}

func mediaType(mt string) string {
	mt, _, _ = strings.Cut(mt, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
