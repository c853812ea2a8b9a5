// Package mockserver serves the responses of a contract set over HTTP,
// rejecting requests that do not satisfy the contracts.
package mockserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-chi/chi/v5"
	"github.com/krateoplatformops/provider-runtime/pkg/logging"

	"github.com/krateoplatformops/oascontracts/internal/tools/contracts"
	"github.com/krateoplatformops/oascontracts/internal/tools/result"
)

const (
	// MetricsPath is where the server exposes its Prometheus metrics.
	MetricsPath = "/_mock/metrics"
	// StatusHeader selects the response status among the contracts of an
	// operation.
	StatusHeader = "X-Mock-Status"
)

// ErrorBody is the JSON body of rejected requests.
type ErrorBody struct {
	Errors []string `json:"errors"`
}

// Server answers requests with the examples or generated values of the
// contract they match.
type Server struct {
	log     logging.Logger
	router  chi.Router
	metrics *metrics
}

// New builds a Server for set. It fails when two paths of the set cannot be
// routed side by side.
func New(set *contracts.Set, log logging.Logger) (srv *Server, err error) {
	s := &Server{log: log, metrics: newMetrics()}

	r := chi.NewRouter()
	r.Use(s.metrics.middleware)
	r.Handle(MetricsPath, s.metrics.handler())
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorBody{Errors: []string{fmt.Sprintf("no operation matches %s %s", r.Method, r.URL.Path)}})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorBody{Errors: []string{fmt.Sprintf("method %s is not allowed on %s", r.Method, r.URL.Path)}})
	})

	// chi panics on patterns it cannot route
	defer func() {
		if rec := recover(); rec != nil {
			srv, err = nil, fmt.Errorf("failed to build routes: %v", rec)
		}
	}()
	for _, op := range operations(set) {
		r.MethodFunc(op.method, op.path, s.handle(op))
		log.Debug("Route registered", "method", op.method, "path", op.path, "contracts", len(op.contracts))
	}
	s.router = r
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type operation struct {
	path      string
	method    string
	contracts []contracts.Contract
}

// operations groups contracts by path and method. Within an operation the
// 2xx contracts come first, each group by ascending status.
func operations(set *contracts.Set) []operation {
	var out []operation
	index := map[string]int{}
	for _, c := range set.Contracts {
		key := c.Method + " " + c.Path
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, operation{path: c.Path, method: c.Method})
		}
		out[i].contracts = append(out[i].contracts, c)
	}
	for _, op := range out {
		sort.SliceStable(op.contracts, func(i, j int) bool {
			a, b := op.contracts[i], op.contracts[j]
			if a.Success() != b.Success() {
				return a.Success()
			}
			return a.StatusCode < b.StatusCode
		})
	}
	return out
}

func (s *Server) handle(op operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithValues("method", op.method, "path", op.path)

		body, present, err := readBody(r)
		if err != nil {
			s.reject(w, op, log, []string{"body: " + err.Error()})
			return
		}
		// contracts of one operation share their request
		if res := validateRequest(op.contracts[0], r, body, present); res.IsFailure() {
			log.Debug("Request rejected", "errors", res.Messages(), "body", dump{body})
			s.reject(w, op, log, res.Messages())
			return
		}

		c, err := selectContract(op.contracts, r)
		if err != nil {
			s.reject(w, op, log, []string{err.Error()})
			return
		}
		log.Debug("Request matched", "contract", c.Name, "status", c.StatusCode)
		if c.Response == nil {
			w.WriteHeader(c.StatusCode)
			return
		}
		w.Header().Set("Content-Type", c.Response.MediaType)
		writeJSON(w, c.StatusCode, c.Sample())
	}
}

func (s *Server) reject(w http.ResponseWriter, op operation, log logging.Logger, errs []string) {
	s.metrics.rejectedTotal.WithLabelValues(op.method, op.path).Inc()
	log.Info("Request does not satisfy the contract", "errors", strings.Join(errs, "; "))
	writeJSON(w, http.StatusBadRequest, ErrorBody{Errors: errs})
}

// selectContract picks the response: the status requested through
// StatusHeader, otherwise the first contract whose media type the client
// accepts.
func selectContract(candidates []contracts.Contract, r *http.Request) (contracts.Contract, error) {
	if raw := r.Header.Get(StatusHeader); raw != "" {
		code, err := strconv.Atoi(raw)
		if err != nil {
			return contracts.Contract{}, fmt.Errorf("%s: '%s' is not a status code", StatusHeader, raw)
		}
		for _, c := range candidates {
			if c.StatusCode == code && accepts(r, c) {
				return c, nil
			}
		}
		return contracts.Contract{}, fmt.Errorf("%s: no response with status %d", StatusHeader, code)
	}
	for _, c := range candidates {
		if accepts(r, c) {
			return c, nil
		}
	}
	return candidates[0], nil
}

func accepts(r *http.Request, c contracts.Contract) bool {
	accept := r.Header.Get("Accept")
	if accept == "" || c.Response == nil {
		return true
	}
	want, _, err := mime.ParseMediaType(c.Response.MediaType)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(accept, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if mt == "*/*" || mt == want || (strings.HasSuffix(mt, "/*") && strings.HasPrefix(want, strings.TrimSuffix(mt, "*"))) {
			return true
		}
	}
	return false
}

// readBody decodes a JSON request body. Numbers are kept as json.Number so
// that large integers survive. present is false for an empty body.
func readBody(r *http.Request) (v any, present bool, err error) {
	if r.Body == nil {
		return nil, false, nil
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, false, fmt.Errorf("invalid JSON: %w", err)
	}
	return v, true, nil
}

func validateRequest(c contracts.Contract, r *http.Request, body any, hasBody bool) result.Result[any] {
	res := result.Success[any](nil)
	query := r.URL.Query()
	for _, p := range c.Parameters {
		raw, present := "", false
		switch p.In {
		case contracts.InPath:
			raw = chi.URLParam(r, p.Name)
			present = raw != ""
		case contracts.InQuery:
			var values []string
			values, present = query[p.Name]
			raw = strings.Join(values, ",")
		case contracts.InHeader:
			raw = r.Header.Get(p.Name)
			present = raw != ""
		case contracts.InCookie:
			if ck, err := r.Cookie(p.Name); err == nil {
				raw, present = ck.Value, true
			}
		}
		var checked result.Result[any]
		switch {
		case !present && p.Required:
			checked = result.Failure[any]("is required")
		case !present:
			continue
		default:
			checked = p.Type.Validate(contracts.Coerce(p.Type, raw))
		}
		res = res.CombineWith(checked.ForProperty(p.Name).ForProperty(p.In))
	}

	if c.RequestBody != nil {
		switch {
		case !hasBody && c.RequestBody.Required:
			res = res.CombineWith(result.FailureAtProperty[any]("body", "is required"))
		case hasBody:
			res = res.CombineWith(c.RequestBody.Type.Validate(body).ForProperty("body"))
		}
	}
	return res
}

// dump renders a value with spew when the log entry is written, not when it
// is logged.
type dump struct {
	v any
}

func (d dump) String() string {
	return spew.Sdump(d.v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
