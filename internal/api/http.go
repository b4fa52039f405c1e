package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/agview/internal/domain"
	"github.com/zjrosen/agview/internal/log"
	"github.com/zjrosen/agview/internal/tracing"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// HTTPClient talks to the autograder REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) {
		h.httpClient = c
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTPClient) {
		if d > 0 {
			h.httpClient.Timeout = d
		}
	}
}

// WithToken sets the API token sent as "Authorization: Token <token>".
func WithToken(token string) HTTPOption {
	return func(h *HTTPClient) {
		h.token = token
	}
}

// NewHTTPClient creates a client rooted at baseURL (e.g. https://autograder.io/api).
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	h := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// do sends one request. in (when non-nil) is JSON encoded; out (when non-nil)
// receives the decoded body. Non-2xx responses become *domain.HTTPError.
func (h *HTTPClient) do(ctx context.Context, method, path string, query url.Values, in, out any) (int, error) {
	endpoint := h.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Token "+h.token)
	}

	start := time.Now()
	resp, err := h.httpClient.Do(req)
	if err != nil {
		log.ErrorErr(log.CatAPI, "Request failed", err, "method", method, "path", path, "request_id", requestID)
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int(tracing.AttrHTTPStatus, resp.StatusCode),
		attribute.String(tracing.AttrRequestID, requestID),
	)
	log.Debug(log.CatAPI, "Request done",
		"method", method, "path", path, "status", resp.StatusCode,
		"request_id", requestID, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// decodeError turns an error response into an HTTPError. The message is the
// server's "detail" field when present, else the raw body.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(raw))

	var detail struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &detail) == nil && detail.Detail != "" {
		msg = detail.Detail
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return domain.NewHTTPError(resp.StatusCode, msg)
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func (h *HTTPClient) ListSuites(ctx context.Context, projectID int64) ([]domain.Suite, error) {
	var suites []domain.Suite
	if _, err := h.do(ctx, http.MethodGet, "/projects/"+id(projectID)+"/ag_test_suites/", nil, nil, &suites); err != nil {
		return nil, err
	}
	return suites, nil
}

func (h *HTTPClient) CreateSuite(ctx context.Context, projectID int64, name string) (domain.Suite, error) {
	var s domain.Suite
	_, err := h.do(ctx, http.MethodPost, "/projects/"+id(projectID)+"/ag_test_suites/", nil,
		map[string]any{"name": name}, &s)
	return s, err
}

func (h *HTTPClient) UpdateSuite(ctx context.Context, suite domain.Suite) (domain.Suite, error) {
	var s domain.Suite
	_, err := h.do(ctx, http.MethodPatch, "/ag_test_suites/"+id(suite.ID)+"/", nil,
		map[string]any{"name": suite.Name}, &s)
	return s, err
}

func (h *HTTPClient) DeleteSuite(ctx context.Context, suite domain.Suite) error {
	_, err := h.do(ctx, http.MethodDelete, "/ag_test_suites/"+id(suite.ID)+"/", nil, nil, nil)
	return err
}

func (h *HTTPClient) CreateCase(ctx context.Context, suiteID int64, name string) (domain.Case, error) {
	var c domain.Case
	_, err := h.do(ctx, http.MethodPost, "/ag_test_suites/"+id(suiteID)+"/ag_test_cases/", nil,
		map[string]any{"name": name}, &c)
	return c, err
}

func (h *HTTPClient) CloneCase(ctx context.Context, src domain.Case, name string) (domain.Case, error) {
	var c domain.Case
	_, err := h.do(ctx, http.MethodPost, "/ag_test_cases/"+id(src.ID)+"/copy/", nil,
		map[string]any{"new_name": name}, &c)
	return c, err
}

func (h *HTTPClient) UpdateCase(ctx context.Context, in domain.Case) (domain.Case, error) {
	var c domain.Case
	_, err := h.do(ctx, http.MethodPatch, "/ag_test_cases/"+id(in.ID)+"/", nil,
		map[string]any{"name": in.Name}, &c)
	return c, err
}

func (h *HTTPClient) DeleteCase(ctx context.Context, c domain.Case) error {
	_, err := h.do(ctx, http.MethodDelete, "/ag_test_cases/"+id(c.ID)+"/", nil, nil, nil)
	return err
}

func (h *HTTPClient) CreateCommand(ctx context.Context, caseID int64, name, cmd string) (domain.Command, error) {
	var c domain.Command
	_, err := h.do(ctx, http.MethodPost, "/ag_test_cases/"+id(caseID)+"/ag_test_commands/", nil,
		map[string]any{"name": name, "cmd": cmd}, &c)
	return c, err
}

func (h *HTTPClient) UpdateCommand(ctx context.Context, in domain.Command) (domain.Command, error) {
	var c domain.Command
	_, err := h.do(ctx, http.MethodPatch, "/ag_test_commands/"+id(in.ID)+"/", nil,
		map[string]any{"name": in.Name, "cmd": in.Cmd}, &c)
	return c, err
}

func (h *HTTPClient) DeleteCommand(ctx context.Context, cmd domain.Command) error {
	_, err := h.do(ctx, http.MethodDelete, "/ag_test_commands/"+id(cmd.ID)+"/", nil, nil, nil)
	return err
}

func (h *HTTPClient) ListSummaries(ctx context.Context, projectID int64, pageNum, pageSize int) (domain.Page[domain.GroupSummary], error) {
	q := url.Values{}
	q.Set("page_num", strconv.Itoa(pageNum))
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	var page domain.Page[domain.GroupSummary]
	_, err := h.do(ctx, http.MethodGet, "/projects/"+id(projectID)+"/handgrading_results/", q, nil, &page)
	return page, err
}

func (h *HTTPClient) ListStaff(ctx context.Context, courseID int64) ([]domain.User, error) {
	var users []domain.User
	if _, err := h.do(ctx, http.MethodGet, "/courses/"+id(courseID)+"/staff/", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetOrCreateResult POSTs to the group's result endpoint. The server answers
// 201 when it created the result and 200 when one already existed.
func (h *HTTPClient) GetOrCreateResult(ctx context.Context, groupID int64) (domain.HandgradingResult, bool, error) {
	var r domain.HandgradingResult
	status, err := h.do(ctx, http.MethodPost, "/groups/"+id(groupID)+"/handgrading_result/", nil, map[string]any{}, &r)
	if err != nil {
		return r, false, err
	}
	return r, status == http.StatusCreated, nil
}

func (h *HTTPClient) UpdateResult(ctx context.Context, in domain.HandgradingResult) (domain.HandgradingResult, error) {
	var r domain.HandgradingResult
	_, err := h.do(ctx, http.MethodPatch, "/groups/"+id(in.GroupID)+"/handgrading_result/", nil,
		map[string]any{"finished_grading": in.FinishedGrading}, &r)
	return r, err
}

func (h *HTTPClient) SuiteResults(ctx context.Context, submissionID int64, category domain.FeedbackCategory) ([]domain.SuiteResultFeedback, error) {
	q := url.Values{}
	q.Set("feedback_category", string(category))
	var body struct {
		Suites []domain.SuiteResultFeedback `json:"ag_test_suite_results"`
	}
	if _, err := h.do(ctx, http.MethodGet, "/submissions/"+id(submissionID)+"/results/", q, nil, &body); err != nil {
		return nil, err
	}
	return body.Suites, nil
}

// SetupOutput fetches a setup stream. A 204 means the stream is empty or hidden.
func (h *HTTPClient) SetupOutput(ctx context.Context, submissionID, suiteResultID int64, stream domain.OutputStream, category domain.FeedbackCategory) (*string, error) {
	q := url.Values{}
	q.Set("feedback_category", string(category))
	path := fmt.Sprintf("/submissions/%d/ag_test_suite_results/%d/%s/", submissionID, suiteResultID, stream)

	var text *string
	if _, err := h.do(ctx, http.MethodGet, path, q, nil, &text); err != nil {
		return nil, err
	}
	return text, nil
}
