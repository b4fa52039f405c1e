package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/agview/internal/domain"
)

type recorded struct {
	method string
	path   string
	query  string
	body   map[string]any
	header http.Header
}

func newServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*HTTPClient, *[]recorded) {
	t.Helper()
	var reqs []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, header: r.Header.Clone()}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			require.NoError(t, json.Unmarshal(data, &rec.body))
		}
		reqs = append(reqs, rec)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/api/", WithToken("secret")), &reqs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestHTTPClient_ListSuitesWithChildren(t *testing.T) {
	client, reqs := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"pk": 1, "project": 3, "name": "S1",
			"ag_test_cases": [{"pk": 2, "ag_test_suite": 1, "name": "C1",
				"ag_test_commands": [{"pk": 3, "ag_test_case": 2, "name": "Cmd1", "cmd": "true"}]}]}]`)
	})

	suites, err := client.ListSuites(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, suites, 1)
	require.Equal(t, "Cmd1", suites[0].Cases[0].Commands[0].Name)

	got := (*reqs)[0]
	require.Equal(t, http.MethodGet, got.method)
	require.Equal(t, "/api/projects/3/ag_test_suites/", got.path)
	require.Equal(t, "Token secret", got.header.Get("Authorization"))
	_, err = uuid.Parse(got.header.Get("X-Request-ID"))
	require.NoError(t, err)
}

func TestHTTPClient_Mutations(t *testing.T) {
	client, reqs := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPost:
			writeJSON(w, http.StatusCreated, map[string]any{"pk": 10, "ag_test_suite": 1, "ag_test_case": 2, "name": "new"})
		default:
			writeJSON(w, http.StatusOK, map[string]any{"pk": 10, "name": "renamed"})
		}
	})
	ctx := context.Background()

	c, err := client.CreateCase(ctx, 1, "new")
	require.NoError(t, err)
	require.Equal(t, domain.Case{ID: 10, SuiteID: 1, Name: "new"}, c)

	cmd, err := client.CreateCommand(ctx, 2, "new", "make test")
	require.NoError(t, err)
	require.Equal(t, int64(2), cmd.CaseID)

	_, err = client.CloneCase(ctx, domain.Case{ID: 2}, "copy")
	require.NoError(t, err)

	s, err := client.UpdateSuite(ctx, domain.Suite{ID: 10, Name: "renamed"})
	require.NoError(t, err)
	require.Equal(t, "renamed", s.Name)

	require.NoError(t, client.DeleteCommand(ctx, domain.Command{ID: 3}))

	require.Len(t, *reqs, 5)
	require.Equal(t, "/api/ag_test_suites/1/ag_test_cases/", (*reqs)[0].path)
	require.Equal(t, "new", (*reqs)[0].body["name"])
	require.Equal(t, "make test", (*reqs)[1].body["cmd"])
	require.Equal(t, "/api/ag_test_cases/2/copy/", (*reqs)[2].path)
	require.Equal(t, "copy", (*reqs)[2].body["new_name"])
	require.Equal(t, http.MethodPatch, (*reqs)[3].method)
	require.Equal(t, "application/json", (*reqs)[3].header.Get("Content-Type"))
	require.Equal(t, "/api/ag_test_commands/3/", (*reqs)[4].path)
}

func TestHTTPClient_ErrorsBecomeHTTPError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"detail field", http.StatusForbidden, `{"detail": "You do not have permission."}`, "You do not have permission."},
		{"raw body", http.StatusBadRequest, `{"name": ["This field is required."]}`, `{"name": ["This field is required."]}`},
		{"empty body", http.StatusNotFound, ``, "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			err := client.DeleteSuite(context.Background(), domain.Suite{ID: 1})
			var httpErr *domain.HTTPError
			require.True(t, errors.As(err, &httpErr))
			require.Equal(t, tt.status, httpErr.StatusCode)
			require.Equal(t, tt.wantMsg, httpErr.Message)
		})
	}
}

func TestHTTPClient_ListSummariesPaging(t *testing.T) {
	client, reqs := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"count": 3, "next": "http://x/?page_num=2", "previous": null,
			"results": [{"pk": 1, "member_names": ["a"], "num_submissions": 1, "handgrading_result": null}]}`)
	})

	page, err := client.ListSummaries(context.Background(), 4, 1, 50)
	require.NoError(t, err)
	require.True(t, page.HasNext())
	require.Equal(t, 3, page.Count)
	require.Equal(t, domain.StatusUngraded, page.Results[0].Status())
	require.Equal(t, "/api/projects/4/handgrading_results/", (*reqs)[0].path)
	require.Equal(t, "page_num=1&page_size=50", (*reqs)[0].query)
}

func TestHTTPClient_GetOrCreateResult(t *testing.T) {
	status := http.StatusCreated
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, map[string]any{"pk": 8, "group": 5})
	})

	r, created, err := client.GetOrCreateResult(context.Background(), 5)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, int64(5), r.GroupID)

	status = http.StatusOK
	_, created, err = client.GetOrCreateResult(context.Background(), 5)
	require.NoError(t, err)
	require.False(t, created)
}

func TestHTTPClient_SetupOutput(t *testing.T) {
	client, reqs := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/submissions/1/ag_test_suite_results/2/stderr/" {
			_, _ = io.WriteString(w, `null`)
			return
		}
		_, _ = io.WriteString(w, `"make: ok\n"`)
	})
	ctx := context.Background()

	out, err := client.SetupOutput(ctx, 1, 2, domain.StreamStdout, domain.FeedbackStaffViewer)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Equal(t, "make: ok\n", *out)
	require.Equal(t, "feedback_category=staff_viewer", (*reqs)[0].query)

	out, err = client.SetupOutput(ctx, 1, 2, domain.StreamStderr, domain.FeedbackStaffViewer)
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestHTTPClient_SuiteResults(t *testing.T) {
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ag_test_suite_results": [{"pk": 2, "ag_test_suite_name": "S",
			"setup_name": "build", "setup_return_code": 0,
			"fdbk_settings": {"show_setup_stdout": true}}]}`)
	})

	results, err := client.SuiteResults(context.Background(), 1, domain.FeedbackMax)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].FeedbackSettings.ShowSetupStdout)
	require.NotNil(t, results[0].SetupReturnCode)
}

func TestHTTPClient_ContextCancelled(t *testing.T) {
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.ListStaff(ctx, 1)
	require.Error(t, err)
	require.Zero(t, domain.StatusCode(err))
}
