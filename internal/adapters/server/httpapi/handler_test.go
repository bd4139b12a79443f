package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hylla/tasklist/internal/adapters/server/common"
	"github.com/hylla/tasklist/internal/app"
	"github.com/hylla/tasklist/internal/app/apptest"
)

// newAppHandler wires the handler over a real service and fake repository.
func newAppHandler(t *testing.T) (*Handler, *apptest.FakeRepository) {
	t.Helper()
	repo := apptest.NewFakeRepository()
	next := 0
	svc := app.NewService(repo, func() string {
		next++
		return fmt.Sprintf("t%d", next)
	}, func() time.Time {
		return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	})
	return NewHandler(common.NewAppServiceAdapter(svc)), repo
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return out
}

func TestHandlerTaskLifecycle(t *testing.T) {
	handler, _ := newAppHandler(t)

	rec := serve(t, handler, http.MethodPost, "/tasks", `{"title":"Buy milk","description":"two litres"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	created := decode[common.Task](t, rec)
	if created.ID != "t1" || created.Title != "Buy milk" || created.Completed {
		t.Fatalf("unexpected created task %#v", created)
	}
	serve(t, handler, http.MethodPost, "/tasks/", `{"title":"Walk dog"}`)

	rec = serve(t, handler, http.MethodPost, "/tasks/t1/complete", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d (%s)", rec.Code, rec.Body.String())
	}
	if got := decode[common.Task](t, rec); !got.Completed {
		t.Fatalf("expected completed task, got %#v", got)
	}

	rec = serve(t, handler, http.MethodGet, "/tasks?filter=completed", "")
	list := decode[struct {
		Tasks []common.Task `json:"tasks"`
	}](t, rec)
	if len(list.Tasks) != 1 || list.Tasks[0].ID != "t1" {
		t.Fatalf("unexpected completed list %#v", list.Tasks)
	}

	rec = serve(t, handler, http.MethodGet, "/stats", "")
	stats := decode[common.Statistics](t, rec)
	if stats.Total != 2 || stats.Completed != 1 || stats.ActivePercent != 50 {
		t.Fatalf("unexpected stats %#v", stats)
	}

	rec = serve(t, handler, http.MethodPost, "/tasks/t1/activate", "")
	if got := decode[common.Task](t, rec); got.Completed {
		t.Fatalf("expected active task, got %#v", got)
	}
	serve(t, handler, http.MethodPost, "/tasks/t2/complete", "")

	rec = serve(t, handler, http.MethodPost, "/tasks/clear_completed", "")
	if got := decode[common.ClearCompletedResult](t, rec); got.Removed != 1 {
		t.Fatalf("unexpected clear result %#v", got)
	}

	rec = serve(t, handler, http.MethodGet, "/tasks/t1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if got := decode[common.Task](t, rec); got.Title != "Buy milk" {
		t.Fatalf("unexpected task %#v", got)
	}
}

func TestHandlerErrorMapping(t *testing.T) {
	handler, _ := newAppHandler(t)
	cases := []struct {
		name   string
		method string
		target string
		body   string
		status int
		code   string
	}{
		{"bad filter", http.MethodGet, "/tasks?filter=someday", "", http.StatusBadRequest, "invalid_request"},
		{"empty task", http.MethodPost, "/tasks", `{"title":"  "}`, http.StatusBadRequest, "invalid_request"},
		{"unknown field", http.MethodPost, "/tasks", `{"name":"x"}`, http.StatusBadRequest, "invalid_request"},
		{"trailing body", http.MethodPost, "/tasks", `{"title":"x"}{}`, http.StatusBadRequest, "invalid_request"},
		{"missing task", http.MethodGet, "/tasks/nope", "", http.StatusNotFound, "not_found"},
		{"complete missing", http.MethodPost, "/tasks/nope/complete", "", http.StatusNotFound, "not_found"},
		{"unknown action", http.MethodPost, "/tasks/t1/archive", "", http.StatusNotFound, "not_found"},
		{"unknown route", http.MethodGet, "/projects", "", http.StatusNotFound, "not_found"},
		{"wrong method", http.MethodDelete, "/tasks", "", http.StatusMethodNotAllowed, "method_not_allowed"},
		{"get on complete", http.MethodGet, "/tasks/t1/complete", "", http.StatusMethodNotAllowed, "method_not_allowed"},
		{"stats post", http.MethodPost, "/stats", "", http.StatusMethodNotAllowed, "method_not_allowed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, handler, tc.method, tc.target, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
			env := decode[ErrorEnvelope](t, rec)
			if env.Error.Code != tc.code {
				t.Fatalf("code = %q, want %q", env.Error.Code, tc.code)
			}
		})
	}
}

func TestHandlerMethodNotAllowedSetsAllow(t *testing.T) {
	handler, _ := newAppHandler(t)
	rec := serve(t, handler, http.MethodPut, "/tasks", "")
	if got := rec.Header().Get("Allow"); got != "GET, POST" {
		t.Fatalf("Allow = %q", got)
	}
}

func TestHandlerUpdateAndDeleteTask(t *testing.T) {
	handler, repo := newAppHandler(t)
	serve(t, handler, http.MethodPost, "/tasks", `{"title":"Buy milk"}`)

	rec := serve(t, handler, http.MethodPut, "/tasks/t1", `{"title":"Buy oat milk","description":"barista"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d (%s)", rec.Code, rec.Body.String())
	}
	if got := decode[common.Task](t, rec); got.ID != "t1" || got.Title != "Buy oat milk" || got.Description != "barista" {
		t.Fatalf("unexpected updated task %#v", got)
	}

	rec = serve(t, handler, http.MethodPut, "/tasks/t1", `{"title":" "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty update status = %d, want 400", rec.Code)
	}
	rec = serve(t, handler, http.MethodPut, "/tasks/t1", `{"id":"t9","title":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d, want 400", rec.Code)
	}
	rec = serve(t, handler, http.MethodPut, "/tasks/missing", `{"title":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing update status = %d, want 404", rec.Code)
	}

	rec = serve(t, handler, http.MethodDelete, "/tasks/t1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d (%s)", rec.Code, rec.Body.String())
	}
	if repo.Len() != 0 {
		t.Fatalf("expected task removed, got %d", repo.Len())
	}
	rec = serve(t, handler, http.MethodDelete, "/tasks/t1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}

	rec = serve(t, handler, http.MethodPatch, "/tasks/t1", "")
	if got := rec.Header().Get("Allow"); got != "GET, PUT, DELETE" {
		t.Fatalf("Allow = %q", got)
	}
}

// failingTasks returns err from every call.
type failingTasks struct {
	err error
}

func (f failingTasks) ListTasks(context.Context, common.ListTasksRequest) ([]common.Task, error) {
	return nil, f.err
}
func (f failingTasks) GetTask(context.Context, string) (common.Task, error) {
	return common.Task{}, f.err
}
func (f failingTasks) AddTask(context.Context, common.AddTaskRequest) (common.Task, error) {
	return common.Task{}, f.err
}
func (f failingTasks) UpdateTask(context.Context, common.UpdateTaskRequest) (common.Task, error) {
	return common.Task{}, f.err
}
func (f failingTasks) DeleteTask(context.Context, string) error {
	return f.err
}
func (f failingTasks) CompleteTask(context.Context, string) (common.Task, error) {
	return common.Task{}, f.err
}
func (f failingTasks) ActivateTask(context.Context, string) (common.Task, error) {
	return common.Task{}, f.err
}
func (f failingTasks) ClearCompletedTasks(context.Context) (common.ClearCompletedResult, error) {
	return common.ClearCompletedResult{}, f.err
}
func (f failingTasks) Statistics(context.Context) (common.Statistics, error) {
	return common.Statistics{}, f.err
}

func TestHandlerServiceErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
		{fmt.Errorf("wrapped: %w", common.ErrServiceUnavailable), http.StatusServiceUnavailable, "service_unavailable"},
	}
	for _, tc := range cases {
		rec := serve(t, NewHandler(failingTasks{err: tc.err}), http.MethodGet, "/stats", "")
		if rec.Code != tc.status {
			t.Fatalf("status = %d, want %d", rec.Code, tc.status)
		}
		if env := decode[ErrorEnvelope](t, rec); env.Error.Code != tc.code {
			t.Fatalf("code = %q, want %q", env.Error.Code, tc.code)
		}
	}

	rec := serve(t, NewHandler(nil), http.MethodGet, "/tasks", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d for unconfigured handler", rec.Code)
	}
}

func TestHandlerLoadErrorIsInternal(t *testing.T) {
	handler, repo := newAppHandler(t)
	repo.SetReturnError(true)
	rec := serve(t, handler, http.MethodGet, "/tasks", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if env := decode[ErrorEnvelope](t, rec); !strings.Contains(env.Error.Message, apptest.ErrFetchTasks.Error()) {
		t.Fatalf("message = %q", env.Error.Message)
	}
}
