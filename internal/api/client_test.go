package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/scribeworks/scribe/internal/shared"
	tu "github.com/scribeworks/scribe/internal/testing"
	"github.com/scribeworks/scribe/internal/tokens"
)

func newTestClient(rt http.RoundTripper, store tokens.Store) *Client {
	return NewClient(Options{
		BaseURL:    "http://backend.test",
		HTTPClient: &http.Client{Transport: rt},
		Tokens:     store,
		Logger:     shared.NewLogger(io.Discard),
	})
}

func storeWith(t *testing.T, access, refresh string) tokens.Store {
	t.Helper()
	store := tokens.NewMemoryStore()
	if err := store.Save(tokens.TokenPair{Access: access, Refresh: refresh}); err != nil {
		t.Fatalf("failed to seed token store: %v", err)
	}
	return store
}

func TestClient(t *testing.T) {
	t.Run("Response Normalization", func(t *testing.T) {
		t.Run("204 With Empty Body Is Empty", func(t *testing.T) {
			rt := tu.NewScriptedRoundTripper().Add(&http.Response{
				StatusCode: http.StatusNoContent,
				Header:     http.Header{},
				Body:       io.NopCloser(strings.NewReader("")),
			}, nil)

			resp, err := newTestClient(rt, nil).Raw(context.Background(), "GET", "/thing/", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.Empty {
				t.Error("expected empty response")
			}
		})

		t.Run("200 With Empty Body Is Empty", func(t *testing.T) {
			rt := tu.NewScriptedRoundTripper().Add(tu.JSONResponse(http.StatusOK, ""), nil)

			resp, err := newTestClient(rt, nil).Raw(context.Background(), "GET", "/thing/", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.Empty {
				t.Error("expected empty response")
			}
		})

		t.Run("200 With JSON Body Is Parsed", func(t *testing.T) {
			rt := tu.NewScriptedRoundTripper().Add(tu.JSONResponse(http.StatusOK, `{"id": 42}`), nil)

			resp, err := newTestClient(rt, nil).Raw(context.Background(), "GET", "/thing/", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.JSON == nil {
				t.Fatal("expected JSON body")
			}

			var data map[string]int
			if err := json.Unmarshal(resp.JSON, &data); err != nil {
				t.Fatalf("failed to unmarshal body: %v", err)
			}
			if data["id"] != 42 {
				t.Errorf("expected id 42, got %d", data["id"])
			}
		})

		t.Run("200 With Text Body Is Text", func(t *testing.T) {
			rt := tu.NewScriptedRoundTripper().Add(tu.TextResponse(http.StatusOK, "pong"), nil)

			resp, err := newTestClient(rt, nil).Raw(context.Background(), "GET", "/ping/", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.Text != "pong" {
				t.Errorf("expected text 'pong', got %q", resp.Text)
			}
			if resp.JSON != nil || resp.Empty {
				t.Error("expected a text-only response")
			}
		})

		t.Run("JSON Content Type With Garbage Body Fails", func(t *testing.T) {
			rt := tu.NewScriptedRoundTripper().Add(tu.JSONResponse(http.StatusOK, "{not json"), nil)

			_, err := newTestClient(rt, nil).Raw(context.Background(), "GET", "/thing/", nil)
			if err == nil {
				t.Fatal("expected error for invalid JSON")
			}
			if !strings.Contains(err.Error(), "invalid server response") {
				t.Errorf("expected 'invalid server response', got %v", err)
			}
		})

		t.Run("Error Body Detail Field Becomes Message", func(t *testing.T) {
			rt := tu.NewScriptedRoundTripper().Add(tu.JSONResponse(http.StatusBadRequest, `{"detail": "email already in use"}`), nil)

			_, err := newTestClient(rt, nil).Raw(context.Background(), "POST", "/thing/", nil)
			if err == nil {
				t.Fatal("expected error for 400 response")
			}

			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if apiErr.Message != "email already in use" {
				t.Errorf("expected message 'email already in use', got %q", apiErr.Message)
			}
			if apiErr.Kind != KindValidation {
				t.Errorf("expected validation kind, got %v", apiErr.Kind)
			}
		})

		t.Run("Error Body Field Precedence", func(t *testing.T) {
			cases := []struct {
				name string
				body string
				want string
			}{
				{"Detail Wins Over Error", `{"detail": "d", "error": "e", "message": "m"}`, "d"},
				{"Error Wins Over Message", `{"error": "e", "message": "m"}`, "e"},
				{"Message As Last Resort", `{"message": "m"}`, "m"},
			}

			for _, tc := range cases {
				t.Run(tc.name, func(t *testing.T) {
					rt := tu.NewScriptedRoundTripper().Add(tu.JSONResponse(http.StatusBadRequest, tc.body), nil)

					_, err := newTestClient(rt, nil).Raw(context.Background(), "POST", "/thing/", nil)
					var apiErr *Error
					if !errors.As(err, &apiErr) {
						t.Fatalf("expected *Error, got %v", err)
					}
					if apiErr.Message != tc.want {
						t.Errorf("expected message %q, got %q", tc.want, apiErr.Message)
					}
				})
			}
		})

		t.Run("Non JSON Error Body Falls Back To Raw Text", func(t *testing.T) {
			rt := tu.NewScriptedRoundTripper().Add(tu.TextResponse(http.StatusBadGateway, "upstream exploded"), nil)

			_, err := newTestClient(rt, nil).Raw(context.Background(), "GET", "/thing/", nil)
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if apiErr.Message != "upstream exploded" {
				t.Errorf("expected raw body as message, got %q", apiErr.Message)
			}
		})

		t.Run("Transport Failure Is Tagged", func(t *testing.T) {
			rt := tu.NewScriptedRoundTripper().Add(nil, errors.New("connection refused"))

			_, err := newTestClient(rt, nil).Raw(context.Background(), "GET", "/thing/", nil)
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if apiErr.Kind != KindTransport {
				t.Errorf("expected transport kind, got %v", apiErr.Kind)
			}
			if !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected wrapped transport message, got %v", err)
			}
		})
	})

	t.Run("Headers", func(t *testing.T) {
		t.Run("Defaults To JSON Content Type With Request ID", func(t *testing.T) {
			rt := tu.NewScriptedRoundTripper().Add(tu.JSONResponse(http.StatusOK, `{}`), nil)

			if _, err := newTestClient(rt, nil).Raw(context.Background(), "GET", "/thing/", nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			req := rt.Requests[0]
			if req.Header.Get("Content-Type") != "application/json" {
				t.Errorf("expected JSON content type, got %q", req.Header.Get("Content-Type"))
			}
			if req.Header.Get("X-Request-ID") == "" {
				t.Error("expected a request ID header")
			}
		})

		t.Run("Custom Header Overrides JSON Default", func(t *testing.T) {
			rt := tu.NewScriptedRoundTripper().Add(tu.JSONResponse(http.StatusOK, `{}`), nil)

			_, err := newTestClient(rt, nil).Raw(context.Background(), "POST", "/upload/", []byte("blob"),
				WithHeader("Content-Type", "multipart/form-data; boundary=x"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			got := rt.Requests[0].Header.Get("Content-Type")
			if got != "multipart/form-data; boundary=x" {
				t.Errorf("expected multipart content type, got %q", got)
			}
		})

		t.Run("Attaches Bearer When Token Stored", func(t *testing.T) {
			rt := tu.NewScriptedRoundTripper().Add(tu.JSONResponse(http.StatusOK, `{}`), nil)
			store := storeWith(t, "access-token", "refresh-token")

			if _, err := newTestClient(rt, store).Raw(context.Background(), "GET", "/thing/", nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if got := rt.Requests[0].Header.Get("Authorization"); got != "Bearer access-token" {
				t.Errorf("expected bearer header, got %q", got)
			}
		})

		t.Run("No Bearer When Store Empty", func(t *testing.T) {
			rt := tu.NewScriptedRoundTripper().Add(tu.JSONResponse(http.StatusOK, `{}`), nil)

			if _, err := newTestClient(rt, nil).Raw(context.Background(), "GET", "/thing/", nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if got := rt.Requests[0].Header.Get("Authorization"); got != "" {
				t.Errorf("expected no authorization header, got %q", got)
			}
		})
	})

	t.Run("Decode", func(t *testing.T) {
		t.Run("Into Struct", func(t *testing.T) {
			rt := tu.NewScriptedRoundTripper().Add(tu.JSONResponse(http.StatusOK, `{"name": "meeting notes"}`), nil)

			var out struct {
				Name string `json:"name"`
			}
			if err := newTestClient(rt, nil).Get(context.Background(), "/thing/", &out); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if out.Name != "meeting notes" {
				t.Errorf("expected decoded name, got %q", out.Name)
			}
		})

		t.Run("Into String For Text Responses", func(t *testing.T) {
			rt := tu.NewScriptedRoundTripper().Add(tu.TextResponse(http.StatusOK, "ok"), nil)

			var out string
			if err := newTestClient(rt, nil).Get(context.Background(), "/ping/", &out); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if out != "ok" {
				t.Errorf("expected 'ok', got %q", out)
			}
		})

		t.Run("Empty Response Leaves Output Untouched", func(t *testing.T) {
			rt := tu.NewScriptedRoundTripper().Add(&http.Response{
				StatusCode: http.StatusNoContent,
				Header:     http.Header{},
				Body:       io.NopCloser(strings.NewReader("")),
			}, nil)

			out := map[string]string{"keep": "me"}
			if err := newTestClient(rt, nil).Get(context.Background(), "/thing/", &out); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if out["keep"] != "me" {
				t.Error("expected output to be untouched for empty responses")
			}
		})
	})

	t.Run("Encode", func(t *testing.T) {
		t.Run("Unmarshalable Body Fails Before Sending", func(t *testing.T) {
			rt := tu.NewScriptedRoundTripper()

			err := newTestClient(rt, nil).Post(context.Background(), "/thing/", map[string]any{"ch": make(chan int)}, nil)
			if err == nil {
				t.Fatal("expected error for unmarshalable body")
			}

			var apiErr *Error
			if !errors.As(err, &apiErr) || apiErr.Kind != KindDecode {
				t.Errorf("expected a decode-tagged error, got %v", err)
			}
			if rt.Calls() != 0 {
				t.Errorf("expected no HTTP calls, got %d", rt.Calls())
			}
		})

		t.Run("Raw Bytes Pass Through Untouched", func(t *testing.T) {
			rt := tu.NewScriptedRoundTripper().Add(tu.JSONResponse(http.StatusOK, `{"ok": true}`), nil)

			if _, err := newTestClient(rt, nil).Raw(context.Background(), "POST", "/thing/", []byte("raw payload")); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			body, err := io.ReadAll(rt.Requests[0].Body)
			if err != nil {
				t.Fatalf("failed to read recorded body: %v", err)
			}
			if string(body) != "raw payload" {
				t.Errorf("expected raw payload to pass through, got %q", body)
			}
		})
	})
}

func TestRefreshAndReplay(t *testing.T) {
	t.Run("Replays Exactly Once After Refresh", func(t *testing.T) {
		rt := tu.NewScriptedRoundTripper().
			Add(tu.JSONResponse(http.StatusUnauthorized, `{"detail": "token expired"}`), nil).
			Add(tu.JSONResponse(http.StatusOK, `{"access": "fresh-access", "refresh": "fresh-refresh"}`), nil).
			Add(tu.JSONResponse(http.StatusOK, `{"id": 1}`), nil)
		store := storeWith(t, "stale-access", "old-refresh")

		client := newTestClient(rt, store)
		resp, err := client.Raw(context.Background(), "GET", "/protected/", nil)
		if err != nil {
			t.Fatalf("expected replay to succeed, got %v", err)
		}
		if resp.JSON == nil {
			t.Error("expected JSON body from the replay")
		}

		if rt.Calls() != 3 {
			t.Fatalf("expected 3 HTTP calls (original, refresh, replay), got %d", rt.Calls())
		}
		if rt.Requests[1].URL.Path != "/auth/refresh/" {
			t.Errorf("expected second call to hit the refresh endpoint, got %s", rt.Requests[1].URL.Path)
		}
		if rt.Requests[1].Header.Get("Authorization") != "" {
			t.Error("refresh call must not attach the expired access token")
		}
		if got := rt.Requests[2].Header.Get("Authorization"); got != "Bearer fresh-access" {
			t.Errorf("expected replay to carry the new token, got %q", got)
		}

		pair, ok := store.Pair()
		if !ok || pair.Access != "fresh-access" || pair.Refresh != "fresh-refresh" {
			t.Errorf("expected rotated tokens in store, got %+v", pair)
		}
	})

	t.Run("Missing Rotated Refresh Token Retains Old One", func(t *testing.T) {
		rt := tu.NewScriptedRoundTripper().
			Add(tu.JSONResponse(http.StatusUnauthorized, `{"detail": "token expired"}`), nil).
			Add(tu.JSONResponse(http.StatusOK, `{"access": "fresh-access"}`), nil).
			Add(tu.JSONResponse(http.StatusOK, `{}`), nil)
		store := storeWith(t, "stale-access", "old-refresh")

		if _, err := newTestClient(rt, store).Raw(context.Background(), "GET", "/protected/", nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		pair, _ := store.Pair()
		if pair.Refresh != "old-refresh" {
			t.Errorf("expected old refresh token to be retained, got %q", pair.Refresh)
		}
	})

	t.Run("401 On Replay Propagates Without Second Refresh", func(t *testing.T) {
		rt := tu.NewScriptedRoundTripper().
			Add(tu.JSONResponse(http.StatusUnauthorized, `{"detail": "token expired"}`), nil).
			Add(tu.JSONResponse(http.StatusOK, `{"access": "fresh-access"}`), nil).
			Add(tu.JSONResponse(http.StatusUnauthorized, `{"detail": "still no"}`), nil)
		store := storeWith(t, "stale-access", "old-refresh")

		_, err := newTestClient(rt, store).Raw(context.Background(), "GET", "/protected/", nil)
		if err == nil {
			t.Fatal("expected error from replayed 401")
		}
		if !IsUnauthorized(err) {
			t.Errorf("expected unauthorized error, got %v", err)
		}
		if rt.Calls() != 3 {
			t.Errorf("expected exactly 3 HTTP calls, got %d", rt.Calls())
		}
	})

	t.Run("Refresh Failure Clears Store And Fires Callback Once", func(t *testing.T) {
		rt := tu.NewScriptedRoundTripper().
			Add(tu.JSONResponse(http.StatusUnauthorized, `{"detail": "token expired"}`), nil).
			Add(tu.JSONResponse(http.StatusUnauthorized, `{"detail": "refresh rejected"}`), nil)
		store := storeWith(t, "stale-access", "bad-refresh")

		var fired atomic.Int32
		client := NewClient(Options{
			BaseURL:        "http://backend.test",
			HTTPClient:     &http.Client{Transport: rt},
			Tokens:         store,
			Logger:         shared.NewLogger(io.Discard),
			OnUnauthorized: func() { fired.Add(1) },
		})

		_, err := client.Raw(context.Background(), "GET", "/protected/", nil)
		if err == nil {
			t.Fatal("expected session-expired error")
		}
		if !IsSessionExpired(err) {
			t.Errorf("expected session-expired error, got %v", err)
		}
		if !errors.Is(err, shared.ErrSessionExpired) {
			t.Error("expected error to unwrap to ErrSessionExpired")
		}
		if _, ok := store.Pair(); ok {
			t.Error("expected token store to be cleared")
		}
		if fired.Load() != 1 {
			t.Errorf("expected unauthorized hook to fire once, got %d", fired.Load())
		}
	})

	t.Run("No Refresh Token Short Circuits To Session Expired", func(t *testing.T) {
		rt := tu.NewScriptedRoundTripper().
			Add(tu.JSONResponse(http.StatusUnauthorized, `{"detail": "token expired"}`), nil)
		store := storeWith(t, "stale-access", "")

		_, err := newTestClient(rt, store).Raw(context.Background(), "GET", "/protected/", nil)
		if !IsSessionExpired(err) {
			t.Errorf("expected session-expired error, got %v", err)
		}
		if rt.Calls() != 1 {
			t.Errorf("expected no refresh HTTP call without a refresh token, got %d calls", rt.Calls())
		}
	})

	t.Run("Skip Auth Never Attaches Token And Never Retries", func(t *testing.T) {
		rt := tu.NewScriptedRoundTripper().
			Add(tu.JSONResponse(http.StatusUnauthorized, `{"detail": "bad credentials"}`), nil)
		store := storeWith(t, "stored-access", "stored-refresh")

		_, err := newTestClient(rt, store).Raw(context.Background(), "POST", "/auth/login/", nil, SkipAuth())
		if !IsUnauthorized(err) {
			t.Errorf("expected the 401 to surface directly, got %v", err)
		}
		if rt.Calls() != 1 {
			t.Errorf("expected a single HTTP call, got %d", rt.Calls())
		}
		if got := rt.Requests[0].Header.Get("Authorization"); got != "" {
			t.Errorf("expected no authorization header, got %q", got)
		}
	})

	t.Run("No Retry Attaches Token But Never Refreshes", func(t *testing.T) {
		rt := tu.NewScriptedRoundTripper().
			Add(tu.JSONResponse(http.StatusUnauthorized, `{"detail": "visitor"}`), nil)
		store := storeWith(t, "stored-access", "stored-refresh")

		_, err := newTestClient(rt, store).Raw(context.Background(), "POST", "/auth/check_auth/", nil, NoRetry())
		if !IsUnauthorized(err) {
			t.Errorf("expected the 401 to surface directly, got %v", err)
		}
		if rt.Calls() != 1 {
			t.Errorf("expected a single HTTP call, got %d", rt.Calls())
		}
		if got := rt.Requests[0].Header.Get("Authorization"); got != "Bearer stored-access" {
			t.Errorf("expected bearer header on no-retry request, got %q", got)
		}
	})

	t.Run("Concurrent 401s Coalesce Into One Refresh", func(t *testing.T) {
		const workers = 8

		var refreshCalls atomic.Int32
		var arrived sync.WaitGroup
		arrived.Add(workers)
		release := make(chan struct{})

		mux := http.NewServeMux()
		mux.HandleFunc("/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
			refreshCalls.Add(1)
			time.Sleep(100 * time.Millisecond)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"access": "fresh-access"})
		})
		mux.HandleFunc("/data/", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "Bearer fresh-access" {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]bool{"ok": true})
				return
			}
			// Hold every first-pass request until all workers have arrived so
			// the 401s land together.
			arrived.Done()
			<-release
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "token expired"})
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		store := storeWith(t, "stale-access", "valid-refresh")
		client := NewClient(Options{
			BaseURL: server.URL,
			Tokens:  store,
			Logger:  shared.NewLogger(io.Discard),
		})

		go func() {
			arrived.Wait()
			close(release)
		}()

		var done sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			done.Add(1)
			go func() {
				defer done.Done()
				errs <- client.Get(context.Background(), "/data/", nil)
			}()
		}
		done.Wait()
		close(errs)

		for err := range errs {
			if err != nil {
				t.Errorf("expected every request to succeed after refresh, got %v", err)
			}
		}
		if got := refreshCalls.Load(); got != 1 {
			t.Errorf("expected exactly 1 refresh call for %d concurrent 401s, got %d", workers, got)
		}
	})
}
