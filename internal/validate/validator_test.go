package validate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newValidator(client *http.Client, attempts int) *Validator {
	return New(Options{Client: client, MaxAttempts: attempts, RetryDelay: time.Millisecond})
}

func TestValidateReachableVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if !newValidator(srv.Client(), 3).Validate(context.Background(), srv.URL+"/clip.mp4") {
		t.Fatal("expected reachable video to validate")
	}
}

func TestValidateRejectsHTMLErrorPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if newValidator(srv.Client(), 2).Validate(context.Background(), srv.URL) {
		t.Fatal("an HTML page is not a media artifact")
	}
}

func TestValidateRetriesUntilLive(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if !newValidator(srv.Client(), 5).Validate(context.Background(), srv.URL+"/late.mp4") {
		t.Fatal("expected validation to succeed once the link goes live")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected success to short-circuit after 3 checks, got %d", got)
	}
}

func TestValidateGivesUpAfterBudget(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if newValidator(srv.Client(), 4).Validate(context.Background(), srv.URL+"/dead.mp4") {
		t.Fatal("dead link must not validate")
	}
	if got := atomic.LoadInt32(&calls); got != 4 {
		t.Fatalf("expected exactly 4 attempts, got %d", got)
	}
}

func TestValidateHeadFallsBackToRangedGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Range") == "" {
			t.Error("expected ranged GET fallback")
		}
		w.Header().Set("Content-Type", "video/mp4")
		w.WriteHeader(http.StatusPartialContent)
	}))
	defer srv.Close()

	if !newValidator(srv.Client(), 2).Validate(context.Background(), srv.URL+"/clip.mp4") {
		t.Fatal("expected ranged GET fallback to validate")
	}
}

func TestValidateInternalStorageKey(t *testing.T) {
	v := newValidator(http.DefaultClient, 1)
	if !v.Validate(context.Background(), "generated/videos/abc123/video.mp4") {
		t.Fatal("internal storage keys validate without a network check")
	}
	if v.Validate(context.Background(), "../../etc/passwd") {
		t.Fatal("non-url, non-internal refs must not validate")
	}
	if v.Validate(context.Background(), "") {
		t.Fatal("empty ref must not validate")
	}
}
