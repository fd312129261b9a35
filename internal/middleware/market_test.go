package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func marketCapture(got *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = MarketFromContext(r.Context())
	})
}

func TestMarketHeaderWinsOverLookup(t *testing.T) {
	var got string
	mw := Market(func(string) (string, error) { return "us", nil })
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batches", nil)
	req.Header.Set("X-Market", " ID ")

	mw(marketCapture(&got)).ServeHTTP(httptest.NewRecorder(), req)
	if got != "id" {
		t.Fatalf("market = %q, want id", got)
	}
}

func TestMarketFallsBackToLookup(t *testing.T) {
	var got string
	mw := Market(func(ip string) (string, error) {
		if ip != "203.0.113.1" {
			t.Fatalf("lookup called with %q", ip)
		}
		return "sg", nil
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batches", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.1")

	mw(marketCapture(&got)).ServeHTTP(httptest.NewRecorder(), req)
	if got != "sg" {
		t.Fatalf("market = %q, want sg", got)
	}
}

func TestMarketLookupFailureLeavesContextEmpty(t *testing.T) {
	var got string
	mw := Market(func(string) (string, error) { return "", errors.New("db unavailable") })
	req := httptest.NewRequest(http.MethodPost, "/api/v1/batches", nil)
	req.RemoteAddr = "198.51.100.10:1234"

	mw(marketCapture(&got)).ServeHTTP(httptest.NewRecorder(), req)
	if got != "" {
		t.Fatalf("market = %q, want empty", got)
	}
}
