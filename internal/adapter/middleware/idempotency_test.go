package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// helper: new Echo with the middleware and a simple route
func setupEcho(rdb *redis.Client, ttl time.Duration, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(IdempotencyMiddleware(rdb, ttl))
	e.POST("/loans", handler)
	e.GET("/loans", handler) // for non-mutating bypass test
	return e
}

func mkJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func doReq(t *testing.T, e *echo.Echo, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb
}

func stdHeaders(actorID string) map[string]string {
	return map[string]string{
		"Ax-Request-Id": strings.Repeat("a", 32),
		"Ax-Request-At": strconv.FormatInt(time.Now().Unix(), 10),
		"Ax-Actor-Id":   actorID,
	}
}

func Test_BypassOnGET_NoHeadersRequired(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "get ok"})
	})
	rec := doReq(t, e, http.MethodGet, "/loans", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d", rec.Code)
	}
}

func Test_MissingHeaders_Rejected(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		t.Fatal("handler must not run without idempotency headers")
		return nil
	})

	rec := doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, map[string]int{"principal": 1000}), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("no headers: code=%d", rec.Code)
	}

	hdr := stdHeaders(strings.Repeat("b", 32))
	delete(hdr, "Ax-Actor-Id")
	rec = doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, map[string]int{"principal": 1000}), hdr)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("no actor: code=%d", rec.Code)
	}

	hdr = stdHeaders(strings.Repeat("b", 32))
	hdr["Ax-Request-At"] = "2025-09-05T10:00:00" // naive timestamp, no zone
	rec = doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, map[string]int{"principal": 1000}), hdr)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("naive timestamp: code=%d", rec.Code)
	}
}

func Test_ReplaySameRequest(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()

	calls := 0
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusCreated, map[string]any{"loan_id": "deadbeef", "n": calls})
	})

	hdr := stdHeaders(strings.Repeat("b", 32))
	body := map[string]int{"principal": 1000}

	rec1 := doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, body), hdr)
	if rec1.Code != http.StatusCreated {
		t.Fatalf("first: code=%d", rec1.Code)
	}
	rec2 := doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, body), hdr)
	if rec2.Code != http.StatusCreated {
		t.Fatalf("replay: code=%d body=%s", rec2.Code, rec2.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("replay body differs: %q vs %q", rec1.Body.String(), rec2.Body.String())
	}
}

func Test_SameRequestID_DifferentBody_Conflict(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	e := setupEcho(rdb, 30*time.Second, func(c echo.Context) error {
		return c.JSON(http.StatusCreated, map[string]bool{"ok": true})
	})

	hdr := stdHeaders(strings.Repeat("b", 32))
	rec := doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, map[string]int{"principal": 1000}), hdr)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first: code=%d", rec.Code)
	}
	rec = doReq(t, e, http.MethodPost, "/loans", mkJSONBody(t, map[string]int{"principal": 2000}), hdr)
	if rec.Code != http.StatusConflict {
		t.Fatalf("different body: code=%d", rec.Code)
	}
}

func TestParseAxRequestAt(t *testing.T) {
	if _, err := parseAxRequestAt(""); err == nil {
		t.Fatal("empty must fail")
	}
	if ts, err := parseAxRequestAt("1736123456"); err != nil || ts.Unix() != 1736123456 {
		t.Fatalf("epoch seconds: %v %v", ts, err)
	}
	if ts, err := parseAxRequestAt("1736123456789"); err != nil || ts.UnixMilli() != 1736123456789 {
		t.Fatalf("epoch ms: %v %v", ts, err)
	}
	if _, err := parseAxRequestAt("2025-09-05T10:00:00+07:00"); err != nil {
		t.Fatalf("rfc3339 with zone: %v", err)
	}
	if _, err := parseAxRequestAt("2025-09-05T10:00:00"); err == nil {
		t.Fatal("naive timestamp must fail")
	}
}
