package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/seminar-registration/internal/admission"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/config"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/handler"
	"github.com/Shivanand-hulikatti/seminar-registration/internal/model"
)

func TestBuildApp_MemoryStore(t *testing.T) {
	a, err := buildApp(context.Background(), config.Defaults())
	require.NoError(t, err)
	defer a.close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"title":"Go Basics","attendees_max":1}`))
	a.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestBuildApp_MaxSeatsHook(t *testing.T) {
	cfg := config.Defaults()
	cfg.Admission.MaxSeatsPerRegistration = 2
	a, err := buildApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.close()

	begin := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events",
		strings.NewReader(`{"title":"Go Basics","attendees_max":10,"begin_date":"`+begin+`"}`)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	register := func(seats string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/events/"+created.ID+"/registrations",
			strings.NewReader(`{"seats":`+seats+`}`))
		req.Header.Set(handler.HeaderUserID, "ada-"+seats)
		rec := httptest.NewRecorder()
		a.handler.ServeHTTP(rec, req)
		return rec
	}

	rec = register("3")
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	var rejected model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rejected))
	assert.Equal(t, model.ReasonVetoed, rejected.Reason)
	assert.Equal(t, admission.MsgTooManySeats, rejected.MessageKey)

	rec = register("2")
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestAdmissionHooks(t *testing.T) {
	assert.Empty(t, admissionHooks(config.AdmissionConfig{}))
	assert.Len(t, admissionHooks(config.AdmissionConfig{MaxSeatsPerRegistration: 1}), 1)
}

func TestBuildApp_RedisNotifier(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Defaults()
	cfg.Notify.Kind = config.NotifierRedis
	cfg.Notify.RedisAddr = mr.Addr()

	a, err := buildApp(context.Background(), cfg)
	require.NoError(t, err)
	a.close()
}

func TestBuildApp_BadCatalog(t *testing.T) {
	cfg := config.Defaults()
	cfg.Catalog = t.TempDir() + "/missing.yaml"
	_, err := buildApp(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRun_GracefulShutdown(t *testing.T) {
	a, err := buildApp(context.Background(), config.Defaults())
	require.NoError(t, err)
	defer a.close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, a, ln, config.Defaults().HTTP) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
