package wifi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestSubmit_ScenarioD(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantText string
	}{
		{"error", http.StatusBadRequest, `{"error":"bad password"}`, "bad password"},
		{"status", http.StatusOK, `{"status":"connecting"}`, "connecting"},
		{"status wins", http.StatusOK, `{"status":"ok","error":"ignored"}`, "ok"},
		{"empty status falls back", http.StatusOK, `{"status":"","error":"denied"}`, "denied"},
		{"other shape", http.StatusOK, `{"result":"?"}`, ""},
		{"non-string fields", http.StatusOK, `{"status":5,"error":null}`, ""},
		{"array", http.StatusOK, `[1,2]`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(respond(tt.status, tt.body))
			defer srv.Close()

			r := NewSubmitter(srv.URL).Submit(context.Background(), "plant", "secret")

			assert.NoError(t, r.Err)
			assert.Equal(t, tt.wantText, r.Text)
			assert.Equal(t, tt.status, r.HTTPStatus)
		})
	}
}

func TestSubmit_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(respond(http.StatusOK, `{}`))
	url := srv.URL
	srv.Close()

	r := NewSubmitter(url).Submit(context.Background(), "plant", "secret")

	assert.Equal(t, FailureText, r.Text)
	assert.ErrorIs(t, r.Err, ErrRequestFailed)
	assert.Zero(t, r.HTTPStatus)
}

func TestSubmit_UndecodableBody(t *testing.T) {
	srv := httptest.NewServer(respond(http.StatusInternalServerError, `<html>oops</html>`))
	defer srv.Close()

	r := NewSubmitter(srv.URL).Submit(context.Background(), "plant", "secret")

	assert.Equal(t, FailureText, r.Text)
	assert.ErrorIs(t, r.Err, ErrRequestFailed)
	assert.Equal(t, http.StatusInternalServerError, r.HTTPStatus)
}

func TestSubmit_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	r := NewSubmitter(srv.URL, WithTimeout(50*time.Millisecond)).Submit(context.Background(), "a", "b")

	assert.Equal(t, FailureText, r.Text)
	assert.ErrorIs(t, r.Err, ErrRequestFailed)
}

func TestSubmit_FormEncoding(t *testing.T) {
	var got struct {
		method, contentType, ssid, password, path string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.contentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		got.ssid = r.PostForm.Get("ssid")
		got.password = r.PostForm.Get("password")
		respond(http.StatusOK, `{"status":"Connecting to my net"}`)(w, r)
	}))
	defer srv.Close()

	s := NewSubmitter(srv.URL + "/")
	assert.Equal(t, srv.URL+"/wifi", s.Endpoint())

	r := s.Submit(context.Background(), "my net", "p&ss=word")

	assert.Equal(t, "Connecting to my net", r.Text)
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/wifi", got.path)
	assert.Equal(t, "application/x-www-form-urlencoded", got.contentType)
	assert.Equal(t, "my net", got.ssid)
	assert.Equal(t, "p&ss=word", got.password)
}

func TestSubmit_NoValidation(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		respond(http.StatusBadRequest, `{"error":"Missing SSID or password"}`)(w, r)
	}))
	defer srv.Close()

	r := NewSubmitter(srv.URL).Submit(context.Background(), "", "")

	assert.Equal(t, 1, calls, "empty credentials are still sent, exactly once")
	assert.Equal(t, "Missing SSID or password", r.Text)
}
