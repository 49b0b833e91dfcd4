package stubserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func login(t *testing.T, url, email, password string) (*http.Response, map[string]string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(url+"/api/Auth/Login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request error = %v", err)
	}
	defer resp.Body.Close()

	var out map[string]string
	json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func get(t *testing.T, url, path, token string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, url+path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s error = %v", path, err)
	}
	resp.Body.Close()
	return resp
}

func TestServer_LoginAndValidate(t *testing.T) {
	srv := New()
	userID := srv.AddUser("a@x.com", "p", "Admin")

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, body := login(t, ts.URL, "a@x.com", "p")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	if body["token"] == "" {
		t.Fatal("login response has no token")
	}
	if body["userId"] != userID {
		t.Errorf("userId = %q, want %q", body["userId"], userID)
	}

	if resp := get(t, ts.URL, "/api/Auth/ValidateToken", body["token"]); resp.StatusCode != http.StatusOK {
		t.Errorf("validate status = %d, want 200", resp.StatusCode)
	}
	if n := srv.LoginCalls(); n != 1 {
		t.Errorf("LoginCalls() = %d, want 1", n)
	}
}

func TestServer_LoginRejected(t *testing.T) {
	srv := New()
	srv.AddUser("a@x.com", "p")

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, body := login(t, ts.URL, "a@x.com", "wrong")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("login status = %d, want 401", resp.StatusCode)
	}
	if body["message"] == "" {
		t.Error("rejection carries no message")
	}

	if resp, _ := login(t, ts.URL, "nobody@x.com", "p"); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unknown user status = %d, want 401", resp.StatusCode)
	}
}

func TestServer_ProductsRequireToken(t *testing.T) {
	srv := New()
	srv.AddUser("a@x.com", "p")

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	if resp := get(t, ts.URL, "/api/Products", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous products status = %d, want 401", resp.StatusCode)
	}
	if resp := get(t, ts.URL, "/api/Products", "forged-token"); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("forged token products status = %d, want 401", resp.StatusCode)
	}

	_, body := login(t, ts.URL, "a@x.com", "p")
	if resp := get(t, ts.URL, "/api/Products", body["token"]); resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated products status = %d, want 200", resp.StatusCode)
	}
}

func TestServer_RevokeAll(t *testing.T) {
	srv := New()
	srv.AddUser("a@x.com", "p")

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	_, body := login(t, ts.URL, "a@x.com", "p")
	token := body["token"]

	srv.RevokeAll()

	if resp := get(t, ts.URL, "/api/Products", token); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("revoked token status = %d, want 401", resp.StatusCode)
	}

	// A fresh login works again.
	_, body = login(t, ts.URL, "a@x.com", "p")
	if resp := get(t, ts.URL, "/api/Products", body["token"]); resp.StatusCode != http.StatusOK {
		t.Errorf("fresh token status = %d, want 200", resp.StatusCode)
	}
}

func TestServer_SetPassword(t *testing.T) {
	srv := New()
	srv.AddUser("a@x.com", "old")

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	srv.SetPassword("a@x.com", "new")

	if resp, _ := login(t, ts.URL, "a@x.com", "old"); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("old password status = %d, want 401", resp.StatusCode)
	}
	if resp, _ := login(t, ts.URL, "a@x.com", "new"); resp.StatusCode != http.StatusOK {
		t.Errorf("new password status = %d, want 200", resp.StatusCode)
	}
}
