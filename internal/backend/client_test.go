package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"storefront/internal/platform/metrics"
)

const anonKey = "anon-key"

type ClientSuite struct {
	suite.Suite
	server  *httptest.Server
	handler http.HandlerFunc
	client  *Client
	metrics *metrics.Metrics
	userID  string
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.userID = uuid.NewString()
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
	}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handler(w, r)
	}))
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.client = New(s.server.URL+"/", anonKey,
		WithHTTPClient(s.server.Client()),
		WithMetrics(s.metrics),
		WithClock(func() time.Time { return time.Unix(1_700_000_000, 0) }),
	)
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (s *ClientSuite) TestSignInWithPassword() {
	s.Run("returns session with identity", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			s.Equal(http.MethodPost, r.Method)
			s.Equal("/auth/v1/token", r.URL.Path)
			s.Equal("password", r.URL.Query().Get("grant_type"))
			s.Equal(anonKey, r.Header.Get("apikey"))
			s.Equal("Bearer "+anonKey, r.Header.Get("Authorization"))

			var body map[string]string
			s.NoError(json.NewDecoder(r.Body).Decode(&body))
			s.Equal("admin@x.com", body["email"])
			s.Equal("correct", body["password"])

			writeJSON(w, http.StatusOK, `{"access_token":"at","token_type":"bearer","expires_in":3600,
				"refresh_token":"rt","user":{"id":"`+s.userID+`","email":"admin@x.com"}}`)
		}

		sess, err := s.client.SignInWithPassword(context.Background(), "admin@x.com", "correct")
		s.Require().NoError(err)
		s.Equal("at", sess.AccessToken)
		s.Equal("rt", sess.RefreshToken)
		s.Equal(s.userID, sess.Identity.ID.String())
		s.Equal("admin@x.com", sess.Identity.Email)
		s.Equal(time.Unix(1_700_003_600, 0).UTC(), sess.ExpiresAt)
	})

	s.Run("invalid credentials are unauthorized", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, `{"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}`)
		}

		_, err := s.client.SignInWithPassword(context.Background(), "admin@x.com", "wrong")
		s.Require().Error(err)
		s.Equal(CategoryUnauthorized, CategoryOf(err))
		s.Contains(err.Error(), "Invalid login credentials")
		s.False(IsNetwork(err))
	})

	s.Run("token response without user id is bad data", func() {
		s.handler = func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"access_token":"at","user":{"id":""}}`)
		}

		_, err := s.client.SignInWithPassword(context.Background(), "admin@x.com", "correct")
		s.Equal(CategoryBadData, CategoryOf(err))
	})
}

func (s *ClientSuite) TestSignOutAndGetUser() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("Bearer user-token", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		case "/auth/v1/user":
			writeJSON(w, http.StatusOK, `{"id":"`+s.userID+`","email":"admin@x.com"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}

	s.Require().NoError(s.client.SignOut(context.Background(), "user-token"))

	ident, err := s.client.GetUser(context.Background(), "user-token")
	s.Require().NoError(err)
	s.Equal(s.userID, ident.ID.String())
}

func (s *ClientSuite) TestSelect() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/rest/v1/admin_users", r.URL.Path)
		q := r.URL.Query()
		s.Equal("*", q.Get("select"))
		s.Equal("eq."+s.userID, q.Get("id"))
		s.Equal("eq.true", q.Get("is_active"))
		writeJSON(w, http.StatusOK, `[{"id":"`+s.userID+`","is_active":true}]`)
	}

	var rows []struct {
		ID       string `json:"id"`
		IsActive bool   `json:"is_active"`
	}
	err := s.client.Select(context.Background(), "", "admin_users",
		NewFilter().Eq("id", s.userID).Eq("is_active", true), &rows)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.True(rows[0].IsActive)
}

func (s *ClientSuite) TestSelectSingle_NoRowsIsNotFound() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal("application/vnd.pgrst.object+json", r.Header.Get("Accept"))
		writeJSON(w, http.StatusNotAcceptable, `{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned"}`)
	}

	var row map[string]any
	err := s.client.SelectSingle(context.Background(), "", "products", NewFilter().Eq("id", "x"), &row)
	s.True(IsNotFound(err))
	s.False(IsPolicyError(err))
}

func (s *ClientSuite) TestPolicyFailureIsClassified() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"code":"42P17","message":"infinite recursion detected in policy for relation \"admin_users\""}`)
	}

	var rows []map[string]any
	err := s.client.Select(context.Background(), "tok", "admin_users", nil, &rows)
	s.Require().Error(err)
	s.True(IsPolicyError(err))

	var be *Error
	s.Require().True(errors.As(err, &be))
	s.Equal(http.StatusInternalServerError, be.Status)
	s.Equal(CodePolicyRecursion, be.Code)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.BackendErrors.WithLabelValues(string(CategoryPolicy))))
}

func (s *ClientSuite) TestCallFunction() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodPost, r.Method)
		s.Equal("/rest/v1/rpc/check_admin_status", r.URL.Path)
		var args map[string]string
		s.NoError(json.NewDecoder(r.Body).Decode(&args))
		s.Equal(s.userID, args["user_id"])
		writeJSON(w, http.StatusOK, `[]`)
	}

	var rows []map[string]any
	err := s.client.CallFunction(context.Background(), "tok", "check_admin_status",
		map[string]string{"user_id": s.userID}, &rows)
	s.Require().NoError(err)
	s.Empty(rows)
}

func (s *ClientSuite) TestInsertUpdateDelete() {
	var seen []string
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.RawQuery+" "+r.Header.Get("Prefer"))
		switch r.Method {
		case http.MethodPost, http.MethodPatch:
			writeJSON(w, http.StatusCreated, `[{"id":"p1"}]`)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}

	var created []map[string]any
	s.Require().NoError(s.client.Insert(context.Background(), "tok", "products", map[string]any{"name": "Mug"}, &created))
	s.Require().NoError(s.client.Update(context.Background(), "tok", "products", NewFilter().Eq("id", "p1"), map[string]any{"stock": 2}, nil))
	s.Require().NoError(s.client.Delete(context.Background(), "tok", "products", NewFilter().Eq("id", "p1")))

	s.Equal([]string{
		"POST  return=representation",
		"PATCH id=eq.p1 return=minimal",
		"DELETE id=eq.p1 ",
	}, seen)
	s.Equal("p1", created[0]["id"])
}

func (s *ClientSuite) TestCount() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodGet, r.Method)
		s.Equal("count=exact", r.Header.Get("Prefer"))
		s.Equal("eq.true", r.URL.Query().Get("featured"))
		s.Equal("1", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Range", "0-0/42")
		writeJSON(w, http.StatusPartialContent, `[{"id":"p1"}]`)
	}

	n, err := s.client.Count(context.Background(), "tok", "products", NewFilter().Eq("featured", true))
	s.Require().NoError(err)
	s.Equal(42, n)
}

func (s *ClientSuite) TestCount_ContentRange() {
	contentRange := "*/0"
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Range", contentRange)
		writeJSON(w, http.StatusOK, `[]`)
	}

	n, err := s.client.Count(context.Background(), "tok", "categories", nil)
	s.Require().NoError(err)
	s.Equal(0, n)

	contentRange = "0-0/*"
	_, err = s.client.Count(context.Background(), "tok", "categories", nil)
	s.Equal(CategoryBadData, CategoryOf(err))
}

func (s *ClientSuite) TestStorage() {
	s.handler = func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			s.Equal("/storage/v1/object/product-images/mugs/a.png", r.URL.Path)
			s.Equal("image/png", r.Header.Get("Content-Type"))
			s.Equal("max-age=3600", r.Header.Get("cache-control"))
			s.Equal("false", r.Header.Get("x-upsert"))
			b, _ := io.ReadAll(r.Body)
			s.Equal("png-bytes", string(b))
			writeJSON(w, http.StatusOK, `{"Key":"product-images/mugs/a.png"}`)
		case http.MethodDelete:
			s.Equal("/storage/v1/object/product-images", r.URL.Path)
			var body map[string][]string
			s.NoError(json.NewDecoder(r.Body).Decode(&body))
			s.Equal([]string{"mugs/a.png"}, body["prefixes"])
			writeJSON(w, http.StatusOK, `[]`)
		}
	}

	err := s.client.Upload(context.Background(), "tok", "product-images", "mugs/a.png",
		strings.NewReader("png-bytes"), UploadOptions{ContentType: "image/png", CacheControl: 3600})
	s.Require().NoError(err)
	s.Require().NoError(s.client.Remove(context.Background(), "tok", "product-images", "mugs/a.png"))
	s.Require().NoError(s.client.Remove(context.Background(), "tok", "product-images"))

	s.Equal(s.server.URL+"/storage/v1/object/public/product-images/mugs/a.png",
		s.client.PublicURL("product-images", "/mugs/a.png"))
}

func TestNetworkErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := New(url, anonKey)
	err := client.SignOut(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.Equal(t, CategoryNetwork, CategoryOf(err))
}

func TestTimeoutIsClassified(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := New(server.URL, anonKey, WithHTTPClient(server.Client()))
	_, err := client.GetUser(ctx, "tok")
	require.Error(t, err)
	assert.Equal(t, CategoryTimeout, CategoryOf(err))
	assert.True(t, IsNetwork(err))
}
