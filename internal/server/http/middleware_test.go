package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func makeJWT(t *testing.T, sub string, key []byte, method jwt.SigningMethod, iat time.Time, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(iat),
		NotBefore: jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(iat.Add(ttl)),
	}
	token := jwt.NewWithClaims(method, claims)
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

func authPing(key []byte) *gin.Engine {
	r := gin.New()
	r.GET("/ping", BearerAuth(key), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": c.GetString("subject")})
	})
	return r
}

func pingWithAuthHeader(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func Test_BearerAuth_Valid(t *testing.T) {
	t.Parallel()

	key := []byte("secret")
	r := authPing(key)
	tok := makeJWT(t, "ops", key, jwt.SigningMethodHS256, time.Now().UTC().Add(-time.Minute), 10*time.Minute)

	w := pingWithAuthHeader(r, "Bearer "+tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}
	if got := w.Body.String(); got != `{"subject":"ops"}` {
		t.Fatalf("body: got %s", got)
	}
}

func Test_BearerAuth_SchemeCaseInsensitive(t *testing.T) {
	t.Parallel()

	key := []byte("secret")
	r := authPing(key)
	tok := makeJWT(t, "ops", key, jwt.SigningMethodHS256, time.Now().UTC(), time.Hour)

	w := pingWithAuthHeader(r, "BEARER "+tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusOK)
	}
}

func Test_BearerAuth_MissingHeader(t *testing.T) {
	t.Parallel()

	w := pingWithAuthHeader(authPing([]byte("secret")), "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func Test_BearerAuth_WrongScheme(t *testing.T) {
	t.Parallel()

	w := pingWithAuthHeader(authPing([]byte("secret")), "Basic Zm9vOmJhcg==")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func Test_BearerAuth_Expired(t *testing.T) {
	t.Parallel()

	key := []byte("secret")
	r := authPing(key)
	tok := makeJWT(t, "ops", key, jwt.SigningMethodHS256, time.Now().UTC().Add(-2*time.Hour), time.Hour)

	w := pingWithAuthHeader(r, "Bearer "+tok)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func Test_BearerAuth_WrongAlg(t *testing.T) {
	t.Parallel()

	key := []byte("secret")
	r := authPing(key)
	tok := makeJWT(t, "ops", key, jwt.SigningMethodHS384, time.Now().UTC(), time.Hour)

	w := pingWithAuthHeader(r, "Bearer "+tok)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func Test_BearerAuth_WrongKey(t *testing.T) {
	t.Parallel()

	r := authPing([]byte("secret"))
	tok := makeJWT(t, "ops", []byte("other"), jwt.SigningMethodHS256, time.Now().UTC(), time.Hour)

	w := pingWithAuthHeader(r, "Bearer "+tok)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func Test_Recover_TurnsPanicInto500(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(Recover(zaptest.NewLogger(t)))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if got := w.Body.String(); got != `{"error":"internal"}` {
		t.Fatalf("body: got %s", got)
	}
}

func Test_Logging_KeepsResponse(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(Logging(zaptest.NewLogger(t)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusNoContent)
	}
}
