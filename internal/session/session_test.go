package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newManager() *Manager {
	return NewManager(Options{Secret: "test-secret", SessionTTL: time.Hour})
}

func TestIssueAndParse(t *testing.T) {
	m := newManager()
	id := uuid.New()

	tok, exp, err := m.Issue(id, "tutor", KindSession)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) > time.Hour || time.Until(exp) < 59*time.Minute {
		t.Fatalf("unexpected expiry %v", exp)
	}

	claims, err := m.Parse(tok, KindSession)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != id.String() || claims.Role != "tutor" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestParseRejectsWrongKind(t *testing.T) {
	m := newManager()
	tok, _, err := m.Issue(uuid.New(), "learner", KindRemember)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := m.Parse(tok, KindSession); err == nil {
		t.Fatalf("remember token accepted as session token")
	}
}

func TestParseRejectsExpiredAndForeign(t *testing.T) {
	m := newManager()
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _, err := m.Issue(uuid.New(), "learner", KindSession)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	m.now = time.Now
	if _, err := m.Parse(tok, KindSession); err == nil {
		t.Fatalf("expired token accepted")
	}

	other := NewManager(Options{Secret: "other"})
	fresh, _, _ := other.Issue(uuid.New(), "learner", KindSession)
	if _, err := m.Parse(fresh, KindSession); err == nil {
		t.Fatalf("token signed with another secret accepted")
	}
}

func TestCookieLifetimes(t *testing.T) {
	m := NewManager(Options{Secret: "s"})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	m.SetRememberCookie(c, "tok")
	m.SetConsent(c)

	cookies := map[string]*http.Cookie{}
	for _, ck := range rec.Result().Cookies() {
		cookies[ck.Name] = ck
	}

	if got := cookies[RememberCookie]; got == nil || got.MaxAge != 365*24*60*60 || !got.HttpOnly {
		t.Fatalf("remember cookie: %+v", got)
	}
	if got := cookies[ConsentCookie]; got == nil || got.MaxAge != 30*24*60*60 || got.Value != "yes" {
		t.Fatalf("consent cookie: %+v", got)
	}
}

func TestClearAuthCookies(t *testing.T) {
	m := newManager()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/logout", nil)

	m.ClearAuthCookies(c)

	cleared := 0
	for _, ck := range rec.Result().Cookies() {
		if (ck.Name == SessionCookie || ck.Name == RememberCookie) && ck.MaxAge < 0 {
			cleared++
		}
	}
	if cleared != 2 {
		t.Fatalf("expected 2 cleared cookies, got %d", cleared)
	}
}
