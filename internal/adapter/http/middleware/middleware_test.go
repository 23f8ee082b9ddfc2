package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"golang.org/x/time/rate"

	"todolist/internal/core/domain"
	"todolist/internal/core/model/response"
	"todolist/pkg/auth"
	ct "todolist/pkg/context"
)

func newRouter(middlewares ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middlewares...)

	return router
}

func decodeError(rr *httptest.ResponseRecorder) response.ErrorResponse {
	var body response.ErrorResponse
	Expect(json.Unmarshal(rr.Body.Bytes(), &body)).To(Succeed())

	return body
}

func TestJwtAuthMiddleware(t *testing.T) {
	RegisterTestingT(t)

	tokens := auth.NewJWT("secret", "todolist", time.Hour)
	router := newRouter(CurrentMiddleware(), JwtAuthMiddleware(tokens))

	router.GET("/me", func(c *gin.Context) {
		email, ok := ct.EmailFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"email": email, "ok": ok, "key": c.GetString(ct.KeyEmail)})
	})

	token, err := tokens.Issue(domain.User{ID: 1, Name: "test", Email: "test@gmail.com"})
	Expect(err).ToNot(HaveOccurred())

	cases := map[string]string{
		"missing header": "",
		"no bearer":      token,
		"basic auth":     "Basic dGVzdDp0ZXN0",
		"garbage":        "Bearer not-a-token",
		"other secret":   "Bearer " + mustIssue(auth.NewJWT("other", "todolist", time.Hour)),
	}

	for name, header := range cases {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)

		if header != "" {
			req.Header.Set("Authorization", header)
		}

		router.ServeHTTP(rr, req)

		Expect(rr.Code).To(Equal(http.StatusUnauthorized), name)
		Expect(decodeError(rr)).To(Equal(response.ErrorResponse{Status: 401, Message: "Unauthenticated"}), name)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	router.ServeHTTP(rr, req)

	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(rr.Body.String()).To(MatchJSON(`{"email":"test@gmail.com","ok":true,"key":"test@gmail.com"}`))
}

func mustIssue(tokens *auth.JWT) string {
	token, err := tokens.Issue(domain.User{Email: "test@gmail.com"})
	Expect(err).ToNot(HaveOccurred())

	return token
}

func TestCurrentMiddleware_RequestID(t *testing.T) {
	RegisterTestingT(t)

	router := newRouter(CurrentMiddleware())
	router.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, ct.GetCurrent(c.Request.Context()).RequestID())
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	router.ServeHTTP(rr, req)

	Expect(rr.Body.String()).To(Equal("abc-123"))
	Expect(rr.Header().Get(HeaderRequestID)).To(Equal("abc-123"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/id", nil))

	Expect(rr.Body.String()).To(HaveLen(36))
	Expect(rr.Header().Get(HeaderRequestID)).To(Equal(rr.Body.String()))
}

func TestMaxBodyBytes(t *testing.T) {
	RegisterTestingT(t)

	router := newRouter(MaxBodyBytes(8))
	router.POST("/echo", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)

		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, err.Error())
			return
		}

		c.String(http.StatusOK, string(body))
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("small")))
	Expect(rr.Code).To(Equal(http.StatusOK))
	Expect(rr.Body.String()).To(Equal("small"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("much too large")))
	Expect(rr.Code).To(Equal(http.StatusRequestEntityTooLarge))
	Expect(decodeError(rr).Message).To(Equal(MsgBodyTooLarge))
}

func TestTimeout(t *testing.T) {
	RegisterTestingT(t)

	router := newRouter(Timeout(10 * time.Millisecond))
	router.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	router.GET("/fast", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/slow", nil))
	Expect(rr.Code).To(Equal(http.StatusGatewayTimeout))
	Expect(decodeError(rr).Message).To(Equal(MsgTimeout))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/fast", nil))
	Expect(rr.Code).To(Equal(http.StatusOK))
}

func TestGlobalRateLimit(t *testing.T) {
	RegisterTestingT(t)

	router := newRouter(GlobalRateLimit(rate.Every(time.Hour), 2))
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	codes := []int{}

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rr.Code)
	}

	Expect(codes).To(Equal([]int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}))
}

func TestConcurrencyLimit_ServesSequentialRequests(t *testing.T) {
	RegisterTestingT(t)

	router := newRouter(ConcurrencyLimit(1))
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rr.Code).To(Equal(http.StatusNoContent))
	}
}

func TestConcurrencyLimit_RejectsOverCap(t *testing.T) {
	RegisterTestingT(t)

	entered := make(chan struct{})
	release := make(chan struct{})

	router := newRouter(ConcurrencyLimit(1), Timeout(time.Minute))
	router.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusNoContent)
	})
	router.GET("/fast", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	first := httptest.NewRecorder()
	done := make(chan struct{})

	go func() {
		defer close(done)
		router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/slow", nil))
	}()

	<-entered

	busy := make(chan *httptest.ResponseRecorder, 1)

	go func() {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/fast", nil))
		busy <- rr
	}()

	var second *httptest.ResponseRecorder
	Eventually(busy, time.Second).Should(Receive(&second))

	Expect(second.Code).To(Equal(http.StatusServiceUnavailable))
	Expect(decodeError(second)).To(Equal(response.ErrorResponse{Status: 503, Message: MsgServerBusy}))

	close(release)
	<-done
	Expect(first.Code).To(Equal(http.StatusNoContent))

	third := httptest.NewRecorder()
	router.ServeHTTP(third, httptest.NewRequest(http.MethodGet, "/fast", nil))
	Expect(third.Code).To(Equal(http.StatusNoContent))
}

func TestMaskQuery(t *testing.T) {
	RegisterTestingT(t)

	masked := maskQuery(url.Values{
		"Password": {"hunter2"},
		"token":    {"abc"},
		"page":     {"2"},
	})

	values, err := url.ParseQuery(masked)
	Expect(err).ToNot(HaveOccurred())

	Expect(values.Get("Password")).To(Equal("****"))
	Expect(values.Get("token")).To(Equal("****"))
	Expect(values.Get("page")).To(Equal("2"))
	Expect(maskQuery(nil)).To(BeEmpty())
}
