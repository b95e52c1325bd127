package redikit

import (
	"net/http"
	"net/http/httptest"

	"github.com/aphistic/sweet"
	. "github.com/onsi/gomega"
)

type MiddlewareSuite struct{}

func (s *MiddlewareSuite) TestRequestSharesConnection(t sweet.T) {
	var (
		conn = NewMockConn()
		pool = makeBorrowingPool(conn)
		c    = makeCache(pool, nil)
	)

	handler := Middleware(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.Do(r.Context(), "foo")
		c.Do(r.Context(), "bar")
		w.WriteHeader(http.StatusNoContent)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/", nil))

	Expect(recorder.Code).To(Equal(http.StatusNoContent))
	Expect(conn.DoFuncCallCount).To(Equal(2))
	Expect(pool.BorrowFuncCallCount).To(Equal(1))
	Expect(pool.ReleaseFuncCallCount).To(Equal(1))
}

func (s *MiddlewareSuite) TestNoConnection(t sweet.T) {
	var (
		pool   = NewMockPool()
		c      = makeCache(pool, nil)
		called = false
	)

	handler := Middleware(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/", nil))

	Expect(recorder.Code).To(Equal(http.StatusServiceUnavailable))
	Expect(called).To(BeFalse())
	Expect(pool.ReleaseFuncCallCount).To(Equal(0))
}
