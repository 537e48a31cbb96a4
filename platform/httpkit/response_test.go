package httpkit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"timebank_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

func testContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestHandleErrorMapsTypedError(t *testing.T) {
	c, w := testContext(t)

	if !HandleError(c, apperr.NotFound("listing not found")) {
		t.Fatal("expected the error to be handled")
	}
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "listing not found") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestHandleErrorUntypedErrorIsOpaque(t *testing.T) {
	c, w := testContext(t)

	HandleError(c, errors.New("connect: host=db.internal user=timebank"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "db.internal") {
		t.Fatalf("driver detail leaked to the client: %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "internal server error") {
		t.Fatalf("body = %s", w.Body.String())
	}
	if len(c.Errors) != 1 {
		t.Fatalf("detail must stay on the request for logging, got %d errors", len(c.Errors))
	}
}

func TestHandleErrorNil(t *testing.T) {
	c, _ := testContext(t)
	if HandleError(c, nil) {
		t.Fatal("nil error must not be handled")
	}
}
