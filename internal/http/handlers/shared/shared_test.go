package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pizzaria-cajazeiras/internal/http/response"

	"github.com/gin-gonic/gin"
)

func TestMessageFallsBackToKey(t *testing.T) {
	if Message("error.cep_invalid") != "CEP inválido" {
		t.Fatalf("unexpected message for known key")
	}
	if Message("error.unknown_key") != "error.unknown_key" {
		t.Fatalf("unknown key should be returned as is")
	}
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondError(c, response.CodeInternal, "error.internal", errors.New("boom"))
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != response.CodeInternal || resp.Msg != "Erro interno, tente novamente" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}

func TestGetSessionMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if _, ok := GetSession(c); ok {
		t.Fatalf("missing session should not be ok")
	}
	c.Set(SessionContextKey, "not-a-session")
	if _, ok := GetSession(c); ok {
		t.Fatalf("wrong type should not be ok")
	}
}
