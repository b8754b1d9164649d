package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"crosstrader/src/auth"
	"crosstrader/src/security"
)

func TestRequireOperator(t *testing.T) {
	hash, err := security.HashOperatorToken("correct-token")
	require.NoError(t, err)
	t.Setenv("OPERATOR_TOKEN_HASH", hash)

	var sawOperator string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawOperator, _ = auth.GetOperatorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	protected := RequireOperator("owner")(next)

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Operator-Token", "correct-token")
		rr := httptest.NewRecorder()

		protected.ServeHTTP(rr, req)

		require.Equal(t, http.StatusNoContent, rr.Code)
		require.Equal(t, "owner", sawOperator)
	})

	t.Run("wrong token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Operator-Token", "wrong")
		rr := httptest.NewRecorder()

		protected.ServeHTTP(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rr := httptest.NewRecorder()

		protected.ServeHTTP(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRequireOperatorWithoutHashRejectsAll(t *testing.T) {
	t.Setenv("OPERATOR_TOKEN_HASH", "")

	protected := RequireOperator("owner")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a configured token hash")
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Operator-Token", "anything")
	rr := httptest.NewRecorder()

	protected.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
