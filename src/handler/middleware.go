package handler

import (
	"net/http"

	logger "github.com/sirupsen/logrus"

	"crosstrader/src/auth"
	"crosstrader/src/security"
)

const operatorTokenHeader = "X-Operator-Token"

// RequireOperator authenticates mutating management routes against the
// configured bcrypt token hash. With no hash configured every mutating
// call is rejected.
func RequireOperator(owner string) func(http.Handler) http.Handler {
	config := security.GetConfig()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.OperatorTokenHash == "" {
				logger.Warn("Management call rejected: no operator token configured")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			token := r.Header.Get(operatorTokenHeader)
			if token == "" || !security.VerifyOperatorToken(config.OperatorTokenHash, token) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithOperator(r.Context(), owner)))
		})
	}
}
