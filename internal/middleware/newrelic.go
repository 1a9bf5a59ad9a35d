package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// TransactionAttributes annotates the New Relic transaction started by nrgin
// with the request ID and caller, and reports handler errors on 5xx responses.
// It is a no-op when New Relic is disabled.
func TransactionAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		txn := nrgin.Transaction(c)
		if txn == nil {
			return
		}

		txn.AddAttribute("request_id", RequestIDFrom(c))
		actor := ActorFrom(c)
		switch {
		case actor.IsAuthenticated():
			txn.AddAttribute("user_id", actor.UserID)
			txn.AddAttribute("user_role", string(actor.Role))
		case actor.GuestToken != "":
			txn.AddAttribute("caller", "guest")
		}

		if c.Writer.Status() >= 500 {
			for _, err := range c.Errors {
				txn.NoticeError(err.Err)
			}
		}
	}
}
