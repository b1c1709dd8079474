package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

var methodOrder = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// CORS answers preflight requests for the allowed origins. The advertised
// methods are the ones registered on engine, read on the first request once
// every route is in place.
func CORS(engine *gin.Engine, allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimSpace(origin)] = struct{}{}
	}

	var (
		once    sync.Once
		methods string
	)

	return func(c *gin.Context) {
		once.Do(func() {
			methods = allowMethods(engine.Routes())
		})

		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := allowed["*"]; ok {
				c.Header("Access-Control-Allow-Origin", "*")
			} else if _, ok := allowed[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		}

		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", "Authorization,Content-Type")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func allowMethods(routes gin.RoutesInfo) string {
	registered := make(map[string]bool, len(methodOrder))
	for _, route := range routes {
		registered[route.Method] = true
	}
	methods := make([]string, 0, len(methodOrder)+1)
	for _, method := range methodOrder {
		if registered[method] {
			methods = append(methods, method)
		}
	}
	return strings.Join(append(methods, http.MethodOptions), ",")
}
