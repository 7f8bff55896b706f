package api

import (
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DumpRequest dumps the headers of incoming requests when trace mode is
// enabled. Bodies carry patient data and are never dumped.
func (s *Server) DumpRequest(c *gin.Context) {
	if s.traceMode {
		dump, err := httputil.DumpRequest(c.Request, false)
		if err != nil {
			log.WithFields(logrus.Fields{
				"method": c.Request.Method,
				"path":   c.Request.URL.Path,
			}).WithError(err).Error("fail to dump request")
		}

		log.WithFields(logrus.Fields{
			"req": string(dump),
		}).Debug("incoming request")
	}

	c.Next()
}

// corsConfig lets the hosted consent pages call the api from the browser
func corsConfig(allowOrigins []string) cors.Config {
	c := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}

	for _, o := range allowOrigins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}

	c.AllowOrigins = allowOrigins
	c.AllowAllOrigins = len(allowOrigins) == 0
	return c
}
