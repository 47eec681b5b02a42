package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ditherbooth/pkg/fault"
)

func statusOf(err error) int {
	switch fault.KindOf(err) {
	case fault.KindDecode:
		return http.StatusBadRequest
	case fault.KindOversize:
		return http.StatusRequestEntityTooLarge
	case fault.KindValidation:
		return http.StatusUnprocessableEntity
	case fault.KindDispatch:
		if fault.Attempted(err) {
			return http.StatusBadGateway
		}
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// fail writes the public message of err with its status. The full error only
// goes to the log.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusOf(err)
	_ = c.Error(err)

	log := s.logger.With(zap.Error(err), zap.String("kind", fault.KindOf(err).String()))
	if status >= http.StatusInternalServerError {
		log.Warn("request failed")
	} else {
		log.Debug("request rejected")
	}

	c.AbortWithStatusJSON(status, gin.H{"detail": fault.Public(err)})
}
