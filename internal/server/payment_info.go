package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetPaymentInfo(c *gin.Context) {
	if s.paymentInfo == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.paymentInfo.Get()})
}
