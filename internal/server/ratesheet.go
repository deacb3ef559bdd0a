package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/scraprates/internal/ratehistory"
	"github.com/smallbiznis/scraprates/internal/ratesheet"
)

// GetCategoryRateSheet streams the printable PDF for one category. The
// optional date query picks a past day from the recorded history.
func (s *Server) GetCategoryRateSheet(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	date := ratehistory.Today(s.clock.Now(), s.cfg.Location())
	if value := strings.TrimSpace(c.Query("date")); value != "" {
		parsed, err := ratehistory.ParseDate(value)
		if err != nil {
			AbortWithError(c, newValidationError("date", "invalid_date", "date must be DD-MM-YYYY"))
			return
		}
		date = parsed
	}

	category, err := s.categorySvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	currency := ""
	if s.paymentInfo != nil {
		currency = s.paymentInfo.Get().Currency
	}
	sheet := ratesheet.Build(*category, date, currency)

	pdf, err := ratesheet.Render(c.Request.Context(), sheet)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", ratesheet.FileName(sheet)))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
