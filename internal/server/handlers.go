package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atikulmunna/logscope/internal/aggregator"
	"github.com/atikulmunna/logscope/internal/chart"
	"github.com/atikulmunna/logscope/internal/model"
	"github.com/atikulmunna/logscope/internal/parser"
)

// ErrorKind classifies an error payload.
type ErrorKind string

const (
	KindEmptyInput ErrorKind = "empty_input"
	KindRender     ErrorKind = "render"
	KindBadRequest ErrorKind = "bad_request"
	KindNotFound   ErrorKind = "not_found"
)

// APIError is the body of every error the API reports.
type APIError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// newAPIError classifies an analytics or chart error. Anything that is not
// an empty input or an unknown chart name is a render failure.
func newAPIError(err error) APIError {
	kind := KindRender
	switch {
	case errors.Is(err, aggregator.ErrEmptyInput):
		kind = KindEmptyInput
	case errors.Is(err, chart.ErrUnknownChart):
		kind = KindNotFound
	}
	return APIError{Kind: kind, Message: err.Error()}
}

func abortWithError(c *gin.Context, status int, apiErr APIError) {
	_ = c.Error(errors.New(apiErr.Message))
	c.AbortWithStatusJSON(status, gin.H{"error": apiErr})
}

// ---------------------------------------------------------------------------
// Log analytics
// ---------------------------------------------------------------------------

func (s *Server) handleLogData(c *gin.Context) {
	sum := aggregator.Summarize(s.table.Entries())
	c.JSON(http.StatusOK, gin.H{
		"log_data":             s.table.Records(),
		"log_level_counts":     sum.LevelCounts,
		"log_type_counts":      sum.TypeCounts,
		"log_severity_counts":  sum.SeverityCounts,
		"user_activity_counts": sum.UserActivityCounts,
	})
}

type statisticsResponse struct {
	Rows              int                 `json:"rows"`
	AverageWordCount  *float64            `json:"average_word_count"`
	AverageDigitCount *float64            `json:"average_digit_count"`
	ErrorCodeCounts   aggregator.Counts   `json:"error_code_counts"`
	Errors            map[string]APIError `json:"errors,omitempty"`
}

func (s *Server) handleStatistics(c *gin.Context) {
	entries := s.table.Entries()
	resp := statisticsResponse{
		Rows:            len(entries),
		ErrorCodeCounts: aggregator.ErrorCodeCounts(entries),
	}

	averages := []struct {
		key string
		dst **float64
		fn  func([]model.LogEntry) (float64, error)
	}{
		{"average_word_count", &resp.AverageWordCount, aggregator.AverageWordCount},
		{"average_digit_count", &resp.AverageDigitCount, aggregator.AverageDigitCount},
	}
	for _, a := range averages {
		avg, err := a.fn(entries)
		if err != nil {
			if resp.Errors == nil {
				resp.Errors = make(map[string]APIError)
			}
			resp.Errors[a.key] = newAPIError(err)
			continue
		}
		*a.dst = &avg
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleVisualization(c *gin.Context) {
	images, errs := s.charts.Dashboard(s.table.Entries())

	charts := make(map[string]string, len(images))
	for name, img := range images {
		charts[name] = img.Base64()
	}
	chartErrors := make(map[string]APIError, len(errs))
	for name, err := range errs {
		chartErrors[name] = newAPIError(err)
		s.requestLog(c).WithError(err).WithField("chart", name).Warn("chart not rendered")
	}

	c.JSON(http.StatusOK, gin.H{"charts": charts, "errors": chartErrors})
}

func (s *Server) handleChart(c *gin.Context) {
	img, err := s.charts.Render(s.table.Entries(), c.Param("name"))
	if err != nil {
		apiErr := newAPIError(err)
		status := http.StatusUnprocessableEntity
		if apiErr.Kind == KindNotFound {
			status = http.StatusNotFound
		}
		abortWithError(c, status, apiErr)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

type searchResponse struct {
	Keyword string           `json:"keyword"`
	Count   int              `json:"count"`
	Results []map[string]any `json:"results"`
}

// handleSearch reads the keyword from the form body (POST) or the query string.
func (s *Server) handleSearch(c *gin.Context) {
	keyword, ok := c.GetPostForm("keyword")
	if !ok {
		keyword, ok = c.GetQuery("keyword")
	}
	if !ok {
		abortWithError(c, http.StatusBadRequest, APIError{Kind: KindBadRequest, Message: "missing keyword parameter"})
		return
	}

	rows := parser.Annotate(s.table.Search(keyword).Entries())
	results := make([]map[string]any, len(rows))
	for i, row := range rows {
		results[i] = row.Record()
	}
	c.JSON(http.StatusOK, searchResponse{Keyword: keyword, Count: len(results), Results: results})
}

// ---------------------------------------------------------------------------
// Host metrics
// ---------------------------------------------------------------------------

func (s *Server) handleMonitoring(c *gin.Context) {
	c.JSON(http.StatusOK, s.collector.Snapshot(c.Request.Context()))
}

// handleSendAlert is a placeholder for an alert channel; it always succeeds.
func (s *Server) handleSendAlert(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"source": s.table.Source(),
		"rows":   s.table.Len(),
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}
