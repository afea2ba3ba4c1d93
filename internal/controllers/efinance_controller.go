package controllers

import (
	"context"
	stderrors "errors"
	"net/http"
	"strconv"

	"efb/internal/efinance"
	e "efb/internal/errors"
	"efb/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EfinanceService is the part of *efinance.Service the controller uses.
type EfinanceService interface {
	Find(ctx context.Context, args efinance.SearchArgs) ([]models.CompanyRecord, *models.Snapshot, error)
	ComputeStatistics(ctx context.Context, refresh bool) (efinance.Statistics, error)
	Cached() *models.Snapshot
}

type EfinanceController struct {
	Service EfinanceService
	Logger  *zap.Logger
}

// SearchResponse is the format=json body of GET /api/v1/companies.
type SearchResponse struct {
	DataDate  string                 `json:"data_date"`
	FileName  string                 `json:"file_name"`
	Total     int                    `json:"total"`
	Companies []models.CompanyRecord `json:"companies"`
}

// Health reports whether a snapshot is cached. It never triggers a fetch.
func (ec *EfinanceController) Health(c *gin.Context) {
	cacheState := gin.H{"populated": false}
	if s := ec.Service.Cached(); s != nil {
		cacheState = gin.H{
			"populated":  true,
			"data_date":  s.DataDate,
			"fetched_at": s.FetchedAt,
			"registered": len(s.Registered),
			"cancelled":  len(s.Cancelled),
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP", "cache": cacheState})
}

// SearchCompanies serves the search operation. Query parameters mirror the
// tool arguments; format=json returns every match instead of the text report.
func (ec *EfinanceController) SearchCompanies(c *gin.Context) {
	args, err := efinance.ValidateSearchArgs(searchQuery(c))
	if err != nil {
		ec.fail(c, err)
		return
	}

	matches, snapshot, err := ec.Service.Find(c.Request.Context(), args)
	if err != nil {
		ec.fail(c, err)
		return
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, SearchResponse{
			DataDate:  snapshot.DataDate,
			FileName:  snapshot.FileName,
			Total:     len(matches),
			Companies: matches,
		})
		return
	}

	c.String(http.StatusOK, efinance.FormatSearchResult(matches, snapshot))
}

// GetStatistics serves the statistics operation.
func (ec *EfinanceController) GetStatistics(c *gin.Context) {
	st, err := ec.Service.ComputeStatistics(c.Request.Context(), refreshQuery(c))
	if err != nil {
		ec.fail(c, err)
		return
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, st)
		return
	}

	c.String(http.StatusOK, efinance.FormatStatistics(st))
}

func (ec *EfinanceController) fail(c *gin.Context, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError && ec.Logger != nil {
		ec.Logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", e.Label(err)),
			zap.Error(err),
			zap.NamedError("cause", e.Cause(err)),
		)
	}
	c.JSON(status, gin.H{"error": e.Public(err).Error()})
}

// StatusCode maps an error kind to an HTTP status.
func StatusCode(err error) int {
	switch {
	case stderrors.Is(err, e.ErrInvalidArgument):
		return http.StatusBadRequest
	case stderrors.Is(err, e.ErrPortalUnavailable),
		stderrors.Is(err, e.ErrDownloadFailed),
		stderrors.Is(err, e.ErrLinkNotFound),
		stderrors.Is(err, e.ErrUntrustedDownloadPath),
		stderrors.Is(err, e.ErrUnparseableDocument):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func searchQuery(c *gin.Context) map[string]any {
	args := map[string]any{"refresh": refreshQuery(c)}
	for _, key := range []string{"company_name", "business_type", "status"} {
		if v, ok := c.GetQuery(key); ok {
			args[key] = v
		}
	}
	return args
}

func refreshQuery(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.Query("refresh"))
	return err == nil && v
}
