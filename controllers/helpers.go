package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/garage_backend/config"
	"bitbucket.org/mmdatafocus/garage_backend/models"
	"bitbucket.org/mmdatafocus/garage_backend/utils"
	"bitbucket.org/mmdatafocus/garage_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	mysqlDriver "github.com/go-sql-driver/mysql"
)

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// respondError maps domain errors onto HTTP status codes. Anything not
// recognized is a 500 and gets logged with the request context.
func respondError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(validationErrors)})
		return
	}

	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorInvalidState),
		errors.Is(err, utils.ErrorInvalidTransition),
		errors.Is(err, workflow.ErrorBookingNotApproved):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrorLockNotObtained):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case isDuplicateKeyErr(err):
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate value"})
	default:
		logger := config.GetLogger()
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		config.LogError(logger, "helpers.go", "respondError", c.FullPath(), cid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(validationErrors)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(models.DefaultPageSize)))
	return models.NormalizePage(page, pageSize)
}

// dateRangeQuery parses from/to query params, defaulting to the trailing
// 30 days. The to date is extended to the end of its day.
func dateRangeQuery(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now()
	fromDate := now.AddDate(0, 0, -30)
	toDate := now

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from date, expected YYYY-MM-DD")
		}
		fromDate = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to date, expected YYYY-MM-DD")
		}
		toDate = parsed.Add(24*time.Hour - time.Second)
	}
	return fromDate, toDate, nil
}
