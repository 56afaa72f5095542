package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/patient-companion/internal/middleware"
	apperrors "github.com/jwalitptl/patient-companion/pkg/errors"
	"github.com/jwalitptl/patient-companion/pkg/httputil"
)

// UserID is the authenticated caller set by the auth middleware.
func UserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}

// BindJSON binds the body into v and answers 400 on failure.
func BindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return false
	}
	return true
}

// Paging reads page and limit query parameters.
func Paging(c *gin.Context, defaultLimit int) (page, limit int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return page, limit
}
