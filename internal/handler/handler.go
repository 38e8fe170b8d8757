// Package handler holds what the resource handlers share: the response
// envelope, parameter parsing and error attachment.
package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

const DateLayout = "2006-01-02"

// Fail attaches err for the error middleware to render and stops the chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, NewSuccessResponse(data))
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, NewSuccessResponse(data))
}

// BindJSON decodes the body into obj. It reports false after attaching a BadRequest.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		Fail(c, apperrors.BadRequest("invalid request body", err))
		return false
	}
	return true
}

// ParamID parses the named path parameter as a UUID.
func ParamID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		Fail(c, apperrors.BadRequest(fmt.Sprintf("invalid %s", name), err))
		return uuid.Nil, false
	}
	return id, true
}

// QueryDate parses a required YYYY-MM-DD query parameter.
func QueryDate(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		Fail(c, apperrors.BadRequest(fmt.Sprintf("query parameter %s must be a date in %s format", name, DateLayout), err))
		return time.Time{}, false
	}
	return d, true
}

// Pagination reads page and page_size; missing or malformed values fall back to defaults.
func Pagination(c *gin.Context) model.Pagination {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	return model.Pagination{Page: page, PageSize: size}.Normalize()
}

// Actor returns the authenticated caller. Routes without authentication get a zero Actor.
func Actor(c *gin.Context) model.Actor {
	actor, _ := model.ActorFrom(c.Request.Context())
	return actor
}

// IsStaff reports whether the actor may act on any patient's behalf.
func IsStaff(a model.Actor) bool {
	return a.Role == model.RoleAdmin || a.Role == model.RoleStaff
}
