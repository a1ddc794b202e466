// Package handler holds the request plumbing shared by the resource
// handlers: caller lookup, path and query parsing, and list responses.
package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pharmacy-api/internal/middleware"
	"github.com/jwalitptl/pharmacy-api/internal/model"
	"github.com/jwalitptl/pharmacy-api/pkg/errors"
	"github.com/jwalitptl/pharmacy-api/pkg/httputil"
	"github.com/jwalitptl/pharmacy-api/pkg/validator"
)

// Caller returns the authenticated caller, answering 401 when the route was
// mounted without the auth middleware.
func Caller(c *gin.Context) (model.Caller, bool) {
	caller, ok := middleware.CurrentCaller(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized("Authentification requise"))
	}
	return caller, ok
}

// ParamID parses a positive integer path parameter.
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondWithError(c, errors.BadRequest("ID invalide", err))
		return 0, false
	}
	return id, true
}

// Bind decodes the JSON body into obj and runs its binding rules.
func Bind(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	if msgs := validator.Messages(err); len(msgs) > 0 {
		httputil.RespondWithError(c, errors.Validation(msgs))
	} else {
		httputil.RespondWithError(c, errors.BadRequest("Format JSON invalide", err))
	}
	return false
}

// Page reads page and limit from the query string.
func Page(c *gin.Context) model.Page {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return model.NewPage(page, limit)
}

// RecordFilter reads the list filters shared by consultations and
// prescriptions. A date_to without a time covers the whole day.
func RecordFilter(c *gin.Context) (model.RecordFilter, bool) {
	f := model.RecordFilter{
		Status:      c.Query("status"),
		PatientName: c.Query("patient_name"),
	}

	var ok bool
	if f.DoctorID, ok = optionalID(c, "doctor_id"); !ok {
		return f, false
	}
	if f.SiteID, ok = optionalID(c, "site_id"); !ok {
		return f, false
	}
	if f.DateFrom, f.DateTo, ok = dateRange(c); !ok {
		return f, false
	}
	return f, true
}

// StatsFilter reads the aggregate filters.
func StatsFilter(c *gin.Context) (model.StatsFilter, bool) {
	var (
		f  model.StatsFilter
		ok bool
	)
	if f.DoctorID, ok = optionalID(c, "doctor_id"); !ok {
		return f, false
	}
	if f.SiteID, ok = optionalID(c, "site_id"); !ok {
		return f, false
	}
	if f.DateFrom, f.DateTo, ok = dateRange(c); !ok {
		return f, false
	}
	return f, true
}

func optionalID(c *gin.Context, key string) (*int64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondWithError(c, errors.BadRequest("Paramètre "+key+" invalide", err))
		return nil, false
	}
	return &id, true
}

func dateRange(c *gin.Context) (*time.Time, *time.Time, bool) {
	from, ok := optionalDate(c, "date_from")
	if !ok {
		return nil, nil, false
	}
	to, ok := optionalDate(c, "date_to")
	if !ok {
		return nil, nil, false
	}
	if to != nil && model.IsDateOnly(c.Query("date_to")) {
		end := to.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	return from, to, true
}

func optionalDate(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := model.ParseTime(raw)
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("Paramètre "+key+" invalide", err))
		return nil, false
	}
	return &t, true
}

// Site picks the site a new record belongs to: the caller's current site,
// then the body, then the X-Site-ID header.
func Site(c *gin.Context, caller model.Caller, fromBody *int64) *int64 {
	if caller.CurrentSiteID != nil {
		return caller.CurrentSiteID
	}
	if fromBody != nil {
		return fromBody
	}
	return middleware.SiteID(c)
}

// RespondList writes one page of results with its pagination block.
func RespondList[T any](c *gin.Context, res *model.ListResult[T]) {
	items := res.Items
	if items == nil {
		items = []T{}
	}
	httputil.RespondWithPagination(c, items,
		httputil.NewPagination(res.Page.Page, res.Page.Limit, res.Total))
}
