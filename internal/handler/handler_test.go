package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/pharmacy-api/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestRecordFilter_DateOnlyUpperBound(t *testing.T) {
	c, _ := testContext("/?date_from=2024-03-01&date_to=2024-03-31&status=COMPLETED&site_id=2")

	f, ok := RecordFilter(c)
	require.True(t, ok)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *f.DateFrom)
	assert.Equal(t, time.Date(2024, 3, 31, 23, 59, 59, 999999999, time.UTC), *f.DateTo)
	assert.Equal(t, "COMPLETED", f.Status)
	assert.Equal(t, int64(2), *f.SiteID)
	assert.Nil(t, f.DoctorID)
}

func TestRecordFilter_RejectsBadValues(t *testing.T) {
	c, w := testContext("/?doctor_id=abc")
	_, ok := RecordFilter(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = testContext("/?date_to=yesterday")
	_, ok = RecordFilter(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPage(t *testing.T) {
	c, _ := testContext("/?page=2&limit=500")
	assert.Equal(t, model.Page{Page: 2, Limit: model.MaxPageLimit}, Page(c))

	c, _ = testContext("/")
	assert.Equal(t, model.Page{Page: 1, Limit: model.DefaultPageLimit}, Page(c))
}

func TestSite_Precedence(t *testing.T) {
	c, _ := testContext("/")
	c.Set("site_id", int64(3))

	current, body := int64(1), int64(2)

	assert.Equal(t, int64(1), *Site(c, model.Caller{CurrentSiteID: &current}, &body))
	assert.Equal(t, int64(2), *Site(c, model.Caller{}, &body))
	assert.Equal(t, int64(3), *Site(c, model.Caller{}, nil))
}
