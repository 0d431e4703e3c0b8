package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core/user"
	"github.com/trezcool/elimu/tests"
)

func Test_learningApi(t *testing.T) {
	app := setup(t)
	teacher := testutil.CreateUser(t, app.usrRepo, "Teacher", "teacher@test.cd", "", user.RoleAdmin)
	student := testutil.CreateUser(t, app.usrRepo, "Student", "student@test.cd", "", "")
	cookie := app.sessionCookie(t, student)

	c := testutil.CreateCourse(t, app.courseRepo, teacher.ID, testutil.CourseOpts{Title: "Go", Price: 10, IsPublished: true})
	free := testutil.CreateSection(t, app.courseRepo, c.ID, testutil.SectionOpts{
		Position: 0, IsPublished: true, IsFree: true, VideoURL: "https://videos.test/free.mp4",
	})
	paid := testutil.CreateSection(t, app.courseRepo, c.ID, testutil.SectionOpts{
		Position: 1, IsPublished: true, VideoURL: "https://videos.test/paid.mp4",
	})
	coursePath := "/v1/courses/" + c.ID

	t.Run("locked section", func(t *testing.T) {
		rec := app.serve(t, http.MethodGet, coursePath+"/sections/"+paid.ID, cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "video_url")
		assert.NotContains(t, rec.Body.String(), "paid.mp4")

		var page struct {
			Visibility string `json:"visibility"`
		}
		decode(t, rec, &page)
		assert.Equal(t, "locked", page.Visibility)

		rec = app.serve(t, http.MethodPut, coursePath+"/sections/"+paid.ID+"/progress", cookie, map[string]bool{"is_completed": true})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "section is locked", rec.Body.String())
	})

	t.Run("free section", func(t *testing.T) {
		rec := app.serve(t, http.MethodGet, coursePath+"/sections/"+free.ID, cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), "free.mp4")
	})

	t.Run("progress body is required", func(t *testing.T) {
		rec := app.serve(t, http.MethodPut, coursePath+"/sections/"+free.ID+"/progress", cookie, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "is_completed: this field is required", rec.Body.String())
	})

	t.Run("enroll", func(t *testing.T) {
		rec := app.serve(t, http.MethodPost, coursePath+"/enroll", cookie)
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		rec = app.serve(t, http.MethodPost, coursePath+"/enroll", cookie)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = app.serve(t, http.MethodGet, coursePath+"/sections/"+paid.ID, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "paid.mp4")

		rec = app.serve(t, http.MethodPost, "/v1/courses/unknown/enroll", cookie)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("mark progress", func(t *testing.T) {
		rec := app.serve(t, http.MethodPut, coursePath+"/sections/"+paid.ID+"/progress", cookie, map[string]bool{"is_completed": true})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var upd struct {
			CourseProgress float64 `json:"course_progress"`
		}
		decode(t, rec, &upd)
		assert.Equal(t, float64(50), upd.CourseProgress)

		rec = app.serve(t, http.MethodGet, "/v1/me/progress", cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var agg struct {
			Total float64 `json:"total"`
		}
		decode(t, rec, &agg)
		assert.Equal(t, float64(50), agg.Total)
	})

	t.Run("dashboard", func(t *testing.T) {
		rec := app.serve(t, http.MethodGet, "/v1/learning", cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var entries []struct {
			Course struct {
				ID string `json:"id"`
			} `json:"course"`
		}
		decode(t, rec, &entries)
		require.Len(t, entries, 1)
		assert.Equal(t, c.ID, entries[0].Course.ID)

		rec = app.serve(t, http.MethodGet, "/v1/learning", app.sessionCookie(t, teacher))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("instructor performance", func(t *testing.T) {
		rec := app.serve(t, http.MethodGet, "/v1/instructor/performance", cookie)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.serve(t, http.MethodGet, "/v1/instructor/performance", app.sessionCookie(t, teacher))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var perf struct {
			TotalSales   int     `json:"total_sales"`
			TotalRevenue float64 `json:"total_revenue"`
		}
		decode(t, rec, &perf)
		assert.Equal(t, 1, perf.TotalSales)
		assert.Equal(t, float64(10), perf.TotalRevenue)
	})
}
