// Package httpapi exposes roll call, roster and report operations over HTTP.
package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"rollcall/internal/absence"
	"rollcall/internal/attendance"
	"rollcall/internal/calendar"
	"rollcall/internal/importer"
	"rollcall/internal/report"
	"rollcall/internal/roster"
	"rollcall/internal/store"
)

// Services bundles everything the handlers call into.
type Services struct {
	Students *roster.Service
	Absences *absence.Repository
	Walker   *attendance.Walker
	Reports  *report.Generator
	Importer *importer.Importer
	Clock    calendar.Clock
	DB       *store.DB
	Redis    *store.Redis
}

// NewServices wires the domain services on top of db. Calendar days are
// computed in loc.
func NewServices(db *store.DB, redis *store.Redis, loc *time.Location, clock calendar.Clock, log *zap.Logger) Services {
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	students := roster.NewRepository(db)
	absences := absence.NewRepository(db)
	studentSvc := roster.NewService(students, log.Named("roster"))
	return Services{
		Students: studentSvc,
		Absences: absences,
		Walker:   attendance.NewWalker(students, absences, loc, log.Named("attendance")),
		Reports:  report.NewGenerator(absences, students, log.Named("report")),
		Importer: importer.New(studentSvc, clock, log.Named("importer")),
		Clock:    clock,
		DB:       db,
		Redis:    redis,
	}
}

type Handler struct {
	Services
	log       *zap.Logger
	maxUpload int64
}

func (h *Handler) today() calendar.Day {
	return h.Walker.Today(h.Clock.Now())
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	ctx := c.Request.Context()
	dbHealthy := h.DB.Healthy(ctx)
	body := gin.H{"db": dbHealthy}
	healthy := dbHealthy
	if h.Redis != nil {
		redisHealthy := h.Redis.Healthy(ctx)
		body["redis"] = redisHealthy
		healthy = healthy && redisHealthy
	}
	status := http.StatusOK
	body["status"] = "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}

// ---------- Import ----------

// ImportStudents expects a multipart form with the roster in field "file".
func (h *Handler) ImportStudents(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	defer file.Close()

	created, err := h.Importer.Import(c.Request.Context(), header.Filename, file)
	if err != nil {
		var ie *importer.ImportError
		if errors.As(err, &ie) {
			c.JSON(http.StatusBadRequest, gin.H{"error": ie.Error(), "row": ie.Row, "created": created})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": created})
}

// ---------- Roll call ----------

// Attendance lists the roster with today's status.
func (h *Handler) Attendance(c *gin.Context) {
	lines, err := h.Reports.Roster(c.Request.Context(), h.today())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": lines})
}

// Session shows the student at ?position=N, redirecting to the completion
// report once the walk runs past the end of the roster.
func (h *Handler) Session(c *gin.Context) {
	position := 0
	if v := c.Query("position"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(c, errors.Wrap(errBadRequest, "position must be an integer"))
			return
		}
		position = parsed
	}
	step, err := h.Walker.Current(c.Request.Context(), position, h.today())
	if errors.Is(err, attendance.ErrOutOfRange) {
		c.Redirect(http.StatusSeeOther, "/api/attendance/complete")
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, step)
}

type markRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Position  int    `json:"position"`
	Action    string `json:"action" binding:"required"`
}

// Mark records a present/absent decision and returns the next position.
func (h *Handler) Mark(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := attendance.ParseDecision(req.Action)
	if err != nil {
		h.respondError(c, err)
		return
	}
	next, err := h.Walker.Mark(c.Request.Context(), req.StudentID, req.Position, d, h.Clock.Now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"next_position": next})
}

// Complete lists today's absentees, most recently marked first.
func (h *Handler) Complete(c *gin.Context) {
	l, err := h.Reports.Completion(c.Request.Context(), h.today())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":            l.Date,
		"absent_students": l.Absences,
		"total_absent":    l.TotalAbsent,
	})
}

// ---------- Reports ----------

func (h *Handler) PrintReport(c *gin.Context) {
	s, err := h.Reports.Report(c.Request.Context(), h.today())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// Absentees lists absentees for ?date=YYYY-MM-DD, today by default.
func (h *Handler) Absentees(c *gin.Context) {
	l, err := h.Reports.List(c.Request.Context(), c.Query("date"), h.today())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// ---------- Students ----------

func (h *Handler) ListStudents(c *gin.Context) {
	var f roster.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	students, err := h.Students.Search(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students, "total": len(students)})
}

func (h *Handler) GetStudent(c *gin.Context) {
	st, err := h.Students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) CreateStudent(c *gin.Context) {
	var ns roster.NewStudent
	if err := c.ShouldBindJSON(&ns); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := h.Students.Create(c.Request.Context(), ns, h.Clock.Now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	if err := h.Students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Courses(c *gin.Context) {
	courses, err := h.Students.Courses(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// ---------- Absences ----------

// ListAbsences filters by ?from and ?to (inclusive days) and ?search.
func (h *Handler) ListAbsences(c *gin.Context) {
	f := absence.Filter{Search: c.Query("search")}
	for _, p := range []struct {
		param string
		dst   *calendar.Day
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := strings.TrimSpace(c.Query(p.param))
		if raw == "" {
			continue
		}
		day, err := calendar.ParseDay(raw)
		if err != nil {
			h.respondError(c, errors.Wrap(err, p.param))
			return
		}
		*p.dst = day
	}
	entries, err := h.Absences.Search(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"absences": entries, "total": len(entries)})
}

func (h *Handler) DeleteAbsence(c *gin.Context) {
	if err := h.Absences.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
