package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rollcall/internal/auth"
	"rollcall/internal/httpmiddleware"
)

// Config carries the router settings that do not belong to a service.
type Config struct {
	JWTSigningKey  string
	JWTIssuer      string
	MaxUploadBytes int64
	// Limiter is optional; nil disables rate limiting.
	Limiter httpmiddleware.Limiter
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(svc Services, cfg Config, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{Services: svc, log: log, maxUpload: cfg.MaxUploadBytes}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(log, "/healthz", "/metrics"))
	r.Use(httpmiddleware.Metrics())
	r.Use(httpmiddleware.CORS())
	r.Use(httpmiddleware.SecurityHeaders())
	if cfg.Limiter != nil {
		r.Use(httpmiddleware.RateLimit(cfg.Limiter, log))
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/attendance", h.Attendance)
		api.GET("/attendance/session", h.Session)
		api.GET("/attendance/complete", h.Complete)

		api.GET("/reports/absentees/print", h.PrintReport)
		api.GET("/reports/absentees", h.Absentees)

		api.GET("/students", h.ListStudents)
		api.GET("/students/:id", h.GetStudent)
		api.GET("/courses", h.Courses)
		api.GET("/absences", h.ListAbsences)
	}

	operator := r.Group("/api", auth.RequireRole(cfg.JWTSigningKey, cfg.JWTIssuer, auth.RoleOperator, auth.RoleAdmin))
	{
		operator.POST("/students/import", h.ImportStudents)
		operator.POST("/attendance/mark", h.Mark)
	}

	admin := r.Group("/api", auth.RequireRole(cfg.JWTSigningKey, cfg.JWTIssuer, auth.RoleAdmin))
	{
		admin.POST("/students", h.CreateStudent)
		admin.DELETE("/students/:id", h.DeleteStudent)
		admin.DELETE("/absences/:id", h.DeleteAbsence)
	}

	return r
}
