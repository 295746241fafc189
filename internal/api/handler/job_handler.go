package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lavoroapp/marketplace-api/internal/api/metrics"
	"github.com/lavoroapp/marketplace-api/internal/core/domain"
	"github.com/lavoroapp/marketplace-api/internal/core/ports"
	"github.com/lavoroapp/marketplace-api/internal/core/sync"
)

// JobHandler handles the job mutations: posting, applying, and the
// cascading delete.
type JobHandler struct {
	jobService ports.JobService
	jobs       ports.JobRepository
	sessions   *sync.Manager
	cascade    *sync.CascadingDeleteCoordinator
}

func NewJobHandler(
	jobService ports.JobService,
	jobs ports.JobRepository,
	sessions *sync.Manager,
	cascade *sync.CascadingDeleteCoordinator,
) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		jobs:       jobs,
		sessions:   sessions,
		cascade:    cascade,
	}
}

type createJobRequest struct {
	Category       string              `json:"category" validate:"required"`
	CategoryDetail string              `json:"category_detail"`
	Date           string              `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime      string              `json:"start_time" validate:"required,datetime=15:04"`
	EndTime        string              `json:"end_time" validate:"required,datetime=15:04"`
	Address        string              `json:"address" validate:"required"`
	HourlyRate     float64             `json:"hourly_rate" validate:"gt=0"`
	Description    string              `json:"description"`
	Location       *domain.Coordinates `json:"location"`
}

type applyRequest struct {
	CoverLetter string `json:"cover_letter"`
}

// Create handles POST /v1/jobs — an employer posts a new job.
//
// @Summary      Post a new job
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createJobRequest  true  "Job details"
// @Success      201   {object}  jobResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/jobs [post]
func (h *JobHandler) Create(c echo.Context) error {
	profileID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req createJobRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	job, err := h.jobService.CreateJob(c.Request().Context(), ports.JobInput{
		OwnerProfileID: profileID,
		Category:       req.Category,
		CategoryDetail: req.CategoryDetail,
		Date:           req.Date,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Address:        req.Address,
		HourlyRate:     req.HourlyRate,
		Description:    req.Description,
		Location:       req.Location,
	})
	if err != nil {
		return err
	}

	metrics.JobsCreatedTotal.WithLabelValues(job.Category).Inc()
	return c.JSON(http.StatusCreated, toJobResponse(sync.JobView{Job: *job}))
}

// Apply handles POST /v1/jobs/:id/apply — a worker applies to a job from the
// feed. The engine writes the application document first, then registers the
// worker in the job's applicant set; no rollback on partial failure.
//
// @Summary      Apply to a job
// @Tags         jobs
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string        true  "Job id"
// @Param        body  body  applyRequest  false "Optional cover letter"
// @Success      204
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/jobs/{id}/apply [post]
func (h *JobHandler) Apply(c echo.Context) error {
	profileID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req applyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	sess, err := h.sessions.Open(c.Request().Context(), profileID)
	if err != nil {
		return err
	}

	if err := sess.ApplyToJob(c.Request().Context(), c.Param("id"), req.CoverLetter); err != nil {
		reason := "write_failed"
		switch {
		case errors.Is(err, domain.ErrOperationInFlight):
			reason = "in_flight"
		case errors.Is(err, domain.ErrPermissionDenied):
			reason = "wrong_role"
		case errors.Is(err, domain.ErrJobNotFound):
			reason = "not_in_feed"
		}
		metrics.ApplicationErrorsTotal.WithLabelValues(reason).Inc()
		return err
	}

	metrics.ApplicationsSubmittedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /v1/jobs/:id — the owning employer removes a job and
// everything hanging off it. A job that is already gone reads as converged,
// so the 404 doubles as "nothing left to do".
//
// @Summary      Delete a job and all related documents
// @Tags         jobs
// @Security     BearerAuth
// @Param        id  path  string  true  "Job id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /v1/jobs/{id} [delete]
func (h *JobHandler) Delete(c echo.Context) error {
	profileID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	jobID := c.Param("id")
	job, err := h.jobs.FindByID(c.Request().Context(), jobID)
	if err != nil {
		return err
	}
	if job.OwnerProfileID != profileID {
		return domain.ErrPermissionDenied
	}

	start := time.Now()
	if err := h.cascade.DeleteJobAndRelated(c.Request().Context(), jobID); err != nil {
		var pf *domain.PartialFailureError
		if errors.As(err, &pf) {
			metrics.CascadeDeletesTotal.WithLabelValues("partial").Inc()
		}
		return err
	}

	metrics.CascadeDeletesTotal.WithLabelValues("completed").Inc()
	metrics.CascadeDuration.Observe(time.Since(start).Seconds())
	return c.NoContent(http.StatusNoContent)
}
