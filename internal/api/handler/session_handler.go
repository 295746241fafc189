package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lavoroapp/marketplace-api/internal/core/domain"
	"github.com/lavoroapp/marketplace-api/internal/core/sync"
)

// SessionHandler serves the per-profile views the sync engine maintains:
// profile, role-dependent job projection, next upcoming job, and hires.
// Every request opens (or reuses) the caller's session; the projection it
// reads is whatever snapshot the engine last converged on.
type SessionHandler struct {
	sessions *sync.Manager
}

func NewSessionHandler(sessions *sync.Manager) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type jobsResponse struct {
	Jobs []jobResponse `json:"jobs"`
}

type nextJobResponse struct {
	Job *jobResponse `json:"job"`
}

// Profile handles GET /v1/profile.
//
// @Summary      Get the signed-in profile
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Profile
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/profile [get]
func (h *SessionHandler) Profile(c echo.Context) error {
	profileID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	sess, err := h.sessions.Open(c.Request().Context(), profileID)
	if err != nil {
		return err
	}

	p := sess.Profile()
	return c.JSON(http.StatusOK, p)
}

// Jobs handles GET /v1/jobs — the role-dependent job projection.
// Employers see their own postings; workers see the open-job feed annotated
// with their application state.
//
// @Summary      List jobs for the signed-in profile
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  jobsResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/jobs [get]
func (h *SessionHandler) Jobs(c echo.Context) error {
	profileID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	sess, err := h.sessions.Open(c.Request().Context(), profileID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toJobsResponse(sess.Jobs()))
}

// NextJob handles GET /v1/jobs/next — the soonest future job in the caller's
// projection, or null when nothing upcoming exists.
//
// @Summary      Get the next upcoming job
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  nextJobResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/jobs/next [get]
func (h *SessionHandler) NextJob(c echo.Context) error {
	profileID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	sess, err := h.sessions.Open(c.Request().Context(), profileID)
	if err != nil {
		return err
	}

	job, ok := sess.NextUpcoming(time.Now().UTC())
	if !ok {
		return c.JSON(http.StatusOK, nextJobResponse{})
	}
	resp := toJobResponse(sync.JobView{Job: job})
	return c.JSON(http.StatusOK, nextJobResponse{Job: &resp})
}

// RefreshJobs handles POST /v1/jobs/refresh — tears down the job subscription
// and reissues it, forcing a fresh snapshot.
//
// @Summary      Force a fresh job snapshot
// @Tags         jobs
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /v1/jobs/refresh [post]
func (h *SessionHandler) RefreshJobs(c echo.Context) error {
	profileID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	sess, err := h.sessions.Open(c.Request().Context(), profileID)
	if err != nil {
		return err
	}

	if err := sess.RefreshJobs(); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Hires handles GET /v1/hires — the worker's confirmed engagements.
//
// @Summary      List hires for the signed-in worker
// @Tags         hires
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Hire
// @Failure      401  {object}  map[string]string
// @Router       /v1/hires [get]
func (h *SessionHandler) Hires(c echo.Context) error {
	profileID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	sess, err := h.sessions.Open(c.Request().Context(), profileID)
	if err != nil {
		return err
	}

	hires, err := sess.Hires(c.Request().Context())
	if err != nil {
		return err
	}
	if hires == nil {
		hires = []domain.Hire{}
	}
	return c.JSON(http.StatusOK, hires)
}

// Logout handles POST /v1/logout — tears down the caller's session and every
// subscription it holds.
//
// @Summary      Log out and tear down the session
// @Tags         session
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /v1/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	profileID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	h.sessions.Logout(profileID)
	return c.NoContent(http.StatusNoContent)
}
