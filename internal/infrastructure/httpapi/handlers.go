package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/felixgeelhaar/learnroad/pkg/application"
	"github.com/felixgeelhaar/learnroad/pkg/domain/learning"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// respondPlanError maps domain errors onto HTTP statuses.
func respondPlanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, learning.ErrNoPlan):
		respondError(c, http.StatusNotFound, "no_plan", err)
	case errors.Is(err, learning.ErrCriteriaNotMet):
		respondError(c, http.StatusConflict, "criteria_not_met", err)
	case errors.Is(err, learning.ErrSkipNotAuthorized):
		respondError(c, http.StatusForbidden, "skip_not_authorized", err)
	case errors.Is(err, learning.ErrStepAlreadyCompleted), errors.Is(err, learning.ErrInvalidTransition):
		respondError(c, http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(c, http.StatusServiceUnavailable, "cancelled", err)
	default:
		respondError(c, http.StatusInternalServerError, "internal", err)
	}
}

type createPlanRequest struct {
	application.PipelineInput
	Save bool `json:"save"`
}

func (s *Server) createPlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ctx := c.Request.Context()
	out, err := s.pipeline.Run(ctx, req.PipelineInput)
	if err != nil {
		respondPlanError(c, err)
		return
	}
	if req.Save {
		plan, err := s.plans.CreateFromOutput(ctx, req.Goal, req.Subject, out)
		if err != nil {
			respondPlanError(c, err)
			return
		}
		s.hub.Publish(learning.ProgressEvent{PlanID: plan.ID, Action: learning.EventPlanCreated, Timestamp: time.Now().UTC()})
		c.Header("Location", "/v1/plan")
		c.JSON(http.StatusCreated, out)
		return
	}
	c.JSON(http.StatusOK, out)
}

type batchRequest struct {
	Inputs      []application.PipelineInput `json:"inputs" binding:"required"`
	Concurrency int                         `json:"concurrency"`
}

func (s *Server) createPlans(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.Inputs) == 0 || len(req.Inputs) > maxBatchSize {
		respondError(c, http.StatusBadRequest, "invalid_request",
			errors.New("inputs must hold between 1 and "+strconv.Itoa(maxBatchSize)+" goals"))
		return
	}
	if req.Concurrency <= 0 {
		req.Concurrency = defaultConcurrency
	}
	outs, err := s.pipeline.RunBatch(c.Request.Context(), req.Inputs, req.Concurrency)
	if err != nil {
		respondPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": outs})
}

type scoreRequest struct {
	Text string `json:"text" binding:"required"`
}

func (s *Server) score(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	c.JSON(http.StatusOK, s.enforcer.Score(req.Text))
}

func (s *Server) getPlan(c *gin.Context) {
	plan, err := s.plans.GetPlan(c.Request.Context())
	if err != nil {
		respondPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) status(c *gin.Context) {
	view, err := s.plans.View(c.Request.Context())
	if err != nil {
		respondPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type progressRequest struct {
	learning.StepProgress
	Force bool `json:"force"`
}

func (s *Server) progress(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	stepID := s.currentStepID(c)
	plan, err := s.plans.Progress(c.Request.Context(), req.StepProgress, req.Force)
	if err != nil {
		respondPlanError(c, err)
		return
	}
	s.hub.Publish(learning.ProgressEvent{PlanID: plan.ID, StepID: stepID, Action: learning.EventStepCompleted,
		Minutes: req.MinutesPracticed, Forced: req.Force, Timestamp: time.Now().UTC()})
	c.JSON(http.StatusOK, learning.GetCurrentView(plan))
}

type skipRequest struct {
	Confirm bool `json:"confirm"`
}

func (s *Server) skip(c *gin.Context) {
	var req skipRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	stepID := s.currentStepID(c)
	plan, err := s.plans.Skip(c.Request.Context(), req.Confirm)
	if err != nil {
		respondPlanError(c, err)
		return
	}
	s.hub.Publish(learning.ProgressEvent{PlanID: plan.ID, StepID: stepID, Action: learning.EventStepSkipped, Timestamp: time.Now().UTC()})
	c.JSON(http.StatusOK, learning.GetCurrentView(plan))
}

func (s *Server) mission(c *gin.Context) {
	m, err := s.plans.TodaysMission(c.Request.Context())
	if err != nil {
		respondPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

type hintRequest struct {
	Question string `json:"question"`
}

func (s *Server) hint(c *gin.Context) {
	var req hintRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h, err := s.plans.Hint(c.Request.Context(), req.Question)
	if err != nil {
		respondPlanError(c, err)
		return
	}
	c.JSON(http.StatusOK, h)
}

// events streams plan changes as server-sent events until the client leaves.
func (s *Server) events(c *gin.Context) {
	ch, release := s.hub.Subscribe()
	defer release()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case e, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(e.Action, e)
			return true
		}
	})
}

func (s *Server) currentStepID(c *gin.Context) string {
	plan, err := s.plans.GetPlan(c.Request.Context())
	if err != nil {
		return ""
	}
	if cur := plan.CurrentStep(); cur != nil {
		return cur.ID
	}
	return ""
}
