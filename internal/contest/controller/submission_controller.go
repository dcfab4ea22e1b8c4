// Package controller exposes the contest HTTP API.
package controller

import (
	"time"

	"coderena/internal/contest/model"
	"coderena/internal/contest/service"
	appErr "coderena/pkg/errors"
	"coderena/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// SubmissionController handles submission endpoints.
type SubmissionController struct {
	submissions *service.SubmissionService
}

// NewSubmissionController creates a new controller.
func NewSubmissionController(submissions *service.SubmissionService) *SubmissionController {
	return &SubmissionController{submissions: submissions}
}

// RegisterRoutes wires the submission endpoints into the router group.
func (ctl *SubmissionController) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/submissions", ctl.Create)
	group.PUT("/submissions/callback", ctl.Callback)
	group.GET("/submissions/:token", ctl.Get)
}

type createSubmissionBody struct {
	TeamID    int64  `json:"team_id" binding:"required"`
	ProblemID int64  `json:"problem_id" binding:"required"`
	Language  string `json:"language" binding:"required"`
	Code      string `json:"code" binding:"required"`
}

// submissionView is the API shape of a submission. Source code and judge
// data stay out of responses.
type submissionView struct {
	ID        int64           `json:"id"`
	Token     string          `json:"token"`
	TeamID    int64           `json:"team_id"`
	ProblemID int64           `json:"problem_id"`
	Language  int             `json:"language"`
	State     model.CodeState `json:"state"`
	Points    int             `json:"points"`
	Best      bool            `json:"best"`
	CreatedAt time.Time       `json:"created_at"`
	JudgedAt  *time.Time      `json:"judged_at,omitempty"`
}

func toView(sub *model.Submission) submissionView {
	view := submissionView{
		ID:        sub.ID,
		Token:     sub.Token,
		TeamID:    sub.TeamID,
		ProblemID: sub.ProblemID,
		Language:  sub.Language,
		State:     sub.State,
		Points:    sub.Points,
		Best:      sub.Best,
		CreatedAt: sub.CreatedAt,
	}
	if !sub.JudgedAt.IsZero() {
		judgedAt := sub.JudgedAt
		view.JudgedAt = &judgedAt
	}
	return view
}

// Create accepts a new submission and returns it in QUEUED state.
func (ctl *SubmissionController) Create(c *gin.Context) {
	var body createSubmissionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	sub, err := ctl.submissions.Create(c.Request.Context(), service.CreateSubmissionRequest{
		TeamID:    body.TeamID,
		ProblemID: body.ProblemID,
		Language:  body.Language,
		Code:      body.Code,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toView(sub))
}

type callbackBody struct {
	Token  string `json:"token" binding:"required"`
	Status struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// Callback receives the engine's result report. The engine only needs an
// acknowledgement, never scoring detail.
func (ctl *SubmissionController) Callback(c *gin.Context) {
	var body callbackBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ErrorWithCode(c, appErr.InvalidCallback, "invalid callback body: "+err.Error())
		return
	}

	_, err := ctl.submissions.HandleCallback(c.Request.Context(), service.CallbackRequest{
		Token:    body.Token,
		StatusID: body.Status.ID,
		Stdout:   body.Stdout,
		Stderr:   body.Stderr,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c)
}

// Get returns the submission for an engine token.
func (ctl *SubmissionController) Get(c *gin.Context) {
	token := c.Param("token")
	sub, err := ctl.submissions.FindByToken(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toView(sub))
}
