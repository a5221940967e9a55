package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/cashmind/internal/health"
	"github.com/Veraticus/cashmind/internal/model"
)

type snapshotResponse struct {
	AdviceGeneratedAt    *string `json:"adviceGeneratedAt,omitempty"`
	Month                string  `json:"month"`
	OverallStatus        string  `json:"overallStatus"`
	SavingsRateScore     int     `json:"savingsRateScore"`
	FixedExpensesScore   int     `json:"fixedExpensesScore"`
	BudgetAdherenceScore int     `json:"budgetAdherenceScore"`
	TrendScore           int     `json:"trendScore"`
	OverallScore         int     `json:"overallScore"`
}

func newSnapshotResponse(s model.HealthSnapshot) snapshotResponse {
	resp := snapshotResponse{
		Month:                s.Month.Format("2006-01"),
		OverallStatus:        s.OverallStatus,
		SavingsRateScore:     s.SavingsRateScore,
		FixedExpensesScore:   s.FixedExpensesScore,
		BudgetAdherenceScore: s.BudgetAdherenceScore,
		TrendScore:           s.TrendScore,
		OverallScore:         s.OverallScore,
	}
	if s.AdviceGeneratedAt != nil {
		at := s.AdviceGeneratedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.AdviceGeneratedAt = &at
	}
	return resp
}

type healthResponse struct {
	Breakdown       *health.Breakdown        `json:"breakdown"`
	Onboarding      *health.OnboardingStatus `json:"onboarding,omitempty"`
	Month           string                   `json:"month"`
	OverallStatus   health.Status            `json:"overallStatus"`
	OverallScore    int                      `json:"overallScore"`
	NeedsOnboarding bool                     `json:"needsOnboarding"`
}

func (s *Server) getHealthScore(c *gin.Context) {
	res, err := s.health.Evaluate(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, healthResponse{
		Breakdown:       res.Breakdown,
		Onboarding:      res.Onboarding,
		Month:           res.Month.Format("2006-01"),
		OverallStatus:   res.OverallStatus,
		OverallScore:    res.OverallScore,
		NeedsOnboarding: res.NeedsOnboarding,
	})
}

func (s *Server) getHealthHistory(c *gin.Context) {
	months := health.HistoryMonths
	if raw := c.Query("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "months must be a number")
			return
		}
		months = n
	}

	snapshots, err := s.health.History(c.Request.Context(), months)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := make([]snapshotResponse, 0, len(snapshots))
	for _, snap := range snapshots {
		resp = append(resp, newSnapshotResponse(snap))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getAdvice(c *gin.Context) {
	s.advice(c, false)
}

func (s *Server) refreshAdvice(c *gin.Context) {
	s.advice(c, true)
}

func (s *Server) advice(c *gin.Context, refresh bool) {
	text, err := s.health.Advice(c.Request.Context(), refresh)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"advice": text})
}
