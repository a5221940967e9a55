package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/service"
	"github.com/Veraticus/cashmind/internal/validate"
)

type transactionResponse struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Notes       string  `json:"notes,omitempty"`
	Source      string  `json:"source"`
	Amount      float64 `json:"amount"`
	ID          int64   `json:"id"`
}

func newTransactionResponse(t model.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Date:        t.Date.Format(model.DateLayout),
		Amount:      t.Amount.InexactFloat64(),
		Description: t.Description,
		Type:        string(t.Type),
		Category:    t.Category,
		Notes:       t.Notes,
		Source:      string(t.Source),
	}
}

type budgetResponse struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Period       string  `json:"period"`
	Limit        float64 `json:"limit"`
	MonthlyLimit float64 `json:"monthlyLimit"`
	ID           int64   `json:"id"`
}

func newBudgetResponse(b model.Budget) budgetResponse {
	return budgetResponse{
		ID:           b.ID,
		Name:         b.Name,
		Category:     b.Category,
		Period:       string(b.Period),
		Limit:        b.Limit.InexactFloat64(),
		MonthlyLimit: b.MonthlyLimit().Round(2).InexactFloat64(),
	}
}

type goalResponse struct {
	Deadline      *string `json:"deadline,omitempty"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	TargetAmount  float64 `json:"targetAmount"`
	CurrentAmount float64 `json:"currentAmount"`
	Progress      float64 `json:"progress"`
	ID            int64   `json:"id"`
}

func newGoalResponse(g model.Goal) goalResponse {
	resp := goalResponse{
		ID:            g.ID,
		Name:          g.Name,
		Description:   g.Description,
		TargetAmount:  g.TargetAmount.InexactFloat64(),
		CurrentAmount: g.CurrentAmount.InexactFloat64(),
		Progress:      g.Progress().Round(1).InexactFloat64(),
	}
	if g.Deadline != nil {
		d := g.Deadline.Format(model.DateLayout)
		resp.Deadline = &d
	}
	return resp
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid id")
		return 0, false
	}
	return id, true
}

func parseDateQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(model.DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", common.ErrInvalidInput, key)
	}
	return &t, nil
}

// listTransactions accepts type, category, from (inclusive), to (inclusive) and limit.
func (s *Server) listTransactions(c *gin.Context) {
	filter := service.TransactionFilter{
		Type:     model.TransactionType(c.Query("type")),
		Category: c.Query("category"),
		Limit:    100,
	}
	if filter.Type != "" && !filter.Type.Valid() {
		badRequest(c, "type must be income or expense")
		return
	}

	from, err := parseDateQuery(c, "from")
	if err != nil {
		s.fail(c, err)
		return
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		s.fail(c, err)
		return
	}
	filter.StartDate = from
	if to != nil {
		end := to.AddDate(0, 0, 1)
		filter.EndDate = &end
	}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive number")
			return
		}
		filter.Limit = n
	}

	txns, err := s.storage.GetTransactions(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		resp = append(resp, newTransactionResponse(t))
	}
	c.JSON(http.StatusOK, resp)
}

// bindFields decodes a JSON object for the validators.
func bindFields(c *gin.Context) (map[string]any, bool) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		badRequest(c, "Invalid request body")
		return nil, false
	}
	return body, true
}

func (s *Server) createTransaction(c *gin.Context) {
	body, ok := bindFields(c)
	if !ok {
		return
	}

	data := validate.Transaction(body, s.now())
	if data == nil {
		badRequest(c, "Invalid transaction")
		return
	}

	txn, err := data.ToTransaction(model.SourceManual)
	if err != nil {
		badRequest(c, "Invalid transaction")
		return
	}
	if err := s.storage.CreateTransaction(c.Request.Context(), &txn); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTransactionResponse(txn))
}

func (s *Server) deleteTransaction(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.storage.DeleteTransaction(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listBudgets(c *gin.Context) {
	budgets, err := s.storage.GetBudgets(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		resp = append(resp, newBudgetResponse(b))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) createBudget(c *gin.Context) {
	body, ok := bindFields(c)
	if !ok {
		return
	}

	data := validate.Budget(body)
	if data == nil {
		badRequest(c, "Invalid budget")
		return
	}

	budget := data.ToBudget()
	if err := s.storage.CreateBudget(c.Request.Context(), &budget); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newBudgetResponse(budget))
}

func (s *Server) deleteBudget(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.storage.DeleteBudget(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listGoals(c *gin.Context) {
	goals, err := s.storage.GetGoals(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		resp = append(resp, newGoalResponse(g))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) createGoal(c *gin.Context) {
	body, ok := bindFields(c)
	if !ok {
		return
	}

	data := validate.Goal(body)
	if data == nil {
		badRequest(c, "Invalid goal")
		return
	}

	goal := data.ToGoal()
	if err := s.storage.CreateGoal(c.Request.Context(), &goal); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newGoalResponse(goal))
}

func (s *Server) contributeGoal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	body, ok := bindFields(c)
	if !ok {
		return
	}

	data := validate.GoalContribution(map[string]any{"goalId": id, "amount": body["amount"]})
	if data == nil {
		badRequest(c, "Invalid contribution")
		return
	}

	goal, err := s.storage.ContributeToGoal(c.Request.Context(), data.GoalID, data.DecimalAmount())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newGoalResponse(*goal))
}

type categoryResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func categoryList(cats []model.Category) []categoryResponse {
	resp := make([]categoryResponse, len(cats))
	for i, c := range cats {
		resp[i] = categoryResponse{Value: c.Value, Label: c.Label}
	}
	return resp
}

func (s *Server) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"expense": categoryList(model.ExpenseCategories),
		"income":  categoryList(model.IncomeCategories),
	})
}
