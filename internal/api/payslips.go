package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/cashmind/internal/common"
	"github.com/Veraticus/cashmind/internal/model"
	"github.com/Veraticus/cashmind/internal/payslip"
)

type deductionResponse struct {
	Percentage *float64 `json:"percentage,omitempty"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	Amount     float64  `json:"amount"`
}

type bonusResponse struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

type payslipResponse struct {
	TransactionID   *int64              `json:"transactionId,omitempty"`
	Month           string              `json:"month"`
	Period          string              `json:"period"`
	Employer        string              `json:"employer,omitempty"`
	Position        string              `json:"position,omitempty"`
	UploadedAt      string              `json:"uploadedAt"`
	Deductions      []deductionResponse `json:"deductions"`
	Bonuses         []bonusResponse     `json:"bonuses"`
	GrossSalary     float64             `json:"grossSalary"`
	NetSalary       float64             `json:"netSalary"`
	TotalDeductions float64             `json:"totalDeductions"`
	TotalBonuses    float64             `json:"totalBonuses"`
	ID              int64               `json:"id"`
}

func newPayslipResponse(p model.Payslip) payslipResponse {
	resp := payslipResponse{
		ID:              p.ID,
		Month:           p.Month.Format("2006-01"),
		Period:          p.Period(),
		Employer:        p.Employer,
		Position:        p.Position,
		UploadedAt:      p.UploadedAt.Format("2006-01-02T15:04:05Z07:00"),
		GrossSalary:     p.GrossSalary.InexactFloat64(),
		NetSalary:       p.NetSalary.InexactFloat64(),
		TotalDeductions: p.TotalDeductions().InexactFloat64(),
		TotalBonuses:    p.TotalBonuses().InexactFloat64(),
		TransactionID:   p.TransactionID,
		Deductions:      make([]deductionResponse, 0, len(p.Deductions)),
		Bonuses:         make([]bonusResponse, 0, len(p.Bonuses)),
	}
	for _, d := range p.Deductions {
		line := deductionResponse{
			Name:     d.Name,
			Category: string(d.Category),
			Amount:   d.Amount.InexactFloat64(),
		}
		if d.Percentage != nil {
			pct := d.Percentage.InexactFloat64()
			line.Percentage = &pct
		}
		resp.Deductions = append(resp.Deductions, line)
	}
	for _, b := range p.Bonuses {
		resp.Bonuses = append(resp.Bonuses, bonusResponse{
			Name:   b.Name,
			Type:   string(b.Type),
			Amount: b.Amount.InexactFloat64(),
		})
	}
	return resp
}

func (s *Server) payslipService(c *gin.Context) (PayslipService, bool) {
	if s.payslips == nil {
		s.fail(c, fmt.Errorf("%w: payslips", common.ErrMissingConfig))
		return nil, false
	}
	return s.payslips, true
}

func (s *Server) listPayslips(c *gin.Context) {
	svc, ok := s.payslipService(c)
	if !ok {
		return
	}

	payslips, err := svc.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	resp := make([]payslipResponse, 0, len(payslips))
	for _, p := range payslips {
		resp = append(resp, newPayslipResponse(p))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getPayslip(c *gin.Context) {
	svc, ok := s.payslipService(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	p, err := svc.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newPayslipResponse(*p))
}

// uploadPayslip reads the multipart "file" field. The create_transaction form
// field defaults to true; "false" stores the slip without recording income.
func (s *Server) uploadPayslip(c *gin.Context) {
	svc, ok := s.payslipService(c)
	if !ok {
		return
	}

	recordIncome := true
	if raw := c.PostForm("create_transaction"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "create_transaction must be true or false")
			return
		}
		recordIncome = v
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	// One byte past the limit lets the payslip service report the oversize upload.
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadSize+1))
	if err != nil {
		badRequest(c, "Error reading file")
		return
	}

	p, err := svc.Import(c.Request.Context(), payslip.Document{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	}, recordIncome)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newPayslipResponse(*p))
}

func (s *Server) deletePayslip(c *gin.Context) {
	svc, ok := s.payslipService(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := svc.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
