package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	payoutdomain "github.com/sitesell/sitesell/internal/payout/domain"
)

type addBankAccountRequest struct {
	BankCode      string `json:"bank_code"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	IsDefault     bool   `json:"is_default"`
}

func (s *Server) handleAddBankAccount(c *gin.Context) {
	var req addBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	account, err := s.payoutSvc.AddBankAccount(c.Request.Context(), payoutdomain.AddBankAccountInput{
		BankCode:      strings.TrimSpace(req.BankCode),
		BankName:      strings.TrimSpace(req.BankName),
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		AccountName:   strings.TrimSpace(req.AccountName),
		IsDefault:     req.IsDefault,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": account})
}

func (s *Server) handleListBankAccounts(c *gin.Context) {
	accounts, err := s.payoutSvc.ListBankAccounts(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": accounts})
}

type requestPayoutRequest struct {
	Amount        int64  `json:"amount"`
	BankAccountID string `json:"bank_account_id"`
	Notes         string `json:"notes"`
}

func (s *Server) handleRequestPayout(c *gin.Context) {
	var req requestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var accountID snowflake.ID
	if raw := strings.TrimSpace(req.BankAccountID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, payoutdomain.ErrBankAccountNotFound)
			return
		}
		accountID = parsed
	}

	payout, err := s.payoutSvc.Request(c.Request.Context(), payoutdomain.RequestPayoutInput{
		Amount:        req.Amount,
		BankAccountID: accountID,
		Notes:         strings.TrimSpace(req.Notes),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": payout})
}

func (s *Server) handleListPayouts(c *gin.Context) {
	payouts, err := s.payoutSvc.ListMine(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payouts})
}

func (s *Server) handleGetPayout(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, payoutdomain.ErrNotFound)
		return
	}

	payout, err := s.payoutSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payout})
}

func (s *Server) handleAdminListPayouts(c *gin.Context) {
	status := payoutdomain.Status(strings.TrimSpace(c.Query("status")))
	payouts, err := s.payoutSvc.ListAll(c.Request.Context(), status)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payouts})
}

type processPayoutRequest struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

func (s *Server) handleProcessPayout(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, payoutdomain.ErrNotFound)
		return
	}

	var req processPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	payout, err := s.payoutSvc.Process(c.Request.Context(), id, payoutdomain.ProcessPayoutInput{
		Decision: payoutdomain.ProcessDecision(strings.ToLower(strings.TrimSpace(req.Decision))),
		Notes:    strings.TrimSpace(req.Notes),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payout})
}
