package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adonese/accountd/account"
	gateway "github.com/adonese/accountd/apigateway"
	"github.com/adonese/accountd/apperr"
)

type registerEmailRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Timezone string `json:"timezone" binding:"omitempty,timezone_name"`
}

// RegisterEmail creates an account reachable by email. Registering an
// email twice succeeds and changes nothing.
func (s *Service) RegisterEmail(c *gin.Context) {
	var req registerEmailRequest
	if err := bindJSON(c, &req); err != nil {
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	err := s.Account.CreateFromEmailProvider(c.Request.Context(), account.CreateWithEmailInput{
		Email:    req.Email,
		Timezone: req.Timezone,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "registered"})
}

type registerPhoneRequest struct {
	Phone    string `json:"phone" binding:"required,e164"`
	Timezone string `json:"timezone" binding:"omitempty,timezone_name"`
}

// RegisterPhone creates an account reachable by phone and sends its
// verification code.
func (s *Service) RegisterPhone(c *gin.Context) {
	var req registerPhoneRequest
	if err := bindJSON(c, &req); err != nil {
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	err := s.Account.CreateFromPhoneProvider(c.Request.Context(), account.CreateWithPhoneInput{
		Phone:    req.Phone,
		Timezone: req.Timezone,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "registered"})
}

type verifyPhoneRequest struct {
	Phone string `json:"phone" binding:"required,e164"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

// VerifyPhone checks the code sent over SMS and signs the caller in.
func (s *Service) VerifyPhone(c *gin.Context) {
	var req verifyPhoneRequest
	if err := bindJSON(c, &req); err != nil {
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	out, err := s.Account.VerifyPhone(c.Request.Context(), account.VerifyPhoneInput{
		Phone: req.Phone,
		Code:  req.Code,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type googleLoginRequest struct {
	Code      string `json:"code" binding:"required"`
	OriginURL string `json:"origin_url" binding:"omitempty,url"`
	Timezone  string `json:"timezone" binding:"omitempty,timezone_name"`
}

// LoginWithGoogle signs in (or up) with a Google authorization code.
func (s *Service) LoginWithGoogle(c *gin.Context) {
	var req googleLoginRequest
	if err := bindJSON(c, &req); err != nil {
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	out, err := s.Account.CreateFromGoogleProvider(c.Request.Context(), account.CreateWithGoogleInput{
		Code:      req.Code,
		OriginURL: req.OriginURL,
		Timezone:  req.Timezone,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	status := http.StatusOK
	if out.IsFirstAccess {
		status = http.StatusCreated
	}
	c.JSON(status, out)
}

type exchangeCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// ExchangeCode re-exchanges a fresh authorization code for the caller's
// account, refreshing its provider link.
func (s *Service) ExchangeCode(c *gin.Context) {
	var req exchangeCodeRequest
	if err := bindJSON(c, &req); err != nil {
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	out, err := s.Account.ExchangeCode(c.Request.Context(), account.ExchangeCodeInput{
		AccountID: gateway.AccountID(c),
		Code:      req.Code,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh trades a refresh token for a new access token.
func (s *Service) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := bindJSON(c, &req); err != nil {
		c.JSON(apperr.Status(err), apperr.Payload(err))
		return
	}
	out, err := s.Account.RefreshToken(c.Request.Context(), account.RefreshTokenInput{
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Iam returns the authenticated caller's canonical identity.
func (s *Service) Iam(c *gin.Context) {
	out, err := s.Account.Iam(c.Request.Context(), account.IamInput{ID: gateway.AccountID(c)})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// fail logs server-side failures and writes the error payload.
func (s *Service) fail(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		s.Logger.WithFields(map[string]interface{}{
			"request_id": gateway.RequestIDFromCtx(c),
			"path":       c.Request.URL.Path,
		}).Errorf("request failed: %v", err)
	}
	c.JSON(status, apperr.Payload(err))
}
