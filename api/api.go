// Package api is accountd's HTTP surface: route wiring, request binding
// and the translation of service errors into JSON responses.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/adonese/accountd/account"
	gateway "github.com/adonese/accountd/apigateway"
	"github.com/adonese/accountd/models"
)

// Service carries the HTTP handlers' collaborators.
type Service struct {
	Account *account.Service
	Auth    *gateway.JWTAuth
	Logger  *logrus.Logger
}

// GetMainEngine builds the gin engine with all of accountd's routes.
func GetMainEngine(s *Service) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("timezone_name", models.TimezoneName)
	}

	route := gin.Default()
	route.HandleMethodNotAllowed = true
	route.Use(gateway.RequestID())
	route.Use(gateway.Instrumentation())
	route.Use(gateway.OptionsMiddleware)

	route.GET("/metrics", gin.WrapH(promhttp.Handler()))

	register := route.Group("/register")
	{
		register.POST("/email", s.RegisterEmail)
		register.POST("/phone", s.RegisterPhone)
	}

	login := route.Group("/login")
	{
		login.POST("/google", s.LoginWithGoogle)
		login.POST("/refresh", s.Refresh)
		login.POST("/exchange", s.Auth.AuthMiddleware(), s.ExchangeCode)
	}

	route.POST("/verify/phone", s.VerifyPhone)
	route.GET("/iam", s.Auth.AuthMiddleware(), s.Iam)

	return route
}
