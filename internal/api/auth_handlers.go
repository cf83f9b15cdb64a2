package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/yourname/studytracker/internal/service"
)

func PostRegister(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body service.RegisterRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateRegisterRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		result, err := service.Register(c.Request.Context(), app.Repos().Users, app.JWTSecret(), &body)
		if err != nil {
			if errors.Is(err, service.ErrUsernameTaken) {
				HandleError(c, app.Logger(), err, 409, "Registration failed")
			} else {
				HandleError(c, app.Logger(), err, 500, "Registration failed")
			}
			return
		}

		HandleSuccess(c, app.Logger(), result, nil)
	}
}

func PostLogin(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body service.LoginRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateLoginRequest(&body); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}

		result, err := service.Login(c.Request.Context(), app.Repos().Users, app.JWTSecret(), &body)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				HandleError(c, app.Logger(), err, 401, "Invalid credentials")
			} else {
				HandleError(c, app.Logger(), err, 500, "Login failed")
			}
			return
		}

		HandleSuccess(c, app.Logger(), result, nil)
	}
}
