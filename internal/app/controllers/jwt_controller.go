package controllers

import (
	"actrec-directory/internal/app/middleware"
	"actrec-directory/internal/domain/services"
	"actrec-directory/internal/domain/services/container"
	"actrec-directory/internal/error/code"
	"actrec-directory/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceJWTController defines the authentication controller
type InterfaceJWTController interface {
	Login()
	Me()
}

// JWTController handles authentication requests
type JWTController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewJWTController creates an authentication controller
func NewJWTController(ctx *gin.Context, container *container.ServiceContainer) *JWTController {
	return &JWTController{
		Ctx:       ctx,
		Container: container,
	}
}

// LoginRequest is the login body
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"head.radiology@actrec.gov.in"`
	Password string `json:"password" binding:"required" example:"Xk3mPq9vLr2s!7"`
}

// HandleJWTFunc returns a gin handler for the authentication endpoints
func HandleJWTFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewJWTController(ctx, container)

		switch method {
		case "login":
			controller.Login()
		case "me":
			controller.Me()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method")
		}
	}
}

// 1. Login exchanges email and password for a token
// @Summary      Log in
// @Description  Exchange an account email and password for a bearer token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "credentials"
// @Success      200  {object}  services.LoginResult
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/login [post]
func (c *JWTController) Login() {
	var req LoginRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "invalid request body: "+err.Error())
		return
	}

	jwtService := c.Container.GetService("jwt").(services.InterfaceJWTService)
	result, err := jwtService.Login(c.Ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		failWithError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, result)
}

// 2. Me returns the caller with their contact and account
// @Summary      Current user
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/me [get]
// @Security     BearerAuth
func (c *JWTController) Me() {
	principal := middleware.CurrentPrincipal(c.Ctx)
	if principal == nil {
		response.Unauthorized(c.Ctx)
		return
	}

	contactService := c.Container.GetService("contact").(services.InterfaceContactService)
	ctx := c.Ctx.Request.Context()
	data := gin.H{"principal": principal}

	if contact, err := contactService.GetContact(ctx, principal.ID); err == nil {
		data["contact"] = contact
	}
	if account, err := contactService.GetAccount(ctx, principal.ID); err == nil {
		data["account"] = account
	}
	response.Success(c.Ctx, data)
}
