package controllers

import (
	"strconv"
	"strings"

	"actrec-directory/internal/app/middleware"
	"actrec-directory/internal/domain/models"
	"actrec-directory/internal/domain/services"
	"actrec-directory/internal/domain/services/container"
	"actrec-directory/internal/error/code"
	"actrec-directory/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceContactController defines the single-contact controller
type InterfaceContactController interface {
	GetContacts()
	GetContact()
	GetDepartments()
	CreateContact()
	UpdateContact()
	DeleteContact()
	ChangeRole()
}

// ContactController handles single-contact requests
type ContactController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewContactController creates a contact controller
func NewContactController(ctx *gin.Context, container *container.ServiceContainer) *ContactController {
	return &ContactController{
		Ctx:       ctx,
		Container: container,
	}
}

// ChangeRoleRequest is the body of a role change
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required" example:"admin"`
}

// HandleContactFunc returns a gin handler for the contact endpoints
func HandleContactFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewContactController(ctx, container)

		switch method {
		case "getContacts":
			controller.GetContacts()
		case "getContact":
			controller.GetContact()
		case "getDepartments":
			controller.GetDepartments()
		case "createContact":
			controller.CreateContact()
		case "updateContact":
			controller.UpdateContact()
		case "deleteContact":
			controller.DeleteContact()
		case "changeRole":
			controller.ChangeRole()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method")
		}
	}
}

func (c *ContactController) service() services.InterfaceContactService {
	return c.Container.GetService("contact").(services.InterfaceContactService)
}

// 1. GetContacts lists the directory
// @Summary      List contacts
// @Description  Public, paginated directory listing ordered by name
// @Tags         Contact
// @Produce      json
// @Param        page query int false "page, default 1"
// @Param        page_size query int false "page size, default 10, max 100"
// @Param        search query string false "matches name, department, designation, email or extension"
// @Param        department query string false "exact department"
// @Success      200  {object}  services.ContactPage
// @Failure      500  {object}  ErrorResponse
// @Router       /contacts [get]
func (c *ContactController) GetContacts() {
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))

	result, err := c.service().ListContacts(c.Ctx.Request.Context(), services.ContactQuery{
		Search:          c.Ctx.Query("search"),
		Department:      c.Ctx.Query("department"),
		PaginationQuery: models.PaginationQuery{Page: page, PageSize: pageSize},
	})
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "failed to list contacts: "+err.Error())
		return
	}

	c.Ctx.JSON(code.StatusOK, result)
}

// 2. GetContact returns one contact
// @Summary      Get contact
// @Tags         Contact
// @Produce      json
// @Param        id path string true "contact id"
// @Success      200  {object}  models.Contact
// @Failure      404  {object}  ErrorResponse
// @Router       /contacts/{id} [get]
func (c *ContactController) GetContact() {
	contact, err := c.service().GetContact(c.Ctx.Request.Context(), c.Ctx.Param("id"))
	if err != nil {
		failWithError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, contact)
}

// 3. GetDepartments lists the distinct departments
// @Summary      List departments
// @Tags         Contact
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /contacts/departments [get]
func (c *ContactController) GetDepartments() {
	departments, err := c.service().ListDepartments(c.Ctx.Request.Context())
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "failed to list departments: "+err.Error())
		return
	}
	response.Success(c.Ctx, departments)
}

// 4. CreateContact inserts one contact and its account
// @Summary      Create contact
// @Description  Creates a contact and a regular account; the generated password is returned once
// @Tags         Contact
// @Accept       json
// @Produce      json
// @Param        request body models.ContactCandidate true "contact"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /contacts [post]
// @Security     BearerAuth
func (c *ContactController) CreateContact() {
	var candidate models.ContactCandidate
	if err := c.Ctx.ShouldBindJSON(&candidate); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "invalid request body: "+err.Error())
		return
	}

	switch result := c.service().InsertContact(c.Ctx.Request.Context(), candidate).(type) {
	case services.Inserted:
		body := gin.H{"data": result.Contact, "credential": result.Credential}
		if result.AccountPending {
			body["accountPending"] = true
		}
		c.Ctx.JSON(code.StatusCreated, body)
	case services.Skipped:
		response.FailWithMessage(c.Ctx, errorCode(result.Err), result.Reason)
	default:
		response.Fail(c.Ctx, code.ErrUnknown)
	}
}

// 5. UpdateContact updates one contact
// @Summary      Update contact
// @Description  Administrators may update any field; other users only non-identity fields of their own contact
// @Tags         Contact
// @Accept       json
// @Produce      json
// @Param        request body map[string]interface{} true "id plus the fields to change"
// @Success      200  {object}  models.Contact
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /contacts [put]
// @Security     BearerAuth
func (c *ContactController) UpdateContact() {
	var body map[string]interface{}
	if err := c.Ctx.ShouldBindJSON(&body); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "invalid request body: "+err.Error())
		return
	}
	id, _ := body["id"].(string)
	if strings.TrimSpace(id) == "" {
		response.ParamError(c.Ctx, "id is required")
		return
	}
	delete(body, "id")

	contact, err := c.service().UpdateContact(c.Ctx.Request.Context(), middleware.CurrentPrincipal(c.Ctx), id, body)
	if err != nil {
		failWithError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, contact)
}

// 6. DeleteContact deletes one contact and its account
// @Summary      Delete contact
// @Tags         Contact
// @Produce      json
// @Param        id query string true "contact id"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /contacts [delete]
// @Security     BearerAuth
func (c *ContactController) DeleteContact() {
	id := strings.TrimSpace(c.Ctx.Query("id"))
	if id == "" {
		response.ParamError(c.Ctx, "id is required")
		return
	}

	deleted, err := c.service().DeleteContact(c.Ctx.Request.Context(), id)
	if err != nil {
		failWithError(c.Ctx, err)
		return
	}
	c.Ctx.JSON(code.StatusOK, gin.H{"success": true, "data": deleted})
}

// 7. ChangeRole sets the role of a contact's account
// @Summary      Change role
// @Tags         Account
// @Accept       json
// @Produce      json
// @Param        id path string true "contact id"
// @Param        request body ChangeRoleRequest true "role"
// @Success      200  {object}  models.Account
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /accounts/{id}/role [put]
// @Security     BearerAuth
func (c *ContactController) ChangeRole() {
	var req ChangeRoleRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "invalid request body: "+err.Error())
		return
	}

	account, err := c.service().ChangeRole(c.Ctx.Request.Context(), c.Ctx.Param("id"), req.Role)
	if err != nil {
		failWithError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, account)
}
