package controllers

import (
	"actrec-directory/internal/app/middleware"
	"actrec-directory/internal/domain/models"
	"actrec-directory/internal/domain/services"
	"actrec-directory/internal/domain/services/container"
	"actrec-directory/internal/error/code"
	"actrec-directory/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceBulkController defines the batch controller
type InterfaceBulkController interface {
	BulkInsert()
	BulkUpdate()
	BulkDelete()
}

// BulkController handles batch requests
type BulkController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewBulkController creates a batch controller
func NewBulkController(ctx *gin.Context, container *container.ServiceContainer) *BulkController {
	return &BulkController{
		Ctx:       ctx,
		Container: container,
	}
}

// BulkInsertRequest is the body of a bulk insert
type BulkInsertRequest struct {
	Contacts []models.ContactCandidate `json:"contacts"`
}

// BulkUpdateRequest is the body of a bulk update
type BulkUpdateRequest struct {
	IDs     []string               `json:"ids"`
	Updates map[string]interface{} `json:"updates"`
}

// BulkDeleteRequest is the body of a bulk delete
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// HandleBulkFunc returns a gin handler for the batch endpoints
func HandleBulkFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewBulkController(ctx, container)

		switch method {
		case "bulkInsert":
			controller.BulkInsert()
		case "bulkUpdate":
			controller.BulkUpdate()
		case "bulkDelete":
			controller.BulkDelete()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method")
		}
	}
}

func (c *BulkController) service() services.InterfaceBulkService {
	return c.Container.GetService("bulk").(services.InterfaceBulkService)
}

// 1. BulkInsert inserts many contacts
// @Summary      Bulk insert contacts
// @Description  Duplicates are skipped, not failed; generated passwords are returned once
// @Tags         Bulk
// @Accept       json
// @Produce      json
// @Param        request body BulkInsertRequest true "contacts"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      413  {object}  ErrorResponse
// @Router       /contacts/bulk [post]
// @Security     BearerAuth
func (c *BulkController) BulkInsert() {
	var req BulkInsertRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "contacts must be an array: "+err.Error())
		return
	}

	result, err := c.service().BulkInsert(c.Ctx.Request.Context(), req.Contacts)
	if err != nil {
		failWithError(c.Ctx, err)
		return
	}
	writeBulkInsert(c.Ctx, result)
}

// 2. BulkUpdate applies the same updates to many contacts
// @Summary      Bulk update contacts
// @Tags         Bulk
// @Accept       json
// @Produce      json
// @Param        request body BulkUpdateRequest true "ids and updates"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /contacts/bulk [put]
// @Security     BearerAuth
func (c *BulkController) BulkUpdate() {
	var req BulkUpdateRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "ids must be an array and updates an object: "+err.Error())
		return
	}

	result, err := c.service().BulkUpdate(c.Ctx.Request.Context(), middleware.CurrentPrincipal(c.Ctx), req.IDs, req.Updates)
	if err != nil {
		failWithError(c.Ctx, err)
		return
	}
	c.Ctx.JSON(code.StatusOK, gin.H{
		"data":    result.Updated,
		"errors":  result.Errors,
		"summary": result.Summary,
	})
}

// 3. BulkDelete deletes many contacts
// @Summary      Bulk delete contacts
// @Description  The last administrator is never deleted; refused ids are reported in errors
// @Tags         Bulk
// @Accept       json
// @Produce      json
// @Param        request body BulkDeleteRequest true "ids"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /contacts/bulk [delete]
// @Security     BearerAuth
func (c *BulkController) BulkDelete() {
	var req BulkDeleteRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "ids must be an array: "+err.Error())
		return
	}

	result, err := c.service().BulkDelete(c.Ctx.Request.Context(), req.IDs)
	if err != nil {
		failWithError(c.Ctx, err)
		return
	}
	c.Ctx.JSON(code.StatusOK, gin.H{
		"success": true,
		"deleted": result.Deleted,
		"errors":  result.Errors,
		"summary": result.Summary,
	})
}

func writeBulkInsert(ctx *gin.Context, result *services.BulkInsertResult) {
	ctx.JSON(code.StatusOK, gin.H{
		"data":    result,
		"summary": result.Summary,
	})
}
