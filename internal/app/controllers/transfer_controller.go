package controllers

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"actrec-directory/internal/domain/services"
	"actrec-directory/internal/domain/services/container"
	"actrec-directory/internal/error/code"
	"actrec-directory/internal/error/response"

	"github.com/gin-gonic/gin"
)

const maxImportBytes = 10 << 20

// TransferController handles CSV and XLSX import and export
type TransferController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewTransferController creates a transfer controller
func NewTransferController(ctx *gin.Context, container *container.ServiceContainer) *TransferController {
	return &TransferController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleTransferFunc returns a gin handler for the transfer endpoints
func HandleTransferFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewTransferController(ctx, container)

		switch method {
		case "import":
			controller.Import()
		case "export":
			controller.Export()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method")
		}
	}
}

// 1. Import bulk inserts the rows of an uploaded file
// @Summary      Import contacts
// @Description  Upload a CSV or XLSX file; rows are inserted like a bulk insert
// @Tags         Transfer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "contacts.csv or contacts.xlsx"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /contacts/import [post]
// @Security     BearerAuth
func (c *TransferController) Import() {
	header, err := c.Ctx.FormFile("file")
	if err != nil {
		response.ParamError(c.Ctx, "file is required")
		return
	}
	if header.Size > maxImportBytes {
		response.FailWithMessage(c.Ctx, code.ErrBatchTooLarge, fmt.Sprintf("file exceeds %d bytes", maxImportBytes))
		return
	}

	format := strings.ToLower(c.Ctx.Query("format"))
	if format == "" {
		if format, err = services.FormatFromFilename(header.Filename); err != nil {
			failWithError(c.Ctx, err)
			return
		}
	}

	file, err := header.Open()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrImportFormat, err.Error())
		return
	}
	defer file.Close()

	candidates, err := services.DecodeContacts(format, file)
	if err != nil {
		failWithError(c.Ctx, err)
		return
	}

	bulkService := c.Container.GetService("bulk").(services.InterfaceBulkService)
	result, err := bulkService.BulkInsert(c.Ctx.Request.Context(), candidates)
	if err != nil {
		failWithError(c.Ctx, err)
		return
	}
	writeBulkInsert(c.Ctx, result)
}

// 2. Export downloads the whole directory
// @Summary      Export contacts
// @Tags         Transfer
// @Produce      octet-stream
// @Param        format query string false "csv (default) or xlsx"
// @Success      200  {file}  file
// @Failure      400  {object}  ErrorResponse
// @Router       /contacts/export [get]
// @Security     BearerAuth
func (c *TransferController) Export() {
	format := strings.ToLower(c.Ctx.DefaultQuery("format", services.FormatCSV))
	if format != services.FormatCSV && format != services.FormatXLSX {
		response.FailWithMessage(c.Ctx, code.ErrImportFormat, "format must be csv or xlsx")
		return
	}

	contactService := c.Container.GetService("contact").(services.InterfaceContactService)
	contacts, err := contactService.AllContacts(c.Ctx.Request.Context())
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "failed to load contacts: "+err.Error())
		return
	}

	var buf bytes.Buffer
	if err := services.EncodeContacts(format, &buf, contacts); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrUnknown, "failed to encode contacts: "+err.Error())
		return
	}

	filename := fmt.Sprintf("actrec-directory-%s.%s", time.Now().UTC().Format("20060102"), format)
	c.Ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Ctx.Data(code.StatusOK, services.ContentType(format), buf.Bytes())
}
