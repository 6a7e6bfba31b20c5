package controllers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/garage_backend/models"
	"bitbucket.org/mmdatafocus/garage_backend/models/reports"
	"bitbucket.org/mmdatafocus/garage_backend/workflow"
	"github.com/gin-gonic/gin"
)

func CreateInvoice(c *gin.Context) {
	var input models.NewInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	markAsPaid, _ := strconv.ParseBool(c.DefaultQuery("mark_as_paid", "false"))

	invoice, err := workflow.CreateInvoiceWorkflow(c.Request.Context(), &input, markAsPaid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invoice)
}

func UpdateInvoice(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	markAsPaid, _ := strconv.ParseBool(c.DefaultQuery("mark_as_paid", "false"))

	invoice, err := workflow.UpdateInvoiceWorkflow(c.Request.Context(), id, &input, markAsPaid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func GetInvoice(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	invoice, err := models.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func ListInvoices(c *gin.Context) {
	filter := models.InvoiceFilter{SearchText: c.Query("search")}
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseInvoiceStatus(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		filter.Status = &status
	}
	page, pageSize := pageQuery(c)

	result, err := models.ListInvoices(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func MarkInvoicePaid(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	invoice, err := workflow.MarkInvoicePaidWorkflow(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func CancelInvoice(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	invoice, err := workflow.CancelInvoiceWorkflow(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func AddInvoiceItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	invoice, err := workflow.AddInvoiceItemWorkflow(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func RemoveInvoiceItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	invoice, err := workflow.RemoveInvoiceItemWorkflow(c.Request.Context(), id, c.Param("itemId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

type UpdateInvoiceItemInput struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

func UpdateInvoiceItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input UpdateInvoiceItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	field, err := models.ParseInvoiceItemField(input.Field)
	if err != nil {
		badRequest(c, err)
		return
	}

	invoice, err := workflow.UpdateInvoiceItemWorkflow(c.Request.Context(), id, c.Param("itemId"), field, input.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func RecalculateInvoice(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	invoice, err := workflow.RecalculateInvoiceWorkflow(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func ExportInvoicePdf(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := reports.ExportInvoicePdf(c.Request.Context(), c.Writer, id); err != nil {
		respondError(c, err)
	}
}

func InvoiceListReport(c *gin.Context) {
	fromDate, toDate, err := dateRangeQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	records, err := reports.GetInvoiceListReport(c.Request.Context(), fromDate, toDate)
	if err != nil {
		respondError(c, err)
		return
	}
	summary, err := reports.GetInvoiceRevenueSummary(c.Request.Context(), fromDate, toDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": records, "summary": summary})
}

func ExportInvoicesExcel(c *gin.Context) {
	fromDate, toDate, err := dateRangeQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := reports.ExportInvoicesExcel(c.Request.Context(), c.Writer, fromDate, toDate); err != nil {
		respondError(c, err)
	}
}
