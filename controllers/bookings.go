package controllers

import (
	"context"
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/garage_backend/models"
	"bitbucket.org/mmdatafocus/garage_backend/workflow"
	"github.com/gin-gonic/gin"
)

func CreateBooking(c *gin.Context) {
	var input models.NewBooking
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	booking, err := workflow.CreateBookingWorkflow(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func UpdateBooking(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewBooking
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	booking, err := models.UpdateBooking(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func GetBooking(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	booking, err := models.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func ListBookings(c *gin.Context) {
	filter := models.BookingFilter{SearchText: c.Query("search")}
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseBookingStatus(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		filter.Status = &status
	}
	page, pageSize := pageQuery(c)

	result, err := models.ListBookings(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func ApproveBooking(c *gin.Context) {
	transitionBooking(c, workflow.ApproveBookingWorkflow)
}

func RejectBooking(c *gin.Context) {
	transitionBooking(c, workflow.RejectBookingWorkflow)
}

func ResetBooking(c *gin.Context) {
	transitionBooking(c, workflow.ResetBookingWorkflow)
}

func transitionBooking(c *gin.Context, transition func(ctx context.Context, id int) (*models.Booking, error)) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	booking, err := transition(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func DeleteBooking(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	booking, err := models.DeleteBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func ConvertBookingToInvoice(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	markAsPaid, _ := strconv.ParseBool(c.DefaultQuery("mark_as_paid", "false"))

	invoice, err := workflow.ConvertBookingToInvoice(c.Request.Context(), id, markAsPaid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invoice)
}
