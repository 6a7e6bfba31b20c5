package controllers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/garage_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateStaff(c *gin.Context) {
	var input models.NewUser
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	user, err := models.CreateUser(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func UpdateStaff(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewUser
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	user, err := models.UpdateUser(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func GetStaff(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	user, err := models.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func ListStaff(c *gin.Context) {
	page, pageSize := pageQuery(c)
	users, pageInfo, err := models.ListUsers(c.Request.Context(), c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": users, "pageInfo": pageInfo})
}

type ToggleActiveInput struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func ToggleStaffActive(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input ToggleActiveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	user, err := models.ToggleUserActive(c.Request.Context(), id, *input.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
