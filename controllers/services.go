package controllers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/garage_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateService(c *gin.Context) {
	var input models.NewService
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	service, err := models.CreateService(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service)
}

func UpdateService(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewService
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	service, err := models.UpdateService(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service)
}

func GetService(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	service, err := models.GetService(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service)
}

func ListServices(c *gin.Context) {
	page, pageSize := pageQuery(c)
	services, pageInfo, err := models.ListServices(c.Request.Context(), c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services, "pageInfo": pageInfo})
}

func DeleteService(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	service, err := models.DeleteService(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service)
}
