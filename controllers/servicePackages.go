package controllers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/garage_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateServicePackage(c *gin.Context) {
	var input models.NewServicePackage
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	pkg, err := models.CreateServicePackage(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pkg)
}

func UpdateServicePackage(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewServicePackage
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	pkg, err := models.UpdateServicePackage(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

func GetServicePackage(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	pkg, err := models.GetServicePackage(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

func ListServicePackages(c *gin.Context) {
	packages, err := models.ListServicePackages(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, packages)
}

func DeleteServicePackage(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	pkg, err := models.DeleteServicePackage(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}
