package controllers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/garage_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateProductCategory(c *gin.Context) {
	var input models.NewProductCategory
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	category, err := models.CreateProductCategory(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func UpdateProductCategory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewProductCategory
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	category, err := models.UpdateProductCategory(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func ListProductCategories(c *gin.Context) {
	categories, err := models.ListProductCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func DeleteProductCategory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	category, err := models.DeleteProductCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}
