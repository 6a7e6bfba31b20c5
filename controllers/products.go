package controllers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/garage_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateProduct(c *gin.Context) {
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	product, err := models.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func UpdateProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	product, err := models.UpdateProduct(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func GetProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	product, err := models.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func ListProducts(c *gin.Context) {
	page, pageSize := pageQuery(c)
	products, pageInfo, err := models.ListProducts(c.Request.Context(), c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "pageInfo": pageInfo})
}

type AdjustStockInput struct {
	Delta int `json:"delta" binding:"required"`
}

func AdjustProductStock(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var input AdjustStockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	product, err := models.AdjustProductStock(c.Request.Context(), id, input.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func DeleteProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	product, err := models.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
