package controllers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/garage_backend/models"
	"github.com/gin-gonic/gin"
)

func GetSetting(c *gin.Context) {
	setting, err := models.GetSetting(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

func UpdateSetting(c *gin.Context) {
	var input models.UpdateSettingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	setting, err := models.UpdateSetting(c.Request.Context(), &input)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}
