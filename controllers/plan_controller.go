package controllers

import (
	"net/http"
	"strconv"

	"nutriplan/services"

	"github.com/gin-gonic/gin"
)

func CreatePlan(c *gin.Context) {
	var req services.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	plan, err := planService().CreatePlan(req, c.GetUint("userID"))
	respond(c, http.StatusCreated, plan, err)
}

func GetPlan(c *gin.Context) {
	planID, ok := uintParam(c, "planId")
	if !ok {
		return
	}
	view, err := planService().GetPlan(planID, c.GetUint("userID"))
	respond(c, http.StatusOK, view, err)
}

func ListPlans(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	plans, err := planService().ListPlans(c.GetUint("userID"), page, limit)
	respond(c, http.StatusOK, plans, err)
}

func SetPause(c *gin.Context) {
	planID, ok := uintParam(c, "planId")
	if !ok {
		return
	}
	var body struct {
		Paused bool `json:"paused"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	plan, err := planService().SetPause(planID, body.Paused, c.GetUint("userID"))
	respond(c, http.StatusOK, plan, err)
}

// SetBlock is the payment service's integration point: the gateway webhook
// calls it with blocked=false once payment clears.
func SetBlock(c *gin.Context) {
	planID, ok := uintParam(c, "planId")
	if !ok {
		return
	}
	var body struct {
		Blocked bool `json:"blocked"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	plan, err := planService().SetBlock(planID, body.Blocked, c.GetUint("userID"))
	respond(c, http.StatusOK, plan, err)
}

func SetPrice(c *gin.Context) {
	planID, ok := uintParam(c, "planId")
	if !ok {
		return
	}
	var body struct {
		Price float64 `json:"price"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	plan, err := planService().SetPrice(planID, body.Price, c.GetUint("userID"))
	respond(c, http.StatusOK, plan, err)
}

func DeletePlan(c *gin.Context) {
	planID, ok := uintParam(c, "planId")
	if !ok {
		return
	}
	err := planService().DeletePlan(planID, c.GetUint("userID"))
	respond(c, http.StatusOK, gin.H{"message": "plan deleted"}, err)
}

func ListReminders(c *gin.Context) {
	planID, ok := uintParam(c, "planId")
	if !ok {
		return
	}
	views, err := planService().ListReminders(planID, c.GetUint("userID"))
	respond(c, http.StatusOK, views, err)
}
