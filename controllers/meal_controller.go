package controllers

import (
	"net/http"

	"nutriplan/services"

	"github.com/gin-gonic/gin"
)

func AddMeal(c *gin.Context) {
	planID, ok := uintParam(c, "planId")
	if !ok {
		return
	}
	dayID, ok := uintParam(c, "dayId")
	if !ok {
		return
	}
	var req services.MealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	meal, err := mealService().AddMeal(planID, dayID, req, c.GetUint("userID"))
	respond(c, http.StatusCreated, meal, err)
}

func RemoveMeal(c *gin.Context) {
	planID, ok := uintParam(c, "planId")
	if !ok {
		return
	}
	dayID, ok := uintParam(c, "dayId")
	if !ok {
		return
	}
	mealID, ok := uintParam(c, "mealId")
	if !ok {
		return
	}
	err := mealService().RemoveMeal(planID, dayID, mealID, c.GetUint("userID"))
	respond(c, http.StatusOK, gin.H{"message": "meal removed"}, err)
}

func AddDishes(c *gin.Context) {
	planID, ok := uintParam(c, "planId")
	if !ok {
		return
	}
	dayID, ok := uintParam(c, "dayId")
	if !ok {
		return
	}
	mealID, ok := uintParam(c, "mealId")
	if !ok {
		return
	}
	var body struct {
		DishIDs []uint `json:"dish_ids" binding:"required"`
		UserID  uint   `json:"user_id"` // defaults to the caller
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	callerID := c.GetUint("userID")
	if body.UserID == 0 {
		body.UserID = callerID
	}
	meal, err := mealService().AddDishes(planID, dayID, mealID, body.DishIDs, body.UserID, callerID)
	respond(c, http.StatusOK, meal, err)
}

func RemoveDish(c *gin.Context) {
	planID, ok := uintParam(c, "planId")
	if !ok {
		return
	}
	dayID, ok := uintParam(c, "dayId")
	if !ok {
		return
	}
	mealID, ok := uintParam(c, "mealId")
	if !ok {
		return
	}
	dishID, ok := uintParam(c, "dishId")
	if !ok {
		return
	}
	meal, err := mealService().RemoveDish(planID, dayID, mealID, dishID, c.GetUint("userID"))
	respond(c, http.StatusOK, meal, err)
}
