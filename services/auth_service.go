package services

import (
	"errors"

	"nutriplan/config"
	"nutriplan/models"
	"nutriplan/utils"
)

func RegisterUser(email, password, fullName, role string) error {
	if role != models.RoleUser && role != models.RoleProfessional {
		role = models.RoleUser
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	user := models.User{
		Email:    email,
		Password: hashed,
		FullName: fullName,
		Role:     role,
	}
	return config.DB.Create(&user).Error
}

func AuthenticateUser(email, password string) (string, error) {
	var user models.User
	if err := config.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return "", errors.New("user not found")
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return "", errors.New("incorrect password")
	}
	return utils.GenerateJWT(user.ID, user.Email, user.Role)
}
