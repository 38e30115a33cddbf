package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scam-spotter/api-go/config"
	"github.com/scam-spotter/api-go/logger"
	"github.com/scam-spotter/api-go/models"
	"github.com/scam-spotter/api-go/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

type AuthController struct {
	DB           *gorm.DB
	GoogleConfig *config.GoogleConfig
	JWTSecret    string
	Log          logrus.FieldLogger
	now          func() time.Time
}

var (
	usernamePattern   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
	reservedUsernames = []string{"admin", "root", "api", "www", "mail", "ftp", "test", "demo", "user", "guest", "null", "undefined"}
)

// validateUsernamePattern validates username format and constraints
func validateUsernamePattern(username string) error {
	// Remove spaces for validation but keep original case
	trimmedUsername := strings.TrimSpace(username)

	// Check minimum length
	if len(trimmedUsername) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}
	// Check maximum length
	if len(trimmedUsername) > 20 {
		return fmt.Errorf("username must be no more than 20 characters long")
	}
	// Check if username starts with a letter
	if !usernamePattern.MatchString(trimmedUsername[:1]) {
		return fmt.Errorf("username must start with a letter")
	}
	// Check if username contains only allowed characters (letters, numbers, underscore)
	if !usernamePattern.MatchString(trimmedUsername) {
		return fmt.Errorf("username can only contain letters, numbers, and underscores")
	}
	// Check for reserved usernames
	for _, reservedWord := range reservedUsernames {
		if strings.EqualFold(trimmedUsername, reservedWord) {
			return fmt.Errorf("this username is reserved and cannot be used")
		}
	}
	return nil
}

func NewAuthController(db *gorm.DB, google *config.GoogleConfig, jwtSecret string, log logrus.FieldLogger) *AuthController {
	return &AuthController{
		DB:           db,
		GoogleConfig: google,
		JWTSecret:    jwtSecret,
		Log:          log,
		now:          time.Now,
	}
}

// Register godoc
// @Summary Create an email account
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Router /register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var input struct {
		Username  string `json:"username" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=6"`
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
		Avatar    string `json:"avatar"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	// Validate username pattern
	if err := validateUsernamePattern(input.Username); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password", "success": false})
		return
	}
	hashedPasswordStr := string(hashedPassword)

	user := models.User{
		Username:  strings.TrimSpace(input.Username),
		Email:     strings.ToLower(input.Email),
		Password:  &hashedPasswordStr,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Avatar:    input.Avatar,
		Provider:  "email",
	}

	if err := ac.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username or email already exists", "success": false})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"user": gin.H{
			"id":        user.ID,
			"email":     user.Email,
			"username":  user.Username,
			"firstName": user.FirstName,
			"lastName":  user.LastName,
		},
	})
}

// CheckUsername godoc
// @Summary Whether a username is valid and still free
// @Tags auth
// @Produce json
// @Param username path string true "Username"
// @Router /validate/username/{username} [get]
func (ac *AuthController) CheckUsername(c *gin.Context) {
	username := c.Param("username")
	if err := validateUsernamePattern(username); err != nil {
		c.JSON(http.StatusOK, gin.H{"exists": false, "available": false, "error": err.Error()})
		return
	}

	var user models.User
	result := ac.DB.WithContext(c.Request.Context()).Where("username = ?", username).First(&user)
	switch {
	case result.Error == nil:
		c.JSON(http.StatusOK, gin.H{"exists": true, "available": false})
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		c.JSON(http.StatusOK, gin.H{"exists": false, "available": true})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check username"})
	}
}

// Login godoc
// @Summary Exchange email and password for tokens
// @Tags auth
// @Accept json
// @Produce json
// @Router /login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := ac.DB.WithContext(c.Request.Context()).Where("email = ?", strings.ToLower(input.Email)).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if user.Password == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	ac.respondWithTokens(c, &user)
}

// respondWithTokens issues a token pair and stores the refresh token.
func (ac *AuthController) respondWithTokens(c *gin.Context, user *models.User) {
	pair, err := utils.IssueTokens(ac.JWTSecret, user.ID, utils.DefaultRole, ac.now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token", "success": false})
		return
	}

	err = ac.DB.WithContext(c.Request.Context()).Create(&models.RefreshToken{
		UserID:         user.ID,
		Token:          pair.RefreshToken,
		ExpirationDate: pair.RefreshUntil,
	}).Error
	if err != nil {
		logger.FromContext(c, ac.Log).WithError(err).Error("store refresh token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate token", "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token_type":    "Bearer",
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user":          gin.H{"id": user.ID, "email": user.Email, "username": user.Username, "profilePicture": user.Avatar},
		"success":       true,
	})
}

// RefreshToken godoc
// @Summary Rotate a refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Router /refresh-token [post]
func (ac *AuthController) RefreshToken(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	db := ac.DB.WithContext(c.Request.Context())
	// Find the refresh token in the database
	var refreshToken models.RefreshToken
	if err := db.Where("token = ?", input.RefreshToken).First(&refreshToken).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token", "success": false})
		return
	}

	// Check if the refresh token is expired
	if refreshToken.Expired(ac.now()) {
		// Delete the expired token
		db.Delete(&refreshToken)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token expired", "success": false})
		return
	}

	// Get the user associated with the refresh token
	var user models.User
	if err := db.First(&user, refreshToken.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found", "success": false})
		return
	}

	// The old token is spent whether or not issuing the new pair succeeds.
	db.Delete(&refreshToken)
	ac.respondWithTokens(c, &user)
}

// Logout godoc
// @Summary Revoke a refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Router /logout [post]
func (ac *AuthController) Logout(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	// Find and delete the refresh token from the database
	result := ac.DB.WithContext(c.Request.Context()).Where("token = ?", input.RefreshToken).Delete(&models.RefreshToken{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout", "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully", "success": true})
}

// GetProfile godoc
// @Summary The signed in user
// @Tags auth
// @Produce json
// @Router /profile [get]
func (ac *AuthController) GetProfile(c *gin.Context) {
	user := utils.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	var dbUser models.User
	if err := ac.DB.WithContext(c.Request.Context()).First(&dbUser, user.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":        dbUser.ID,
			"username":  dbUser.Username,
			"email":     dbUser.Email,
			"firstName": dbUser.FirstName,
			"lastName":  dbUser.LastName,
			"avatar":    dbUser.Avatar,
			"createdAt": dbUser.CreatedAt,
			"role":      user.Role,
		},
	})
}

// GoogleLogin godoc
// @Summary Sign in with a Google authorization code, ID token or access token
// @Tags auth
// @Accept json
// @Produce json
// @Router /auth/google [post]
func (ac *AuthController) GoogleLogin(c *gin.Context) {
	var input struct {
		IDToken     string `json:"id_token"`
		AccessToken string `json:"access_token"`
		Code        string `json:"code"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
		return
	}

	ctx := c.Request.Context()
	var userInfo *config.GoogleUserInfo
	var err error

	// Verify Google ID token or exchange code
	switch {
	case input.Code != "":
		var token *oauth2.Token
		token, err = ac.GoogleConfig.ExchangeCode(ctx, input.Code)
		if err == nil {
			userInfo, err = ac.GoogleConfig.GetUserInfo(ctx, token)
		}
	case input.IDToken != "":
		userInfo, err = ac.GoogleConfig.VerifyIDToken(ctx, input.IDToken)
	case input.AccessToken != "":
		userInfo, err = ac.GoogleConfig.GetUserInfo(ctx, &oauth2.Token{AccessToken: input.AccessToken})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either code, id_token, or access_token is required", "success": false})
		return
	}

	if errors.Is(err, config.ErrGoogleNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "success": false})
		return
	}
	if err != nil {
		logger.FromContext(c, ac.Log).WithError(err).Warn("google sign-in rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Google token", "success": false})
		return
	}

	user, err := ac.findOrCreateGoogleUser(c, userInfo)
	if err != nil {
		logger.FromContext(c, ac.Log).WithError(err).Error("google user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user", "success": false})
		return
	}

	ac.respondWithTokens(c, user)
}

func (ac *AuthController) findOrCreateGoogleUser(c *gin.Context, info *config.GoogleUserInfo) (*models.User, error) {
	db := ac.DB.WithContext(c.Request.Context())

	// Check if user already exists
	var user models.User
	err := db.Where("google_id = ? OR email = ?", info.ID, strings.ToLower(info.Email)).First(&user).Error
	if err == nil {
		// Update existing user's Google info if needed
		if user.GoogleID == nil || *user.GoogleID == "" {
			user.GoogleID = &info.ID
			user.Provider = "google"
			if user.Avatar == "" && info.Picture != "" {
				user.Avatar = info.Picture
			}
			if err := db.Save(&user).Error; err != nil {
				return nil, err
			}
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Generate unique username from email
	base := strings.Split(info.Email, "@")[0]
	username := base
	for counter := 1; ; counter++ {
		var existing int64
		if err := db.Model(&models.User{}).Where("username = ?", username).Count(&existing).Error; err != nil {
			return nil, err
		}
		if existing == 0 {
			break
		}
		username = base + strconv.Itoa(counter)
	}

	user = models.User{
		Username:      username,
		Email:         strings.ToLower(info.Email),
		FirstName:     info.GivenName,
		LastName:      info.FamilyName,
		Avatar:        info.Picture,
		GoogleID:      &info.ID,
		Provider:      "google",
		EmailVerified: info.VerifiedEmail,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
