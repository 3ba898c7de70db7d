package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"essentia-system/internal/database/models"
	"essentia-system/internal/middleware"
	"essentia-system/internal/policy"
	"essentia-system/internal/utils"
)

type AuthHandler struct {
	db       *gorm.DB
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewAuthHandler(db *gorm.DB, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		db:       db,
		tokenTTL: tokenTTL,
		logger:   utils.GetLogger(),
	}
}

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ListUsersQuery struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=10"`
}

type userPayload struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func userToPayload(u models.User) userPayload {
	return userPayload{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

// SignUp registers a new user. Role defaults to Client when omitted.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleClient
	}
	if !models.ValidRole(role) {
		c.JSON(http.StatusBadRequest, errorResponse("Unknown role"))
		return
	}

	var existing models.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, errorResponse("Email already registered"))
		return
	} else if err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error hashing password"))
		return
	}

	user := models.User{
		ID:       uuid.NewString(),
		Email:    req.Email,
		Password: string(pwHash),
		FullName: req.FullName,
		Role:     role,
	}

	if err := h.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error creating user"))
		return
	}

	h.logger.Info("user registered",
		zap.String("user_id", user.ID), zap.String("role", user.Role))

	c.JSON(http.StatusCreated, successResponse("user registered successfully", userToPayload(user)))
}

// SignIn checks credentials and issues a bearer token carrying the user's
// id, email, full name and role claims.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusUnauthorized, errorResponse("Invalid email or password"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse("Invalid email or password"))
		return
	}

	token, exp, err := utils.GenerateToken(user.ID, user.Email, user.FullName, user.Role, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error generating token"))
		return
	}

	now := time.Now()
	user.LastLogin = &now
	if err := h.db.Save(&user).Error; err != nil {
		h.logger.Warn("failed to record last login",
			zap.String("user_id", user.ID), zap.Error(err))
	}

	c.JSON(http.StatusOK, successResponse("login successful", gin.H{
		"token":      token,
		"expires_at": exp,
		"user":       userToPayload(user),
	}))
}

// ListUsers returns a paginated user listing for authenticated callers.
func (h *AuthHandler) ListUsers(c *gin.Context) {
	var q ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 10
	}

	var total int64
	if err := h.db.Model(&models.User{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var users []models.User
	offset := (q.Page - 1) * q.PageSize
	if err := h.db.Offset(offset).Limit(q.PageSize).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	payload := make([]userPayload, len(users))
	for i, u := range users {
		payload[i] = userToPayload(u)
	}

	c.JSON(http.StatusOK, successWithMetaResponse("users retrieved successfully", payload, gin.H{
		"page":      q.Page,
		"page_size": q.PageSize,
		"total":     total,
	}))
}

// subjectFrom builds the policy subject for the authenticated caller.
func subjectFrom(c *gin.Context) policy.Subject {
	return policy.Subject{
		UserID: c.GetString(middleware.CtxUserID),
		Role:   c.GetString(middleware.CtxUserRole),
	}
}
