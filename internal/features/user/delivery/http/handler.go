package http

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"accounts-backend/internal/common/errors"
	"accounts-backend/internal/common/middleware"
	"accounts-backend/internal/features/user/models"
	"accounts-backend/internal/features/user/service"
)

// SessionConfig carries the cookie settings the handler needs.
type SessionConfig struct {
	CookieName   string
	MaxAgeSecs   int
	CookieSecure bool
}

type UserHandler struct {
	service service.UserService
	session SessionConfig
}

func NewUserHandler(service service.UserService, session SessionConfig) *UserHandler {
	return &UserHandler{
		service: service,
		session: session,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.POST("", h.Register)
		users.GET("/:uid", h.GetUser)
		users.POST("/:uid/documents", h.UploadDocument)
		users.PUT("/premium/:uid", h.UpgradeToPremium)
	}

	// Admin routes
	admin := router.Group("/users")
	admin.Use(middleware.RequireAdmin(h.service))
	{
		admin.PUT("/:uid/role", h.ToggleRole)
	}

	sessions := router.Group("/sessions")
	{
		sessions.POST("", h.Login)
		sessions.DELETE("", h.Logout)
		sessions.GET("/current", middleware.RequireSession(), h.CurrentSession)
	}
}

// @Summary Register user
// @Description Create a new user account. first_name, last_name, and email are required; email must be unique.
// @Tags users
// @Accept json
// @Produce json
// @Param request body models.CreateUserRequest true "Registration payload"
// @Success 201 {object} models.UserResponse "Created user"
// @Failure 400 {object} models.ErrorResponse "Validation failed"
// @Failure 409 {object} models.ErrorResponse "Email already registered"
// @Router /users [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	user, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// @Summary Log in
// @Description Verify credentials and establish a session. The session id is returned in a cookie.
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.SessionIdentity "Session identity"
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Router /sessions [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "Invalid request body"))
		return
	}

	sessionID, identity, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.SetCookie(h.session.CookieName, sessionID, h.session.MaxAgeSecs, "/", "", h.session.CookieSecure, true)
	c.JSON(http.StatusOK, identity)
}

// @Summary Log out
// @Description Delete the current session.
// @Tags sessions
// @Produce json
// @Success 204 "Session deleted"
// @Router /sessions [delete]
func (h *UserHandler) Logout(c *gin.Context) {
	sessionID, err := c.Cookie(h.session.CookieName)
	if err == nil && sessionID != "" {
		if err := h.service.Logout(c.Request.Context(), sessionID); err != nil {
			middleware.AbortWithError(c, err)
			return
		}
	}

	c.SetCookie(h.session.CookieName, "", -1, "/", "", h.session.CookieSecure, true)
	c.Status(http.StatusNoContent)
}

// @Summary Current session
// @Description Return the identity stored at login. Stale until the next login if the user record changed.
// @Tags sessions
// @Produce json
// @Success 200 {object} models.SessionIdentity "Session identity"
// @Failure 401 {object} models.ErrorResponse "No active session"
// @Router /sessions/current [get]
func (h *UserHandler) CurrentSession(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		middleware.AbortWithError(c, errors.NewAuthenticationError("no active session"))
		return
	}

	c.JSON(http.StatusOK, identity)
}

// @Summary Get user by ID
// @Tags users
// @Produce json
// @Param uid path string true "User ID"
// @Success 200 {object} models.UserResponse "User data"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Router /users/{uid} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("uid"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary Upload document
// @Description Store an uploaded file and append it to the user's document ledger. The multipart field name selects the storage category (profileImage, productImage, document); the optional "name" form value sets the ledger entry name.
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param uid path string true "User ID"
// @Param document formData file true "File to upload"
// @Param name formData string false "Document name"
// @Success 200 {object} models.UserResponse "Updated user"
// @Failure 400 {object} models.ErrorResponse "No file in request"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Router /users/{uid}/documents [post]
func (h *UserHandler) UploadDocument(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		middleware.AbortWithError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "Invalid multipart form"))
		return
	}

	var field string
	var header *multipart.FileHeader
	for name, files := range form.File {
		if len(files) > 0 {
			field = name
			header = files[0]
			break
		}
	}
	if header == nil {
		middleware.AbortWithError(c, errors.New(errors.ErrCodeBadRequest, "No file in request"))
		return
	}

	file, err := header.Open()
	if err != nil {
		middleware.AbortWithError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "Failed to read upload"))
		return
	}
	defer file.Close()

	docName := c.PostForm("name")

	user, err := h.service.UploadDocument(c.Request.Context(), c.Param("uid"),
		field, header.Filename, docName, file)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary Upgrade user to premium
// @Description Set role=premium if the user has uploaded every required document. Fails with the list of missing document names otherwise.
// @Tags users
// @Produce json
// @Param uid path string true "User ID"
// @Success 200 {object} models.UserResponse "Upgraded user"
// @Failure 400 {object} models.ErrorResponse "Required documents missing"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Router /users/premium/{uid} [put]
func (h *UserHandler) UpgradeToPremium(c *gin.Context) {
	user, err := h.service.UpgradeToPremium(c.Request.Context(), c.Param("uid"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// @Summary Toggle user role
// @Description Flip the role between user and premium without an eligibility check (admin only).
// @Tags users
// @Produce json
// @Security SessionCookie
// @Param uid path string true "User ID"
// @Success 200 {object} models.UserResponse "Updated user"
// @Failure 403 {object} models.ErrorResponse "Admin access required"
// @Failure 404 {object} models.ErrorResponse "User not found"
// @Failure 409 {object} models.ErrorResponse "Role cannot be toggled"
// @Router /users/{uid}/role [put]
func (h *UserHandler) ToggleRole(c *gin.Context) {
	user, err := h.service.ToggleRole(c.Request.Context(), c.Param("uid"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
