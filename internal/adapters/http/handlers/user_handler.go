package handlers

import (
	"tikalinvest/internal/core/services"
	"tikalinvest/internal/pkg/pagination"
	"tikalinvest/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles profile and user management endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetProfile returns the caller's profile
// @Summary Get my profile
// @Description Profile with balance and portfolio value
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.UserResponse}
// @Failure 401 {object} response.Response
// @Router /users/me [get]
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.userService.GetProfile(c.Context(), userID)
	if err != nil {
		return serviceError(c, err, "Failed to get profile")
	}

	return response.Success(c, "Profile retrieved successfully", user)
}

// UpdateProfile updates the caller's profile
// @Summary Update my profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.UpdateProfileInput true "Fields to change"
// @Success 200 {object} response.Response{data=models.UserResponse}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /users/me [put]
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.UpdateProfileInput
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	user, err := h.userService.UpdateProfile(c.Context(), userID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to update profile")
	}

	return response.Success(c, "Profile updated successfully", user)
}

// ChangePassword changes the caller's password
// @Summary Change my password
// @Description Ends every other session
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ChangePasswordInput true "Old and new password"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /users/me/password [put]
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req services.ChangePasswordInput
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	if err := h.userService.ChangePassword(c.Context(), userID, &req); err != nil {
		return serviceError(c, err, "Failed to change password")
	}

	return response.Success(c, "Password changed successfully", nil)
}

// Referrals lists users who signed up with the caller's code
// @Summary My referrals
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=services.ReferralSummary}
// @Router /users/me/referrals [get]
func (h *UserHandler) Referrals(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	summary, err := h.userService.Referrals(c.Context(), userID)
	if err != nil {
		return serviceError(c, err, "Failed to get referrals")
	}

	return response.Success(c, "Referrals retrieved successfully", summary)
}

// ============================================================
// Admin
// ============================================================

// ListUsers handles listing all users (Admin only)
// @Summary List all users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param status query string false "pending, active, suspended or inactive"
// @Param role query string false "user or admin"
// @Param search query string false "Username, email or name"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	users, meta, err := h.userService.ListUsers(c.Context(), &services.ListUsersInput{
		Page:   params.Page,
		Limit:  params.Limit,
		Status: c.Query("status"),
		Role:   c.Query("role"),
		Search: c.Query("search"),
	})
	if err != nil {
		return serviceError(c, err, "Failed to list users")
	}

	return response.Paginated(c, "Users retrieved successfully", users, meta)
}

// GetUser handles getting a user by ID (Admin only)
// @Summary Get user by ID
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response{data=models.UserResponse}
// @Failure 404 {object} response.Response
// @Router /admin/users/{id} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.GetUser(c.Context(), id)
	if err != nil {
		return serviceError(c, err, "Failed to get user")
	}

	return response.Success(c, "User retrieved successfully", user)
}

// Approve activates a pending user
// @Summary Approve user
// @Description Activates a pending user and pays their referrer's bonus
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response{data=models.UserResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/approve [post]
func (h *UserHandler) Approve(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.Approve(c.Context(), id)
	if err != nil {
		return serviceError(c, err, "Failed to approve user")
	}

	return response.Success(c, "User approved successfully", user)
}

// Suspend blocks a user
// @Summary Suspend user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response{data=models.UserResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/suspend [post]
func (h *UserHandler) Suspend(c *fiber.Ctx) error {
	actorID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.Suspend(c.Context(), actorID, id)
	if err != nil {
		return serviceError(c, err, "Failed to suspend user")
	}

	return response.Success(c, "User suspended successfully", user)
}

// Activate re-enables a user
// @Summary Activate user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response{data=models.UserResponse}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/activate [post]
func (h *UserHandler) Activate(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.Activate(c.Context(), id)
	if err != nil {
		return serviceError(c, err, "Failed to activate user")
	}

	return response.Success(c, "User activated successfully", user)
}
