package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smartsprint/smartsprint/internal/api/middleware"
	"github.com/smartsprint/smartsprint/internal/core/domain"
	"github.com/smartsprint/smartsprint/internal/core/ports"
)

// UserHandler handles HTTP requests for account management.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// --- Request / Response types ---

type createUserRequest struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Name       *string `json:"name"       validate:"omitempty,max=100"`
	Email      *string `json:"email"      validate:"omitempty,email,max=254"`
	Role       *string `json:"role"`
	Bio        *string `json:"bio"        validate:"omitempty,max=1000"`
	Department *string `json:"department" validate:"omitempty,max=100"`
	Location   *string `json:"location"   validate:"omitempty,max=100"`
	Phone      *string `json:"phone"      validate:"omitempty,max=30"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required"`
}

type userResponse struct {
	Success bool              `json:"success"`
	User    domain.PublicUser `json:"user"`
}

type userListResponse struct {
	Success bool                `json:"success"`
	Count   int                 `json:"count"`
	Users   []domain.PublicUser `json:"users"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func actor(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}

// List handles GET /users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userListResponse
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return err
	}
	users, err := h.service.List(c.Request().Context(), who)
	if err != nil {
		return err
	}
	public := domain.PublicUsers(users)
	return c.JSON(http.StatusOK, userListResponse{Success: true, Count: len(public), Users: public})
}

// Get handles GET /users/:id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      403  {object}  errorBody
// @Failure      404  {object}  errorBody
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return err
	}
	user, err := h.service.Get(c.Request().Context(), who, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Success: true, User: user.Public()})
}

// Create handles POST /users.
//
// @Summary      Create a user
// @Description  The caller must outrank the new user's role; only admins may create admins.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "New user"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return err
	}
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.Create(c.Request().Context(), who, ports.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, userResponse{Success: true, User: user.Public()})
}

// Update handles PUT /users/:id.
//
// @Summary      Update a user profile
// @Description  Users may update themselves; admins may update anyone and change roles.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Failure      404   {object}  errorBody
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.Update(c.Request().Context(), who, c.Param("id"), ports.UpdateUserInput{
		Name:       req.Name,
		Email:      req.Email,
		Role:       req.Role,
		Bio:        req.Bio,
		Department: req.Department,
		Location:   req.Location,
		Phone:      req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Success: true, User: user.Public()})
}

// ChangePassword handles POST /users/:id/change-password.
//
// @Summary      Change own password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "User id"
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Router       /users/{id}/change-password [post]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.ChangePassword(c.Request().Context(), who, c.Param("id"), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Password updated successfully"})
}

// Delete handles DELETE /users/:id.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Failure      404  {object}  errorBody
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	who, err := actor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), who, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "User deleted successfully"})
}
