package handler

import (
	"errors"
	"net/http"

	"github.com/ShalConnects/Balanze-sub003/internal/domain"
	"github.com/ShalConnects/Balanze-sub003/internal/middleware"
	"github.com/ShalConnects/Balanze-sub003/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// APITokenHandler handles API token-related HTTP requests
type APITokenHandler struct {
	apiTokenService *service.APITokenService
}

// NewAPITokenHandler creates a new APITokenHandler
func NewAPITokenHandler(apiTokenService *service.APITokenService) *APITokenHandler {
	return &APITokenHandler{apiTokenService: apiTokenService}
}

// CreateAPITokenRequest represents the create token request body
type CreateAPITokenRequest struct {
	Description string `json:"description"`
}

// CreateAPIToken handles POST /api/v1/api-tokens
func (h *APITokenHandler) CreateAPIToken(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateAPITokenRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	if req.Description == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description is required"},
		})
	}
	if len(req.Description) > 255 {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "description", Message: "Description must be 255 characters or less"},
		})
	}

	result, err := h.apiTokenService.Create(c.Request().Context(), userID, req.Description)
	if err != nil {
		if errors.Is(err, domain.ErrTooManyAPITokens) {
			return NewValidationError(c, "Maximum number of API tokens reached (10)", nil)
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create API token")
		return NewInternalError(c, "Failed to create API token")
	}

	return c.JSON(http.StatusCreated, result)
}

// GetAPITokens handles GET /api/v1/api-tokens
func (h *APITokenHandler) GetAPITokens(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	tokens, err := h.apiTokenService.GetByUser(c.Request().Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get API tokens")
		return NewInternalError(c, "Failed to get API tokens")
	}

	return c.JSON(http.StatusOK, tokens)
}

// RevokeAPIToken handles DELETE /api/v1/api-tokens/:id
func (h *APITokenHandler) RevokeAPIToken(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	tokenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid token ID", nil)
	}

	if err := h.apiTokenService.Revoke(c.Request().Context(), userID, tokenID); err != nil {
		if errors.Is(err, domain.ErrAPITokenNotFound) {
			return NewNotFoundError(c, "API token not found")
		}
		log.Error().Err(err).Str("user_id", userID.String()).Str("token_id", tokenID.String()).Msg("Failed to revoke API token")
		return NewInternalError(c, "Failed to revoke API token")
	}

	return c.NoContent(http.StatusNoContent)
}
