package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-activity-api/internal/dto"
	"github.com/noah-isme/gema-activity-api/internal/identity"
	"github.com/noah-isme/gema-activity-api/internal/service"
	"github.com/noah-isme/gema-activity-api/internal/utils"
)

// ActivityServices groups the aggregation services served by ActivityHandler.
type ActivityServices struct {
	Overview   service.OverviewService
	Forums     service.ForumActivityService
	Deadlines  service.DeadlineService
	Grading    service.GradingService
	Messages   service.MessageService
	CourseInfo service.CourseInfoService
}

// ActivityHandler exposes the personal activity endpoints of the authenticated user.
type ActivityHandler struct {
	services  ActivityServices
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(services ActivityServices, validate *validator.Validate, logger zerolog.Logger) *ActivityHandler {
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return &ActivityHandler{
		services:  services,
		validator: validate,
		logger:    logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches the endpoints below the /me group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("/overview", h.overview)
	router.Get("/forum-activity", h.forumActivity)
	router.Get("/deadlines", h.deadlines)
	router.Get("/grading", h.grading)
	router.Get("/messages", h.messages)
	router.Get("/courses/info", h.courseInfo)
}

func (h *ActivityHandler) parseRequest(c *fiber.Ctx) (dto.AggregationRequest, error) {
	var req dto.AggregationRequest
	if err := c.QueryParser(&req); err != nil {
		return req, err
	}
	if err := h.validator.Struct(req); err != nil {
		return req, err
	}
	return req, nil
}

func since(req dto.AggregationRequest) time.Time {
	if req.Since <= 0 {
		return time.Time{}
	}
	return time.Unix(req.Since, 0).UTC()
}

func (h *ActivityHandler) overview(c *fiber.Ctx) error {
	userID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}
	req, err := h.parseRequest(c)
	if err != nil {
		return h.badRequest(c, err)
	}

	overview, err := h.services.Overview.Overview(requestContext(c, userID), nil, req.Limit)
	if err != nil {
		return h.failure(c, err, userID, "failed to load overview")
	}
	return utils.SendSuccess(c, "overview retrieved", overview)
}

func (h *ActivityHandler) forumActivity(c *fiber.Ctx) error {
	userID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}
	req, err := h.parseRequest(c)
	if err != nil {
		return h.badRequest(c, err)
	}

	items, err := h.services.Forums.Recent(requestContext(c, userID), nil, req.Limit, since(req))
	if err != nil {
		return h.failure(c, err, userID, "failed to load forum activity")
	}
	return utils.OK(c, items, "forum activity retrieved", fiber.Map{"count": len(items)})
}

func (h *ActivityHandler) deadlines(c *fiber.Ctx) error {
	userID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}
	req, err := h.parseRequest(c)
	if err != nil {
		return h.badRequest(c, err)
	}

	items, err := h.services.Deadlines.Upcoming(requestContext(c, userID), nil, req.Limit)
	if err != nil {
		return h.failure(c, err, userID, "failed to load deadlines")
	}
	return utils.OK(c, items, "deadlines retrieved", fiber.Map{"count": len(items)})
}

func (h *ActivityHandler) grading(c *fiber.Ctx) error {
	userID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}
	req, err := h.parseRequest(c)
	if err != nil {
		return h.badRequest(c, err)
	}

	items, err := h.services.Grading.Ungraded(requestContext(c, userID), nil, since(req))
	if err != nil {
		return h.failure(c, err, userID, "failed to load grading backlog")
	}
	return utils.OK(c, items, "grading backlog retrieved", fiber.Map{"count": len(items)})
}

func (h *ActivityHandler) messages(c *fiber.Ctx) error {
	userID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}
	req, err := h.parseRequest(c)
	if err != nil {
		return h.badRequest(c, err)
	}

	items, err := h.services.Messages.Recent(requestContext(c, userID), nil, req.Limit, since(req))
	if err != nil {
		return h.failure(c, err, userID, "failed to load messages")
	}
	return utils.OK(c, items, "messages retrieved", fiber.Map{"count": len(items)})
}

func (h *ActivityHandler) courseInfo(c *fiber.Ctx) error {
	userID, err := extractUserID(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	ids, err := parseIDs(c.Query("ids"))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}
	req := dto.CourseInfoRequest{IDs: ids}
	if err := h.validator.Struct(req); err != nil {
		return h.badRequest(c, err)
	}

	infos, err := h.services.CourseInfo.CourseInfo(requestContext(c, userID), nil, req.IDs)
	if err != nil {
		return h.failure(c, err, userID, "failed to load course info")
	}
	return utils.OK(c, infos, "course info retrieved", fiber.Map{"count": len(infos)})
}

func (h *ActivityHandler) badRequest(c *fiber.Ctx, err error) error {
	if isValidationError(err) {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid query parameters", validationDetails(err))
	}
	return utils.Fail(c, fiber.StatusBadRequest, "invalid query parameters", nil)
}

func (h *ActivityHandler) failure(c *fiber.Ctx, err error, userID uint, message string) error {
	switch {
	case errors.Is(err, service.ErrInvalidLimit), errors.Is(err, identity.ErrInvalidUserRef):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrNoCurrentUser):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	requestLogger(h.logger, c).Error().Err(err).Uint("user_id", userID).Msg(message)
	return utils.SendError(c, fiber.StatusInternalServerError, message)
}
