package handler

import (
	"github.com/aody34/Darusalaampharmcy/internal/model"
	"github.com/aody34/Darusalaampharmcy/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ItemHandler struct {
	service service.ItemService
}

func NewItemHandler(s service.ItemService) *ItemHandler {
	return &ItemHandler{service: s}
}

func (h *ItemHandler) CreateItem(c *fiber.Ctx) error {
	var item model.Item
	if err := c.BodyParser(&item); err != nil {
		return respondError(c, fiber.StatusBadRequest, "BAD_REQUEST", "Invalid JSON")
	}

	if err := h.service.CreateItem(c.UserContext(), &item, getUserID(c)); err != nil {
		return respondError(c, fiber.StatusBadRequest, "BAD_REQUEST", err.Error())
	}
	return respondData(c, fiber.StatusCreated, item)
}

func (h *ItemHandler) UpdateItem(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "BAD_REQUEST", "Invalid item ID")
	}

	var item model.Item
	if err := c.BodyParser(&item); err != nil {
		return respondError(c, fiber.StatusBadRequest, "BAD_REQUEST", "Invalid JSON")
	}

	updated, err := h.service.UpdateItem(c.UserContext(), id, &item, getUserID(c))
	if err != nil {
		return respondSaleError(c, err)
	}
	return respondData(c, fiber.StatusOK, updated)
}

func (h *ItemHandler) DeleteItem(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "BAD_REQUEST", "Invalid item ID")
	}

	if err := h.service.DeleteItem(c.UserContext(), id, getUserID(c)); err != nil {
		return respondSaleError(c, err)
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"deleted": id})
}

func (h *ItemHandler) GetItems(c *fiber.Ctx) error {
	items, err := h.service.ListItems(c.UserContext())
	if err != nil {
		return respondError(c, fiber.StatusInternalServerError, "UNKNOWN", "Internal Server Error")
	}
	return respondData(c, fiber.StatusOK, items)
}

func (h *ItemHandler) GetItem(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "BAD_REQUEST", "Invalid item ID")
	}

	item, err := h.service.GetItem(c.UserContext(), id)
	if err != nil {
		return respondSaleError(c, err)
	}
	return respondData(c, fiber.StatusOK, item)
}
