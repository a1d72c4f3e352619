package history

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
)

type Handler struct {
	repository Repository
}

func NewHandler(repository Repository) (*Handler, error) {
	if repository == nil {
		return nil, errors.New("[history_handler] invalid history repository")
	}

	return &Handler{repository: repository}, nil
}

func (h *Handler) SetupRoutes(router fiber.Router) {
	router.Get("/history/transactions", h.TransactionListHandler)
	router.Get("/history/transactions/:signature", h.TransactionHandler)
	router.Get("/history/sessions/:id", h.SessionHandler)
}

// TransactionListHandler returns one page of archived transactions, newest
// first, optionally narrowed by session_id or wallet.
func (h *Handler) TransactionListHandler(c *fiber.Ctx) error {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "page must be a positive number"})
		}
		page = n
	}

	filters := bson.M{}
	if sessionID := c.Query("session_id"); sessionID != "" {
		filters["session_id"] = sessionID
	}
	if wallet := c.Query("wallet"); wallet != "" {
		filters["wallet"] = wallet
	}

	records, err := h.repository.GetTransactionList(c.UserContext(), filters, page)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if records == nil {
		records = []*Record{}
	}

	return c.JSON(fiber.Map{"page": page, "transactions": records})
}

func (h *Handler) TransactionHandler(c *fiber.Ctx) error {
	record, err := h.repository.GetTransaction(c.UserContext(), bson.M{"signature": c.Params("signature")})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if record == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "transaction not found"})
	}

	return c.JSON(record)
}

func (h *Handler) SessionHandler(c *fiber.Ctx) error {
	report, err := h.repository.GetReport(c.UserContext(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if report == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}

	return c.JSON(report)
}
