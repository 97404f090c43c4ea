package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Skryldev/jobboard/models"
	"github.com/Skryldev/jobboard/repo"
	"github.com/Skryldev/jobboard/validation"
)

// CompanyHandler serves /companies.
type CompanyHandler struct {
	companies repo.CompanyRepository
}

// NewCompanyHandler serves companies from the given repository.
func NewCompanyHandler(companies repo.CompanyRepository) *CompanyHandler {
	return &CompanyHandler{companies: companies}
}

// Create handles POST /companies.
func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	var in models.NewCompany
	if err := bindJSON(c, validation.CompanyNew, &in); err != nil {
		return err
	}
	company, err := h.companies.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"company": company})
}

// List handles GET /companies?name=&minEmployees=&maxEmployees=.
func (h *CompanyHandler) List(c *fiber.Ctx) error {
	var search models.CompanySearch
	if err := bindQuery(c, validation.CompanySearch, &search); err != nil {
		return err
	}
	companies, err := h.companies.FindAll(c.UserContext(), search.Filter())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"companies": companies})
}

// Get handles GET /companies/:handle.
func (h *CompanyHandler) Get(c *fiber.Ctx) error {
	company, err := h.companies.Get(c.UserContext(), c.Params("handle"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"company": company})
}

// Update handles PATCH /companies/:handle.
func (h *CompanyHandler) Update(c *fiber.Ctx) error {
	var in models.CompanyUpdate
	if err := bindJSON(c, validation.CompanyUpdate, &in); err != nil {
		return err
	}
	company, err := h.companies.Update(c.UserContext(), c.Params("handle"), in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"company": company})
}

// Remove handles DELETE /companies/:handle.
func (h *CompanyHandler) Remove(c *fiber.Ctx) error {
	handle := c.Params("handle")
	if err := h.companies.Remove(c.UserContext(), handle); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"deleted": handle})
}
