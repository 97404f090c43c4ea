package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/Skryldev/jobboard/apperr"
	"github.com/Skryldev/jobboard/models"
	"github.com/Skryldev/jobboard/repo"
	"github.com/Skryldev/jobboard/validation"
)

// JobHandler serves /jobs.
type JobHandler struct {
	jobs repo.JobRepository
}

// NewJobHandler serves jobs from the given repository.
func NewJobHandler(jobs repo.JobRepository) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// Create handles POST /jobs.
func (h *JobHandler) Create(c *fiber.Ctx) error {
	var in models.NewJob
	if err := bindJSON(c, validation.JobNew, &in); err != nil {
		return err
	}
	j, err := h.jobs.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"job": j})
}

// List handles GET /jobs?title=&minSalary=&hasEquity=.
func (h *JobHandler) List(c *fiber.Ctx) error {
	var search models.JobSearch
	if err := bindQuery(c, validation.JobSearch, &search); err != nil {
		return err
	}
	jobs, err := h.jobs.FindAll(c.UserContext(), search.Filter())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"jobs": jobs})
}

// Get handles GET /jobs/:id.
func (h *JobHandler) Get(c *fiber.Ctx) error {
	id, err := jobID(c)
	if err != nil {
		return err
	}
	j, err := h.jobs.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"job": j})
}

// Update handles PATCH /jobs/:id. An empty object is rejected with 400.
func (h *JobHandler) Update(c *fiber.Ctx) error {
	id, err := jobID(c)
	if err != nil {
		return err
	}
	var in models.JobUpdate
	if err := bindJSON(c, validation.JobUpdate, &in); err != nil {
		return err
	}
	j, err := h.jobs.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"job": j})
}

// Remove handles DELETE /jobs/:id.
func (h *JobHandler) Remove(c *fiber.Ctx) error {
	id, err := jobID(c)
	if err != nil {
		return err
	}
	if err := h.jobs.Remove(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"deleted": id})
}

// jobID parses :id; a value that cannot be an id names no job.
func jobID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.NotFound("No job: %s", raw)
	}
	return id, nil
}
