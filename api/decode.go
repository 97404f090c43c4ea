package api

import (
	"encoding/json"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/schema"

	"github.com/Skryldev/jobboard/apperr"
	"github.com/Skryldev/jobboard/validation"
)

var queryDecoder = schema.NewDecoder()

// bindJSON validates the raw body against s before decoding it into dst.
func bindJSON(c *fiber.Ctx, s validation.Schema, dst any) error {
	body := c.Body()
	if err := validation.Validate(s, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Wrap(apperr.KindBadRequest, "Malformed JSON", err)
	}
	return nil
}

// bindQuery decodes the query string into dst, then validates the result
// against s.
func bindQuery(c *fiber.Ctx, s validation.Schema, dst any) error {
	vals, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return apperr.Wrap(apperr.KindBadRequest, "Malformed query string", err)
	}
	if err := queryDecoder.Decode(dst, vals); err != nil {
		return apperr.BadRequest("Invalid "+string(s), err.Error())
	}
	return validation.ValidateValue(s, dst)
}
