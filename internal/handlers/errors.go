// Package handlers contains the HTTP route handler functions for the league scoring API.
// Each handler corresponds to one API endpoint and is responsible for reading the
// request, calling the league service, and writing a response.
//
// Each exported function follows the "handler factory" pattern: it takes its
// dependencies (the league service, the notification hub, ...) and returns a
// fiber.Handler. This lets us inject them without using global variables.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/trentd187/league-scoring/internal/scoring"
	"github.com/trentd187/league-scoring/internal/store"
)

// respondError maps the service's error taxonomy onto HTTP status codes:
//
//	store.ErrNotFound          -> 404
//	*scoring.ValidationError   -> 400
//	store.ErrVersionConflict   -> 409
//	anything else              -> 500, with the storage message passed through
func respondError(c *fiber.Ctx, err error) error {
	var invalid *scoring.ValidationError
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.As(err, &invalid):
		status = fiber.StatusBadRequest
	case errors.Is(err, store.ErrVersionConflict):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// paramID parses a UUID route parameter, writing a 400 response when it is malformed.
// ok is false when the response has already been written.
func paramID(c *fiber.Ctx, name string) (id uuid.UUID, ok bool, err error) {
	id, parseErr := uuid.Parse(c.Params(name))
	if parseErr != nil {
		return uuid.Nil, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid " + name,
		})
	}
	return id, true, nil
}
