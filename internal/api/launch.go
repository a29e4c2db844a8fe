package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/p-blackswan/fluxdock/internal/flux"
	"github.com/p-blackswan/fluxdock/internal/launcher"
)

type launchFluxRequest struct {
	Result json.RawMessage `json:"result"`
	Prompt string          `json:"prompt,omitempty"`
}

type generateRequest struct {
	Kind  string         `json:"kind"`
	Input map[string]any `json:"input,omitempty"`
}

type describeRequest struct {
	Goal string `json:"goal"`
}

// launchFlux runs a full launch sequence. The response is sent once every
// window has been opened.
func (s *Server) launchFlux(c *fiber.Ctx) error {
	var req launchFluxRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	bundle, err := flux.Decode(req.Result)
	if err != nil {
		return errorResponse(c, err)
	}
	plan := launcher.Plan(bundle, req.Prompt)
	n := s.deps.Launcher.LaunchFluxProject(c.UserContext(), bundle, req.Prompt)
	return c.JSON(fiber.Map{"launches": n, "plan": plan})
}

func (s *Server) launchApp(c *fiber.Ctx) error {
	app := utils.CopyString(c.Params("app"))
	resultID := utils.CopyString(c.Query("result"))
	s.deps.Launcher.LaunchAppFromURL(c.UserContext(), app, resultID)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"app": app})
}

func (s *Server) generate(c *fiber.Ctx) error {
	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	if req.Kind == "" {
		return badRequest(c, "missing_kind", "Kind is required")
	}
	out, stored, err := s.deps.Studio.Run(c.UserContext(), req.Kind, req.Input)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"result": out, "resultId": stored.ID})
}

func (s *Server) describe(c *fiber.Ctx) error {
	var req describeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	outcome, err := s.deps.Studio.Describe(c.UserContext(), req.Goal)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(outcome)
}

func (s *Server) getResult(c *fiber.Ctx) error {
	r, err := s.deps.Results.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(r)
}
