package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/p-blackswan/fluxdock/internal/docs"
)

type updateDocumentRequest struct {
	docs.Patch
	Path *string `json:"path,omitempty"`
}

func (s *Server) listDocuments(c *fiber.Ctx) error {
	list := s.deps.Docs.List(c.UserContext(), c.Query("prefix"))
	if list == nil {
		list = []docs.Document{}
	}
	return c.JSON(fiber.Map{"documents": list, "total": len(list)})
}

func (s *Server) createDocument(c *fiber.Ctx) error {
	var in docs.Input
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	d, err := s.deps.Docs.Create(c.UserContext(), in)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(d)
}

func (s *Server) getDocument(c *fiber.Ctx) error {
	d, ok := s.deps.Docs.Get(c.UserContext(), c.Params("id"))
	if !ok {
		return notFound(c, "document")
	}
	return c.JSON(d)
}

func (s *Server) updateDocument(c *fiber.Ctx) error {
	var req updateDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	ctx := c.UserContext()
	id := c.Params("id")

	d, ok, err := s.deps.Docs.Update(ctx, id, req.Patch)
	if err != nil {
		return errorResponse(c, err)
	}
	if !ok {
		return notFound(c, "document")
	}
	if req.Path != nil && *req.Path != d.Path {
		if d, _, err = s.deps.Docs.Move(ctx, id, *req.Path); err != nil {
			return errorResponse(c, err)
		}
	}
	return c.JSON(d)
}

func (s *Server) deleteDocument(c *fiber.Ctx) error {
	s.deps.Docs.Delete(c.UserContext(), c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) shareDocument(c *fiber.Ctx) error {
	d, ok := s.deps.Docs.Share(c.UserContext(), c.Params("id"))
	if !ok {
		return notFound(c, "document")
	}
	return c.JSON(d)
}

func (s *Server) getShared(c *fiber.Ctx) error {
	d, ok := s.deps.Docs.GetByShareID(c.UserContext(), c.Params("shareId"))
	if !ok {
		return notFound(c, "document")
	}
	return c.JSON(d)
}

func (s *Server) deleteFolder(c *fiber.Ctx) error {
	prefix := c.Query("prefix")
	if prefix == "" {
		return badRequest(c, "missing_prefix", "Folder prefix is required")
	}
	return c.JSON(fiber.Map{"removed": s.deps.Docs.DeleteFolder(c.UserContext(), prefix)})
}
