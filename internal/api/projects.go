package api

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/p-blackswan/fluxdock/internal/dock"
	"github.com/p-blackswan/fluxdock/internal/project"
)

type createProjectRequest struct {
	Name string        `json:"name"`
	Plan *project.Plan `json:"plan,omitempty"`
}

type updateProjectRequest struct {
	Name *string       `json:"name,omitempty"`
	Plan *project.Plan `json:"plan,omitempty"`
}

type setActiveRequest struct {
	ID string `json:"id"`
}

func (s *Server) listProjects(c *fiber.Ctx) error {
	projects := s.deps.Dock.Projects().List(c.UserContext())
	if projects == nil {
		projects = []project.Project{}
	}
	return c.JSON(fiber.Map{"projects": projects, "total": len(projects)})
}

func (s *Server) createProject(c *fiber.Ctx) error {
	var req createProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	p, err := s.deps.Dock.CreateProject(c.UserContext(), req.Name, req.Plan, false)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (s *Server) getProject(c *fiber.Ctx) error {
	p, ok := s.deps.Dock.Projects().Get(c.UserContext(), c.Params("id"))
	if !ok {
		return notFound(c, "project")
	}
	return c.JSON(p)
}

func (s *Server) updateProject(c *fiber.Ctx) error {
	var req updateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}

	updated, ok, err := s.deps.Dock.Projects().Edit(c.UserContext(), c.Params("id"), func(p *project.Project) error {
		if req.Name != nil {
			p.Name = *req.Name
		}
		if req.Plan != nil {
			p.Plan = req.Plan
		}
		return nil
	})
	if err != nil {
		return errorResponse(c, err)
	}
	if !ok {
		return notFound(c, "project")
	}
	return c.JSON(updated)
}

func (s *Server) deleteProject(c *fiber.Ctx) error {
	s.deps.Dock.DeleteProject(c.UserContext(), c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) toggleTask(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return badRequest(c, "invalid_index", "Task index must be an integer")
	}
	p, ok, err := s.deps.Dock.Projects().ToggleTask(c.UserContext(), c.Params("id"), index)
	if err != nil {
		return errorResponse(c, err)
	}
	if !ok {
		return notFound(c, "project")
	}
	return c.JSON(p)
}

func (s *Server) listWindows(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")
	if _, ok := s.deps.Dock.Projects().Get(ctx, id); !ok {
		return notFound(c, "project")
	}
	windows := s.deps.Dock.Windows().Windows(ctx, id)
	if windows == nil {
		windows = []project.Window{}
	}
	return c.JSON(fiber.Map{"windows": windows, "bound": s.deps.Dock.Windows().Bound()})
}

func (s *Server) addWindow(c *fiber.Ctx) error {
	var in project.WindowInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	w, err := s.deps.Dock.Windows().AddWindow(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return errorResponse(c, err)
	}
	if w == nil {
		return notFound(c, "project")
	}
	return c.Status(fiber.StatusCreated).JSON(w)
}

func (s *Server) removeWindow(c *fiber.Ctx) error {
	s.deps.Dock.Windows().RemoveWindow(c.UserContext(), c.Params("id"), c.Params("wid"))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) jump(c *fiber.Ctx) error {
	target, ok := s.deps.Dock.JumpTo(c.UserContext(), c.Params("id"), c.Params("wid"))
	if !ok {
		return notFound(c, "window")
	}
	return c.JSON(target)
}

func (s *Server) capture(c *fiber.Ctx) error {
	var state dock.SessionState
	if err := c.BodyParser(&state); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	w, err := s.deps.Dock.QuickCapture(c.UserContext(), c.Params("id"), state)
	if err != nil {
		return errorResponse(c, err)
	}
	if w == nil {
		return notFound(c, "project")
	}
	return c.Status(fiber.StatusCreated).JSON(w)
}

func (s *Server) upload(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")
	if _, ok := s.deps.Dock.Projects().Get(ctx, id); !ok {
		return notFound(c, "project")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "invalid_form", "Expected multipart form data: "+err.Error())
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return badRequest(c, "missing_files", "At least one file is required in the files field")
	}

	files := make([]dock.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readFile(fh)
		if err != nil {
			return badRequest(c, "unreadable_file", fh.Filename+": "+err.Error())
		}
		files = append(files, dock.Upload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	res, err := s.deps.Dock.Upload(ctx, id, files)
	if err != nil {
		return errorResponse(c, err)
	}
	if res.Windows == nil {
		res.Windows = []project.Window{}
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) getActive(c *fiber.Ctx) error {
	p, ok := s.deps.Dock.Active(c.UserContext())
	if !ok {
		return c.JSON(fiber.Map{"project": nil})
	}
	return c.JSON(fiber.Map{"project": p})
}

func (s *Server) setActive(c *fiber.Ctx) error {
	var req setActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	if !s.deps.Dock.Select(c.UserContext(), req.ID) {
		return notFound(c, "project")
	}
	return s.getActive(c)
}

func (s *Server) clearActive(c *fiber.Ctx) error {
	s.deps.Dock.ClearSelection(c.UserContext())
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) activity(c *fiber.Ctx) error {
	events := s.deps.Dock.Projects().Activity(c.UserContext())
	if events == nil {
		events = []project.ActivityEvent{}
	}
	return c.JSON(fiber.Map{"events": events})
}
