package http

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/Maxito7/gallery_backend/internal/application"
	"github.com/Maxito7/gallery_backend/internal/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const streamPingInterval = 15 * time.Second

type GalleryHandler struct {
	service *application.GalleryService

	done      chan struct{}
	closeOnce sync.Once
}

func NewGalleryHandler(service *application.GalleryService) *GalleryHandler {
	return &GalleryHandler{
		service: service,
		done:    make(chan struct{}),
	}
}

// Close ends every open event stream and refuses new ones. Call it before
// shutting the server down, open streams otherwise keep it waiting.
func (h *GalleryHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// RegisterGalleryRoutes mounts the gallery API under router. Mutating
// session routes go through limiter when it is not nil.
func RegisterGalleryRoutes(router fiber.Router, h *GalleryHandler, limiter *application.RateLimiter) {
	limit := RateLimit(limiter)

	gallery := router.Group("/gallery")
	gallery.Get("/images", h.GetImages)

	sessions := gallery.Group("/sessions")
	sessions.Post("/", limit, h.OpenSession)
	sessions.Get("/:id", h.GetView)
	sessions.Get("/:id/events", h.StreamView)
	sessions.Delete("/:id", h.CloseSession)

	sessions.Post("/:id/selection/:imageId", limit, h.ToggleSelection)
	sessions.Delete("/:id/selection", limit, h.ClearSelection)
	sessions.Post("/:id/delete", limit, h.DeleteSelected)
	sessions.Post("/:id/drag/start", limit, h.DragStart)
	sessions.Post("/:id/drag/end", limit, h.DragEnd)
	sessions.Post("/:id/drag/cancel", limit, h.DragCancel)
}

func (h *GalleryHandler) GetImages(c *fiber.Ctx) error {
	images, err := h.service.GetAllImages(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if images == nil {
		images = []domain.GalleryImage{}
	}
	return c.JSON(images)
}

func (h *GalleryHandler) OpenSession(c *fiber.Ctx) error {
	id, view, err := h.service.OpenSession(c.UserContext())
	if err != nil {
		log.Printf("Failed to open gallery session: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session_id": id,
		"view":       view,
	})
}

func (h *GalleryHandler) GetView(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	view, err := h.service.GetView(id)
	if err != nil {
		return h.fail(c, err, view)
	}

	etag := fmt.Sprintf(`"%s-%d"`, id, view.Revision)
	c.Set(fiber.HeaderETag, etag)
	if c.Get(fiber.HeaderIfNoneMatch) == etag {
		return c.SendStatus(fiber.StatusNotModified)
	}
	return c.JSON(view)
}

// StreamView pushes the session view as server-sent events on every change.
func (h *GalleryHandler) StreamView(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	select {
	case <-h.done:
		return fiber.NewError(fiber.StatusServiceUnavailable, "Server is shutting down")
	default:
	}

	views, stop, err := h.service.Watch(id)
	if err != nil {
		return h.fail(c, err, application.View{})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer stop()
		ping := time.NewTicker(streamPingInterval)
		defer ping.Stop()

		for {
			select {
			case <-h.done:
				return
			case v := <-views:
				data, err := json.Marshal(v)
				if err != nil {
					log.Printf("Failed to encode gallery view: %v", err)
					return
				}
				fmt.Fprintf(w, "event: view\ndata: %s\n\n", data)
			case <-ping.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				// client went away
				return
			}
		}
	})
	return nil
}

func (h *GalleryHandler) CloseSession(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	err = h.service.CloseSession(c.UserContext(), id)
	switch {
	case err == nil:
		return c.SendStatus(fiber.StatusNoContent)
	case errors.Is(err, application.ErrProviderSync):
		// closed, the unsaved changes are retried in the background
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"error": err.Error()})
	default:
		return h.fail(c, err, application.View{})
	}
}

func (h *GalleryHandler) ToggleSelection(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	imageID, err := strconv.Atoi(c.Params("imageId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid image ID"})
	}

	view, err := h.service.ToggleSelection(id, imageID)
	return h.respond(c, view, err)
}

func (h *GalleryHandler) ClearSelection(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	view, err := h.service.ClearSelection(id)
	return h.respond(c, view, err)
}

func (h *GalleryHandler) DeleteSelected(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	view, err := h.service.DeleteSelected(c.UserContext(), id)
	return h.respond(c, view, err)
}

func (h *GalleryHandler) DragStart(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	var ev application.DragStartEvent
	if err := c.BodyParser(&ev); err != nil {
		// a start we cannot read is treated as a cancel
		view, err := h.service.DragCancel(id)
		return h.respond(c, view, err)
	}
	view, err := h.service.DragStart(id, ev)
	return h.respond(c, view, err)
}

func (h *GalleryHandler) DragEnd(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	var ev application.DragEndEvent
	if err := c.BodyParser(&ev); err != nil {
		view, err := h.service.DragCancel(id)
		return h.respond(c, view, err)
	}
	view, err := h.service.DragEnd(c.UserContext(), id, ev)
	return h.respond(c, view, err)
}

func (h *GalleryHandler) DragCancel(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	view, err := h.service.DragCancel(id)
	return h.respond(c, view, err)
}

func (h *GalleryHandler) respond(c *fiber.Ctx, view application.View, err error) error {
	if err != nil {
		return h.fail(c, err, view)
	}
	return c.JSON(view)
}

// fail maps service errors to responses. A provider failure still returns
// the committed view so the client can render it.
func (h *GalleryHandler) fail(c *fiber.Ctx, err error, view application.View) error {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, application.ErrProviderSync):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
			"view":  view,
		})
	default:
		log.Printf("Gallery request failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

func sessionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid session ID")
	}
	return id, nil
}
