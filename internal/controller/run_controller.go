package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-research-be/internal/dto"
	"ai-research-be/internal/pkg/serverutils"
	"ai-research-be/internal/service"
	ws "ai-research-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

const (
	ssePollInterval   = 500 * time.Millisecond
	sseKeepalivePause = 10 * time.Second
)

type IRunController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	ConfirmSubtasks(ctx *fiber.Ctx) error
	Rerun(ctx *fiber.Ctx) error
	ListEvents(ctx *fiber.Ctx) error
	StreamEvents(ctx *fiber.Ctx) error
}

type runController struct {
	runService service.IRunService
	hub        *ws.Hub
}

func NewRunController(runService service.IRunService, hub *ws.Hub) IRunController {
	return &runController{
		runService: runService,
		hub:        hub,
	}
}

func (c *runController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/run/v1")
	h.Post("", c.Create)
	h.Get(":id", c.Show)
	h.Post(":id/subtasks/confirm", c.ConfirmSubtasks)
	h.Post(":id/step/:index/rerun", c.Rerun)
	h.Get(":id/events", c.ListEvents)
	h.Get(":id/events/stream", c.StreamEvents)
	h.Get(":id/events/ws", fiberws.New(c.serveWs))
}

func (c *runController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateRunRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.runService.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Run created", res))
}

func (c *runController) Show(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid run id")
	}

	res, err := c.runService.Snapshot(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Run snapshot", res))
}

func (c *runController) ConfirmSubtasks(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid run id")
	}

	var req dto.ConfirmSubtasksRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.RunId = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.runService.ConfirmSubtasks(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Subtasks confirmed", res))
}

func (c *runController) Rerun(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid run id")
	}
	index, err := ctx.ParamsInt("index")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid step index")
	}

	req := dto.RerunRequest{RunId: id, FromStep: index}
	res, err := c.runService.Rerun(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Rerun scheduled", res))
}

func (c *runController) ListEvents(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid run id")
	}
	afterSeq := int64(ctx.QueryInt("after_seq", 0))

	res, err := c.runService.Events(ctx.Context(), id, afterSeq)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Run events", res))
}

// StreamEvents serves the event log as SSE: replay from the cursor, then poll
// for new entries, with periodic keepalive comments.
func (c *runController) StreamEvents(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid run id")
	}
	cursor := int64(ctx.QueryInt("after_seq", 0))
	// Browsers resend the last delivered id on reconnect.
	if h := ctx.Get("Last-Event-ID"); h != "" {
		fmt.Sscanf(h, "%d", &cursor)
	}

	// Fail before the stream starts when the run does not exist.
	if _, err := c.runService.Events(ctx.Context(), id, cursor); err != nil {
		return err
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// The handler has returned by the time this runs; use a fresh context.
		streamCtx := context.Background()
		lastWrite := time.Now()

		for {
			events, err := c.runService.Events(streamCtx, id, cursor)
			if err != nil {
				return
			}

			for _, ev := range events {
				data, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				if _, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.Seq, ev.Type, data); err != nil {
					return
				}
				cursor = ev.Seq
				lastWrite = time.Now()
			}

			if time.Since(lastWrite) >= sseKeepalivePause {
				if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
					return
				}
				lastWrite = time.Now()
			}

			// Flush errors mean the client went away.
			if err := w.Flush(); err != nil {
				return
			}

			time.Sleep(ssePollInterval)
		}
	}))

	return nil
}

func (c *runController) serveWs(conn *fiberws.Conn) {
	id, err := uuid.Parse(conn.Params("id"))
	if err != nil {
		conn.Close()
		return
	}

	afterSeq := int64(0)
	if q := conn.Query("after_seq"); q != "" {
		fmt.Sscanf(q, "%d", &afterSeq)
	}

	events, err := c.runService.Events(context.Background(), id, afterSeq)
	if err != nil {
		conn.Close()
		return
	}
	replay := make([][]byte, 0, len(events))
	for _, ev := range events {
		if data, err := json.Marshal(ev); err == nil {
			replay = append(replay, data)
		}
	}

	ws.ServeWs(c.hub, conn, id, replay)
}
