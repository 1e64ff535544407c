// Package notes содержит HTTP-обработчики для управления заметками.
package notes

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notekeeper/internal/notes/adapters/http/dto"
	"notekeeper/internal/notes/adapters/http/middleware"
	"notekeeper/internal/notes/app"
	"notekeeper/internal/notes/domain/entities"
	"notekeeper/internal/notes/export"
	"notekeeper/internal/notes/ports/api"
	"notekeeper/pkg/logger"
)

// Константы ошибок и сообщений для логирования.
const (
	LogHandlerListNotes    = "handling list notes request"
	LogHandlerCreateNote   = "handling create note request"
	LogHandlerUpdateByText = "handling update by text request"
	LogHandlerDeleteByPos  = "handling delete by index request"
	LogHandlerGetNote      = "handling get note request"
	LogHandlerUpdateNote   = "handling update note request"
	LogHandlerDeleteNote   = "handling delete note request"
	LogHandlerExportNotes  = "handling export notes request"

	ErrMsgInvalidNoteID      = "invalid note id"
	ErrMsgInvalidIndex       = "invalid note index"
	ErrMsgInvalidRequestBody = "invalid request body"
	ErrMsgMissingText        = "text is required"
	ErrMsgMissingTexts       = "old_text and new_text are required"
	ErrMsgNoteNotFound       = "note not found"
	ErrMsgIndexOutOfRange    = "note index out of range"
	ErrMsgInternal           = "internal server error"
	ErrMsgUnknownFormat      = "unknown export format"
	ErrMsgUnsupportedText    = "notes contain characters the pdf font cannot render"
)

// Handler обработчик HTTP-запросов для работы с заметками.
type Handler struct {
	store api.NoteStore
}

// NewHandler создает новый экземпляр обработчика заметок.
func NewHandler(store api.NoteStore) *Handler {
	return &Handler{store: store}
}

// ListNotes перечитывает хранилище и возвращает всю последовательность.
func (h *Handler) ListNotes(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.ListNotes"))
	log.Debug(requestCtx, LogHandlerListNotes)

	notes, err := h.store.LoadAll(requestCtx)
	if err != nil {
		return handleError(ctx, err)
	}

	return send(ctx, fiber.StatusOK, dto.ListNotesResponse{Notes: dto.FromEntities(notes)})
}

// CreateNote обрабатывает запрос на создание новой заметки.
func (h *Handler) CreateNote(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.CreateNote"))
	log.Debug(requestCtx, LogHandlerCreateNote)

	var req dto.CreateNoteRequest
	if err := ctx.Bind().Body(&req); err != nil {
		log.Debug(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
	}
	if req.Text == nil {
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgMissingText)
	}

	note, err := h.store.Create(requestCtx, *req.Text)
	if err != nil {
		return handleError(ctx, err)
	}

	return send(ctx, fiber.StatusCreated, dto.NoteResponse{Note: dto.FromEntity(note)})
}

// UpdateByText переписывает первую заметку с текстом old_text.
func (h *Handler) UpdateByText(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.UpdateByText"))
	log.Debug(requestCtx, LogHandlerUpdateByText)

	var req dto.UpdateByTextRequest
	if err := ctx.Bind().Body(&req); err != nil {
		log.Debug(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
	}
	if req.OldText == nil || req.NewText == nil {
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgMissingTexts)
	}

	updated, err := h.store.Update(requestCtx, *req.OldText, *req.NewText)
	if err != nil {
		return handleError(ctx, err)
	}

	return send(ctx, fiber.StatusOK, dto.UpdateByTextResponse{
		Updated: updated,
		Notes:   dto.FromEntities(h.store.Notes()),
	})
}

// DeleteByIndex удаляет заметку по позиции в текущей последовательности.
func (h *Handler) DeleteByIndex(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.DeleteByIndex"))
	log.Debug(requestCtx, LogHandlerDeleteByPos)

	index, err := strconv.Atoi(ctx.Params("index"))
	if err != nil {
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidIndex)
	}

	if err := h.store.Delete(requestCtx, index); err != nil {
		return handleError(ctx, err)
	}

	return send(ctx, fiber.StatusOK, dto.ListNotesResponse{Notes: dto.FromEntities(h.store.Notes())})
}

// GetNote обрабатывает запрос на получение заметки по ID.
func (h *Handler) GetNote(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.GetNote"))
	log.Debug(requestCtx, LogHandlerGetNote)

	noteID := ctx.Params("note_id")
	if noteID == "" {
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidNoteID)
	}

	note, err := h.store.Get(requestCtx, noteID)
	if err != nil {
		return handleError(ctx, err)
	}

	return send(ctx, fiber.StatusOK, dto.NoteResponse{Note: dto.FromEntity(note)})
}

// UpdateNote обрабатывает запрос на обновление заметки по ID.
func (h *Handler) UpdateNote(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.UpdateNote"))
	log.Debug(requestCtx, LogHandlerUpdateNote)

	noteID := ctx.Params("note_id")
	if noteID == "" {
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidNoteID)
	}

	var req dto.UpdateNoteRequest
	if err := ctx.Bind().Body(&req); err != nil {
		log.Debug(requestCtx, ErrMsgInvalidRequestBody, zap.Error(err))
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidRequestBody)
	}
	if req.Text == nil {
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgMissingText)
	}

	note, err := h.store.UpdateByID(requestCtx, noteID, *req.Text)
	if err != nil {
		return handleError(ctx, err)
	}

	return send(ctx, fiber.StatusOK, dto.NoteResponse{Note: dto.FromEntity(note)})
}

// DeleteNote обрабатывает запрос на удаление заметки по ID.
func (h *Handler) DeleteNote(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.DeleteNote"))
	log.Debug(requestCtx, LogHandlerDeleteNote)

	noteID := ctx.Params("note_id")
	if noteID == "" {
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidNoteID)
	}

	if err := h.store.DeleteByID(requestCtx, noteID); err != nil {
		return handleError(ctx, err)
	}

	if err := ctx.SendStatus(fiber.StatusNoContent); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// ExportNotes отдает всю последовательность в формате из ?format= (json по умолчанию).
func (h *Handler) ExportNotes(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	format := ctx.Query("format", export.FormatJSON)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.ExportNotes"), zap.String("format", format))
	log.Debug(requestCtx, LogHandlerExportNotes)

	notes, err := h.store.LoadAll(requestCtx)
	if err != nil {
		return handleError(ctx, err)
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, notes, format); err != nil {
		if errors.Is(err, export.ErrUnknownFormat) {
			return sendError(ctx, fiber.StatusBadRequest, ErrMsgUnknownFormat)
		}
		if errors.Is(err, export.ErrUnsupportedText) {
			log.Warn(requestCtx, ErrMsgUnsupportedText, zap.Error(err))
			return sendError(ctx, fiber.StatusUnprocessableEntity, ErrMsgUnsupportedText)
		}
		log.Error(requestCtx, ErrMsgInternal, zap.Error(err))
		return sendError(ctx, fiber.StatusInternalServerError, ErrMsgInternal)
	}

	ctx.Set(fiber.HeaderContentType, export.ContentType(format))
	if err := ctx.Status(fiber.StatusOK).Send(buf.Bytes()); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}

// handleError переводит ошибку хранилища в HTTP-статус.
func handleError(ctx fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, entities.ErrNoteNotFound):
		return sendError(ctx, fiber.StatusNotFound, ErrMsgNoteNotFound)
	case errors.Is(err, app.ErrIndexOutOfRange):
		return sendError(ctx, fiber.StatusNotFound, ErrMsgIndexOutOfRange)
	default:
		return sendError(ctx, fiber.StatusInternalServerError, ErrMsgInternal)
	}
}

func sendError(ctx fiber.Ctx, status int, msg string) error {
	return send(ctx, status, dto.ErrorResponse{Error: msg})
}

func send(ctx fiber.Ctx, status int, body any) error {
	if err := ctx.Status(status).JSON(body); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}
