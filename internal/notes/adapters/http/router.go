// Package http содержит компоненты для HTTP сервера.
package http

import (
	"github.com/gofiber/fiber/v3"

	"notekeeper/internal/notes/adapters/http/dto"
	"notekeeper/internal/notes/adapters/http/middleware"
	"notekeeper/internal/notes/adapters/http/notes"
	"notekeeper/internal/notes/config"
	"notekeeper/internal/notes/ports/api"
)

// ErrMsgRouteNotFound отдается для несуществующих маршрутов.
const ErrMsgRouteNotFound = "route not found"

// NewApp создает fiber-приложение с настройками из cfg и маршрутами заметок.
func NewApp(cfg *config.HTTPConfig, store api.NoteStore) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	SetupRouter(app, store)
	return app
}

// SetupRouter настраивает маршрутизацию для HTTP сервера.
func SetupRouter(app *fiber.App, store api.NoteStore) {
	notesHandler := notes.NewHandler(store)

	// Middleware для всех запросов.
	app.Use(middleware.NewRequestIDMiddleware())
	app.Use(middleware.NewLoggerMiddleware())
	app.Use(middleware.NewRecoveryMiddleware())

	apiV1 := app.Group("/api/v1")

	noteRoutes := apiV1.Group("/notes")
	noteRoutes.Get("/", notesHandler.ListNotes)
	noteRoutes.Post("/", notesHandler.CreateNote)
	noteRoutes.Put("/", notesHandler.UpdateByText)
	noteRoutes.Delete("/index/:index", notesHandler.DeleteByIndex)
	noteRoutes.Get("/export", notesHandler.ExportNotes)
	noteRoutes.Get("/:note_id", notesHandler.GetNote)
	noteRoutes.Put("/:note_id", notesHandler.UpdateNote)
	noteRoutes.Delete("/:note_id", notesHandler.DeleteNote)

	// Обработчик для несуществующих маршрутов.
	app.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: ErrMsgRouteNotFound})
	})
}
