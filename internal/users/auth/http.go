// Copyright (c) 2026 Scriptorium. All rights reserved.

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/verseworks/scriptorium/internal/platform/middleware"
	requestutil "github.com/verseworks/scriptorium/internal/platform/request"
	"github.com/verseworks/scriptorium/internal/platform/respond"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/login", handler.login)

	router.Group(func(authedRoute chi.Router) {
		authedRoute.Use(middleware.RequireAuth)
		authedRoute.Post("/logout", handler.logout)
		authedRoute.Get("/me", handler.me)
	})
}

func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input LoginInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.service.Login(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, session)
}

func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	var body struct {
		SessionID string `json:"sessionId"`
	}
	// An empty body is a valid "log me out" request.
	_ = requestutil.DecodeJSON(request, &body)

	if err := handler.service.Logout(request.Context(), body.SessionID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, nil)
}

func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.Me(request.Context(), claims)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}
