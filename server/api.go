package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"stry/model"
	"stry/pagination"
	"stry/search"

	"github.com/sirupsen/logrus"
)

var (
	internalError   = model.Fail(http.StatusInternalServerError, "internal server error")
	tooManyRequests = model.Fail(http.StatusTooManyRequests, "too many requests")
)

var kinds = []model.Kind{model.KindAuthor, model.KindOrigin, model.KindTag}

func (s *Server) routeAPI(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/stories/{page}", s.apiStories)
	for _, kind := range kinds {
		mux.HandleFunc(fmt.Sprintf("GET /api/%s/{id}", kind), s.apiEntity(kind))
		mux.HandleFunc(fmt.Sprintf("GET /api/%s/{id}/{page}", kind), s.apiStoriesOf(kind))
	}
	for _, list := range model.Lists {
		mux.HandleFunc(fmt.Sprintf("GET /api/%s/{page}", list), s.apiEntities(list))
	}
	mux.HandleFunc("GET /api/story/{id}", s.apiStory)
	mux.HandleFunc("GET /api/story/{id}/chapter/{page}", s.apiChapter)
	mux.HandleFunc("POST /api/search", s.apiSearch)
	mux.HandleFunc("OPTIONS /api/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, model.Fail(http.StatusNotFound, "no such endpoint"))
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("failed to write response")
	}
}

func apiError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := status(err)
	if code == http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	writeJSON(w, code, model.Fail(code, message))
}

func respond[T any](w http.ResponseWriter, r *http.Request, data T, err error) {
	if err != nil {
		apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.OK(data))
}

func (s *Server) apiStories(w http.ResponseWriter, r *http.Request) {
	page, err := s.source.Stories(r.Context(), pagination.Page(r.PathValue("page")))
	respond(w, r, page, err)
}

func (s *Server) apiStoriesOf(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.source.StoriesOf(r.Context(), kind, r.PathValue("id"), pagination.Page(r.PathValue("page")))
		respond(w, r, page, err)
	}
}

func (s *Server) apiEntity(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, err := s.source.Entity(r.Context(), kind, r.PathValue("id"))
		respond(w, r, entity, err)
	}
}

func (s *Server) apiEntities(list model.List) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.source.Entities(r.Context(), list, pagination.Page(r.PathValue("page")))
		respond(w, r, page, err)
	}
}

func (s *Server) apiStory(w http.ResponseWriter, r *http.Request) {
	story, err := s.source.Story(r.Context(), r.PathValue("id"))
	respond(w, r, story, err)
}

func (s *Server) apiChapter(w http.ResponseWriter, r *http.Request) {
	page, err := s.source.Chapter(r.Context(), r.PathValue("id"), pagination.Page(r.PathValue("page")))
	respond(w, r, page, err)
}

func (s *Server) apiSearch(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength >= search.MaxLength {
		apiError(w, r, fmt.Errorf("search body too large: %w", model.ErrBadRequest))
		return
	}

	var req model.SearchRequest
	body := http.MaxBytesReader(w, r.Body, search.MaxLength-1)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apiError(w, r, fmt.Errorf("search body too large: %w", model.ErrBadRequest))
			return
		}
		apiError(w, r, fmt.Errorf("invalid search body: %w", model.ErrBadRequest))
		return
	}

	q, err := search.Parse(req.Search)
	if err != nil {
		apiError(w, r, err)
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	page, err := s.source.Search(r.Context(), q, req.Page)
	respond(w, r, page, err)
}
