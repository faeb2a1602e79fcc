package server

import (
	"fmt"
	"net/http"
	"strings"

	"stry/assets"
	"stry/model"
	"stry/pagination"
	"stry/search"
	"stry/template"

	"github.com/a-h/templ"
	"github.com/sirupsen/logrus"
)

func (s *Server) routePages(mux *http.ServeMux) {
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServerFS(assets.FS)))

	mux.HandleFunc("GET /{$}", s.home)
	mux.HandleFunc("GET /home/{page}", s.home)
	mux.HandleFunc("GET /story/{id}/{page}", s.chapter)
	for _, kind := range kinds {
		mux.HandleFunc(fmt.Sprintf("GET /%s/{id}/{page}", kind), s.storiesOf(kind))
	}
	mux.HandleFunc("GET /search", s.search)
	mux.HandleFunc("GET /list/{kind}/{page}", s.list)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.errorPage(w, r, fmt.Errorf("%s: %w", r.URL.Path, model.ErrNotFound))
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, code int, page template.Page, body templ.Component) {
	page.Version = s.opts.Version
	templ.Handler(template.Layout(page, body), templ.WithStatus(code)).ServeHTTP(w, r)
}

func (s *Server) errorPage(w http.ResponseWriter, r *http.Request, err error) {
	code, message := status(err)
	if code == http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", r.URL.Path).Error("page failed")
	}
	s.render(w, r, code, template.Page{Title: http.StatusText(code)}, template.Error(code, message))
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	n := pagination.Page(r.PathValue("page"))
	page, err := s.source.Stories(r.Context(), n)
	if err != nil {
		s.errorPage(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, template.Page{}, template.StoryList("", page, n, func(i int) string {
		return fmt.Sprintf("/home/%d", i)
	}))
}

func (s *Server) chapter(w http.ResponseWriter, r *http.Request) {
	n := pagination.Page(r.PathValue("page"))
	page, err := s.source.Chapter(r.Context(), r.PathValue("id"), n)
	if err != nil {
		s.errorPage(w, r, err)
		return
	}
	title := fmt.Sprintf("%s, chapter %d", page.Story.Name, n)
	s.render(w, r, http.StatusOK, template.Page{Title: title}, template.Chapter(page, n, s.cache.HTML(page.Chapter)))
}

func (s *Server) storiesOf(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		n := pagination.Page(r.PathValue("page"))

		entity, err := s.source.Entity(r.Context(), kind, id)
		if err != nil {
			s.errorPage(w, r, err)
			return
		}
		page, err := s.source.StoriesOf(r.Context(), kind, id, n)
		if err != nil {
			s.errorPage(w, r, err)
			return
		}
		s.render(w, r, http.StatusOK, template.Page{Title: entity.Name}, template.StoryList(entity.Name, page, n, func(i int) string {
			return string(template.EntityHref(kind, id, i))
		}))
	}
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	input := strings.TrimSpace(r.URL.Query().Get("search"))
	n := pagination.Page(r.URL.Query().Get("page"))
	frame := template.Page{Title: "Search", Search: input}

	if input == "" {
		s.render(w, r, http.StatusOK, frame, template.Search("", nil, n))
		return
	}
	if len(input) >= search.MaxLength {
		s.errorPage(w, r, fmt.Errorf("search too long: %w", model.ErrBadRequest))
		return
	}

	q, err := search.Parse(input)
	if err != nil {
		s.errorPage(w, r, err)
		return
	}
	page, err := s.source.Search(r.Context(), q, n)
	if err != nil {
		s.errorPage(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, frame, template.Search(input, page, n))
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	list, ok := model.ParseList(r.PathValue("kind") + "s")
	if !ok {
		s.errorPage(w, r, fmt.Errorf("no list %q: %w", r.PathValue("kind"), model.ErrNotFound))
		return
	}
	n := pagination.Page(r.PathValue("page"))
	page, err := s.source.Entities(r.Context(), list, n)
	if err != nil {
		s.errorPage(w, r, err)
		return
	}
	page.List = list
	s.render(w, r, http.StatusOK, template.Page{Title: string(list)}, template.EntityList(page, n))
}
