package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/go-chi/chi/v5"
)

const siteDescription = "Simple blog written in Go with PostgreSQL."

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		n = 1
	}

	page, err := h.posts.PublicPage(r.Context(), n)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	data := h.view(r, "Blog", siteDescription, "/")
	data.Posts = page.Posts
	data.Page = page
	h.render(w, r, "index", data)
}

func (h *handlers) showPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	post, err := h.posts.Get(r.Context(), id)
	if errors.Is(err, common.ErrorNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	data := h.view(r, post.Title, siteDescription, "/post/"+post.ID)
	data.Post = post
	h.render(w, r, "post", data)
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	posts, term, err := h.posts.Search(r.Context(), r.PostForm.Get("searchTerm"))
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	data := h.view(r, "Search", siteDescription, "/")
	data.Posts = posts
	data.SearchTerm = term
	h.render(w, r, "search", data)
}

func (h *handlers) about(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "about", h.view(r, "About", siteDescription, "/about"))
}
