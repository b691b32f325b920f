package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/server/auth"
	"github.com/dmitrijs2005/gophblog/internal/server/services"
	"github.com/go-chi/chi/v5"
)

const (
	dashboardPath = "/admin/dashboard"
	registerPath  = "/admin/register"

	// multipart bodies larger than this are refused before parsing
	maxFormBytes = services.MaxImageBytes + 1<<20
)

// confirmedUser returns the principal the guard allowed. Admin handlers run
// only behind the guard, so a missing value is a wiring bug.
func (h *handlers) confirmedUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.ConfirmedUser(r.Context())
	if !ok {
		h.serverError(w, r, errors.New("admin handler reached without a confirmed user"))
	}
	return id, ok
}

func (h *handlers) loginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "admin-login", h.view(r, "Admin Login", "Login to manage your posts", LoginPath))
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	token, user, err := h.users.Login(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if errors.Is(err, common.ErrInvalidCredentials) {
		h.logger.Info(r.Context(), "login failed", "username", r.PostForm.Get("username"))
		h.flash(w, r, common.InvalidCredentialsMessage)
		h.redirect(w, r, LoginPath)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.logger.Info(r.Context(), "login", "user_id", user.ID)
	setTokenCookie(w, token, h.cookieSecure)
	h.redirect(w, r, dashboardPath)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	clearTokenCookie(w, h.cookieSecure)
	if sid := h.sessions.Read(r); sid != "" {
		if err := h.flashes.Forget(r.Context(), sid); err != nil {
			h.logger.Error(r.Context(), "session forget failed", "error", err)
		}
		h.sessions.Clear(w)
	}
	h.redirect(w, r, LoginPath)
}

func (h *handlers) registerForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "admin-register", h.view(r, "Register", "Create a new admin account", registerPath))
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	username := r.PostForm.Get("username")

	u, err := h.users.Register(r.Context(), username, r.PostForm.Get("password"))
	switch {
	case err == nil:
		h.logger.Info(r.Context(), "user registered", "user_id", u.ID, "username", u.UserName)
		h.flash(w, r, fmt.Sprintf("User %s created", u.UserName))
		h.redirect(w, r, dashboardPath)
	case errors.Is(err, common.ErrDuplicateUsername):
		h.flash(w, r, "Username already taken")
		h.redirect(w, r, registerPath)
	default:
		if msg, ok := services.IsValidation(err); ok {
			data := h.view(r, "Register", "Create a new admin account", registerPath)
			data.Status = http.StatusUnprocessableEntity
			data.Error = msg
			data.Form.Username = username
			h.render(w, r, "admin-register", data)
			return
		}
		h.serverError(w, r, err)
	}
}

func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.confirmedUser(w, r)
	if !ok {
		return
	}

	posts, err := h.posts.ListByOwner(r.Context(), userID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	data := h.view(r, "Dashboard", "Your posts", dashboardPath)
	data.Authenticated = true
	data.Posts = posts
	h.render(w, r, "admin-dashboard", data)
}

func (h *handlers) addPostForm(w http.ResponseWriter, r *http.Request) {
	data := h.view(r, "Add Post", "Create a new blog post", "/admin/add-post")
	data.Authenticated = true
	h.render(w, r, "admin-add-post", data)
}

func (h *handlers) addPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.confirmedUser(w, r)
	if !ok {
		return
	}

	in, err := readPostForm(w, r)
	if err == nil {
		_, err = h.posts.Create(r.Context(), userID, in)
	}
	if msg, ok := services.IsValidation(err); ok {
		data := h.view(r, "Add Post", "Create a new blog post", "/admin/add-post")
		data.Authenticated = true
		data.Status = http.StatusUnprocessableEntity
		data.Error = msg
		data.Form = FormValues{Title: in.Title, Body: in.Body}
		h.render(w, r, "admin-add-post", data)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.flash(w, r, "Post created")
	h.redirect(w, r, dashboardPath)
}

func (h *handlers) editPostForm(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.confirmedUser(w, r)
	if !ok {
		return
	}

	post, err := h.posts.FindOwned(r.Context(), userID, chi.URLParam(r, "id"))
	if errors.Is(err, common.ErrorNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	data := h.view(r, "Edit Post", "Update your blog post", "/admin/edit/"+post.ID)
	data.Authenticated = true
	data.Post = post
	data.Form = FormValues{Title: post.Title, Body: post.Body}
	h.render(w, r, "admin-edit-post", data)
}

func (h *handlers) editPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.confirmedUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	in, err := readPostForm(w, r)
	if err == nil {
		_, err = h.posts.UpdateOwned(r.Context(), userID, id, in)
	}
	if errors.Is(err, common.ErrorNotFound) {
		h.notFound(w, r)
		return
	}
	if msg, ok := services.IsValidation(err); ok {
		post, ferr := h.posts.FindOwned(r.Context(), userID, id)
		if ferr != nil {
			h.notFound(w, r)
			return
		}
		data := h.view(r, "Edit Post", "Update your blog post", "/admin/edit/"+id)
		data.Authenticated = true
		data.Status = http.StatusUnprocessableEntity
		data.Error = msg
		data.Post = post
		data.Form = FormValues{Title: in.Title, Body: in.Body}
		h.render(w, r, "admin-edit-post", data)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.flash(w, r, "Post updated")
	h.redirect(w, r, dashboardPath)
}

func (h *handlers) deletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.confirmedUser(w, r)
	if !ok {
		return
	}

	err := h.posts.DeleteOwned(r.Context(), userID, chi.URLParam(r, "id"))
	if errors.Is(err, common.ErrorNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.flash(w, r, "Post deleted")
	h.redirect(w, r, dashboardPath)
}

// readPostForm parses a multipart or urlencoded post form. The optional
// "image" file is read fully into memory.
func readPostForm(w http.ResponseWriter, r *http.Request) (services.PostInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	err := r.ParseMultipartForm(8 << 20)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return services.PostInput{}, common.NewValidationError("image", "image is too large")
		}
		return services.PostInput{}, common.NewValidationError("form", "could not read the form")
	}

	in := services.PostInput{
		Title: r.PostFormValue("title"),
		Body:  r.PostFormValue("body"),
	}

	if r.MultipartForm == nil {
		return in, nil
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil
	}
	if err != nil {
		return in, fmt.Errorf("read image: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return in, fmt.Errorf("read image: %w", err)
	}
	if len(data) > 0 {
		in.Image = &services.Upload{Name: header.Filename, Data: data}
	}
	return in, nil
}
