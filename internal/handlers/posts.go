package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/postboard/internal/middleware"
	"github.com/charlesng35/postboard/internal/services"
	"github.com/charlesng35/postboard/pkg/errors"
	"github.com/charlesng35/postboard/pkg/response"
)

// PostHandler exposes post CRUD and the public listing.
type PostHandler struct {
	service *services.PostService
}

func NewPostHandler(service *services.PostService) *PostHandler {
	return &PostHandler{service: service}
}

type createPostRequest struct {
	Title       string `json:"title" validate:"required,notblank,max=255"`
	Description string `json:"description" validate:"required,notblank"`
}

type updatePostRequest struct {
	Title       *string `json:"title" validate:"omitnil,notblank,max=255"`
	Description *string `json:"description" validate:"omitnil,notblank"`
}

// GET /posts/list
func (h *PostHandler) List(c *gin.Context) {
	opts, err := listOptionsFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.List(requestContext(c), opts)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// POST /posts/create
func (h *PostHandler) Create(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	var body createPostRequest
	if !bindAndValidate(c, &body) {
		return
	}

	post, err := h.service.Create(requestContext(c), userID, services.CreatePostInput{
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, post)
}

// PUT /posts/update/:id
func (h *PostHandler) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var body updatePostRequest
	if !bindAndValidate(c, &body) {
		return
	}

	post, err := h.service.Update(requestContext(c), id, userID, services.UpdatePostInput{
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, post)
}

// DELETE /posts/delete/:id
func (h *PostHandler) Delete(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(requestContext(c), id, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Post deleted successfully")
}

func listOptionsFromQuery(c *gin.Context) (services.ListPostsOptions, error) {
	opts := services.ListPostsOptions{Page: 1, Limit: services.DefaultPageLimit}

	page, ok, err := parseIntQuery(c, "page")
	if err != nil {
		return opts, err
	}
	if ok {
		if page < 1 {
			return opts, services.ErrInvalidPage
		}
		opts.Page = page
	}

	limit, ok, err := parseIntQuery(c, "limit")
	if err != nil {
		return opts, err
	}
	if ok {
		if limit < 1 || limit > services.MaxPageLimit {
			return opts, services.ErrInvalidLimit
		}
		opts.Limit = limit
	}

	authorID, ok, err := parseIntQuery(c, "authorId")
	if err != nil {
		return opts, err
	}
	if ok {
		if authorID < 1 {
			return opts, errors.NewBadRequest("authorId must be a positive integer")
		}
		id := uint(authorID)
		opts.Filters.AuthorID = &id
	}

	if opts.Filters.DateFrom, err = parseDateQuery(c, "dateFrom"); err != nil {
		return opts, err
	}
	if opts.Filters.DateTo, err = parseDateQuery(c, "dateTo"); err != nil {
		return opts, err
	}

	opts.Filters.Title = c.Query("title")
	return opts, nil
}
