package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tutorhub/tutor-server/internal/tutorial"
	"github.com/tutorhub/tutor-server/internal/tutorial/service"
	"github.com/tutorhub/tutor-server/internal/users"
	"github.com/tutorhub/tutor-server/pkg/logger"
	"github.com/tutorhub/tutor-server/pkg/middleware"
)

// TokenRevoker stores and checks revoked bearer tokens.
type TokenRevoker interface {
	middleware.RevocationChecker
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

// CoverStore keeps tutorial cover images.
type CoverStore interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

type Handler struct {
	svc         *service.Service
	verifier    middleware.Verifier
	revocations TokenRevoker
	users       *users.Service
	covers      CoverStore
	tokenTTL    time.Duration
	started     time.Time
}

type Option func(*Handler)

// WithVerifier sets the identity provider. Without one every guarded route answers 401.
func WithVerifier(v middleware.Verifier) Option { return func(h *Handler) { h.verifier = v } }

func WithRevocations(r TokenRevoker) Option { return func(h *Handler) { h.revocations = r } }

func WithUsers(u *users.Service) Option { return func(h *Handler) { h.users = u } }

// WithCovers enables the cover image routes.
func WithCovers(s CoverStore) Option { return func(h *Handler) { h.covers = s } }

// WithTokenTTL is the revocation lifetime used for tokens without an exp claim.
func WithTokenTTL(d time.Duration) Option { return func(h *Handler) { h.tokenTTL = d } }

// RegisterTutorialRoutes mounts the tutorial API on r.
func RegisterTutorialRoutes(r *gin.Engine, svc *service.Service, opts ...Option) *Handler {
	h := &Handler{svc: svc, tokenTTL: time.Hour, started: time.Now()}
	for _, opt := range opts {
		opt(h)
	}

	var authOpts []middleware.AuthOption
	if h.revocations != nil {
		authOpts = append(authOpts, middleware.WithRevocations(h.revocations))
	}
	auth := middleware.AuthMiddleware(h.verifier, authOpts...)
	ownsPath := middleware.OwnershipGuard("email")
	ownsRecord := middleware.RequireOwner("id", h.ownerOf)

	r.GET("/", h.root)
	r.GET("/health", h.health)
	r.GET("/ready", h.ready)

	r.GET("/tutorials", h.list)
	r.GET("/tutorials-by-language/:lang", h.byLanguage)
	r.GET("/tutorial/:id", h.get)
	r.POST("/add-tutorials", h.create)
	r.PATCH("/tutorial/:id", auth, ownsRecord, h.patch)
	r.DELETE("/tutorial/:id", auth, ownsRecord, h.delete)
	r.PATCH("/tutorial/:id/review", h.incrementReview)
	r.GET("/my-tutorials/:email", auth, ownsPath, h.byOwner)
	r.POST("/book-tutorial", h.book)
	r.GET("/my-booked-tutorials/:email", auth, ownsPath, h.bookedBy)
	r.GET("/stats", h.stats)

	r.GET("/me", auth, h.me)
	r.POST("/logout", auth, h.logout)

	if h.covers != nil {
		r.PUT("/tutorial/:id/image", auth, ownsRecord, h.uploadCover)
		r.GET("/tutorial/:id/image", h.cover)
	}
	return h
}

// ownerOf adapts the service lookup to the guard's error contract.
func (h *Handler) ownerOf(ctx context.Context, id string) (string, error) {
	owner, err := h.svc.OwnerOf(ctx, id)
	switch {
	case errors.Is(err, tutorial.ErrInvalidID):
		return "", &middleware.LookupError{Status: http.StatusBadRequest, Message: "invalid tutorial id"}
	case errors.Is(err, tutorial.ErrNotFound):
		return "", middleware.ErrResourceNotFound
	}
	return owner, err
}

// fail maps service errors to responses. Anything unexpected is logged and hidden.
func fail(c *gin.Context, err error) {
	var verr *tutorial.ValidationError
	switch {
	case errors.Is(err, tutorial.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid tutorial id"})
	case errors.Is(err, tutorial.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	case errors.Is(err, tutorial.ErrAlreadyBooked):
		c.JSON(http.StatusBadRequest, gin.H{"message": "already booked"})
	case errors.Is(err, tutorial.ErrMissingBookingFields), errors.Is(err, tutorial.ErrEmptyPatch):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"message": "validation failed", "errors": verr.Fields})
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}

func badJSON(c *gin.Context, err error) {
	logger.Debugf("bad request body on %s: %v", c.Request.URL.Path, err)
	c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
}

func (h *Handler) list(c *gin.Context) {
	out, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) byLanguage(c *gin.Context) {
	out, err := h.svc.ByLanguage(c.Request.Context(), c.Param("lang"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) byOwner(c *gin.Context) {
	out, err := h.svc.ByOwner(c.Request.Context(), c.Param("email"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) bookedBy(c *gin.Context) {
	out, err := h.svc.BookedBy(c.Request.Context(), c.Param("email"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) get(c *gin.Context) {
	t, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) create(c *gin.Context) {
	var t tutorial.Tutorial
	if err := c.ShouldBindJSON(&t); err != nil {
		badJSON(c, err)
		return
	}
	res, err := h.svc.Create(c.Request.Context(), &t)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"acknowledged": res.Acknowledged,
		"insertedId":   res.InsertedID,
		"message":      "tutorial added successfully",
	})
}

func (h *Handler) patch(c *gin.Context) {
	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		badJSON(c, err)
		return
	}
	res, err := h.svc.Patch(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) delete(c *gin.Context) {
	res, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) book(c *gin.Context) {
	var req tutorial.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	if err := h.svc.Book(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "tutorial booked successfully"})
}

func (h *Handler) incrementReview(c *gin.Context) {
	if err := h.svc.IncrementReview(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "review added"})
}

func (h *Handler) stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
