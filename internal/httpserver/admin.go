package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/backend"
	"storefront/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug"`
}

// adminError clears a rejected token and redirects to login; other errors
// go through writeError.
func adminError(c *gin.Context, err error) {
	if errors.Is(err, backend.ErrUnauthorized) {
		if cerr := currentSession(c).Auth.Clear(c.Request.Context()); cerr != nil {
			requestLog(c).Warn("clear rejected token", zap.Error(cerr))
		}
		redirectToLogin(c)
		return
	}
	writeError(c, err)
}

func (h *handlers) adminLoginState(c *gin.Context) {
	s := currentSession(c)
	ctx := c.Request.Context()
	email, _ := s.Auth.Email(ctx)
	c.JSON(http.StatusOK, gin.H{"loggedIn": s.Auth.LoggedIn(ctx), "email": email})
}

func (h *handlers) adminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "email and password are required")
		return
	}
	s, err := h.deps.Sessions.Rotate(c.Request.Context(), currentSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	setSessionCookie(c, s.ID, h.deps.SecureCookie, h.deps.SessionTTL)
	c.Set(sessionCtxKey, s)

	if err := s.Auth.Login(c.Request.Context(), s.Admin, req.Email, req.Password); err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			errorResponse(c, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeError(c, err)
		return
	}
	h.logger.Info("admin logged in", zap.String("session_id", s.ID))
	email, _ := s.Auth.Email(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"loggedIn": true, "email": email})
}

func (h *handlers) adminLogout(c *gin.Context) {
	if err := currentSession(c).Auth.Clear(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) adminMe(c *gin.Context) {
	user, err := currentSession(c).Admin.Me(c.Request.Context())
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handlers) adminListOrders(c *gin.Context) {
	q := domain.OrderQuery{
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "pageSize", 20),
		Query:    c.Query("q"),
	}
	if raw := c.Query("status"); raw != "" {
		st, err := domain.ParseOrderStatus(raw)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		q.Status = st
	}
	page, err := currentSession(c).Admin.ListOrders(c.Request.Context(), q)
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *handlers) adminGetOrder(c *gin.Context) {
	order, err := currentSession(c).Admin.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) adminUpdateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "status is required")
		return
	}
	st, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	order, err := currentSession(c).Admin.UpdateOrderStatus(c.Request.Context(), c.Param("id"), st)
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) adminUpdateOrderNote(c *gin.Context) {
	var req backend.OrderNoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid note body")
		return
	}
	order, err := currentSession(c).Admin.UpdateOrderNote(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) adminCreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "name is required")
		return
	}
	cat, err := h.deps.Catalog.CreateCategory(c.Request.Context(), currentSession(c).Admin, backend.CreateCategoryInput{
		Name: req.Name,
		Slug: req.Slug,
	})
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *handlers) adminSeedCategories(c *gin.Context) {
	cats, err := h.deps.Catalog.SeedCategories(c.Request.Context(), currentSession(c).Admin)
	if err != nil {
		adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": cats})
}

// adminExportCustomers streams the backend CSV through unchanged.
func (h *handlers) adminExportCustomers(c *gin.Context) {
	w := &lazyCSVWriter{c: c}
	n, err := currentSession(c).Admin.ExportCustomersCSV(c.Request.Context(), w)
	if err != nil {
		if n == 0 && !w.started {
			adminError(c, err)
			return
		}
		requestLog(c).Error("customer export interrupted", zap.Int64("bytes", n), zap.Error(err))
		c.Abort()
		return
	}
	if !w.started {
		w.start()
	}
}

// lazyCSVWriter sets the download headers on first write, so a failed
// export can still answer with an error status.
type lazyCSVWriter struct {
	c       *gin.Context
	started bool
}

func (w *lazyCSVWriter) start() {
	w.started = true
	w.c.Header("Content-Type", "text/csv; charset=utf-8")
	w.c.Header("Content-Disposition", `attachment; filename="customers.csv"`)
	w.c.Status(http.StatusOK)
}

func (w *lazyCSVWriter) Write(p []byte) (int, error) {
	if !w.started {
		w.start()
	}
	return w.c.Writer.Write(p)
}

func intQuery(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 1 {
		return def
	}
	return v
}
