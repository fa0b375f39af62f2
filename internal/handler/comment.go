package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/model"
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/repository"
)

// CommentHandler serves the per-report comment thread.  The thread is
// append-only; there are deliberately no edit or delete endpoints.
type CommentHandler struct {
	Comments *repository.CommentRepo
	Reports  *repository.ReportRepo
}

func NewCommentHandler(comments *repository.CommentRepo, reports *repository.ReportRepo) *CommentHandler {
	if comments == nil || reports == nil {
		panic("nil repository passed to NewCommentHandler")
	}
	return &CommentHandler{Comments: comments, Reports: reports}
}

// ListComments handles GET /comments/:reportId and returns the thread
// ascending by creation time.  Every call reads current persisted state;
// a freshly posted comment always appears on the next list.
func (h *CommentHandler) ListComments(c echo.Context) error {
	reportID, err := pathID(c, "reportId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	items, err := h.Comments.ListByReport(c.Request().Context(), reportID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	if items == nil {
		items = []*model.Comment{}
	}
	return c.JSON(http.StatusOK, items)
}

// PostComment handles POST /comments/:reportId {email, text}.  Text must
// be non-empty after trimming; the report must exist.  On success the
// stored comment is returned, timestamp included.
func (h *CommentHandler) PostComment(c echo.Context) error {
	reportID, err := pathID(c, "reportId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var body struct {
		Email string `json:"email"`
		Text  string `json:"text"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	text := strings.TrimSpace(body.Text)
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		// The author field is recorded as presented; fall back to the
		// session identity when the body omits it.
		email, _ = currentEmail(c)
	}
	if text == "" || email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing text/email"})
	}

	ctx := c.Request().Context()
	if _, err := h.Reports.GetByID(ctx, reportID); err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "report not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}

	comment, err := h.Comments.Create(ctx, reportID, email, text)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "report not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not add comment"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Comment added", "comment": comment})
}
