package handler

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/model"
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/repository"
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/storage"
)

// ProjectHandler bundles everything the project/report lifecycle needs:
// the three repositories plus the on-disk file store.
type ProjectHandler struct {
	Clients  *repository.ClientRepo
	Projects *repository.ProjectRepo
	Reports  *repository.ReportRepo
	Files    *storage.FileStore
}

// NewProjectHandler constructs a ProjectHandler and panics on a nil
// dependency.
func NewProjectHandler(clients *repository.ClientRepo, projects *repository.ProjectRepo, reports *repository.ReportRepo, files *storage.FileStore) *ProjectHandler {
	if clients == nil || projects == nil || reports == nil || files == nil {
		panic("nil dependency passed to NewProjectHandler")
	}
	return &ProjectHandler{Clients: clients, Projects: projects, Reports: reports, Files: files}
}

// ----- response shapes -----

type reportResp struct {
	ID          uint64    `json:"id"`
	ProjectID   uint64    `json:"project_id"`
	Name        string    `json:"name"`
	Version     uint32    `json:"version"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
	DownloadURL string    `json:"download_url"`
}

type projectResp struct {
	ID          uint64       `json:"id"`
	Title       string       `json:"title"`
	ClientID    uint64       `json:"client_id"`
	ClientEmail string       `json:"client_email,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Reports     []reportResp `json:"reports"`
}

func serializeReport(r *model.Report) reportResp {
	return reportResp{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		Name:        r.Name,
		Version:     r.Version,
		UploadedBy:  r.UploadedBy,
		UploadedAt:  r.UploadedAt,
		DownloadURL: "/download/" + strconv.FormatUint(r.ID, 10),
	}
}

// CreateProject handles POST /admin/create-project (multipart form-data:
// title, client_id, email, file).  The project and its version-1 report
// are created atomically; the file lands on disk first and is only
// referenced once both rows commit.
func (h *ProjectHandler) CreateProject(c echo.Context) error {
	title := strings.TrimSpace(c.FormValue("title"))
	clientIDStr := strings.TrimSpace(c.FormValue("client_id"))
	uploader := strings.ToLower(strings.TrimSpace(c.FormValue("email")))
	fh, ferr := c.FormFile("file")

	if title == "" || clientIDStr == "" || ferr != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title, client and file required"})
	}
	if !storage.AllowedFile(fh.Filename) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid file type"})
	}
	clientID, err := strconv.ParseUint(clientIDStr, 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid client id"})
	}

	ctx := c.Request().Context()
	client, err := h.Clients.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}

	if uploader == "" {
		// The uploader field is recorded as presented; fall back to the
		// authenticated admin when the form omits it.
		uploader, _ = currentEmail(c)
	}

	storedName, err := h.Files.Save(fh)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not store file"})
	}

	project := &model.Project{Title: title, ClientID: client.ID}
	report := &model.Report{Name: fh.Filename, StoredName: storedName, UploadedBy: uploader}
	if err := h.Projects.CreateWithInitialReport(ctx, project, report); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not create project"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Project created",
		"project": projectResp{
			ID:          project.ID,
			Title:       project.Title,
			ClientID:    project.ClientID,
			ClientEmail: client.Email,
			CreatedAt:   project.CreatedAt,
			Reports:     []reportResp{serializeReport(report)},
		},
	})
}

// AddReport handles POST /project/:id/add-report (multipart form-data:
// email, file).  The appended report's version is allocated inside the
// repository under a row lock, so competing uploads serialize cleanly.
func (h *ProjectHandler) AddReport(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	fh, ferr := c.FormFile("file")
	if ferr != nil || !storage.AllowedFile(fh.Filename) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid file"})
	}
	uploader := strings.ToLower(strings.TrimSpace(c.FormValue("email")))
	if uploader == "" {
		uploader, _ = currentEmail(c)
	}

	storedName, err := h.Files.Save(fh)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not store file"})
	}

	report := &model.Report{ProjectID: projectID, Name: fh.Filename, StoredName: storedName, UploadedBy: uploader}
	if err := h.Reports.Append(c.Request().Context(), report); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not add report"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Follow-up report added",
		"report":  serializeReport(report),
	})
}

// ListProjects handles GET /projects.  The scope comes from the bearer
// token: admins see every project, clients see exactly their own.  A
// client-scoped listing can never contain another client's project, no
// matter what the request carries.  Projects are ordered by latest report
// activity; each project's reports are ordered by version ascending.
func (h *ProjectHandler) ListProjects(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	role, err := currentRole(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	ctx := c.Request().Context()

	var (
		projects []*model.Project
		emails   = map[uint64]string{} // client_id -> email for admin listings
	)
	if role == model.RoleAdmin {
		projects, err = h.Projects.ListAll(ctx)
		if err == nil {
			var clients []*model.Client
			if clients, err = h.Clients.List(ctx); err == nil {
				for _, cl := range clients {
					emails[cl.ID] = cl.Email
				}
			}
		}
	} else {
		client, cerr := h.Clients.GetByEmail(ctx, email)
		if errors.Is(cerr, repository.ErrClientNotFound) {
			// The account was removed after login; an empty dashboard is
			// the correct answer, not an error.
			return c.JSON(http.StatusOK, []projectResp{})
		}
		if cerr != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		emails[client.ID] = client.Email
		projects, err = h.Projects.ListByClient(ctx, client.ID)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}

	out := make([]projectResp, 0, len(projects))
	activity := map[uint64]time.Time{}
	for _, p := range projects {
		reports, rerr := h.Reports.ListByProject(ctx, p.ID)
		if rerr != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		resp := projectResp{
			ID:          p.ID,
			Title:       p.Title,
			ClientID:    p.ClientID,
			ClientEmail: emails[p.ClientID],
			CreatedAt:   p.CreatedAt,
			Reports:     make([]reportResp, 0, len(reports)),
		}
		latest := p.CreatedAt
		for _, r := range reports {
			resp.Reports = append(resp.Reports, serializeReport(r))
			if r.UploadedAt.After(latest) {
				latest = r.UploadedAt
			}
		}
		activity[p.ID] = latest
		out = append(out, resp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return activity[out[i].ID].After(activity[out[j].ID])
	})
	return c.JSON(http.StatusOK, out)
}

// ListReports handles GET /reports, the legacy flat listing kept for
// older dashboard builds.  Scoping follows the same token-derived rule
// as ListProjects.
func (h *ProjectHandler) ListReports(c echo.Context) error {
	email, err := currentEmail(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	role, err := currentRole(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	ctx := c.Request().Context()
	var reports []*model.Report
	if role == model.RoleAdmin {
		reports, err = h.Reports.ListAll(ctx)
	} else {
		client, cerr := h.Clients.GetByEmail(ctx, email)
		if errors.Is(cerr, repository.ErrClientNotFound) {
			return c.JSON(http.StatusOK, []reportResp{})
		}
		if cerr != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		reports, err = h.Reports.ListByClient(ctx, client.ID)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}

	out := make([]reportResp, 0, len(reports))
	for _, r := range reports {
		out = append(out, serializeReport(r))
	}
	return c.JSON(http.StatusOK, out)
}

// Download handles GET /download/:reportId and streams the stored file
// under its original name.  Clients may only fetch reports that belong
// to one of their own projects; admins may fetch anything.
func (h *ProjectHandler) Download(c echo.Context) error {
	reportID, err := pathID(c, "reportId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}

	ctx := c.Request().Context()
	report, err := h.Reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}

	role, _ := currentRole(c)
	if role != model.RoleAdmin {
		email, eerr := currentEmail(c)
		if eerr != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		client, cerr := h.Clients.GetByEmail(ctx, email)
		if cerr != nil {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
		project, perr := h.Projects.GetByID(ctx, report.ProjectID)
		if perr != nil || project.ClientID != client.ID {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
	}

	return c.Attachment(h.Files.Path(report.StoredName), report.Name)
}
