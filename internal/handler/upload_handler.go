package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arunprabus/health-api/internal/model"
	"github.com/arunprabus/health-api/internal/service"
)

// MultipartOverhead is the room left for multipart framing around the largest accepted document.
const MultipartOverhead int64 = 1 << 20

type UploadHandler struct {
	service service.UploadService
}

type uploadedFileResponse struct {
	FileURL  string           `json:"fileUrl"`
	FileName string           `json:"fileName"`
	FileSize int64            `json:"fileSize"`
	MimeType string           `json:"mimeType"`
	UploadID string           `json:"uploadId,omitempty"`
	Profile  *profileResponse `json:"profile,omitempty"`
}

type uploadRecordResponse struct {
	ID               string  `json:"id"`
	OriginalFilename string  `json:"originalFilename"`
	URL              string  `json:"url"`
	Size             int64   `json:"size"`
	MimeType         string  `json:"mimeType"`
	Checksum         string  `json:"checksum"`
	Status           string  `json:"status"`
	CreatedAt        string  `json:"createdAt"`
	DeletedAt        *string `json:"deletedAt,omitempty"`
}

type uploadListResponse struct {
	Success bool                   `json:"success"`
	Data    []uploadRecordResponse `json:"data"`
	Count   int                    `json:"count"`
}

type storageConfig struct {
	Backend string `json:"backend"`
	Bucket  string `json:"bucket"`
	Region  string `json:"region"`
	UserID  string `json:"userId"`
}

type storageConfigResponse struct {
	Success bool          `json:"success"`
	Config  storageConfig `json:"config"`
}

func NewUploadHandler(service service.UploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

func (h *UploadHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/upload", h.Upload)
	g.GET("/upload", h.List)
	g.DELETE("/upload", h.Delete)
	g.GET("/upload/config", h.Config)
	g.GET("/upload/test", h.Config)
}

// Upload godoc
// @Summary Upload the caller's health document
// @Description Accepts one PDF, JPEG or PNG file in any multipart field.
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Document"
// @Success 200 {object} successResponse{data=uploadedFileResponse}
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 502 {object} errorResponse
// @Router /upload [post]
func (h *UploadHandler) Upload(c echo.Context) error {
	principal, ok := PrincipalFrom(c)
	if !ok {
		return unauthenticated(c)
	}

	maxBytes := h.service.MaxBytes()
	req := c.Request()
	limit := maxBytes + MultipartOverhead
	if req.ContentLength > limit {
		return writeServiceError(c, service.FileTooLarge(maxBytes))
	}
	req.Body = http.MaxBytesReader(c.Response(), req.Body, limit)

	fh, err := firstFile(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return writeServiceError(c, service.FileTooLarge(maxBytes))
		}
	}
	if fh == nil {
		return writeServiceError(c, service.ErrNoFile)
	}
	file, err := fh.Open()
	if err != nil {
		return writeServiceError(c, err)
	}
	defer file.Close()

	result, err := h.service.Upload(c.Request().Context(), principal.ID, service.UploadInput{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Body:        file,
	})
	if err != nil {
		return writeServiceError(c, err)
	}

	data := uploadedFileResponse{
		FileURL:  result.FileURL,
		FileName: result.FileName,
		FileSize: result.FileSize,
		MimeType: result.MimeType,
	}
	if result.Upload != nil {
		data.UploadID = itoa(result.Upload.ID)
	}
	if result.Profile != nil {
		p := toProfileResponse(result.Profile)
		data.Profile = &p
	}
	return c.JSON(http.StatusOK, successResponse{Success: true, Message: "File uploaded successfully", Data: data})
}

// List godoc
// @Summary List the caller's uploads, newest first
// @Tags upload
// @Produce json
// @Security BearerAuth
// @Success 200 {object} uploadListResponse
// @Router /upload [get]
func (h *UploadHandler) List(c echo.Context) error {
	principal, ok := PrincipalFrom(c)
	if !ok {
		return unauthenticated(c)
	}
	uploads, err := h.service.List(c.Request().Context(), principal.ID)
	if err != nil {
		return writeServiceError(c, err)
	}
	data := make([]uploadRecordResponse, 0, len(uploads))
	for _, u := range uploads {
		data = append(data, toUploadRecordResponse(u))
	}
	return c.JSON(http.StatusOK, uploadListResponse{Success: true, Data: data, Count: len(data)})
}

// Delete godoc
// @Summary Delete the caller's current document
// @Tags upload
// @Produce json
// @Security BearerAuth
// @Success 200 {object} successResponse
// @Failure 404 {object} errorResponse
// @Router /upload [delete]
func (h *UploadHandler) Delete(c echo.Context) error {
	principal, ok := PrincipalFrom(c)
	if !ok {
		return unauthenticated(c)
	}
	if err := h.service.DeleteDocument(c.Request().Context(), principal.ID); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, successResponse{Success: true, Message: "Document deleted successfully"})
}

// Config godoc
// @Summary Show where documents are stored
// @Tags upload
// @Produce json
// @Security BearerAuth
// @Success 200 {object} storageConfigResponse
// @Router /upload/config [get]
func (h *UploadHandler) Config(c echo.Context) error {
	principal, ok := PrincipalFrom(c)
	if !ok {
		return unauthenticated(c)
	}
	info := h.service.Info()
	return c.JSON(http.StatusOK, storageConfigResponse{
		Success: true,
		Config: storageConfig{
			Backend: info.Backend,
			Bucket:  info.Bucket,
			Region:  info.Region,
			UserID:  principal.ID,
		},
	})
}

// firstFile picks the "file" field when present, otherwise the first field by name.
func firstFile(c echo.Context) (*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	if form == nil || len(form.File) == 0 {
		return nil, nil
	}
	if files := form.File["file"]; len(files) > 0 {
		return files[0], nil
	}
	fields := make([]string, 0, len(form.File))
	for name := range form.File {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	for _, name := range fields {
		if files := form.File[name]; len(files) > 0 {
			return files[0], nil
		}
	}
	return nil, nil
}

func toUploadRecordResponse(u model.Upload) uploadRecordResponse {
	resp := uploadRecordResponse{
		ID:               itoa(u.ID),
		OriginalFilename: u.OriginalFilename,
		URL:              u.URL,
		Size:             u.Size,
		MimeType:         u.MimeType,
		Checksum:         u.Checksum,
		Status:           u.Status,
		CreatedAt:        u.CreatedAt.UTC().Format(time.RFC3339),
	}
	if u.DeletedAt != nil {
		deletedAt := u.DeletedAt.UTC().Format(time.RFC3339)
		resp.DeletedAt = &deletedAt
	}
	return resp
}
