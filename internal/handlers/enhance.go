package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"ai-image-enhancer/internal/datauri"
	"ai-image-enhancer/internal/gemini"
	"ai-image-enhancer/internal/middleware"
	"ai-image-enhancer/internal/models"
	"ai-image-enhancer/internal/prompts"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	ImageField      = "image"
	APIKeyField     = "api_key"
	ModelField      = "model"
	CreativityField = "creativity"

	// Parts beyond this are spooled to temp files by mime/multipart.
	multipartMemory = 32 << 20

	messageCredentialsMissing = "API key or model missing."
	messageUpstreamError      = "Gemini API error"
	messageInvalidPayload     = "Invalid JSON from Gemini"
	messageNoImage            = "No enhanced image found in Gemini response"
)

type EnhanceHandler struct {
	geminiClient   *gemini.Client
	maxUploadBytes int64
}

func NewEnhanceHandler(geminiClient *gemini.Client, maxUploadBytes int64) *EnhanceHandler {
	return &EnhanceHandler{
		geminiClient:   geminiClient,
		maxUploadBytes: maxUploadBytes,
	}
}

// Enhance godoc
// @Summary     Enhance an image
// @Description Relays one uploaded image to Gemini generateContent with the prompt for the chosen level and returns the original and enhanced images as data URIs.
// @Tags        enhance
// @Accept      multipart/form-data
// @Produce     json
// @Param       image      formData file   true  "Image to enhance"
// @Param       api_key    formData string true  "Gemini API key"
// @Param       model      formData string true  "Model name, e.g. models/gemini-2.5-flash-image"
// @Param       creativity formData int    false "Enhancement level 1-5 (default 3)"
// @Success     200 {object} models.EnhanceResponse
// @Failure     400 {object} models.FailureResponse
// @Failure     403 {object} models.FailureResponse
// @Failure     500 {object} models.FailureResponse
// @Router      /enhance [post]
func (h *EnhanceHandler) Enhance(c *gin.Context) {
	logger := zerolog.Ctx(c.Request.Context())

	upload, uploadErr := h.readUpload(c)
	if uploadErr != nil {
		logger.Warn().Err(uploadErr).Str("upload_error", string(uploadErr.Code)).Msg("rejecting upload")
		c.JSON(http.StatusBadRequest, models.NewFailure(uploadErr.Message(), models.UploadErrorDetails{
			UploadError: string(uploadErr.Code),
			Detail:      errString(uploadErr.Err),
		}))
		return
	}

	// Only body fields count; credentials in the query string are ignored.
	form := models.EnhanceForm{
		APIKey:     c.PostForm(APIKeyField),
		Model:      c.PostForm(ModelField),
		Creativity: c.PostForm(CreativityField),
	}
	apiKey := strings.TrimSpace(form.APIKey)
	model := strings.TrimSpace(form.Model)
	if apiKey == "" || model == "" {
		c.JSON(http.StatusBadRequest, models.NewFailure(messageCredentialsMissing, nil))
		return
	}

	level := parseLevel(form.Creativity)
	if form.Creativity != "" && !prompts.Known(level) {
		logger.Info().Str("creativity", form.Creativity).Int("effective_level", prompts.DefaultLevel).Msg("unknown level, using default prompt")
	}
	if !prompts.Known(level) {
		level = prompts.DefaultLevel
	}

	imageBase64 := base64.StdEncoding.EncodeToString(upload.data)
	logger.Info().
		Str("model", model).
		Int("level", level).
		Str("filename", upload.filename).
		Str("mime_type", upload.mimeType).
		Int("bytes", len(upload.data)).
		Msg("relaying enhancement")

	ctx := c.Request.Context()
	enhancement, err := h.geminiClient.EnhanceImage(ctx, apiKey, model, prompts.ForLevel(level), upload.mimeType, imageBase64)
	if err != nil {
		h.respondUpstreamFailure(c, ctx, err)
		return
	}

	c.JSON(http.StatusOK, models.EnhanceResponse{
		Success:    true,
		Original:   datauri.FromBase64(upload.mimeType, imageBase64),
		Enhanced:   datauri.FromBase64("image/png", enhancement.ImageBase64),
		Creativity: level,
	})
}

type upload struct {
	filename string
	mimeType string
	data     []byte
}

func (h *EnhanceHandler) readUpload(c *gin.Context) (*upload, *UploadError) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		return nil, classifyUploadError(err)
	}

	file, header, err := c.Request.FormFile(ImageField)
	if err != nil {
		return nil, classifyUploadError(err)
	}
	defer file.Close()

	if header.Size == 0 {
		return nil, &UploadError{Code: UploadNoFile}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, &UploadError{Code: UploadCantWrite, Err: err}
	}
	if int64(len(data)) != header.Size {
		return nil, &UploadError{Code: UploadPartial}
	}

	return &upload{
		filename: header.Filename,
		mimeType: declaredMimeType(header, data),
		data:     data,
	}, nil
}

// declaredMimeType trusts the part's Content-Type and sniffs only when the
// client sent none.
func declaredMimeType(header *multipart.FileHeader, data []byte) string {
	ct := strings.TrimSpace(header.Header.Get("Content-Type"))
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	detected := mimetype.Detect(data).String()
	if mt, _, ok := strings.Cut(detected, ";"); ok {
		return mt
	}
	return detected
}

func (h *EnhanceHandler) respondUpstreamFailure(c *gin.Context, ctx context.Context, err error) {
	logger := zerolog.Ctx(ctx)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		logger.Error().Err(err).Msg("request ceiling exceeded while waiting for gemini")
		c.JSON(http.StatusInternalServerError, models.NewFailure(middleware.DeadlineExceededMessage, nil))
		return
	}

	var upstreamErr *gemini.UpstreamError
	var payloadErr *gemini.PayloadError
	var noImageErr *gemini.NoImageError

	switch {
	case errors.As(err, &upstreamErr):
		if upstreamErr.IsTransport() {
			logger.Error().Str("transport_error", upstreamErr.TransportErr).Msg("gemini unreachable")
		} else {
			logger.Warn().Int("http_status", upstreamErr.StatusCode).Msg("gemini rejected the request")
		}
		c.JSON(upstreamErr.HTTPStatus(), models.NewFailure(messageUpstreamError, models.UpstreamErrorDetails{
			HTTPStatus:     upstreamErr.StatusCode,
			TransportError: upstreamErr.TransportErr,
			RawResponse:    upstreamErr.Body,
		}))
	case errors.As(err, &payloadErr):
		logger.Error().Err(payloadErr.Err).Msg("gemini returned malformed JSON")
		c.JSON(http.StatusInternalServerError, models.NewFailure(messageInvalidPayload, payloadErr.Body))
	case errors.As(err, &noImageErr):
		logger.Warn().Msg("gemini response carried no inline image")
		c.JSON(http.StatusInternalServerError, models.NewFailure(messageNoImage, noImageErr.Body))
	default:
		logger.Error().Err(err).Msg("unexpected relay error")
		c.JSON(http.StatusInternalServerError, models.NewFailure(err.Error(), nil))
	}
}

// parseLevel returns 0 for absent or non-numeric input.
func parseLevel(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return prompts.DefaultLevel
	}
	level, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return level
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
