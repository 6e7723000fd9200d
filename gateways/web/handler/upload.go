package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/xilidan/lingua/gateways/web/workflow"
	"github.com/xilidan/lingua/pkg/json"
	"github.com/xilidan/lingua/services/transcriber/consts"
	"github.com/xilidan/lingua/services/transcriber/entity"
)

const (
	multipartOverhead = 1 << 20
	multipartMemory   = 32 << 20
)

// GenerateRequest is the JSON form of a text generation request. Audio is
// only accepted as multipart/form-data in the "file" field.
type GenerateRequest struct {
	Mode     string `json:"mode"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

type requestError struct {
	status int
	err    error
}

func (e *requestError) Error() string {
	return e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, err: fmt.Errorf(format, args...)}
}

func writeRequestError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		json.WriteError(w, reqErr.status, reqErr.err)
		return
	}
	json.WriteError(w, http.StatusBadRequest, err)
}

func (h *Handler) maxUpload() int64 {
	if h.cfg.MaxUploadBytes > 0 {
		return h.cfg.MaxUploadBytes
	}
	return consts.MaxAudioSize
}

func (h *Handler) parseGenerateRequest(w http.ResponseWriter, r *http.Request) (workflow.Request, error) {
	var (
		body  GenerateRequest
		audio *entity.Audio
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload())
		if err := json.ParseJSON(r, &body); err != nil {
			return workflow.Request{}, h.bodyError(err)
		}
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload()+multipartOverhead)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return workflow.Request{}, h.bodyError(err)
		}
		defer r.MultipartForm.RemoveAll()

		body = formRequest(r)
		var err error
		audio, err = h.readAudio(r)
		if err != nil {
			return workflow.Request{}, err
		}
	default:
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload())
		if err := r.ParseForm(); err != nil {
			return workflow.Request{}, h.bodyError(err)
		}
		body = formRequest(r)
	}

	return buildRequest(body, audio)
}

func formRequest(r *http.Request) GenerateRequest {
	return GenerateRequest{
		Mode:     r.PostFormValue("mode"),
		Text:     r.PostFormValue("text"),
		Language: r.PostFormValue("language"),
	}
}

func buildRequest(body GenerateRequest, audio *entity.Audio) (workflow.Request, error) {
	req := workflow.Request{
		Input: entity.Input{Audio: audio, Text: body.Text},
	}

	switch mode := entity.InputMode(strings.ToLower(strings.TrimSpace(body.Mode))); mode {
	case "", entity.ModeAudio, entity.ModeText:
		req.Mode = mode
	default:
		return req, badRequest("unknown input mode %q", body.Mode)
	}

	if key := strings.TrimSpace(body.Language); key != "" {
		lang, ok := entity.LookupLanguage(key)
		if !ok {
			return req, badRequest("unknown target language %q", key)
		}
		req.Language = lang
	}
	return req, nil
}

func (h *Handler) bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return &requestError{
			status: http.StatusRequestEntityTooLarge,
			err:    fmt.Errorf("upload exceeds %d MB", h.maxUpload()>>20),
		}
	}
	return badRequest("failed to read request: %v", err)
}

// readAudio returns nil when the form carries no file.
func (h *Handler) readAudio(r *http.Request) (*entity.Audio, error) {
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, badRequest("failed to read audio file: %v", err)
	}
	defer file.Close()

	if header.Size > h.maxUpload() {
		return nil, &requestError{
			status: http.StatusRequestEntityTooLarge,
			err:    fmt.Errorf("audio file exceeds %d MB", h.maxUpload()>>20),
		}
	}

	mediaType := audioMediaType(header)
	if mediaType == "" {
		return nil, &requestError{
			status: http.StatusUnsupportedMediaType,
			err:    fmt.Errorf("unsupported audio file %q", header.Filename),
		}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, badRequest("failed to read audio file: %v", err)
	}

	return &entity.Audio{
		Name:      filepath.Base(header.Filename),
		MediaType: mediaType,
		Data:      data,
	}, nil
}

// audioMediaType trusts an audio/* part header and falls back to the file extension.
func audioMediaType(header *multipart.FileHeader) string {
	mediaType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "audio/") {
		return mediaType
	}
	return consts.AudioExtensions[strings.ToLower(filepath.Ext(header.Filename))]
}
