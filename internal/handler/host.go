package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/entity"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/usecase"
	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/validation"
)

// maxFormMemory bounds the multipart parts kept in memory; the rest spills to
// temporary files.
const maxFormMemory = 8 << 20

type FlashMessage struct {
	Kind usecase.FlashKind `json:"kind"`
	Text string            `json:"text"`
}

// formHost adapts one HTTP request to usecase.Host. Inputs come from the
// parsed form body; rendered output is collected for the JSON response.
type formHost struct {
	r        *http.Request
	form     *usecase.Form
	redirect string
	flashes  []FlashMessage
}

func newFormHost(r *http.Request) *formHost {
	return &formHost{r: r, flashes: []FlashMessage{}}
}

// parseForm reads a urlencoded or multipart body.
func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxFormMemory)
	}
	return r.ParseForm()
}

func (h *formHost) Input(field string) string {
	return strings.TrimSpace(h.r.PostFormValue(field))
}

func (h *formHost) File(field string) *validation.DocumentUpload {
	if h.r.MultipartForm == nil {
		return nil
	}
	f, hdr, err := h.r.FormFile(field)
	if err != nil {
		return nil
	}
	defer f.Close()
	return readUpload(f, hdr)
}

func readUpload(f multipart.File, hdr *multipart.FileHeader) *validation.DocumentUpload {
	content, err := io.ReadAll(io.LimitReader(f, validation.MaxDocumentSize+1))
	if err != nil {
		return nil
	}
	contentType := hdr.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(content)
	}
	return &validation.DocumentUpload{
		Filename:    hdr.Filename,
		ContentType: contentType,
		Size:        hdr.Size,
		Content:     content,
	}
}

func (h *formHost) RenderForm(form usecase.Form) {
	h.form = &form
}

// Navigate records the page the client should move to. The last call wins.
func (h *formHost) Navigate(page entity.Page) {
	h.redirect = page.String()
}

func (h *formHost) Flash(kind usecase.FlashKind, text string) {
	h.flashes = append(h.flashes, FlashMessage{Kind: kind, Text: text})
}
