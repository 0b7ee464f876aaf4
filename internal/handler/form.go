package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
)

// FormField is one submitted form value: a TextValue or a FileUpload.
type FormField interface {
	formField()
}

// TextValue is a plain form value.
type TextValue string

// FileUpload is a file part of a multipart form.
type FileUpload struct {
	Header *multipart.FileHeader
}

func (TextValue) formField()  {}
func (FileUpload) formField() {}

// formError is a client error in the submitted form.
type formError struct{ msg string }

func (e *formError) Error() string { return e.msg }

func badForm(format string, args ...any) error {
	return &formError{msg: fmt.Sprintf(format, args...)}
}

// readForm parses a multipart or urlencoded body into fields. Files win
// over text values of the same name. The caller must call cleanup.
func readForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (fields map[string]FormField, cleanup func(), err error) {
	cleanup = func() {}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	fields = map[string]FormField{}
	err = r.ParseMultipartForm(maxBytes)
	switch {
	case errors.Is(err, http.ErrNotMultipart):
		if err := r.ParseForm(); err != nil {
			return nil, cleanup, badForm("Invalid form body")
		}
		for k := range r.PostForm {
			fields[k] = TextValue(r.PostForm.Get(k))
		}
		return fields, cleanup, nil
	case err != nil:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, cleanup, badForm("Upload exceeds %d MB", maxBytes>>20)
		}
		return nil, cleanup, badForm("Invalid form body")
	}

	form := r.MultipartForm
	cleanup = func() { _ = form.RemoveAll() }
	for k, v := range form.Value {
		if len(v) > 0 {
			fields[k] = TextValue(v[0])
		}
	}
	for k, v := range form.File {
		if len(v) > 0 {
			fields[k] = FileUpload{Header: v[0]}
		}
	}
	return fields, cleanup, nil
}

// eventForm turns submitted fields into an EventInput. Absent fields stay
// nil so updates only touch what was sent. The returned closer releases
// the image file, if any.
func eventForm(fields map[string]FormField) (in model.EventInput, closer io.Closer, err error) {
	text := func(name string) (*string, error) {
		f, ok := fields[name]
		if !ok {
			return nil, nil
		}
		v, ok := f.(TextValue)
		if !ok {
			return nil, badForm("%s must be a text field", name)
		}
		s := string(v)
		return &s, nil
	}

	if in.Title, err = text("title"); err != nil {
		return in, nil, err
	}
	if in.Description, err = text("description"); err != nil {
		return in, nil, err
	}
	if in.Location, err = text("location"); err != nil {
		return in, nil, err
	}

	raw, err := text("date")
	if err != nil {
		return in, nil, err
	}
	if raw != nil {
		d, err := service.ParseEventDate(*raw)
		if err != nil {
			return in, nil, err
		}
		in.Date = &d
	}

	raw, err = text("capacity")
	if err != nil {
		return in, nil, err
	}
	if raw != nil {
		n, err := strconv.Atoi(strings.TrimSpace(*raw))
		if err != nil {
			return in, nil, badForm("capacity must be a whole number")
		}
		in.Capacity = &n
	}

	raw, err = text("ticket_price")
	if err != nil {
		return in, nil, err
	}
	if raw != nil {
		n, err := strconv.ParseInt(strings.TrimSpace(*raw), 10, 64)
		if err != nil {
			return in, nil, badForm("ticket_price must be a whole number")
		}
		in.TicketPrice = &n
	}

	switch img := fields["image"].(type) {
	case FileUpload:
		f, err := img.Header.Open()
		if err != nil {
			return in, nil, fmt.Errorf("open upload: %w", err)
		}
		in.Image = &model.ImageUpload{Filename: img.Header.Filename, Content: f}
		return in, f, nil
	case TextValue:
		// Browsers send an empty text part when no file is chosen.
		if img != "" {
			return in, nil, badForm("image must be a file upload")
		}
	}
	return in, nil, nil
}
