package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/matsen/refmerge/internal/merge"
)

// FormField is the multipart field carrying the uploaded files.
const FormField = "files"

var (
	// ErrNotMultipart is returned when the request is not a multipart form.
	ErrNotMultipart = errors.New("request is not a multipart form")
	// ErrTooLarge is returned when the body exceeds the upload limit.
	ErrTooLarge = errors.New("upload exceeds size limit")
)

// readUploads reads every file in the request's FormField. An upload with
// no files yields an empty slice and no error.
func readUploads(w http.ResponseWriter, r *http.Request, maxBytes int64) ([]merge.UploadedFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, tooLarge.Limit)
		case errors.Is(err, http.ErrNotMultipart):
			return nil, ErrNotMultipart
		}
		return nil, fmt.Errorf("parsing upload: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[FormField]
	files := make([]merge.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		content, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		files = append(files, merge.UploadedFile{Name: fh.Filename, Content: content})
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fh.Filename, err)
	}
	return content, nil
}

// uploadStatus maps a readUploads error to an HTTP status.
func uploadStatus(err error) int {
	if errors.Is(err, ErrTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
