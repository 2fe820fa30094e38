package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// UploadedFile is a media entry created by the CMS upload API.
type UploadedFile struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	URL  string  `json:"url"`
	Mime string  `json:"mime"`
	Size float64 `json:"size"`
}

// File is one file to upload.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// UploadRepo forwards files to the CMS media library.
type UploadRepo struct {
	cms *CMSClient
}

// NewUploadRepo returns an UploadRepo using cms.
func NewUploadRepo(cms *CMSClient) *UploadRepo { return &UploadRepo{cms: cms} }

// Upload sends all files in one multipart request and returns the media
// entries in the order the CMS reports them.
func (r *UploadRepo) Upload(ctx context.Context, files []File) ([]UploadedFile, error) {
	if len(files) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := createPart(mw, f)
		if err != nil {
			return nil, fmt.Errorf("%w: build upload: %v", ErrUpstream, err)
		}
		if _, err := io.Copy(part, f.Body); err != nil {
			return nil, fmt.Errorf("%w: read upload %s: %v", ErrUpstream, f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("%w: build upload: %v", ErrUpstream, err)
	}

	req, err := r.cms.newRequest(ctx, http.MethodPost, "/api/upload", nil, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	raw, err := r.cms.send(req)
	if err != nil {
		return nil, err
	}
	var out []UploadedFile
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode upload response: %v", ErrUpstream, err)
	}
	return out, nil
}

func createPart(mw *multipart.Writer, f File) (io.Writer, error) {
	if f.ContentType == "" {
		return mw.CreateFormFile("files", f.Name)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Name))
	h.Set("Content-Type", f.ContentType)
	return mw.CreatePart(h)
}

// IDs returns the media ids of the uploaded files.
func IDs(files []UploadedFile) []int64 {
	ids := make([]int64, 0, len(files))
	for _, f := range files {
		ids = append(ids, f.ID)
	}
	return ids
}
