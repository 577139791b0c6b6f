package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/lalith-99/intakedesk/internal/repository/remote"
)

// Response is the /api/upload body.
type Response struct {
	FileURL string `json:"file_url"`
}

// Remote posts the file as multipart field "file" to the backend's
// /api/upload and returns the file_url it answers with.
type Remote struct {
	client *remote.Client
}

func NewRemote(client *remote.Client) *Remote {
	return &Remote{client: client}
}

func (r *Remote) Upload(ctx context.Context, f *File) (string, error) {
	if err := check(f); err != nil {
		return "", err
	}

	// Stream the body through a pipe so large files are not buffered.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(mw, f))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.client.Endpoint(nil, "api", "upload"), pr)
	if err != nil {
		pr.Close()
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	data, err := r.client.Do(req)
	pr.Close()
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", f.Name, err)
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if out.FileURL == "" {
		return "", fmt.Errorf("upload %s: response has no file_url", f.Name)
	}
	return out.FileURL, nil
}

func writeForm(mw *multipart.Writer, f *File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name))
	h.Set("Content-Type", f.mimeType())

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f.Body); err != nil {
		return err
	}
	return mw.Close()
}
