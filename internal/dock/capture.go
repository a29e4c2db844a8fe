package dock

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/p-blackswan/fluxdock/internal/project"
)

// SessionState is the externally held UI state a quick-capture snapshots.
type SessionState struct {
	Title      string            `json:"title,omitempty"`
	AmbienceID string            `json:"ambienceId,omitempty"`
	Brief      map[string]string `json:"brief,omitempty"`
}

// Upload is one file handed to the upload action.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadResult reports the render windows created and how many files were
// dropped for exceeding the upload bound.
type UploadResult struct {
	Windows []project.Window `json:"windows"`
	Dropped int              `json:"dropped"`
}

// QuickCapture adds a brief window holding a point-in-time copy of state.
// Later changes to state do not affect the captured window.
func (c *Controller) QuickCapture(ctx context.Context, projectID string, state SessionState) (*project.Window, error) {
	now := c.now()

	brief := make(map[string]any, len(state.Brief))
	for k, v := range state.Brief {
		brief[k] = v
	}
	meta := map[string]any{
		"brief":      brief,
		"capturedAt": now.Format(time.RFC3339),
	}
	if state.AmbienceID != "" {
		meta["ambienceId"] = state.AmbienceID
	}

	title := strings.TrimSpace(state.Title)
	if title == "" {
		title = "Brief snapshot " + now.Format("Jan 2 15:04")
	}

	w, err := c.windows.AddWindow(ctx, projectID, project.WindowInput{
		Type:  project.WindowBrief,
		Title: title,
		Meta:  meta,
	})
	if err != nil {
		return nil, fmt.Errorf("quick capture: %w", err)
	}
	return w, nil
}

// Upload creates one render window per file, keeping at most the configured
// number of files. Extra files are dropped without a user-visible signal.
func (c *Controller) Upload(ctx context.Context, projectID string, files []Upload) (UploadResult, error) {
	var res UploadResult
	if len(files) > c.maxUploads {
		res.Dropped = len(files) - c.maxUploads
		c.logger.Debug().Str("project_id", projectID).Int("dropped", res.Dropped).Msg("upload bound exceeded")
		files = files[:c.maxUploads]
	}

	for _, f := range files {
		w, err := c.windows.AddWindow(ctx, projectID, project.WindowInput{
			Type:     project.WindowRender,
			Title:    f.Name,
			Snapshot: DataURI(f.ContentType, f.Data),
			Meta: map[string]any{
				"fileName": f.Name,
				"size":     len(f.Data),
			},
		})
		if err != nil {
			return res, fmt.Errorf("upload %q: %w", f.Name, err)
		}
		if w == nil {
			// unknown project: nothing to attach to
			return res, nil
		}
		res.Windows = append(res.Windows, *w)
	}
	return res, nil
}

// DataURI encodes data as an inline display reference. The content type is
// sniffed when not given.
func DataURI(contentType string, data []byte) string {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
