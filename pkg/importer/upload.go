package importer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/cmohl2013/omero-isa/pkg/omero"
)

// UploadRequest describes one binary image upload.
type UploadRequest struct {
	FilePath    string
	DatasetID   int64
	Name        string
	Description string
}

// Uploader performs the binary image upload. A failed upload is reported
// through the error return; the caller continues with the next file and
// skips ROI import for this one. No retries.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (*omero.Image, error)
}

// CLIUploader shells out to the server's import command, reusing the
// gateway session key so the subprocess does not re-authenticate. The
// created image id is parsed from the "Image:<id>" line on stdout.
type CLIUploader struct {
	Gateway omero.Gateway
	Host    string
	Port    int
	// Binary is the import executable, "omero" when empty.
	Binary string
}

func (u *CLIUploader) Upload(ctx context.Context, req UploadRequest) (*omero.Image, error) {
	bin := u.Binary
	if bin == "" {
		bin = "omero"
	}
	args := []string{
		"import", req.FilePath,
		"-s", u.Host,
		"-p", strconv.Itoa(u.Port),
		"-k", u.Gateway.SessionKey(),
		"-d", strconv.FormatInt(req.DatasetID, 10),
		"--name", req.Name,
		"--description", req.Description,
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("import command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	id, ok := parseImageID(stdout.String())
	if !ok {
		return nil, fmt.Errorf("import command produced no image id for %s", req.FilePath)
	}
	img, err := u.Gateway.GetImage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch imported image %d: %w", id, err)
	}
	return img, nil
}

// parseImageID scans command output for the first "Image:<id>" line.
// The id may be followed by further comma-separated ids for multi-image
// formats; the first one wins.
func parseImageID(out string) (int64, bool) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "Image:") {
			continue
		}
		idPart := strings.TrimPrefix(line, "Image:")
		if i := strings.IndexByte(idPart, ','); i >= 0 {
			idPart = idPart[:i]
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idPart), 10, 64)
		if err != nil {
			continue
		}
		return id, true
	}
	return 0, false
}

// GatewayUploader persists the image record directly through the gateway
// and links it below its dataset. It is used with the bundled sqlite
// store, where no external import process exists.
type GatewayUploader struct {
	Gateway omero.Gateway
}

func (u *GatewayUploader) Upload(ctx context.Context, req UploadRequest) (*omero.Image, error) {
	img := &omero.Image{
		Name:        req.Name,
		Description: req.Description,
		Path:        req.FilePath,
	}
	if err := u.Gateway.CreateImage(ctx, img); err != nil {
		return nil, err
	}
	if err := u.Gateway.Link(ctx, &omero.Dataset{ID: req.DatasetID}, img); err != nil {
		return nil, err
	}
	return img, nil
}
