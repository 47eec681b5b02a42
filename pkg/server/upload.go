package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"ditherbooth/pkg/booth"
	"ditherbooth/pkg/fault"
)

// formSlack leaves room for the multipart framing and the small form fields
// next to the file.
const formSlack = 64 << 10

// readUpload returns the bytes of the multipart "file" field. The request body
// is capped first, so an oversize upload is rejected after reading at most
// MaxUpload plus a little, never buffered in full.
func readUpload(c *gin.Context) ([]byte, error) {
	if c.Request.ContentLength > booth.MaxUpload+formSlack {
		return nil, fault.Oversize(c.Request.ContentLength, booth.MaxUpload)
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, booth.MaxUpload+formSlack)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fault.Oversize(c.Request.ContentLength, booth.MaxUpload)
		}
		return nil, fault.Validationf("upload", "missing file")
	}
	if fh.Size > booth.MaxUpload {
		return nil, fault.Oversize(fh.Size, booth.MaxUpload)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fault.Internal("upload", err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(f, booth.MaxUpload+1))
	if err != nil {
		return nil, fault.Internal("upload", err)
	}
	if len(data) > booth.MaxUpload {
		return nil, fault.Oversize(int64(len(data)), booth.MaxUpload)
	}
	return data, nil
}
