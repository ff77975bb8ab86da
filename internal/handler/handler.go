package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	apperrors "github.com/jwalitptl/medibook-api/pkg/errors"
	"github.com/jwalitptl/medibook-api/pkg/validator"
)

// PhotoField is the multipart field carrying a profile photo.
const PhotoField = "photo"

// IsMultipart reports whether the request carries a multipart form.
func IsMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

// BindJSON binds a JSON body. Binding and validation failures become 400s.
func BindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindBodyWith(req, binding.JSON); err != nil {
		return apperrors.BadRequest(validator.Describe(err), err)
	}
	return nil
}

// Bind accepts either a JSON body or a multipart form.
func Bind(c *gin.Context, req interface{}) error {
	if !IsMultipart(c) {
		return BindJSON(c, req)
	}
	if err := c.ShouldBind(req); err != nil {
		return apperrors.BadRequest(validator.Describe(err), err)
	}
	return nil
}

// FormFile returns the uploaded file, or nil when the request has none.
func FormFile(c *gin.Context, name string) (*multipart.FileHeader, error) {
	if !IsMultipart(c) {
		return nil, nil
	}
	fh, err := c.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.BadRequest("Invalid photo upload", err)
	}
	return fh, nil
}

// RawList returns the raw value of a list field: the JSON value for JSON
// bodies or the form string for multipart ones. nil means absent.
func RawList(c *gin.Context, fromJSON json.RawMessage, name string) []byte {
	if !IsMultipart(c) {
		if len(fromJSON) == 0 || string(fromJSON) == "null" {
			return nil
		}
		return fromJSON
	}
	if v, ok := c.GetPostForm(name); ok {
		return []byte(v)
	}
	return nil
}
