package api

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/adonese/accountd/apperr"
)

// bindJSON decodes the request body into obj, folding gin's binding
// failures into the service error taxonomy.
func bindJSON(c *gin.Context, obj interface{}) error {
	err := c.ShouldBindWith(obj, binding.JSON)
	switch err := err.(type) {
	case nil:
		return nil
	case validator.ValidationErrors:
		fields := make(map[string]any, len(err))
		for _, fe := range err {
			fields[fe.Field()] = fe.Tag()
		}
		return apperr.WithFields(apperr.WithMessage(apperr.ErrValidation, "request fields validation error"), fields)
	default:
		if errors.Is(err, io.EOF) {
			return apperr.ErrEmptyBody
		}
		return apperr.Wrap(err, apperr.ErrBadRequest, "unable to parse the request")
	}
}
