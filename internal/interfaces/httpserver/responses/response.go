package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/janhq/image-mcp/utils/platformerrors"
)

type ErrorResponse struct {
	Code          string `json:"code"` // UUID from PlatformError
	Error         string `json:"error"`
	ErrorInstance error  `json:"-"`
	SessionID     string `json:"session_id,omitempty"`
}

// HandleError writes err as a JSON error body. Status is derived from the
// PlatformError type; anything else is a 500.
func HandleError(reqCtx *gin.Context, err error, message string) {
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		reqCtx.Error(domainErr)
		reqCtx.AbortWithStatusJSON(platformerrors.ErrorTypeToHTTPStatus(domainErr.GetErrorType()), ErrorResponse{
			Code:          domainErr.GetUUID(),
			Error:         message,
			ErrorInstance: domainErr,
			SessionID:     domainErr.GetSessionID(),
		})
		return
	}

	if err != nil {
		reqCtx.Error(err)
	}
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error:         message,
		ErrorInstance: err,
	})
}

// HandleNewError creates a new typed error at the route layer and handles it.
// The uuid parameter should be provided from the route for error tracking.
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string, uuid string) {
	err := platformerrors.NewError(reqCtx.Request.Context(), platformerrors.LayerRoute, errorType, message, nil, uuid)
	HandleError(reqCtx, err, message)
}
