package apperror

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/abdul-hamid-achik/imgedit/internal/logger"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Report logs err and renders it to w, as JSON when asJSON is set. It
// returns the exit code the process should terminate with.
func Report(ctx context.Context, w io.Writer, err error, asJSON bool) int {
	if err == nil {
		return ExitOK
	}

	log := logger.FromContext(ctx)
	appErr := FromError(err)

	detail := ""
	if appErr.Internal != nil {
		detail = appErr.Internal.Error()
		log.Error("command failed",
			"code", appErr.Code,
			"internal_error", detail,
		)
	} else {
		log.Warn("command failed", "code", appErr.Code)
	}

	if asJSON {
		_ = json.NewEncoder(w).Encode(ErrorResponse{
			Error:   appErr.Code,
			Code:    appErr.Code,
			Message: appErr.Message,
			Detail:  detail,
		})
		return appErr.ExitCode
	}

	if detail != "" {
		_, _ = fmt.Fprintf(w, "Error: %s (%s)\n", appErr.Message, detail)
	} else {
		_, _ = fmt.Fprintf(w, "Error: %s\n", appErr.Message)
	}
	return appErr.ExitCode
}
