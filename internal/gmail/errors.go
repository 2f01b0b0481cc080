package gmail

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/inletmail/gmail-mcp/internal/auth"
)

// wrapAPIError classifies a Gmail API failure. Upstream 404s become typed
// not-found errors so the HTTP surface can map them without reading message
// text; everything else is an upstream API error.
func wrapAPIError(msg string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return auth.WrapError(auth.KindNotFound, err, "%s: %v", msg, err)
	}
	return auth.WrapError(auth.KindUpstream, err, "%s: %v", msg, err)
}
