package middleware

import (
	"mime"
	"net/http"

	apierrors "namefinder/internal/errors"
)

// RequireJSON rejects request bodies declared as anything other than JSON.
// Requests without a Content-Type are let through and fail in decoding if
// the body is not JSON.
func RequireJSON(errorHandler *apierrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				next.ServeHTTP(w, r)
				return
			}
			mediaType, _, err := mime.ParseMediaType(contentType)
			if err != nil || mediaType != "application/json" {
				errorHandler.HandleError(w, r, apierrors.ErrUnsupportedEncoding)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
