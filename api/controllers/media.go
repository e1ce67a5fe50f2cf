package controllers

import (
	"net/http"

	"github.com/Efi-kline/my-phone-shop/api/responses"
	mediasvc "github.com/Efi-kline/my-phone-shop/internal/media"
	pkgerrors "github.com/Efi-kline/my-phone-shop/pkg/errors"
	"github.com/Efi-kline/my-phone-shop/pkg/logger"
)

const uploadMemoryLimit = 32 << 20

// AdminUploadProductImage accepts a multipart "file" field and stores it
// as a product image.
func AdminUploadProductImage(svc mediasvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		actorID, err := actorIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file field required"))
			return
		}
		defer file.Close()

		result, err := svc.UploadProductImage(r.Context(), actorID, mediasvc.UploadInput{
			ContentType: header.Header.Get("Content-Type"),
			SizeBytes:   header.Size,
			Body:        file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
