package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/blob"
)

// UploadImage stores one multipart "image" file and returns its public URL
// for use in a product's images.
func UploadImage(store blob.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/uploads"
		defer handlePanic(c, route)

		file, err := c.FormFile("image")
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "image file is required")
			return
		}
		if file.Size > blob.MaxImageSize {
			respondWithError(c, http.StatusBadRequest, route, blob.ErrTooLarge.Error())
			return
		}

		in, err := file.Open()
		if err != nil {
			log.Printf("[UPLOAD] [ERROR] open %s: %v", file.Filename, err)
			respondWithError(c, http.StatusBadRequest, route, "could not read image")
			return
		}
		defer in.Close()

		data, err := io.ReadAll(io.LimitReader(in, blob.MaxImageSize+1))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "could not read image")
			return
		}

		obj, err := store.Put(c.Request.Context(), data, file.Header.Get("Content-Type"))
		if err != nil {
			var unsupported *blob.UnsupportedTypeError
			if errors.As(err, &unsupported) || errors.Is(err, blob.ErrTooLarge) {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			log.Printf("[UPLOAD] [ERROR] store %s: %v", file.Filename, err)
			respondWithError(c, http.StatusInternalServerError, route, "internal server error")
			return
		}

		respondOK(c, http.StatusCreated, obj)
	}
}

func DeleteImage(store blob.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/uploads/:handle"
		defer handlePanic(c, route)

		if err := store.Delete(c.Request.Context(), c.Param("handle")); err != nil {
			log.Printf("[UPLOAD] [ERROR] delete %s: %v", c.Param("handle"), err)
			respondWithError(c, http.StatusBadRequest, route, "could not delete image")
			return
		}
		respondMessage(c, http.StatusOK, "image deleted")
	}
}
