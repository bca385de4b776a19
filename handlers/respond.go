package handlers

import (
	"errors"
	"net/http"

	"pitchbook/services/booking"
	"pitchbook/services/payment"
	"pitchbook/utils"

	"github.com/gin-gonic/gin"
)

// respondError translates the service error taxonomy into HTTP statuses and
// the standard {success:false, error} envelope.
func respondError(c *gin.Context, err error) {
	var (
		ve *booking.ValidationError
		nf *booking.NotFoundError
		cf *booking.ConflictError
		cw *booking.CancellationWindowError
		se *payment.SignatureError
		xe *payment.ExternalServiceError
	)
	switch {
	case errors.As(err, &ve):
		utils.JSONError(c, http.StatusBadRequest, ve.Message, "")
	case errors.As(err, &cw):
		utils.JSONError(c, http.StatusBadRequest, cw.Message, "")
	case errors.As(err, &nf):
		utils.JSONError(c, http.StatusNotFound, nf.Message, "")
	case errors.As(err, &cf):
		utils.JSONError(c, http.StatusConflict, cf.Message, "")
	case errors.As(err, &se):
		utils.JSONError(c, http.StatusBadRequest, se.Message, "")
	case errors.As(err, &xe):
		utils.JSONError(c, http.StatusBadGateway, xe.Message, "")
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}
