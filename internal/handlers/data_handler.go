package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "grindsheet/internal/errors"
	"grindsheet/internal/models"
	"grindsheet/internal/services"
	appvalidator "grindsheet/internal/validator"
)

// DataHandler serves the authenticated user's tracking document.
type DataHandler struct {
	dataService  services.UserDataServicer
	auditService services.AuditServicer
}

// NewDataHandler creates a new DataHandler.
func NewDataHandler(dataService services.UserDataServicer, auditService services.AuditServicer) *DataHandler {
	return &DataHandler{dataService: dataService, auditService: auditService}
}

// GetData returns the user's document
// @Summary     Get tracking data
// @Description Returns sessions, goals and transactions. A first fetch creates an empty document.
// @Tags        data
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Document "User document"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Invalid token"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /data [get]
func (h *DataHandler) GetData(c *gin.Context) {
	email, err := getUserEmail(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	doc, err := h.dataService.Get(c.Request.Context(), email)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// SaveData replaces the user's document
// @Summary     Save tracking data
// @Description Replaces the whole document. Omitted lists are stored empty.
// @Tags        data
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body models.Document true "Full document"
// @Success     200 {object} MessageResponse "Saved"
// @Failure     400 {object} ErrorResponse "Malformed body or invalid session"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Invalid token"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /data [post]
func (h *DataHandler) SaveData(c *gin.Context) {
	email, err := getUserEmail(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var doc models.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidSession, appvalidator.Message(verrs)))
			return
		}
		respondWithError(c, invalidInput(err))
		return
	}
	doc = doc.WithDefaults()

	if err := h.dataService.Put(c.Request.Context(), email, doc); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), email, models.AuditActionDataSaved, c.ClientIP(),
		map[string]interface{}{"sessions": len(doc.Sessions)})

	c.JSON(http.StatusOK, MessageResponse{Message: "Data saved successfully"})
}
