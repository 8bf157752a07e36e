package v1

import (
	"context"
	"go-contact-backend/internal/delivery/http/response"
	"go-contact-backend/internal/domain"
	"go-contact-backend/pkg/apperror"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxFormMemory = 1 << 20

type ContactHandler struct {
	contactUC domain.ContactUsecase
}

// NewContactHandler registers the contact routes (public, no auth required).
// Extra handlers such as a rate limiter run before the form is read.
func NewContactHandler(public *gin.RouterGroup, contactUC domain.ContactUsecase, mw ...gin.HandlerFunc) {
	handler := &ContactHandler{
		contactUC: contactUC,
	}

	public.POST("/contact", append(mw, handler.SubmitContact)...)
}

// SubmitContact godoc
// @Summary      Submit Contact Form
// @Description  Send a message or dataset suggestion through the contact form. Accepts form fields or a flat JSON object of strings.
// @Tags         contact
// @Accept       x-www-form-urlencoded,mpfd,json
// @Produce      json
// @Param        email                 formData  string  true   "Submitter email"
// @Param        name                  formData  string  true   "Submitter name"
// @Param        content               formData  string  true   "Message"
// @Param        form_variant          formData  string  false  "contact or suggest_dataset"
// @Param        contact_type          formData  string  false  "Question, Issue or Both"
// @Param        contact_dest          formData  string  false  "data-hub-support or dataset"
// @Param        pkg-id                formData  string  false  "Dataset id or name"
// @Param        g-recaptcha-response  formData  string  false  "reCAPTCHA v3 token"
// @Success      200      {object}  response.Response{data=domain.SubmissionOutcome}
// @Failure      400      {object}  response.Response{data=domain.SubmissionOutcome}
// @Failure      502      {object}  response.Response{data=domain.SubmissionOutcome}
// @Failure      500      {object}  response.Response
// @Router       /contact [post]
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	values, err := readValues(c)
	if err != nil {
		c.Error(apperror.BadRequest("Invalid form data"))
		return
	}

	ctx := context.WithValue(c.Request.Context(), domain.KeyRequestID, c.GetString("RequestID"))

	outcome, err := h.contactUC.Submit(ctx, values)
	if err != nil {
		c.Error(apperror.Internal(err))
		return
	}

	switch {
	case outcome.Success:
		response.Success(c, http.StatusOK, "Your message has been sent successfully!", outcome)
	case !outcome.EmailSuccess:
		response.Fail(c, http.StatusBadGateway, "Your message could not be delivered. Please try again later.", outcome)
	default:
		response.Fail(c, http.StatusBadRequest, "Please correct the errors in the form.", outcome)
	}
}

// readValues flattens the query string and request body into single-valued
// fields. Body values win over query values; repeated fields keep their first value.
func readValues(c *gin.Context) (map[string]string, error) {
	values := map[string]string{}
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			values[k] = v[0]
		}
	}

	if strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		body := map[string]string{}
		if err := c.ShouldBindJSON(&body); err != nil {
			return nil, err
		}
		for k, v := range body {
			values[k] = v
		}
		return values, nil
	}

	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, err
		}
	} else if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}

	for k, v := range c.Request.PostForm {
		if len(v) > 0 {
			values[k] = v[0]
		}
	}
	return values, nil
}
