package portalserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	accountsdomain "github.com/Apurer/pet-portal/internal/domains/accounts/domain"
	accountsports "github.com/Apurer/pet-portal/internal/domains/accounts/ports"
	listingsapp "github.com/Apurer/pet-portal/internal/domains/listings/application"
	"github.com/Apurer/pet-portal/internal/domains/listings/application/form"
	listingsports "github.com/Apurer/pet-portal/internal/domains/listings/ports"
	"github.com/Apurer/pet-portal/internal/platform/httpclient"
	apierrors "github.com/Apurer/pet-portal/internal/shared/errors"
)

// Messages shown to the user. Each failure surfaces exactly one of them.
const (
	submitFailedMessage     = "Error submitting pet. Please try again."
	loadFailedMessage       = "Unable to load pets. Please try again."
	accountFailedMessage    = "We could not reach the sign-in service. Please try again."
	validationMessage       = "Please correct the highlighted fields."
	notFoundMessage         = "Pet not found."
	notOwnerMessage         = "You can only change your own listings."
	conflictMessage         = "This Idempotency-Key was already used for a different submission."
	badCredentialsMessage   = "Incorrect email or password."
	malformedRequestMessage = "The request could not be read."
)

var problems = apierrors.NewResponder()

var (
	submitErrors  = newErrorResponder(submitFailedMessage)
	readErrors    = newErrorResponder(loadFailedMessage)
	accountErrors = newErrorResponder(accountFailedMessage)
)

func newErrorResponder(upstreamMessage string) *apierrors.ChainedResponder {
	return apierrors.NewChainedResponder(
		mapValidation,
		mapInvalidListing,
		mapIdempotencyConflict,
		mapUnauthenticated,
		mapInvalidAccount,
		mapTooLarge,
		mapNotFound,
		mapUpstream(upstreamMessage),
	)
}

// displayMessage returns the single message the user sees for err.
func displayMessage(err error, upstreamMessage string) string {
	var validation *form.ValidationError
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return validationMessage
	case errors.Is(err, listingsports.ErrIdempotencyConflict):
		return conflictMessage
	case errors.Is(err, listingsapp.ErrInvalidInput), errors.Is(err, accountsports.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, accountsports.ErrUnauthenticated):
		return accountsdomain.SignInRequiredMessage
	case errors.As(err, &tooLarge):
		return fmt.Sprintf("Uploads must not exceed %d MB.", tooLarge.Limit>>20)
	case isNotFound(err):
		return notFoundMessage
	default:
		return upstreamMessage
	}
}

func mapValidation(err error) (apierrors.ProblemDetail, bool) {
	var validation *form.ValidationError
	if !errors.As(err, &validation) {
		return apierrors.ProblemDetail{}, false
	}
	return apierrors.NewValidationProblem(validation.Fields).WithDetail(validationMessage), true
}

func mapInvalidListing(err error) (apierrors.ProblemDetail, bool) {
	if !errors.Is(err, listingsapp.ErrInvalidInput) {
		return apierrors.ProblemDetail{}, false
	}
	return apierrors.ErrBadRequest.WithDetail(err.Error()), true
}

func mapIdempotencyConflict(err error) (apierrors.ProblemDetail, bool) {
	if !errors.Is(err, listingsports.ErrIdempotencyConflict) {
		return apierrors.ProblemDetail{}, false
	}
	return apierrors.ErrConflict.WithDetail(conflictMessage), true
}

func mapUnauthenticated(err error) (apierrors.ProblemDetail, bool) {
	if !errors.Is(err, accountsports.ErrUnauthenticated) {
		return apierrors.ProblemDetail{}, false
	}
	return apierrors.NewUnauthenticatedProblem(accountsdomain.SignInRequiredMessage, signInPath), true
}

func mapInvalidAccount(err error) (apierrors.ProblemDetail, bool) {
	if !errors.Is(err, accountsports.ErrInvalidInput) {
		return apierrors.ProblemDetail{}, false
	}
	return apierrors.ErrBadRequest.WithDetail(err.Error()), true
}

func mapTooLarge(err error) (apierrors.ProblemDetail, bool) {
	var tooLarge *http.MaxBytesError
	if !errors.As(err, &tooLarge) {
		return apierrors.ProblemDetail{}, false
	}
	return apierrors.ErrTooLarge.WithDetail(displayMessage(err, "")), true
}

func mapNotFound(err error) (apierrors.ProblemDetail, bool) {
	if !isNotFound(err) {
		return apierrors.ProblemDetail{}, false
	}
	return apierrors.ErrNotFound.WithDetail(notFoundMessage), true
}

// mapUpstream turns every remaining failure into a 502 carrying message.
// Submission failures land here too, so their causes never reach the client.
func mapUpstream(message string) apierrors.ErrorMapper {
	return func(err error) (apierrors.ProblemDetail, bool) {
		return apierrors.ErrBadGateway.WithDetail(message), true
	}
}

func isNotFound(err error) bool {
	var submission *listingsapp.SubmissionError
	if errors.As(err, &submission) {
		return false
	}
	status, ok := httpclient.StatusCode(err)
	return ok && status == http.StatusNotFound
}

func respondSubmitError(c *gin.Context, err error) {
	_ = c.Error(err)
	submitErrors.RespondError(c, err)
}

func respondReadError(c *gin.Context, err error) {
	_ = c.Error(err)
	readErrors.RespondError(c, err)
}

func respondAccountError(c *gin.Context, err error) {
	_ = c.Error(err)
	accountErrors.RespondError(c, err)
}

func respondBadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	problems.BadRequest(c, malformedRequestMessage)
}
