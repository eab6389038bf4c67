package errors

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type of problem responses.
const ContentTypeProblemJSON = "application/problem+json"

// GenericDetail is shown when no mapper recognised the error.
const GenericDetail = "Something went wrong. Please try again."

// Responder writes problem documents and aborts the gin chain.
type Responder struct{}

func NewResponder() *Responder {
	return &Responder{}
}

// Respond writes problem, filling Instance with the request path when empty.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.AbortWithStatusJSON(problem.Status, problem)
}

// RespondError writes err as-is when it is a ProblemDetail and a generic 500 otherwise.
func (r *Responder) RespondError(c *gin.Context, err error) {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		r.Respond(c, problem)
		return
	}
	_ = c.Error(err)
	r.Respond(c, errInternal.WithDetail(GenericDetail))
}

func (r *Responder) BadRequest(c *gin.Context, detail string) {
	r.Respond(c, ErrBadRequest.WithDetail(detail))
}

func (r *Responder) Unauthenticated(c *gin.Context, message, redirect string) {
	r.Respond(c, NewUnauthenticatedProblem(message, redirect))
}

// ErrorMapper recognises one family of errors and reports the problem to send.
type ErrorMapper func(err error) (ProblemDetail, bool)

// ChainedResponder consults its mappers in order; the first match wins.
type ChainedResponder struct {
	Responder
	mappers []ErrorMapper
}

func NewChainedResponder(mappers ...ErrorMapper) *ChainedResponder {
	return &ChainedResponder{mappers: mappers}
}

func (r *ChainedResponder) RespondError(c *gin.Context, err error) {
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			r.Respond(c, problem)
			return
		}
	}
	r.Responder.RespondError(c, err)
}
