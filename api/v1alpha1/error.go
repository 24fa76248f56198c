package v1alpha1

import (
	"fmt"
	"net/http"
)

// Status is the result value returned by every service operation. Failures
// are reported as values, never as panics or sentinel errors crossing the
// service boundary.
type Status struct {
	ApiVersion string `json:"apiVersion"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	Code       int32  `json:"code"`
	Reason     string `json:"reason"`
	Message    string `json:"message"`
}

func NewSuccessStatus(code int32, reason string, message string) Status {
	return Status{
		ApiVersion: "v1alpha1",
		Kind:       "Status",
		Status:     "Success",
		Code:       code,
		Reason:     reason,
		Message:    message,
	}
}

func NewFailureStatus(code int32, reason string, message string) Status {
	return Status{
		ApiVersion: "v1alpha1",
		Kind:       "Status",
		Status:     "Failure",
		Code:       code,
		Reason:     reason,
		Message:    message,
	}
}

func StatusOK() Status {
	return NewSuccessStatus(http.StatusOK, http.StatusText(http.StatusOK), "")
}

func StatusCreated() Status {
	return NewSuccessStatus(http.StatusCreated, http.StatusText(http.StatusCreated), "")
}

func StatusNoContent() Status {
	return NewSuccessStatus(http.StatusNoContent, http.StatusText(http.StatusNoContent), "")
}

func StatusBadRequest(message string) Status {
	return NewFailureStatus(http.StatusBadRequest, http.StatusText(http.StatusBadRequest), message)
}

func StatusResourceNotFound(kind, name string) Status {
	return NewFailureStatus(http.StatusNotFound, http.StatusText(http.StatusNotFound), fmt.Sprintf("%s of name %q not found.", kind, name))
}

func StatusConflict(message string) Status {
	return NewFailureStatus(http.StatusConflict, http.StatusText(http.StatusConflict), message)
}

func StatusResourceVersionConflict(message string) Status {
	return NewFailureStatus(http.StatusConflict, http.StatusText(http.StatusConflict), message)
}

// StatusActionNotAllowed reports a lifecycle or edit intent rejected by a
// gating rule. The message names the gate so the UI can surface it.
func StatusActionNotAllowed(message string) Status {
	return NewFailureStatus(http.StatusConflict, "ActionNotAllowed", message)
}

func StatusBadGateway(message string) Status {
	return NewFailureStatus(http.StatusBadGateway, http.StatusText(http.StatusBadGateway), message)
}

func StatusInternalServerError(message string) Status {
	return NewFailureStatus(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), message)
}

func (s Status) IsSuccess() bool {
	return s.Status == "Success"
}
