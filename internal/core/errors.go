package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the actor lacks ownership of the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState indicates the operation is not valid for the current lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation represents user input validation failures.
	ErrValidation = errors.New("validation error")
	// ErrInsufficientFunds indicates a debit larger than the available balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrAlreadyEnrolled indicates the user already holds an enrollment for the course.
	ErrAlreadyEnrolled = errors.New("already enrolled")
	// ErrSelfEnrollment indicates a creator attempted to enroll in their own course.
	ErrSelfEnrollment = errors.New("self enrollment not allowed")
	// ErrNotImplemented marks payment paths without a backing integration.
	ErrNotImplemented = errors.New("not implemented")
	// ErrConflict indicates a uniqueness or concurrent-update conflict in storage.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable indicates storage stayed unreachable after bounded retries.
	ErrUnavailable = errors.New("unavailable")

	ErrCourseNotFound      = fmt.Errorf("course %w", ErrNotFound)
	ErrEnrollmentNotFound  = fmt.Errorf("enrollment %w", ErrNotFound)
	ErrLessonNotFound      = fmt.Errorf("lesson %w", ErrNotFound)
	ErrSkillNotFound       = fmt.Errorf("skill %w", ErrNotFound)
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrCertificateNotFound = fmt.Errorf("certificate %w", ErrNotFound)

	ErrNotAvailable        = fmt.Errorf("%w: course is not published", ErrInvalidState)
	ErrInsufficientContent = fmt.Errorf("%w: course has no lessons", ErrInvalidState)
	ErrCourseNotCompleted  = fmt.Errorf("%w: course not completed", ErrInvalidState)
	ErrInvalidPrice        = fmt.Errorf("%w: price must be between 0 and 1000000000", ErrValidation)
	ErrLessonNotInCourse   = fmt.Errorf("%w: lesson does not belong to the enrollment course", ErrValidation)
	ErrInvalidPageToken    = fmt.Errorf("%w: invalid page token", ErrValidation)
)

// Stable machine-readable error codes surfaced to callers.
const (
	CodeCourseNotFound      = "COURSE_NOT_FOUND"
	CodeEnrollmentNotFound  = "ENROLLMENT_NOT_FOUND"
	CodeLessonNotFound      = "LESSON_NOT_FOUND"
	CodeSkillNotFound       = "SKILL_NOT_FOUND"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeCertificateNotFound = "CERTIFICATE_NOT_FOUND"
	CodeNotFound            = "NOT_FOUND"
	CodeForbidden           = "FORBIDDEN"
	CodeNotAvailable        = "NOT_AVAILABLE"
	CodeInsufficientContent = "INSUFFICIENT_CONTENT"
	CodeCourseNotCompleted  = "COURSE_NOT_COMPLETED"
	CodeInvalidState        = "INVALID_STATE"
	CodeInvalidPrice        = "INVALID_PRICE"
	CodeLessonNotInCourse   = "LESSON_NOT_IN_COURSE"
	CodeInvalidPageToken    = "INVALID_PAGE_TOKEN"
	CodeValidation          = "VALIDATION_ERROR"
	CodeInsufficientFunds   = "INSUFFICIENT_FUNDS"
	CodeAlreadyEnrolled     = "ALREADY_ENROLLED"
	CodeSelfEnrollment      = "SELF_ENROLLMENT_NOT_ALLOWED"
	CodeNotImplemented      = "NOT_IMPLEMENTED"
	CodeConflict            = "CONFLICT"
	CodeUnavailable         = "UNAVAILABLE"
	CodeInternal            = "INTERNAL"
)

// errorCodes is ordered most specific first.
var errorCodes = []struct {
	err  error
	code string
}{
	{ErrCourseNotFound, CodeCourseNotFound},
	{ErrEnrollmentNotFound, CodeEnrollmentNotFound},
	{ErrLessonNotFound, CodeLessonNotFound},
	{ErrSkillNotFound, CodeSkillNotFound},
	{ErrUserNotFound, CodeUserNotFound},
	{ErrCertificateNotFound, CodeCertificateNotFound},
	{ErrNotFound, CodeNotFound},
	{ErrForbidden, CodeForbidden},
	{ErrNotAvailable, CodeNotAvailable},
	{ErrInsufficientContent, CodeInsufficientContent},
	{ErrCourseNotCompleted, CodeCourseNotCompleted},
	{ErrInvalidState, CodeInvalidState},
	{ErrInvalidPrice, CodeInvalidPrice},
	{ErrLessonNotInCourse, CodeLessonNotInCourse},
	{ErrInvalidPageToken, CodeInvalidPageToken},
	{ErrValidation, CodeValidation},
	{ErrInsufficientFunds, CodeInsufficientFunds},
	{ErrAlreadyEnrolled, CodeAlreadyEnrolled},
	{ErrSelfEnrollment, CodeSelfEnrollment},
	{ErrNotImplemented, CodeNotImplemented},
	{ErrConflict, CodeConflict},
	{ErrUnavailable, CodeUnavailable},
}

// CodeOf returns the stable code for err, or CodeInternal for unknown failures.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}
