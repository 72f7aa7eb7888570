package utils

import (
	"fintrack/internal/apperrors"

	"github.com/sirupsen/logrus"
)

// ErrorHandler logs err and returns it as an internal error carrying
// message. A nil err stays nil.
func ErrorHandler(err error, message string) error {
	if err == nil {
		return nil
	}
	Logger.WithFields(logrus.Fields{
		"error": err.Error(),
	}).Error(message)
	return apperrors.Wrap(apperrors.KindInternal, message, err)
}
