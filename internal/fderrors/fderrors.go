package fderrors

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrResourceIsNil           = errors.New("object is nil")
	ErrResourceNotFound        = errors.New("object not found")
	ErrDuplicateName           = errors.New("an object with this name already exists")
	ErrResourceVersionConflict = errors.New("the object has been modified; please apply your changes to the latest version and try again")

	// devices
	ErrDuplicateAppId = errors.New("an application with this id already exists on the device")
)

func ErrorFromGormError(err error) error {
	switch err {
	case nil:
		return nil
	case gorm.ErrRecordNotFound:
		return ErrResourceNotFound
	case gorm.ErrDuplicatedKey:
		return ErrDuplicateName
	default:
		return err
	}
}
