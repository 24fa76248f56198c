package store

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Store interface {
	Device() Device
	Draft() Draft
	DeployHistory() DeployHistory
	InitialMigration() error
	Close() error
}

type DataStore struct {
	device        Device
	draft         Draft
	deployHistory DeployHistory

	db *gorm.DB
}

func NewStore(db *gorm.DB, draftTTL time.Duration, log logrus.FieldLogger) Store {
	return &DataStore{
		device:        NewDevice(db, log),
		draft:         NewDraft(draftTTL, log),
		deployHistory: NewDeployHistory(db, log),
		db:            db,
	}
}

func (s *DataStore) Device() Device {
	return s.device
}

func (s *DataStore) Draft() Draft {
	return s.draft
}

func (s *DataStore) DeployHistory() DeployHistory {
	return s.deployHistory
}

func (s *DataStore) InitialMigration() error {
	if err := s.Device().InitialMigration(); err != nil {
		return err
	}
	return s.DeployHistory().InitialMigration()
}

func (s *DataStore) Close() error {
	s.draft.Stop()
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
