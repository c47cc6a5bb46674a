package services

import (
	"context"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/repositories"
	apperrors "github.com/happyroy1004/ocs-patient-alert-sub000/pkg/errors"
)

// LoadRegistrySnapshot reads users, doctors and every user's patients once.
// Records are decoded into typed values ordered by key. Any read failure
// aborts the snapshot.
func LoadRegistrySnapshot(ctx context.Context, repo repositories.RegistryRepository) (*entities.RegistrySnapshot, error) {
	if repo == nil {
		return nil, apperrors.NewUnavailableError("registry is not configured", nil)
	}

	users, err := repo.Children(ctx, entities.ScopeUsers)
	if err != nil {
		return nil, apperrors.NewUnavailableError("failed to read users from registry", err)
	}
	doctors, err := repo.Children(ctx, entities.ScopeDoctorUsers)
	if err != nil {
		return nil, apperrors.NewUnavailableError("failed to read doctors from registry", err)
	}

	snapshot := &entities.RegistrySnapshot{
		Users:          make([]entities.UserRecord, 0, len(users)),
		Doctors:        make([]entities.DoctorRecord, 0, len(doctors)),
		PatientsByUser: make(map[string][]entities.PatientRecord, len(users)),
	}

	for _, key := range entities.SortedKeys(users) {
		snapshot.Users = append(snapshot.Users, entities.DecodeUserRecord(key, users[key]))

		patients, err := repo.Children(ctx, entities.PatientScope(key))
		if err != nil {
			return nil, apperrors.NewUnavailableError("failed to read patients from registry", err)
		}
		if len(patients) == 0 {
			continue
		}
		records := make([]entities.PatientRecord, 0, len(patients))
		for _, pk := range entities.SortedKeys(patients) {
			records = append(records, entities.DecodePatientRecord(key, pk, patients[pk]))
		}
		snapshot.PatientsByUser[key] = records
	}

	for _, key := range entities.SortedKeys(doctors) {
		snapshot.Doctors = append(snapshot.Doctors, entities.DecodeDoctorRecord(key, doctors[key]))
	}

	return snapshot, nil
}
