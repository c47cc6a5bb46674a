package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/adapters/database"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/infrastructure/clients/postgres"
	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/infrastructure/observability"
	"github.com/happyroy1004/ocs-patient-alert-sub000/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger("ocs-seed", cfg.Env)

	ctx := context.Background()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to DB")
	}
	defer pgClient.Close()

	if err := database.InitSchema(ctx, pgClient); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE registry_entries, ocs_analysis`); err != nil {
			log.Fatal().Err(err).Msg("failed to reset tables")
		}
	}

	registry := database.NewRegistryAdapter(pgClient)

	// 1. Users (students and staff)
	users := map[string]map[string]interface{}{
		"student_kim": {"name": "김학생", "email": "student.kim@example.com", "number": "2020123"},
		"student_lee": {"name": "이학생", "email": "student.lee@example.com", "number": "2021045"},
	}
	for key, value := range users {
		if err := registry.Set(ctx, entities.ScopeUsers, key, value); err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to seed user")
		}
	}

	// 2. Doctors
	doctors := map[string]map[string]interface{}{
		"dr_kim":  {"name": "김교수", "email": "dr.kim@example.com", "department": string(entities.DeptOralSurgery)},
		"dr_park": {"name": "박교수", "email": "dr.park@example.com", "department": string(entities.DeptConservative)},
	}
	for key, value := range doctors {
		if err := registry.Set(ctx, entities.ScopeDoctorUsers, key, value); err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to seed doctor")
		}
	}

	// 3. Registered patients
	patients := []entities.PatientRecord{
		{OwnerKey: "student_kim", Name: "홍길동", PatientID: "1234", Departments: entities.DepartmentFlags{entities.DeptOralSurgery: true}},
		{OwnerKey: "student_kim", Name: "성춘향", PatientID: "00005678", Departments: entities.DepartmentFlags{entities.DeptPediatric: true}},
		{OwnerKey: "student_lee", Name: "이몽룡", PatientID: "42", Departments: entities.DepartmentFlags{entities.DeptConservative: true, entities.DeptProsthodontics: true}},
	}
	for _, p := range patients {
		if err := registry.Set(ctx, entities.PatientScope(p.OwnerKey), p.PatientID, entities.EncodePatientRecord(p)); err != nil {
			log.Error().Err(err).Str("owner", p.OwnerKey).Str("patient", p.PatientID).Msg("failed to seed patient")
		}
	}

	log.Info().
		Int("users", len(users)).
		Int("doctors", len(doctors)).
		Int("patients", len(patients)).
		Msg("seeding completed")
}
