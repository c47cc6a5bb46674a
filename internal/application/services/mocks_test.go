package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/happyroy1004/ocs-patient-alert-sub000/internal/domain/entities"
)

type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) Send(ctx context.Context, msg *entities.MailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockCalendarProvider struct {
	mock.Mock
}

func (m *MockCalendarProvider) CreateEvent(ctx context.Context, token *entities.CalendarToken, event *entities.CalendarEvent) error {
	args := m.Called(ctx, token, event)
	return args.Error(0)
}

type MockRegistryRepository struct {
	mock.Mock
}

func (m *MockRegistryRepository) Get(ctx context.Context, scope, key string) (map[string]interface{}, error) {
	args := m.Called(ctx, scope, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func (m *MockRegistryRepository) Children(ctx context.Context, scope string) (map[string]map[string]interface{}, error) {
	args := m.Called(ctx, scope)
	if fn, ok := args.Get(0).(func(context.Context, string) map[string]map[string]interface{}); ok {
		return fn(ctx, scope), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]map[string]interface{}), args.Error(1)
}

func (m *MockRegistryRepository) Set(ctx context.Context, scope, key string, value map[string]interface{}) error {
	return m.Called(ctx, scope, key, value).Error(0)
}

func (m *MockRegistryRepository) Update(ctx context.Context, scope, key string, fields map[string]interface{}) error {
	return m.Called(ctx, scope, key, fields).Error(0)
}

func (m *MockRegistryRepository) Delete(ctx context.Context, scope, key string) error {
	return m.Called(ctx, scope, key).Error(0)
}

type MockAnalysisRepository struct {
	mock.Mock
}

func (m *MockAnalysisRepository) Save(ctx context.Context, record *entities.AnalysisRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockAnalysisRepository) GetLatest(ctx context.Context) (*entities.AnalysisRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AnalysisRecord), args.Error(1)
}

type MockSpreadsheetLoader struct {
	mock.Mock
}

func (m *MockSpreadsheetLoader) Load(ctx context.Context, fileName string, data []byte) (*entities.Workbook, error) {
	args := m.Called(ctx, fileName, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Workbook), args.Error(1)
}

type MockDecryptor struct {
	mock.Mock
}

func (m *MockDecryptor) Decrypt(data []byte, password string) ([]byte, error) {
	args := m.Called(data, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// stubClassifier is a fixed FileClassifier.
type stubClassifier struct {
	daily     bool
	encrypted bool
}

func (c stubClassifier) IsDailySchedule(string) bool { return c.daily }
func (c stubClassifier) IsEncrypted([]byte) bool     { return c.encrypted }

// newRegistry returns a registry mock serving the given scopes. Scopes not
// listed are empty.
func newRegistry(scopes map[string]map[string]map[string]interface{}) *MockRegistryRepository {
	repo := new(MockRegistryRepository)
	repo.On("Children", mock.Anything, mock.AnythingOfType("string")).Return(
		func(_ context.Context, scope string) map[string]map[string]interface{} {
			if children, ok := scopes[scope]; ok {
				return children
			}
			return map[string]map[string]interface{}{}
		},
		nil,
	)
	return repo
}
