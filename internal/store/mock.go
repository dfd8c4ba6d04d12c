package store

import (
	"fjacquet/txmerge/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockCategoryStore is a testify mock of Store.
type MockCategoryStore struct {
	mock.Mock
}

var _ Store = (*MockCategoryStore)(nil)

func (m *MockCategoryStore) LoadMappings() (map[string]string, error) {
	args := m.Called()
	mappings, _ := args.Get(0).(map[string]string)
	return mappings, args.Error(1)
}

func (m *MockCategoryStore) SaveMappings(mappings map[string]string) error {
	return m.Called(mappings).Error(0)
}

func (m *MockCategoryStore) ImportMappings(path string) (ImportStats, error) {
	args := m.Called(path)
	stats, _ := args.Get(0).(ImportStats)
	return stats, args.Error(1)
}

func (m *MockCategoryStore) LoadIgnoreList() ([]string, error) {
	args := m.Called()
	entries, _ := args.Get(0).([]string)
	return entries, args.Error(1)
}

func (m *MockCategoryStore) LoadRules() (*models.RulesDocument, error) {
	args := m.Called()
	doc, _ := args.Get(0).(*models.RulesDocument)
	return doc, args.Error(1)
}

func (m *MockCategoryStore) LoadVendorAliases() (map[string]string, error) {
	args := m.Called()
	aliases, _ := args.Get(0).(map[string]string)
	return aliases, args.Error(1)
}
