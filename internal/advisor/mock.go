package advisor

import (
	"context"

	"github.com/ENACT/enact/internal/models"
)

// MockGenerator is a test implementation of Generator.
type MockGenerator struct {
	Text  string
	Model string
	Err   error

	Calls int
}

// Advise returns the canned response.
func (m *MockGenerator) Advise(ctx context.Context, currentGrams float64, thresholdType models.ThresholdType, limitGrams float64) (string, string, error) {
	m.Calls++
	if m.Err != nil {
		return "", "", m.Err
	}
	return m.Text, m.Model, nil
}
