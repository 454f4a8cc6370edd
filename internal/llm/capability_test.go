package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchema_Validate_MissingRequiredField(t *testing.T) {
	s := Schema{Required: []string{"reportingFrequency"}}

	err := s.Validate(map[string]interface{}{})

	require := assert.New(t)
	require.NotNil(err)
	require.Equal("reportingFrequency", err.Path)
}

func TestSchema_Validate_EnumFieldOutOfRange(t *testing.T) {
	s := Schema{EnumFields: map[string][]string{"family": {"physical-fundamental", "temporal"}}}

	err := s.Validate(map[string]interface{}{"family": "not-a-real-family"})

	assert.NotNil(t, err)
	assert.Equal(t, "family", err.Path)
}

func TestSchema_Validate_PassesWhenConforming(t *testing.T) {
	s := Schema{
		Required:   []string{"family"},
		EnumFields: map[string][]string{"family": {"physical-fundamental", "temporal"}},
	}

	err := s.Validate(map[string]interface{}{"family": "temporal"})

	assert.Nil(t, err)
}
