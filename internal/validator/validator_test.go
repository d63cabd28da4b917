package validator_test

import (
	"chatapp-client/internal/validator"
	"fmt"
	"strings"
	"testing"
)

type embed struct {
	Title string `validate:"max=5"`
}

type request struct {
	Content string  `validate:"max=10"`
	Target  string  `validate:"required"`
	URL     string  `validate:"omitempty,url"`
	Embeds  []embed `validate:"max=2,dive"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name          string
		input         request
		expectedError error
	}{
		// valid cases
		{
			name:          "Valid: Minimal request",
			input:         request{Target: "x"},
			expectedError: nil,
		},
		{
			name:          "Valid: Maximum content length",
			input:         request{Target: "x", Content: strings.Repeat("a", 10)},
			expectedError: nil,
		},
		{
			name:          "Valid: With url and embeds",
			input:         request{Target: "x", URL: "https://example.com", Embeds: []embed{{Title: "ok"}}},
			expectedError: nil,
		},

		// invalid cases
		{
			name:          "Error: Content too long",
			input:         request{Target: "x", Content: strings.Repeat("a", 11)},
			expectedError: fmt.Errorf("content_max"),
		},
		{
			name:          "Error: Missing target",
			input:         request{},
			expectedError: fmt.Errorf("target_required"),
		},
		{
			name:          "Error: Bad url",
			input:         request{Target: "x", URL: "not a url"},
			expectedError: fmt.Errorf("url_url"),
		},
		{
			name:          "Error: Too many embeds",
			input:         request{Target: "x", Embeds: make([]embed, 3)},
			expectedError: fmt.Errorf("embeds_max"),
		},
		{
			name:          "Error: Embed title too long",
			input:         request{Target: "x", Embeds: []embed{{Title: "toolong"}}},
			expectedError: fmt.Errorf("embeds_0_title_max"),
		},
		{
			name:          "Error: Multiple Violations",
			input:         request{Content: strings.Repeat("a", 11)},
			expectedError: fmt.Errorf("content_max,target_required"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.Struct(tc.input)

			if tc.expectedError == nil {
				if err != nil {
					t.Errorf("Struct(%+v) failed unexpectedly: got error %v, want nil", tc.input, err)
				}
				return
			}

			if err == nil {
				t.Errorf("Struct(%+v) passed unexpectedly: got nil, want error %v", tc.input, tc.expectedError)
				return
			}

			if err.Error() != tc.expectedError.Error() {
				t.Errorf("Struct(%+v) got error %q, want error %q", tc.input, err.Error(), tc.expectedError.Error())
			}
		})
	}
}
