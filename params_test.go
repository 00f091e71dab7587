package modelswitch

import (
	"errors"
	"testing"
)

func TestValidateRequestParams_Temperature(t *testing.T) {
	tests := []struct {
		name        string
		temperature *float64
		wantErr     bool
	}{
		{"nil temperature is valid", nil, false},
		{"temperature 0.0", float64Ptr(0.0), false},
		{"temperature 0.7", float64Ptr(0.7), false},
		{"temperature 2.0", float64Ptr(2.0), false},
		{"temperature -0.1 is invalid", float64Ptr(-0.1), true},
		{"temperature 2.1 is invalid", float64Ptr(2.1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := &RequestParams{
				Temperature: tt.temperature,
			}
			err := ValidateRequestParams(params)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequestParams() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil && !IsInvalidConfig(err) {
				t.Error("validation error should be classified as invalid config")
			}
		})
	}
}

func TestValidateRequestParams_TopPTopK(t *testing.T) {
	tests := []struct {
		name    string
		params  *RequestParams
		wantErr bool
	}{
		{"nil params", nil, false},
		{"topP 0.0", &RequestParams{TopP: float64Ptr(0.0)}, false},
		{"topP 1.0", &RequestParams{TopP: float64Ptr(1.0)}, false},
		{"topP 1.1 is invalid", &RequestParams{TopP: float64Ptr(1.1)}, true},
		{"topK 0", &RequestParams{TopK: intPtr(0)}, false},
		{"topK 40", &RequestParams{TopK: intPtr(40)}, false},
		{"topK -1 is invalid", &RequestParams{TopK: intPtr(-1)}, true},
		{"stop sequences", &RequestParams{Stop: []string{"\n\n", "Question:"}}, false},
		{"empty stop sequence is invalid", &RequestParams{Stop: []string{""}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequestParams(tt.params)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRequestParams() error = %v, wantErr %v", err, tt.wantErr)
			}
			var ve *ValidationError
			if err != nil && !errors.As(err, &ve) {
				t.Errorf("expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestRequestParams_Getters(t *testing.T) {
	var nilParams *RequestParams
	if got := nilParams.GetTemperature(DefaultTemperature); got != DefaultTemperature {
		t.Errorf("nil GetTemperature() = %v", got)
	}
	if got := nilParams.GetStop(); got != nil {
		t.Errorf("nil GetStop() = %v", got)
	}

	p := &RequestParams{Temperature: float64Ptr(0.2), TopP: float64Ptr(0.9), TopK: intPtr(20)}
	if p.GetTemperature(DefaultTemperature) != 0.2 || p.GetTopP(1) != 0.9 || p.GetTopK(0) != 20 {
		t.Errorf("getters ignored set values: %+v", p)
	}
}
