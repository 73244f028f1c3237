package pdfext

import (
	"strings"
	"testing"
)

func TestDetectScanned(t *testing.T) {
	textPage := Page{Text: strings.Repeat("consolidated statements of operations ", 10)}
	blankPage := Page{Text: "  3  "}

	tests := []struct {
		name    string
		pages   []Page
		wantErr bool
	}{
		{"no pages", nil, false},
		{"all text", []Page{textPage, textPage, textPage}, false},
		{"all blank", []Page{blankPage, blankPage, blankPage}, true},
		{"mostly blank", []Page{textPage, blankPage, blankPage, blankPage, blankPage, blankPage}, true},
		{"at threshold", []Page{textPage, blankPage, blankPage, blankPage, blankPage,
			blankPage, blankPage, blankPage, blankPage, textPage}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DetectScanned(tt.pages, DefaultScannedThreshold, DefaultMinChars)
			if (err != nil) != tt.wantErr {
				t.Errorf("DetectScanned() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDetectScannedErrorMentionsOCR(t *testing.T) {
	err := DetectScanned([]Page{{Text: ""}}, DefaultScannedThreshold, DefaultMinChars)
	if err == nil || !strings.Contains(err.Error(), "OCR") {
		t.Errorf("error should name the OCR limitation, got %v", err)
	}
}
