package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exportdocs/internal/extraction"
	id "exportdocs/pkg/domain"
)

func TestCheckFormat(t *testing.T) {
	tests := []struct {
		name    string
		docType id.DocumentType
		text    string
		pass    bool
	}{
		{"empty text fails", id.DocumentCertificateOfOrigin, "   \n", false},
		{"bill of lading with container passes", id.DocumentBillOfLading, "Container No. MRSU3452572", true},
		{"bill of lading with placeholder passes", id.DocumentBillOfLading, "Container: BECKMANN-CNT-001", true},
		{"bill of lading without container fails", id.DocumentBillOfLading, "Shipper: ACME", false},
		{"due diligence with reference passes", id.DocumentDueDiligence, "DDS No. DDS-2026-0042", true},
		{"due diligence without reference fails", id.DocumentDueDiligence, "we promise", false},
		{"invoice with weight passes", id.DocumentCommercialInvoice, "Net Weight: 10 kg", true},
		{"packing list without weight fails", id.DocumentPackingList, "20 cartons", false},
		{"other types need text only", id.DocumentVeterinaryCertificate, "healthy animals", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docID := id.NewDocumentID()
			issues := CheckFormat(docID, tt.docType, tt.text, extraction.ParseFields(tt.docType, tt.text))
			if tt.pass {
				assert.Empty(t, issues)
				return
			}
			require.NotEmpty(t, issues)
			assert.Equal(t, RuleFormat, issues[0].RuleID)
			assert.True(t, issues[0].Implicates(docID))
		})
	}
}
