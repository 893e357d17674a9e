package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractContainer(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantID     string
		wantLabel  string
		minConf    float64
		maxConf    float64
		wantCheck  bool
		wantPlaceh string
	}{
		{
			name:      "label with spaced and dashed serial",
			text:      "Container No. MRSU 345-2572",
			wantID:    "MRSU3452572",
			wantLabel: "container_no",
			minConf:   0.9,
			maxConf:   1,
			wantCheck: true,
		},
		{
			name:      "equipment label with colon",
			text:      "Shipper: ACME\nEquipment No.: CSQU3054383\nSeal: 123",
			wantID:    "CSQU3054383",
			wantLabel: "equipment_no",
			minConf:   0.9,
			maxConf:   1,
			wantCheck: true,
		},
		{
			name:      "label on its own line with value below",
			text:      "Container No.\nTGHU8765436\n40HC",
			wantID:    "TGHU8765436",
			wantLabel: "container_no",
			minConf:   0.9,
			maxConf:   1,
			wantCheck: true,
		},
		{
			name:      "labeled with bad check digit keeps shape confidence",
			text:      "Unit No: MSKU1234560",
			wantID:    "MSKU1234560",
			wantLabel: "unit_no",
			minConf:   0.9,
			maxConf:   0.91,
		},
		{
			name:      "unlabeled valid identifier is mid confidence",
			text:      "Goods stuffed into MRSU3452572 at origin",
			wantID:    "MRSU3452572",
			minConf:   0.5,
			maxConf:   0.8,
			wantCheck: true,
		},
		{
			name:    "unlabeled with bad check digit",
			text:    "ref MSKU1234560",
			wantID:  "MSKU1234560",
			minConf: 0.5,
			maxConf: 0.65,
		},
		{
			name:       "placeholder only",
			text:       "Container No.: BECKMANN-CNT-001",
			minConf:    0,
			maxConf:    0.49,
			wantPlaceh: "BECKMANN-CNT-001",
		},
		{
			name:    "nothing recognizable",
			text:    "Bill of lading for 20 pallets of coffee",
			minConf: 0,
			maxConf: 0,
		},
		{
			name:    "empty text",
			text:    "",
			minConf: 0,
			maxConf: 0,
		},
		{
			name:    "identifier glued to a longer reference is ignored",
			text:    "Booking XMRSU34525729",
			minConf: 0,
			maxConf: 0,
		},
		{
			name:      "full-width characters are folded",
			text:      "Container No. ＭＲＳＵ３４５２５７２",
			wantID:    "MRSU3452572",
			wantLabel: "container_no",
			minConf:   0.9,
			maxConf:   1,
			wantCheck: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractContainer(tt.text)
			assert.Equal(t, tt.wantID, got.ContainerID)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.Equal(t, tt.wantCheck, got.CheckDigitValid)
			assert.Equal(t, tt.wantPlaceh, got.Placeholder)
			assert.GreaterOrEqual(t, got.Confidence, tt.minConf)
			assert.LessOrEqual(t, got.Confidence, tt.maxConf)
		})
	}
}

func TestExtractContainerLabeledBeatsEarlierBare(t *testing.T) {
	text := "Previous leg TGHU8765436\nContainer No. MRSU3452572"

	got := ExtractContainer(text)

	assert.Equal(t, "MRSU3452572", got.ContainerID)
	assert.Equal(t, "container_no", got.Label)
}

func TestExtractContainerFirstLabeledWins(t *testing.T) {
	text := "Container No. MRSU3452572\nfreight prepaid\nContainer No. TGHU8765436"

	got := ExtractContainer(text)

	assert.Equal(t, "MRSU3452572", got.ContainerID)
}

func TestExtractContainerRealIDBeatsPlaceholder(t *testing.T) {
	text := "Old ref BECKMANN-CNT-001\nContainer No. MRSU3452572"

	got := ExtractContainer(text)

	assert.Equal(t, "MRSU3452572", got.ContainerID)
	assert.Empty(t, got.Placeholder)
}

func TestExtractContainerDeterministic(t *testing.T) {
	text := "Container No. MRSU 345-2572\nEquipment No. TGHU8765436"
	first := ExtractContainer(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ExtractContainer(text))
	}
}

func TestSuggestible(t *testing.T) {
	strong := ExtractContainer("Container No. MRSU3452572")
	weak := ExtractContainer("MRSU3452572")
	none := ExtractContainer("BECKMANN-CNT-001")

	assert.True(t, strong.Suggestible(SuggestionThreshold))
	assert.False(t, weak.Suggestible(SuggestionThreshold))
	assert.False(t, none.Suggestible(SuggestionThreshold))
	assert.False(t, none.Found())
}

func TestNormalizeContainerID(t *testing.T) {
	assert.Equal(t, "MRSU3452572", NormalizeContainerID(" mrsu 345-2572 "))
	assert.Equal(t, "MRSU3452572", NormalizeContainerID("MRSU\t345–2572"))
}

func TestValidCheckDigit(t *testing.T) {
	for _, id := range []string{"CSQU3054383", "MRSU3452572", "TGHU8765436", "MSKU1234565"} {
		assert.True(t, ValidCheckDigit(id), id)
	}
	for _, id := range []string{"CSQU3054384", "MSKU1234560", "CSQU305438", "1234CSQU305"} {
		assert.False(t, ValidCheckDigit(id), id)
	}
}

func FuzzExtractContainer(f *testing.F) {
	f.Add("Container No. MRSU 345-2572")
	f.Add("BECKMANN-CNT-001")
	f.Add("Equipment No.\n\n")
	f.Add("")
	f.Fuzz(func(t *testing.T, text string) {
		got := ExtractContainer(text)
		require.GreaterOrEqual(t, got.Confidence, 0.0)
		require.LessOrEqual(t, got.Confidence, 1.0)
		if got.Found() {
			require.True(t, ValidContainerShape(got.ContainerID), got.ContainerID)
		} else {
			require.Less(t, got.Confidence, 0.5)
		}
	})
}
