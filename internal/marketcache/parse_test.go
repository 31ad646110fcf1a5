package marketcache

import "testing"

func TestParseValuationTextTabSeparated(t *testing.T) {
	lines := ParseValuationText("Tritanium\t1000\nPyerite\t250")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Name != "Tritanium" || lines[0].Quantity != 1000 {
		t.Errorf("unexpected first line: %+v", lines[0])
	}
	if lines[1].Name != "Pyerite" || lines[1].Quantity != 250 {
		t.Errorf("unexpected second line: %+v", lines[1])
	}
}

func TestParseValuationTextInventoryStyleWithThousandsSeparator(t *testing.T) {
	lines := ParseValuationText("Tritanium    Quantity: 1,234,567")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Name != "Tritanium" {
		t.Errorf("expected name Tritanium, got %q", lines[0].Name)
	}
	if lines[0].Quantity != 1234567 {
		t.Errorf("expected quantity 1234567, got %d", lines[0].Quantity)
	}
}

func TestParseValuationTextMultiBuy(t *testing.T) {
	lines := ParseValuationText("Veldspar x42\nScordite x1,500")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Name != "Veldspar" || lines[0].Quantity != 42 {
		t.Errorf("unexpected first line: %+v", lines[0])
	}
	if lines[1].Name != "Scordite" || lines[1].Quantity != 1500 {
		t.Errorf("unexpected second line: %+v", lines[1])
	}
}

func TestParseValuationTextSkipsBlankLines(t *testing.T) {
	lines := ParseValuationText("Tritanium\t10\n\n\nPyerite\t20\n")
	if len(lines) != 2 {
		t.Fatalf("expected blank lines skipped, got %d lines", len(lines))
	}
}

func TestParseValuationTextBareNameDefaultsToQuantityOne(t *testing.T) {
	lines := ParseValuationText("Tritanium")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Quantity != 1 {
		t.Errorf("expected default quantity 1, got %d", lines[0].Quantity)
	}
}
