package pdu

import "testing"

func TestLogicalUnitPartitionIsExact(t *testing.T) {
	var seen [LineCount]bool
	total := 0
	for lu := LogicalUnit(0); lu < logicalUnitCount; lu++ {
		first, last, err := Lines(lu)
		if err != nil {
			t.Fatalf("Lines(%d): %v", lu, err)
		}
		for i := first; i <= last; i++ {
			if seen[i] {
				t.Fatalf("line %d claimed by more than one logical unit", i)
			}
			seen[i] = true
			total++
		}
	}
	if total != LineCount {
		t.Fatalf("partition covers %d lines, want %d", total, LineCount)
	}
	for i, ok := range seen {
		if !ok {
			t.Fatalf("line %d not covered by any logical unit", i)
		}
	}
}

func TestLinesUnknownLogicalUnit(t *testing.T) {
	if _, _, err := Lines(logicalUnitCount); err != ErrUnknownLogicalUnit {
		t.Fatalf("got err %v, want ErrUnknownLogicalUnit", err)
	}
}

func TestThermalFlybackIsLogicalUnitEight(t *testing.T) {
	first, last, err := Lines(LUThermalFlyback)
	if err != nil {
		t.Fatal(err)
	}
	if first != 69 || last != 70 {
		t.Fatalf("Thermal/Flyback = [%d,%d], want [69,70]", first, last)
	}
	if LUThermalFlyback != 8 {
		t.Fatalf("LUThermalFlyback = %d, want 8", LUThermalFlyback)
	}
}
