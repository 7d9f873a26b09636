package stats

import "testing"

func TestTableLinesAlignsColumns(t *testing.T) {
	table := Table{
		Headers: []string{"Day", "Pages", "Speed"},
		Rows: [][]string{
			{"2024-01-01", "30", "261.82"},
			{"2024-01-03", "10", "120.00"},
		},
		Right: map[int]bool{1: true, 2: true},
	}
	lines := table.Lines()
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if lines[0] != "Day        Pages  Speed" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "────────── ───── ──────" {
		t.Fatalf("unexpected rule line: %q", lines[1])
	}
	if lines[2] != "2024-01-01    30 261.82" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestTableLinesUsesDisplayWidth(t *testing.T) {
	table := Table{
		Headers: []string{"Title", "N"},
		Rows: [][]string{
			{"日本", "1"},
			{"abcd", "2"},
		},
		Right: map[int]bool{1: true},
	}
	lines := table.Lines()
	if lines[2] != "日本  1" {
		t.Fatalf("wide runes should count double: %q", lines[2])
	}
	if lines[3] != "abcd  2" {
		t.Fatalf("unexpected row line: %q", lines[3])
	}
}

func TestTableLinesEmpty(t *testing.T) {
	if lines := (Table{}).Lines(); lines != nil {
		t.Fatalf("expected nil, got %q", lines)
	}
}
