package models

import "testing"

func TestStatus(t *testing.T) {
	t.Run("IsTerminal", func(t *testing.T) {
		tc := map[Status]bool{
			StatusStarting:  false,
			StatusCloning:   false,
			StatusCompleted: true,
			StatusFailed:    true,
		}
		for s, want := range tc {
			if got := s.IsTerminal(); got != want {
				t.Errorf("%s.IsTerminal() = %v, want %v", s, got, want)
			}
		}
	})

	t.Run("CanTransition", func(t *testing.T) {
		tc := []struct {
			from, to Status
			want     bool
		}{
			{StatusStarting, StatusCloning, true},
			{StatusStarting, StatusFailed, true},
			{StatusStarting, StatusCompleted, false},
			{StatusCloning, StatusCompleted, true},
			{StatusCloning, StatusFailed, true},
			{StatusCloning, StatusStarting, false},
			{StatusCompleted, StatusFailed, false},
			{StatusFailed, StatusCloning, false},
			{StatusFailed, StatusFailed, false},
		}
		for _, tt := range tc {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		}
	})
}

func TestPercentage(t *testing.T) {
	tc := []struct {
		name             string
		completed, total int
		want             float64
	}{
		{"unknown total", 5, 0, 0},
		{"nothing done", 0, 4, 0},
		{"three quarters", 3, 4, 75},
		{"done", 4, 4, 100},
		{"overshoot after tree grew", 5, 4, 125},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentage(tt.completed, tt.total); got != tt.want {
				t.Errorf("Percentage(%d, %d) = %v, want %v", tt.completed, tt.total, got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(FolderMimeType) != KindFolder {
		t.Error("expected folder mime type to map to KindFolder")
	}
	if KindOf("application/pdf") != KindFile {
		t.Error("expected other mime types to map to KindFile")
	}
	if !(Node{Kind: KindFolder}).IsFolder() {
		t.Error("expected folder node to report IsFolder")
	}
}
