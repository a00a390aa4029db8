package components

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTabAtXMatchesRenderedWidths(t *testing.T) {
	for active := range Tabs {
		pos := 0
		for i, tab := range Tabs {
			w := TabVisualWidth(tab, i == active)
			x := pos + w/2
			if got := TabAtX(x, active); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w + 1
		}
		if got := TabAtX(pos+5, active); got != -1 {
			t.Errorf("TabAtX past last tab = %d, want -1", got)
		}
	}
}

func TestRenderTabBarWidth(t *testing.T) {
	for active := range Tabs {
		bar := RenderTabBar(active, 80)
		if w := lipgloss.Width(bar); w != 80 {
			t.Errorf("active=%d: width = %d, want 80", active, w)
		}
	}
}

func TestTabIdxByKey(t *testing.T) {
	if got := TabIdxByKey('f'); got != 2 {
		t.Errorf("TabIdxByKey('f') = %d, want 2", got)
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Errorf("TabIdxByKey('z') = %d, want -1", got)
	}
}
