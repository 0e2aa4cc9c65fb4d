package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/kwradar/kwradar/internal/core"
)

func TestParseSources(t *testing.T) {
	cases := []struct {
		names   []string
		want    int
		wantErr bool
	}{
		{[]string{"autocomplete", "trends"}, 2, false},
		{[]string{"Reddit", " youtube "}, 2, false},
		{[]string{"", "reddit"}, 1, false},
		{[]string{"bing"}, 0, true},
		{[]string{}, 0, true},
		{[]string{""}, 0, true},
	}

	for _, tc := range cases {
		sources, err := parseSources(tc.names)
		if tc.wantErr && err == nil {
			t.Fatalf("expected error for %v", tc.names)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("unexpected error for %v: %v", tc.names, err)
		}
		if len(sources) != tc.want {
			t.Fatalf("expected %d sources for %v, got %d", tc.want, tc.names, len(sources))
		}
	}
}

func TestCollectSeedsDedupesAndReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seeds.txt")
	content := "# comment\nhome espresso\n\nCold Brew\nhome espresso\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := &cobra.Command{}
	cmd.Flags().String("file", path, "")

	seeds, err := collectSeeds(cmd, []string{"Home Espresso", "matcha"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"home espresso", "matcha", "cold brew"}
	if len(seeds) != len(want) {
		t.Fatalf("expected %d seeds, got %d: %v", len(want), len(seeds), seeds)
	}
	for i, seed := range want {
		if seeds[i] != seed {
			t.Fatalf("expected seed %d to be %q, got %q", i, seed, seeds[i])
		}
	}
}

func TestCollectSeedsRequiresInput(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("file", "", "")

	if _, err := collectSeeds(cmd, nil); err == nil {
		t.Fatal("expected error for empty seed list")
	}
}

func TestThrottleSeverityLabel(t *testing.T) {
	if got := throttleSeverityLabel(core.SourceTrends); got != "high" {
		t.Fatalf("expected high for trends, got %q", got)
	}
	if got := throttleSeverityLabel(core.SourceReddit); got != "medium" {
		t.Fatalf("expected medium for reddit, got %q", got)
	}
}
