package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"finrep/pkg/core/config"
	"finrep/pkg/core/extract"
	"finrep/pkg/models"
)

type memorySink struct {
	reports []EntityReport
	fail    bool
}

func (m *memorySink) Save(_ context.Context, reports []EntityReport) error {
	if m.fail {
		return errors.New("sink unavailable")
	}
	m.reports = reports
	return nil
}

func writeXML(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("<xml/>"), 0644); err != nil {
			t.Fatalf("writing fixture %s: %v", name, err)
		}
	}
}

// pathExtractor derives the record from the file path, so tests can
// observe which catalogued file the pipeline chose.
func pathExtractor() extract.Extractor {
	return extract.Func(func(_ context.Context, path string) (*models.StatementRecord, error) {
		name := filepath.Base(path)
		rec := &models.StatementRecord{
			TIN:    name[:8],
			Y:      2024,
			M:      12,
			FormID: models.FormShortReport,
			Lines:  map[string]float64{"R2000G3": 1000, "R2050G3": -400},
		}
		if strings.Contains(name, "S01002") {
			rec.SetLine("R2120G3", 50)
		}
		return rec, nil
	})
}

func TestRunMicro(t *testing.T) {
	dir := t.TempDir()
	writeXML(t, dir,
		"11111111_26_2024-06-30 09_00_00.xml",
		"11111111_26_2024-12-31 09_00_00.xml", // later filing wins
		"22222222_46_2024-12-31 09_00_00.xml",
		"33333333_99_2024-12-31 09_00_00.xml", // region filtered
	)
	cfg := &config.Config{
		Regions:   []string{"26", "46"},
		BatchSize: 50,
		MicroDir:  dir,
	}
	sink := &memorySink{}

	summary, err := NewOrchestrator(cfg, pathExtractor(), sink).RunMicro(context.Background())
	if err != nil {
		t.Fatalf("RunMicro: %v", err)
	}
	if summary.Targets != 2 || summary.Succeeded != 2 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want 2 targets, 2 succeeded", summary)
	}
	if summary.RunID == "" {
		t.Error("RunID must be set")
	}
	if summary.CatalogStats.RegionFiltered != 1 {
		t.Errorf("RegionFiltered = %d, want 1", summary.CatalogStats.RegionFiltered)
	}

	if len(sink.reports) != 2 {
		t.Fatalf("sink got %d reports, want 2", len(sink.reports))
	}
	// Reports arrive in entity order regardless of map iteration.
	if sink.reports[0].TIN != "11111111" || sink.reports[1].TIN != "22222222" {
		t.Errorf("report order: %s, %s", sink.reports[0].TIN, sink.reports[1].TIN)
	}
	r := sink.reports[0]
	if r.Period != "2024_12" {
		t.Errorf("Period = %q, want 2024_12", r.Period)
	}
	// Metrics computed from the extracted lines: 1000 - |-400| = 600.
	if r.Metrics == nil || r.Metrics.OperatingProfit != 600 {
		t.Errorf("Metrics.OperatingProfit = %v, want 600", r.Metrics)
	}
}

func TestRunPairedMergesForms(t *testing.T) {
	f1 := t.TempDir()
	f2 := t.TempDir()
	writeXML(t, f1, "11111111_26_S0100113_2024-12-31 09_00_00.xml")
	writeXML(t, f2, "11111111_26_S0100213_2024-12-31 09_00_00.xml")
	cfg := &config.Config{
		Regions:   config.DefaultRegions,
		BatchSize: 50,
		Form1Dir:  f1,
		Form2Dir:  f2,
	}
	sink := &memorySink{}

	summary, err := NewOrchestrator(cfg, pathExtractor(), sink).RunPaired(context.Background())
	if err != nil {
		t.Fatalf("RunPaired: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("summary = %+v, want 1 success", summary)
	}
	// The income-statement arm set R2120G3; the merge must carry it.
	if got := sink.reports[0].Record.Line("R2120G3"); got != 50 {
		t.Errorf("merged R2120G3 = %f, want 50", got)
	}
}

func TestRunMicroFailuresDoNotAbort(t *testing.T) {
	dir := t.TempDir()
	writeXML(t, dir,
		"11111111_26_2024-12-31 09_00_00.xml",
		"22222222_26_2024-12-31 09_00_00.xml",
	)
	ext := extract.Func(func(_ context.Context, path string) (*models.StatementRecord, error) {
		if strings.Contains(path, "11111111") {
			return nil, errors.New("corrupt file")
		}
		return &models.StatementRecord{TIN: "22222222", Y: 2024, M: 12, Lines: map[string]float64{}}, nil
	})
	cfg := &config.Config{Regions: config.DefaultRegions, BatchSize: 50, MicroDir: dir}
	sink := &memorySink{}

	summary, err := NewOrchestrator(cfg, ext, sink).RunMicro(context.Background())
	if err != nil {
		t.Fatalf("RunMicro: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Errorf("tally = %d/%d, want 1/1", summary.Succeeded, summary.Failed)
	}
	if len(sink.reports) != 1 {
		t.Errorf("sink got %d reports, want only the surviving entity", len(sink.reports))
	}
}

func TestRunMicroSinkErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	writeXML(t, dir, "11111111_26_2024-12-31 09_00_00.xml")
	cfg := &config.Config{Regions: config.DefaultRegions, BatchSize: 50, MicroDir: dir}

	_, err := NewOrchestrator(cfg, pathExtractor(), &memorySink{fail: true}).RunMicro(context.Background())
	if err == nil {
		t.Fatal("expected sink failure to propagate")
	}
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	sink := &FileSink{Path: path}
	reports := []EntityReport{{TIN: "11111111", Period: "2024_12"}}
	if err := sink.Save(context.Background(), reports); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	var back []EntityReport
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}
	if len(back) != 1 || back[0].TIN != "11111111" {
		t.Errorf("artifact = %+v", back)
	}
}
