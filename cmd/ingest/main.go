// Command ingest builds a knowledge base snapshot from the raw dataset
// tables. Run it offline whenever the source data changes; the server only
// reads the snapshot it produces.
//
// Usage:
//
//	ingest -grid dataset.csv -severity Symptom-severity.csv \
//	       -specialties medical_specialties.csv -departments departments.csv \
//	       [-precautions symptom_precaution.csv] -out medbot.db
//
// CSV and XLSX inputs are both accepted, selected by file extension.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/medbotorg/medbot/ingest"
)

func main() {
	grid := flag.String("grid", "", "Disease/symptom grid (CSV or XLSX)")
	severity := flag.String("severity", "", "Symptom severity table (CSV or XLSX)")
	specialties := flag.String("specialties", "", "Disease-to-specialty mapping (CSV or XLSX)")
	departments := flag.String("departments", "", "Department list (CSV or XLSX)")
	precautions := flag.String("precautions", "", "Optional precautions table (CSV or XLSX)")
	out := flag.String("out", "medbot.db", "Output snapshot path")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	if *grid == "" || *severity == "" || *specialties == "" || *departments == "" {
		flag.Usage()
		os.Exit(2)
	}

	err := ingest.Run(ingest.Sources{
		DiseaseGrid: *grid,
		Severity:    *severity,
		Specialties: *specialties,
		Departments: *departments,
		Precautions: *precautions,
	}, *out)
	if err != nil {
		slog.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}
