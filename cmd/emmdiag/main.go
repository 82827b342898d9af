package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/star/emmproc/internal/config"
	"github.com/star/emmproc/internal/geomag"
	"github.com/star/emmproc/internal/model"
	"github.com/star/emmproc/internal/query"
	"github.com/star/emmproc/internal/temporal"
)

// emmdiag prints the loaded epoch table and the field at a reference point
// for every epoch. Optional arguments are a height reference, altitude,
// latitude and longitude in the emmproc query format.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load(logger)
	if err != nil {
		fmt.Println("ERROR loading config:", err)
		os.Exit(1)
	}

	repo, err := model.Load(os.DirFS(cfg.ModelDir), cfg.ModelConfig(), logger)
	if err != nil {
		fmt.Println("ERROR loading models:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d epochs from %s, valid %.1f to %.1f\n", repo.Len(), cfg.ModelDir, repo.MinYear(), repo.MaxYear())

	for i := 0; i < repo.Len(); i++ {
		m := repo.At(i)
		fmt.Printf("  %2d: %-12s epoch %.1f  nmax %d  nmax_sv %d\n", i, m.Name, m.Epoch, m.NMax, m.NMaxSecVar)
	}

	sel := temporal.NewSelector(repo)
	ev := geomag.NewEvaluator(nil, logger)

	// The date token is a placeholder; each epoch supplies its own year.
	q, err := query.Parse(append([]string{strconv.FormatFloat(repo.MinYear(), 'f', 1, 64)}, os.Args[1:]...), query.ModeSingle)
	if err != nil {
		fmt.Println("ERROR parsing reference point:", err)
		os.Exit(1)
	}
	point := geomag.Point{
		LatDeg:   q.Lat,
		LonDeg:   q.Lon,
		HeightKm: q.Altitude.Km,
		AboveMSL: q.HeightRef == query.MeanSeaLevel,
	}

	fmt.Println("\nReference point evaluation:")
	for i := 0; i < repo.Len(); i++ {
		epoch := repo.At(i).Epoch
		el := ev.Evaluate(sel.SelectFor(epoch), point)
		fmt.Printf("  %.1f: D=%.2f° I=%.2f° H=%.1f X=%.1f Y=%.1f Z=%.1f F=%.1f nT\n",
			epoch, el.Decl, el.Incl, el.H, el.X, el.Y, el.Z, el.F)
	}
}
