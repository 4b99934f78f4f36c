package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/anisocore/metricadapt/internal/adapt"
	"github.com/anisocore/metricadapt/internal/config"
	"github.com/anisocore/metricadapt/internal/diagnostics"
	"github.com/anisocore/metricadapt/internal/field"
	"github.com/anisocore/metricadapt/internal/meshfixture"
	"github.com/anisocore/metricadapt/internal/tensor"
)

func main() {
	nx := flag.Int("nx", 10, "grid width")
	ny := flag.Int("ny", 10, "grid height")
	hTarget := flag.Float64("h", 0.05, "target isotropic edge length")
	plotPath := flag.String("plot", "convergence.svg", "path to write the convergence plot")
	flag.Parse()

	cfg := config.Default()

	f := field.New(tensor.D2, (*nx)*(*ny))
	lambda := 1 / ((*hTarget) * (*hTarget))
	for i := 0; i < f.Len(); i++ {
		f.SetMetric(i, []float64{lambda, 0, 0, lambda})
	}
	f.ApplyMaxAspectRatio(cfg.RMax)

	mesh := meshfixture.NewGrid(*nx, *ny, f)

	res := adapt.Run(cfg, mesh, mesh, f)

	fmt.Printf("cycle %s terminated: %s\n", res.CycleID, res.Reason)
	fmt.Printf("inner iterations recorded: %d\n", len(res.History))
	if res.Err != nil {
		log.Fatalf("adapt: %v", res.Err)
	}
	fmt.Printf("final L_max=%.4f q_min=%.4f\n", mesh.MaximalEdgeLength(), mesh.QMin())

	if err := diagnostics.PlotConvergence(res.History, *plotPath); err != nil {
		log.Fatalf("adapt: plot convergence: %v", err)
	}
	fmt.Printf("wrote %s\n", *plotPath)
}
