// Package main - scenario_runner.go
// Executable to run the headless simulation scenarios.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mbuendia/CiudadViva/server/test"
)

func main() {
	fmt.Println("CIUDADVIVA - HEADLESS SCENARIO SUITE")
	fmt.Println("====================================")

	ctx := context.Background()

	fmt.Println("\nIniciando escenario: La Primera Semana...")
	week := test.NewFirstWeekScenario()
	week.RunScenario(ctx)

	results := week.GetResults()
	passed := 0
	failed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}

	fmt.Println("\n====================================")
	fmt.Println("RESUMEN DE ESCENARIOS")
	fmt.Println("====================================")
	fmt.Printf("   Superadas: %d\n", passed)
	fmt.Printf("   Fallidas:  %d\n", failed)

	if failed > 0 {
		fmt.Println("\nLa simulación requiere recalibración")
		os.Exit(1)
	}
	fmt.Println("\nLa ciudad está lista para el despliegue")
	os.Exit(0)
}
