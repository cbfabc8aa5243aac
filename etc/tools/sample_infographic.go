package main

import (
	"fmt"
	"os"
	"strings"

	"traffic-infographic/internal/features/charts"
	"traffic-infographic/internal/features/delivery"
	"traffic-infographic/internal/features/infographic"
)

const sampleCSV = `Month,Organic Search,Social Media,Email,Sales
Jan,1200,800,300,15000
Feb,1350,760,320,16200
Mar,1500,900,410,18100
Apr,1420,950,380,17400
May,1610,1010,450,19800
Jun,1700,980,470,21000
`

// go run etc/tools/sample_infographic.go
// in etc/charts/infographic.png
func main() {
	fmt.Println("Generating sample infographic...")

	if err := os.MkdirAll("etc/charts", 0755); err != nil {
		fmt.Printf("Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	renderer, err := charts.NewRenderer(charts.Options{DPI: charts.DefaultDPI}, nil)
	if err != nil {
		fmt.Printf("Error creating renderer: %v\n", err)
		os.Exit(1)
	}

	ig, err := infographic.NewPipeline(renderer, nil).Build(strings.NewReader(sampleCSV))
	if err != nil {
		fmt.Printf("Error building infographic: %v\n", err)
		os.Exit(1)
	}

	res, err := delivery.NewPersister("etc/charts", delivery.DefaultFilename, nil).Deliver(ig)
	if err != nil {
		fmt.Printf("Error saving infographic: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Infographic generated successfully: %s\n", res.Path)
	fmt.Println("Open the file to see the result!")
}
